package models

import "time"

// CartItem is one product line in a user's cart.
type CartItem struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	UserID    uint      `gorm:"not null;uniqueIndex:idx_cart_items_user_product" json:"userId"`
	ProductID uint      `gorm:"not null;uniqueIndex:idx_cart_items_user_product" json:"productId"`
	Quantity  int       `gorm:"not null" json:"quantity"`
	User      *User     `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"-"`
	Product   *Product  `gorm:"foreignKey:ProductID;constraint:OnDelete:CASCADE" json:"-"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// Order is a completed checkout.
type Order struct {
	ID            uint        `gorm:"primaryKey" json:"id"`
	UserID        uint        `gorm:"not null;index" json:"userId"`
	User          *User       `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"-"`
	TotalPrice    float64     `gorm:"type:numeric(10,2);not null" json:"totalPrice"`
	Status        OrderStatus `gorm:"type:varchar(20);not null;default:'PENDING'" json:"status"`
	TransactionID *string     `gorm:"size:100" json:"transactionId"`
	Items         []OrderItem `gorm:"foreignKey:OrderID" json:"items"`
	CreatedAt     time.Time   `gorm:"index" json:"createdAt"`
	UpdatedAt     time.Time   `json:"updatedAt"`
}

// OrderItem is a product line frozen at checkout price.
type OrderItem struct {
	ID              uint     `gorm:"primaryKey" json:"id"`
	OrderID         uint     `gorm:"not null;index" json:"orderId"`
	Order           *Order   `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE" json:"-"`
	ProductID       uint     `gorm:"not null;index" json:"productId"`
	Product         *Product `gorm:"foreignKey:ProductID" json:"-"`
	Quantity        int      `gorm:"not null" json:"quantity"`
	PriceAtPurchase float64  `gorm:"type:numeric(10,2);not null" json:"priceAtPurchase"`
}
