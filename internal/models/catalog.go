package models

import "time"

// Category groups shop products.
type Category struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	Name        string    `gorm:"uniqueIndex;size:100;not null" json:"name"`
	Description string    `gorm:"type:text" json:"description"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// Product is a shop item with tracked stock.
type Product struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	Name        string    `gorm:"size:150;not null" json:"name"`
	Description string    `gorm:"type:text" json:"description"`
	Price       float64   `gorm:"type:numeric(10,2);not null" json:"price"`
	Quantity    int       `gorm:"not null;default:0" json:"quantity"`
	ImageURL    string    `json:"imageUrl"`
	IsAvailable bool      `gorm:"not null;default:false" json:"isAvailable"`
	CategoryID  uint      `gorm:"not null;index" json:"categoryId"`
	Category    *Category `gorm:"foreignKey:CategoryID;constraint:OnDelete:RESTRICT" json:"-"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// SyncAvailability recomputes IsAvailable from the stock level.
func (p *Product) SyncAvailability() {
	p.IsAvailable = p.Quantity > 0
}
