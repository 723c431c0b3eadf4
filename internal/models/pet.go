package models

import "time"

// Pet is a pet profile owned by a user.
type Pet struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Name      string    `gorm:"size:100;not null" json:"name"`
	Species   string    `gorm:"size:50;not null" json:"species"`
	Breed     string    `gorm:"size:100" json:"breed"`
	Age       int       `json:"age"`
	ImageURL  string    `json:"imageUrl"`
	UserID    uint      `gorm:"not null;index" json:"userId"`
	User      *User     `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"-"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}
