package models

import "time"

// User is a registered PetConnect account.
type User struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Username  string    `gorm:"uniqueIndex;size:50;not null" json:"username"`
	Email     string    `gorm:"uniqueIndex;size:255;not null" json:"email"`
	Password  string    `gorm:"not null" json:"-"`
	FullName  string    `gorm:"size:100;not null" json:"fullName"`
	Phone     string    `gorm:"size:20" json:"phone"`
	ImageURL  string    `json:"imageUrl"`
	Bio       string    `gorm:"type:text" json:"bio"`
	Latitude  *float64  `json:"latitude"`
	Longitude *float64  `json:"longitude"`
	Role      Role      `gorm:"type:varchar(10);not null;default:'USER';index" json:"role"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// IsAdmin reports whether the user holds the ADMIN role.
func (u *User) IsAdmin() bool {
	return u != nil && u.Role == RoleAdmin
}

// HasLocation reports whether both coordinates are stored.
func (u *User) HasLocation() bool {
	return u != nil && u.Latitude != nil && u.Longitude != nil
}
