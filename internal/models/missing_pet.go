package models

import "time"

// MissingPetReport is a lost-or-found board entry.
type MissingPetReport struct {
	ID               uint                `gorm:"primaryKey" json:"id"`
	PetID            *uint               `gorm:"index" json:"petId"`
	PetName          string              `gorm:"size:100;not null" json:"petName"`
	Species          string              `gorm:"size:50;not null;index" json:"species"`
	Breed            *string             `gorm:"size:100" json:"breed"`
	Description      string              `gorm:"type:text" json:"description"`
	LastSeenLocation string              `gorm:"size:255" json:"lastSeenLocation"`
	Latitude         float64             `gorm:"not null" json:"latitude"`
	Longitude        float64             `gorm:"not null" json:"longitude"`
	ImageURL         string              `json:"imageUrl"`
	Status           ReportStatus        `gorm:"type:varchar(20);not null;default:'MISSING';index" json:"status"`
	ReporterID       uint                `gorm:"not null;index" json:"reporterId"`
	Reporter         *User               `gorm:"foreignKey:ReporterID;constraint:OnDelete:CASCADE" json:"-"`
	Contacts         []MissingPetContact `gorm:"foreignKey:ReportID" json:"-"`
	// ContactCount is not persisted; computed at query time
	ContactCount int       `gorm:"->;-:migration" json:"contactCount"`
	CreatedAt    time.Time `gorm:"index" json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

// MissingPetContact records someone reaching out about a report.
type MissingPetContact struct {
	ID            uint              `gorm:"primaryKey" json:"id"`
	ReportID      uint              `gorm:"not null;index" json:"reportId"`
	Report        *MissingPetReport `gorm:"foreignKey:ReportID;constraint:OnDelete:CASCADE" json:"-"`
	ContactUserID uint              `gorm:"not null;index" json:"contactUserId"`
	ContactUser   *User             `gorm:"foreignKey:ContactUserID;constraint:OnDelete:CASCADE" json:"-"`
	Message       string            `gorm:"type:text;not null" json:"message"`
	ContactPhone  string            `gorm:"size:20" json:"contactPhone"`
	ContactEmail  string            `gorm:"size:255" json:"contactEmail"`
	CreatedAt     time.Time         `json:"createdAt"`
}
