package models

import "time"

// Notification is a persisted, per-user inbox entry.
type Notification struct {
	ID              uint             `gorm:"primaryKey" json:"id"`
	UserID          uint             `gorm:"not null;index:idx_notifications_user_read" json:"userId"`
	User            *User            `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"-"`
	Type            NotificationType `gorm:"type:varchar(30);not null" json:"type"`
	Message         string           `gorm:"type:text;not null" json:"message"`
	IsRead          bool             `gorm:"not null;default:false;index:idx_notifications_user_read" json:"isRead"`
	RelatedPostID   *uint            `json:"relatedPostId,omitempty"`
	RelatedReportID *uint            `json:"relatedReportId,omitempty"`
	SenderID        *uint            `json:"senderId,omitempty"`
	CreatedAt       time.Time        `gorm:"index" json:"createdAt"`
}
