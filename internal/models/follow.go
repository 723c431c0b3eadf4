package models

import "time"

// Follow is a directed connection edge from Follower to Following.
type Follow struct {
	ID          uint         `gorm:"primaryKey" json:"id"`
	FollowerID  uint         `gorm:"not null;uniqueIndex:idx_follows_pair" json:"followerId"`
	FollowingID uint         `gorm:"not null;uniqueIndex:idx_follows_pair;index" json:"followingId"`
	Status      FollowStatus `gorm:"type:varchar(20);not null;default:'PENDING';index" json:"status"`
	Follower    *User        `gorm:"foreignKey:FollowerID;constraint:OnDelete:CASCADE" json:"-"`
	Following   *User        `gorm:"foreignKey:FollowingID;constraint:OnDelete:CASCADE" json:"-"`
	CreatedAt   time.Time    `json:"createdAt"`
	UpdatedAt   time.Time    `json:"updatedAt"`
}
