package models

import "time"

// Post is a feed entry.
type Post struct {
	ID          uint       `gorm:"primaryKey" json:"id"`
	Title       string     `gorm:"size:200;not null" json:"title"`
	Description string     `gorm:"type:text" json:"description"`
	ImageURL    string     `json:"imageUrl"`
	Visibility  Visibility `gorm:"type:varchar(20);not null;default:'PUBLIC'" json:"visibility"`
	UserID      uint       `gorm:"not null;index" json:"userId"`
	User        *User      `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"-"`
	// LikesCount is not persisted; computed at query time
	LikesCount int `gorm:"->;-:migration" json:"likesCount"`
	// CommentsCount is not persisted; computed at query time
	CommentsCount int `gorm:"->;-:migration" json:"commentsCount"`
	// LikedByMe indicates whether the requesting user liked this post (computed)
	LikedByMe bool      `gorm:"->;-:migration" json:"likedByMe"`
	CreatedAt time.Time `gorm:"index" json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// Comment is a reply on a post.
type Comment struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Content   string    `gorm:"type:text;not null" json:"content"`
	PostID    uint      `gorm:"not null;index" json:"postId"`
	Post      *Post     `gorm:"foreignKey:PostID;constraint:OnDelete:CASCADE" json:"-"`
	UserID    uint      `gorm:"not null;index" json:"userId"`
	User      *User     `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"-"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// PostLike records one user liking one post.
type PostLike struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	UserID    uint      `gorm:"not null;uniqueIndex:idx_post_likes_user_post" json:"userId"`
	PostID    uint      `gorm:"not null;uniqueIndex:idx_post_likes_user_post;index" json:"postId"`
	User      *User     `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"-"`
	Post      *Post     `gorm:"foreignKey:PostID;constraint:OnDelete:CASCADE" json:"-"`
	CreatedAt time.Time `json:"createdAt"`
}
