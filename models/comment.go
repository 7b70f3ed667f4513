package models

import "time"

// Comment represents a reply to a post.
type Comment struct {
	ID        uint        `gorm:"primaryKey" json:"id"`
	PostID    uint        `gorm:"index;not null" json:"post_id"`
	UserID    uint        `gorm:"index;not null" json:"user_id"`
	Content   string      `gorm:"type:text;not null" json:"content"`
	CreatedAt time.Time   `json:"created_at"`
	UpdatedAt time.Time   `json:"updated_at"`
	User      UserSummary `gorm:"-" json:"user"`
}
