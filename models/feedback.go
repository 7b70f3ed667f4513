package models

import "time"

// Feedback is a message about a post, or about the platform when PostID is nil.
// The submitter is never stored.
type Feedback struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	PostID    *uint     `gorm:"index" json:"post_id"`
	Anonymous bool      `gorm:"not null;default:false" json:"anonymous"`
	Message   string    `gorm:"type:text;not null" json:"message"`
	CreatedAt time.Time `json:"created_at"`
}
