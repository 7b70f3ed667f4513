package models

import "time"

// Vote types accepted on posts.
const (
	VoteUp   = "up"
	VoteDown = "down"
)

// Post is an announcement published inside a union.
type Post struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Title     string    `gorm:"size:255;not null" json:"title"`
	Content   string    `gorm:"type:text;not null" json:"content"`
	UnionID   uint      `gorm:"index;not null" json:"union_id"`
	CreatedAt time.Time `json:"created_at"`
}

// PostVote records a single up or down vote. One row per (post, user).
type PostVote struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	PostID    uint      `gorm:"not null;uniqueIndex:uk_post_vote,priority:1" json:"post_id"`
	UserID    uint      `gorm:"not null;uniqueIndex:uk_post_vote,priority:2;index" json:"user_id"`
	VoteType  string    `gorm:"size:8;not null" json:"vote_type"`
	CreatedAt time.Time `json:"created_at"`
}

func (PostVote) TableName() string { return "post_votes" }

// PostView carries the vote and comment counts computed at read time.
type PostView struct {
	Post
	Upvotes      int64      `json:"upvotes"`
	Downvotes    int64      `json:"downvotes"`
	CommentCount int64      `json:"comment_count"`
	Feedbacks    []Feedback `json:"feedbacks,omitempty"`
}
