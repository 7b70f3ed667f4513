package models

import "time"

// Union is a topical community users can join.
type Union struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	Name        string    `gorm:"size:150;not null;uniqueIndex:uk_unions_name" json:"name"`
	Description *string   `gorm:"type:text" json:"description"`
	Industry    *string   `gorm:"size:100;index" json:"industry"`
	Tags        *string   `gorm:"size:512" json:"tags"`
	CreatedAt   time.Time `json:"created_at"`
}

// UnionMembership links a user to a union. One row per (union, user).
type UnionMembership struct {
	ID       uint      `gorm:"primaryKey" json:"id"`
	UnionID  uint      `gorm:"not null;uniqueIndex:uk_union_member,priority:1" json:"union_id"`
	UserID   uint      `gorm:"not null;uniqueIndex:uk_union_member,priority:2;index" json:"user_id"`
	JoinedAt time.Time `gorm:"autoCreateTime" json:"joined_at"`
}

func (UnionMembership) TableName() string { return "union_members" }

// UnionView is the response shape for unions, with per-row aggregates.
type UnionView struct {
	Union
	MemberCount int64 `json:"member_count"`
	IsMember    bool  `json:"is_member"`
}

// MemberView lists a union member.
type MemberView struct {
	ID       uint   `json:"id"`
	Username string `json:"username"`
	Role     string `json:"role"`
}
