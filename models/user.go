package models

import (
	"time"

	"gorm.io/gorm"
)

// Roles a user can hold. They are coarse tiers, not per-resource ACLs.
const (
	RoleMember    = "member"
	RoleOrganizer = "organizer"
	RoleAdmin     = "admin"
)

// ValidRole reports whether role is one of the known tiers.
func ValidRole(role string) bool {
	switch role {
	case RoleMember, RoleOrganizer, RoleAdmin:
		return true
	}
	return false
}

// User represents a platform account. Passwords are stored as bcrypt hashes only.
type User struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	Username     string    `gorm:"size:64;not null;uniqueIndex:uk_users_username" json:"username"`
	PasswordHash string    `gorm:"size:255;not null" json:"-"`
	Role         string    `gorm:"size:16;not null;default:'member'" json:"role"`
	CreatedAt    time.Time `json:"created_at"`
}

// BeforeCreate fills the role and timestamp when the caller left them empty.
func (u *User) BeforeCreate(tx *gorm.DB) error {
	if u.Role == "" {
		u.Role = RoleMember
	}
	if u.CreatedAt.IsZero() {
		u.CreatedAt = time.Now()
	}
	return nil
}

// HasRole reports whether the user's role is in the allowed set.
func (u User) HasRole(allowed ...string) bool {
	for _, r := range allowed {
		if u.Role == r {
			return true
		}
	}
	return false
}

// UserSummary is the public identity attached to comments, events and attendee lists.
type UserSummary struct {
	ID       uint   `json:"id"`
	Username string `json:"username"`
}

// Summary returns the public identity of u.
func (u User) Summary() UserSummary {
	return UserSummary{ID: u.ID, Username: u.Username}
}
