package models

import "time"

// Event is a scheduled gathering users can RSVP to.
type Event struct {
	ID          uint       `gorm:"primaryKey" json:"id"`
	Title       string     `gorm:"size:255;not null" json:"title"`
	Description *string    `gorm:"type:text" json:"description"`
	Location    *string    `gorm:"size:255" json:"location"`
	StartTime   time.Time  `gorm:"not null;index" json:"start_time"`
	EndTime     *time.Time `json:"end_time"`
	UnionID     *uint      `gorm:"index" json:"union_id"`
	CreatorID   uint       `gorm:"index;not null" json:"creator_id"`
	CreatedAt   time.Time  `json:"created_at"`
}

// EventAttendee is an RSVP. One row per (event, user).
type EventAttendee struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	EventID   uint      `gorm:"not null;uniqueIndex:uk_event_attendee,priority:1" json:"event_id"`
	UserID    uint      `gorm:"not null;uniqueIndex:uk_event_attendee,priority:2;index" json:"user_id"`
	CreatedAt time.Time `json:"created_at"`
}

func (EventAttendee) TableName() string { return "event_attendees" }

// EventView embeds the creator and the attendee count.
type EventView struct {
	Event
	Creator       UserSummary `json:"creator"`
	AttendeeCount int64       `json:"attendee_count"`
	IsAttending   *bool       `json:"is_attending,omitempty"`
}

// AttendeeView lists a user who RSVP'd.
type AttendeeView struct {
	UserID   uint   `json:"user_id"`
	Username string `json:"username"`
}
