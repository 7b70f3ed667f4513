package models

import "time"

// MinPollOptions is the smallest number of options a poll can be created with.
const MinPollOptions = 2

// Poll is a question with a fixed set of options, optionally scoped to a union.
type Poll struct {
	ID        uint         `gorm:"primaryKey" json:"id"`
	Question  string       `gorm:"size:500;not null" json:"question"`
	UnionID   *uint        `gorm:"index" json:"union_id"`
	CreatedAt time.Time    `json:"created_at"`
	Options   []PollOption `gorm:"-" json:"options"`
}

// PollOption is one answer of a poll.
type PollOption struct {
	ID     uint   `gorm:"primaryKey" json:"id"`
	PollID uint   `gorm:"index;not null" json:"poll_id"`
	Text   string `gorm:"size:255;not null" json:"text"`
}

func (PollOption) TableName() string { return "poll_options" }

// PollVote is a user's single vote in a poll. One row per (poll, user).
type PollVote struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	PollID    uint      `gorm:"not null;uniqueIndex:uk_poll_vote,priority:1" json:"poll_id"`
	OptionID  uint      `gorm:"not null;index" json:"option_id"`
	UserID    uint      `gorm:"not null;uniqueIndex:uk_poll_vote,priority:2" json:"user_id"`
	CreatedAt time.Time `json:"created_at"`
}

func (PollVote) TableName() string { return "votes" }

// OptionResult is the tally for a single option.
type OptionResult struct {
	OptionID uint   `json:"option_id"`
	Text     string `json:"text"`
	Votes    int64  `json:"votes"`
}

// PollResults is the response of the results endpoint.
type PollResults struct {
	PollID     uint           `json:"poll_id"`
	Question   string         `json:"question"`
	Results    []OptionResult `json:"results"`
	TotalVotes int64          `json:"total_votes"`
}
