package models

// All returns every persisted model in migration order.
func All() []interface{} {
	return []interface{}{
		&User{},
		&Union{},
		&UnionMembership{},
		&Post{},
		&PostVote{},
		&Comment{},
		&Feedback{},
		&Poll{},
		&PollOption{},
		&PollVote{},
		&Event{},
		&EventAttendee{},
	}
}
