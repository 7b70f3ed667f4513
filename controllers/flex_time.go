package controllers

import (
	"encoding/json"
	"fmt"
	"time"
)

// Layouts accepted for event times. Values without an offset are taken as UTC,
// a bare date as midnight UTC.
var flexTimeLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02T15:04",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// flexTime decodes RFC 3339 timestamps as well as the offset-less forms
// browsers send from datetime-local inputs.
type flexTime struct {
	time.Time
}

func (t *flexTime) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("time must be a string: %w", err)
	}
	parsed, err := parseFlexTime(s)
	if err != nil {
		return err
	}
	t.Time = parsed
	return nil
}

func parseFlexTime(s string) (time.Time, error) {
	for _, layout := range flexTimeLayouts {
		if parsed, err := time.Parse(layout, s); err == nil {
			return parsed.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("invalid time %q", s)
}
