package controllers

import (
	"encoding/json"
	"errors"
	"reflect"
	"testing"
	"time"

	"github.com/sandarika/labubananas/models"
)

func TestTally(t *testing.T) {
	options := []models.PollOption{
		{ID: 7, Text: "A"},
		{ID: 3, Text: "B"},
		{ID: 9, Text: "C"},
	}
	counts := map[uint]int64{3: 4, 9: 1, 42: 10}

	results, total := tally(options, counts)

	want := []models.OptionResult{
		{OptionID: 7, Text: "A", Votes: 0},
		{OptionID: 3, Text: "B", Votes: 4},
		{OptionID: 9, Text: "C", Votes: 1},
	}
	if !reflect.DeepEqual(results, want) {
		t.Errorf("tally() results = %+v, want %+v", results, want)
	}
	if total != 5 {
		t.Errorf("tally() total = %d, want 5 (votes for unknown options are ignored)", total)
	}

	if results, total := tally(nil, nil); len(results) != 0 || total != 0 {
		t.Errorf("tally(nil) = %v, %d", results, total)
	}
}

func TestValidateEventTimes(t *testing.T) {
	start := time.Date(2030, 5, 1, 18, 0, 0, 0, time.UTC)
	later := start.Add(time.Hour)
	earlier := start.Add(-30 * time.Minute)

	tests := []struct {
		name    string
		end     *time.Time
		wantErr bool
	}{
		{"no end", nil, false},
		{"end after start", &later, false},
		{"end equal to start", &start, false},
		{"end before start", &earlier, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := validateEventTimes(start, tt.end)
			if tt.wantErr != errors.Is(err, errEndBeforeStart) {
				t.Errorf("validateEventTimes() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestParseFlexTime(t *testing.T) {
	tests := []struct {
		in      string
		want    time.Time
		wantErr bool
	}{
		{"2030-05-01T18:00:00Z", time.Date(2030, 5, 1, 18, 0, 0, 0, time.UTC), false},
		{"2030-05-01T18:00:00+02:00", time.Date(2030, 5, 1, 16, 0, 0, 0, time.UTC), false},
		{"2030-05-01T18:00:00.5", time.Date(2030, 5, 1, 18, 0, 0, 500000000, time.UTC), false},
		{"2030-05-01T18:00", time.Date(2030, 5, 1, 18, 0, 0, 0, time.UTC), false},
		{"2030-05-01 18:00:00", time.Date(2030, 5, 1, 18, 0, 0, 0, time.UTC), false},
		{"2030-05-01", time.Date(2030, 5, 1, 0, 0, 0, 0, time.UTC), false},
		{"2030-05-01T18:00:00-05:00", time.Date(2030, 5, 1, 23, 0, 0, 0, time.UTC), false},
		{"tomorrow", time.Time{}, true},
		{"", time.Time{}, true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := parseFlexTime(tt.in)
			if (err != nil) != tt.wantErr {
				t.Fatalf("parseFlexTime() error = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.wantErr {
				return
			}
			if !got.Equal(tt.want) {
				t.Errorf("parseFlexTime() = %v, want %v", got, tt.want)
			}
			if got.Location() != time.UTC {
				t.Errorf("parseFlexTime() location = %v, want UTC", got.Location())
			}
		})
	}
}

func TestFlexTimeUnmarshal(t *testing.T) {
	var req eventRequest
	body := `{"title":"Rally","start_time":"2030-05-01T18:00","end_time":null}`
	if err := json.Unmarshal([]byte(body), &req); err != nil {
		t.Fatalf("Unmarshal() error = %v", err)
	}
	if req.StartTime == nil || req.StartTime.Hour() != 18 {
		t.Errorf("start_time = %v", req.StartTime)
	}
	if req.EndTime != nil {
		t.Errorf("null end_time should stay nil, got %v", req.EndTime)
	}

	if err := json.Unmarshal([]byte(`{"start_time":12}`), &req); err == nil {
		t.Error("numeric start_time should be rejected")
	}
}

func TestNormalizeVoteType(t *testing.T) {
	tests := map[string]string{
		"up":       models.VoteUp,
		" UP ":     models.VoteUp,
		"upvote":   models.VoteUp,
		"down":     models.VoteDown,
		"Downvote": models.VoteDown,
	}
	for in, want := range tests {
		got, err := normalizeVoteType(in)
		if err != nil || got != want {
			t.Errorf("normalizeVoteType(%q) = %q, %v; want %q", in, got, err, want)
		}
	}
	if _, err := normalizeVoteType("sideways"); !errors.Is(err, errInvalidVoteType) {
		t.Errorf("normalizeVoteType(sideways) error = %v", err)
	}
}

func TestPollOptionInputUnmarshal(t *testing.T) {
	var req struct {
		Options []pollOptionInput `json:"options"`
	}
	if err := json.Unmarshal([]byte(`{"options":["A",{"text":"B"}]}`), &req); err != nil {
		t.Fatalf("Unmarshal() error = %v", err)
	}
	if len(req.Options) != 2 || req.Options[0].Text != "A" || req.Options[1].Text != "B" {
		t.Errorf("options = %+v", req.Options)
	}
	if err := json.Unmarshal([]byte(`{"options":[1]}`), &req); err == nil {
		t.Error("numeric option should be rejected")
	}
}

func TestAnswerQuestion(t *testing.T) {
	tests := []struct {
		question  string
		wantFirst string
		wantLen   int
	}{
		{"Am I owed OVERTIME pay?", "Track worked hours accurately and keep personal records.", 2},
		{"My boss threatened to fire me", "Document incidents and communications in writing.", 2},
		{"overtime and retaliation", "Track worked hours accurately and keep personal records.", 4},
		{"How do I start a union?", "Document facts, dates, and communications.", 3},
	}
	for _, tt := range tests {
		t.Run(tt.question, func(t *testing.T) {
			got := answerQuestion(tt.question)
			if got.Answer != assistantDisclaimer {
				t.Errorf("answer = %q", got.Answer)
			}
			if len(got.Suggestions) != tt.wantLen || got.Suggestions[0] != tt.wantFirst {
				t.Errorf("suggestions = %v", got.Suggestions)
			}
		})
	}
}
