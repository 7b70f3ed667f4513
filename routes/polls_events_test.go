package routes

import (
	"fmt"
	"net/http"
	"testing"
	"time"

	"github.com/sandarika/labubananas/controllers"
	"github.com/sandarika/labubananas/models"
	"github.com/sandarika/labubananas/testutil"
)

func TestCreatePollValidation(t *testing.T) {
	s := newTestServer(t)
	organizer := s.user("olga", models.RoleOrganizer)
	member := s.user("mike", models.RoleMember)

	tests := []struct {
		name       string
		as         models.User
		body       map[string]interface{}
		wantStatus int
		wantDetail string
	}{
		{"member forbidden", member, map[string]interface{}{"question": "q", "options": []string{"a", "b"}}, http.StatusForbidden, "Insufficient permissions"},
		{"no options", organizer, map[string]interface{}{"question": "q"}, http.StatusBadRequest, "A poll requires at least two options"},
		{"one option", organizer, map[string]interface{}{"question": "q", "options": []string{"only"}}, http.StatusBadRequest, "A poll requires at least two options"},
		{"blank option", organizer, map[string]interface{}{"question": "q", "options": []string{"a", " "}}, http.StatusBadRequest, "option text cannot be empty"},
		{"unknown union", organizer, map[string]interface{}{"question": "q", "union_id": 42, "options": []string{"a", "b"}}, http.StatusNotFound, "Union not found"},
		{"object options", organizer, map[string]interface{}{"question": "q", "options": []map[string]string{{"text": "a"}, {"text": "b"}, {"text": "c"}}}, http.StatusOK, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := s.do(http.MethodPost, "/api/polls/", tt.body, &tt.as)
			if tt.wantDetail != "" {
				testutil.AssertDetail(t, w, tt.wantStatus, tt.wantDetail)
				return
			}
			testutil.AssertStatus(t, w, tt.wantStatus)
		})
	}

	var polls int64
	s.db.Model(&models.Poll{}).Count(&polls)
	if polls != 1 {
		t.Errorf("stored polls = %d, want only the valid one", polls)
	}
}

func TestPollReads(t *testing.T) {
	s := newTestServer(t)
	older := testutil.CreateTestPoll(t, s.db, "older", "x", "y")
	newer := testutil.CreateTestPoll(t, s.db, "newer", "1", "2", "3")

	w := s.do(http.MethodGet, "/api/polls/", nil, nil)
	testutil.AssertStatus(t, w, http.StatusOK)
	var polls []models.Poll
	testutil.AssertJSON(t, w, &polls)
	if len(polls) != 2 || polls[0].ID != newer.ID || polls[1].ID != older.ID {
		t.Fatalf("polls = %+v, want newest first", polls)
	}
	if len(polls[0].Options) != 3 || polls[0].Options[0].Text != "1" {
		t.Errorf("options = %+v", polls[0].Options)
	}

	w = s.do(http.MethodGet, path("/polls/%d", older.ID), nil, nil)
	testutil.AssertStatus(t, w, http.StatusOK)
	var poll models.Poll
	testutil.AssertJSON(t, w, &poll)
	if poll.Question != "older" || len(poll.Options) != 2 {
		t.Errorf("poll = %+v", poll)
	}

	w = s.do(http.MethodGet, "/api/polls/999", nil, nil)
	testutil.AssertDetail(t, w, http.StatusNotFound, "Poll not found")
	w = s.do(http.MethodGet, "/api/polls/999/results", nil, nil)
	testutil.AssertDetail(t, w, http.StatusNotFound, "Poll not found")
}

func TestPollVoteErrors(t *testing.T) {
	s := newTestServer(t)
	alice := s.user("alice", models.RoleMember)
	poll := testutil.CreateTestPoll(t, s.db, "q", "a", "b")
	other := testutil.CreateTestPoll(t, s.db, "other", "c", "d")

	w := s.do(http.MethodPost, path("/polls/%d/vote", poll.ID), map[string]uint{"option_id": poll.Options[0].ID}, nil)
	testutil.AssertStatus(t, w, http.StatusUnauthorized)

	w = s.do(http.MethodPost, path("/polls/%d/vote", poll.ID), map[string]uint{"option_id": other.Options[0].ID}, &alice)
	testutil.AssertDetail(t, w, http.StatusNotFound, "Option not found for this poll")

	w = s.do(http.MethodPost, "/api/polls/999/vote", map[string]uint{"option_id": poll.Options[0].ID}, &alice)
	testutil.AssertDetail(t, w, http.StatusNotFound, "Poll not found")

	w = s.do(http.MethodPost, path("/polls/%d/vote", poll.ID), map[string]string{}, &alice)
	testutil.AssertStatus(t, w, http.StatusBadRequest)

	// The failed attempts did not use up alice's vote.
	w = s.do(http.MethodPost, path("/polls/%d/vote", poll.ID), map[string]uint{"option_id": poll.Options[1].ID}, &alice)
	testutil.AssertStatus(t, w, http.StatusOK)
	var results models.PollResults
	testutil.AssertJSON(t, w, &results)
	if results.TotalVotes != 1 || results.Results[1].Votes != 1 {
		t.Errorf("results = %+v", results)
	}
}

func TestPollTallySumsToVoters(t *testing.T) {
	s := newTestServer(t)
	poll := testutil.CreateTestPoll(t, s.db, "lunch", "pizza", "tacos", "salad")

	const voters = 7
	for i := 0; i < voters; i++ {
		u := s.user(fmt.Sprintf("voter%d", i), models.RoleMember)
		option := poll.Options[i%2] // nobody picks salad
		w := s.do(http.MethodPost, path("/polls/%d/vote", poll.ID), map[string]uint{"option_id": option.ID}, &u)
		testutil.AssertStatus(t, w, http.StatusOK)
	}

	w := s.do(http.MethodGet, path("/polls/%d/results", poll.ID), nil, nil)
	var results models.PollResults
	testutil.AssertJSON(t, w, &results)

	var sum int64
	for _, r := range results.Results {
		sum += r.Votes
	}
	if sum != voters || results.TotalVotes != voters {
		t.Errorf("sum = %d total = %d, want %d", sum, results.TotalVotes, voters)
	}
	want := []int64{4, 3, 0}
	for i, r := range results.Results {
		if r.OptionID != poll.Options[i].ID || r.Votes != want[i] {
			t.Errorf("result %d = %+v, want option %d with %d votes", i, r, poll.Options[i].ID, want[i])
		}
	}
}

func TestDeletePoll(t *testing.T) {
	s := newTestServer(t)
	organizer := s.user("olga", models.RoleOrganizer)
	member := s.user("mike", models.RoleMember)
	poll := testutil.CreateTestPoll(t, s.db, "q", "a", "b")
	s.do(http.MethodPost, path("/polls/%d/vote", poll.ID), map[string]uint{"option_id": poll.Options[0].ID}, &member)

	w := s.do(http.MethodDelete, path("/polls/%d", poll.ID), nil, &member)
	testutil.AssertStatus(t, w, http.StatusForbidden)

	w = s.do(http.MethodDelete, path("/polls/%d", poll.ID), nil, &organizer)
	testutil.AssertStatus(t, w, http.StatusOK)

	for _, model := range []interface{}{&models.Poll{}, &models.PollOption{}, &models.PollVote{}} {
		var n int64
		s.db.Model(model).Count(&n)
		if n != 0 {
			t.Errorf("%T rows left: %d", model, n)
		}
	}
	w = s.do(http.MethodGet, path("/polls/%d/results", poll.ID), nil, nil)
	testutil.AssertStatus(t, w, http.StatusNotFound)
}

func eventBody(title string, start time.Time, end *time.Time) map[string]interface{} {
	body := map[string]interface{}{"title": title, "start_time": start.Format(time.RFC3339)}
	if end != nil {
		body["end_time"] = end.Format(time.RFC3339)
	}
	return body
}

func TestCreateEvent(t *testing.T) {
	s := newTestServer(t)
	organizer := s.user("olga", models.RoleOrganizer)
	member := s.user("mike", models.RoleMember)
	start := time.Now().Add(24 * time.Hour).UTC().Truncate(time.Second)
	later := start.Add(2 * time.Hour)

	w := s.do(http.MethodPost, "/api/events/", eventBody("Rally", start, nil), &member)
	testutil.AssertDetail(t, w, http.StatusForbidden, "Insufficient permissions")

	w = s.do(http.MethodPost, "/api/events/", map[string]interface{}{"title": "No start"}, &organizer)
	testutil.AssertStatus(t, w, http.StatusBadRequest)

	body := eventBody("Rally", start, nil)
	body["union_id"] = 77
	w = s.do(http.MethodPost, "/api/events/", body, &organizer)
	testutil.AssertDetail(t, w, http.StatusNotFound, "Union not found")

	for name, end := range map[string]*time.Time{"no end": nil, "end equals start": &start, "end after start": &later} {
		t.Run(name, func(t *testing.T) {
			w := s.do(http.MethodPost, "/api/events/", eventBody(name, start, end), &organizer)
			testutil.AssertStatus(t, w, http.StatusOK)
			var view models.EventView
			testutil.AssertJSON(t, w, &view)
			if view.Creator.Username != "olga" || view.AttendeeCount != 0 || !view.StartTime.Equal(start) {
				t.Errorf("view = %+v", view)
			}
			if view.IsAttending != nil {
				t.Errorf("is_attending should be omitted on create")
			}
		})
	}
}

func TestEventReadsAndRSVP(t *testing.T) {
	s := newTestServer(t)
	organizer := s.user("olga", models.RoleOrganizer)
	alice := s.user("alice", models.RoleMember)
	bob := s.user("bob", models.RoleMember)
	soon := testutil.CreateTestEvent(t, s.db, organizer.ID, "soon")
	late := models.Event{Title: "late", StartTime: time.Now().Add(72 * time.Hour).UTC(), CreatorID: organizer.ID}
	s.db.Create(&late)

	w := s.do(http.MethodGet, "/api/events/", nil, nil)
	testutil.AssertStatus(t, w, http.StatusOK)
	var events []models.EventView
	testutil.AssertJSON(t, w, &events)
	if len(events) != 2 || events[0].Title != "late" || events[1].Title != "soon" {
		t.Fatalf("events = %+v, want latest start first", events)
	}

	rsvp := path("/events/%d/rsvp", soon.ID)
	w = s.do(http.MethodPost, rsvp, nil, &alice)
	testutil.AssertStatus(t, w, http.StatusOK)
	var resp controllers.RSVPResponse
	testutil.AssertJSON(t, w, &resp)
	if resp.Message != "RSVP successful" || resp.AttendeeCount != 1 {
		t.Errorf("rsvp = %+v", resp)
	}

	w = s.do(http.MethodPost, rsvp, nil, &alice)
	testutil.AssertDetail(t, w, http.StatusBadRequest, "Already RSVP'd to this event")

	w = s.do(http.MethodPost, rsvp, nil, &bob)
	testutil.AssertStatus(t, w, http.StatusOK)

	w = s.do(http.MethodGet, path("/events/%d", soon.ID), nil, &alice)
	var view models.EventView
	testutil.AssertJSON(t, w, &view)
	if view.AttendeeCount != 2 || view.IsAttending == nil || !*view.IsAttending {
		t.Errorf("view for alice = %+v", view)
	}
	w = s.do(http.MethodGet, path("/events/%d", late.ID), nil, &alice)
	view = models.EventView{}
	testutil.AssertJSON(t, w, &view)
	if view.IsAttending == nil || *view.IsAttending {
		t.Errorf("alice is not attending the late event: %+v", view.IsAttending)
	}

	w = s.do(http.MethodGet, path("/events/%d/attendees", soon.ID), nil, nil)
	testutil.AssertStatus(t, w, http.StatusOK)
	var attendees controllers.AttendeesResponse
	testutil.AssertJSON(t, w, &attendees)
	if attendees.AttendeeCount != 2 || attendees.Attendees[0].Username != "alice" || attendees.Attendees[1].Username != "bob" {
		t.Errorf("attendees = %+v", attendees)
	}

	w = s.do(http.MethodDelete, rsvp, nil, &alice)
	testutil.AssertStatus(t, w, http.StatusOK)
	resp = controllers.RSVPResponse{}
	testutil.AssertJSON(t, w, &resp)
	if resp.Message != "RSVP cancelled" || resp.AttendeeCount != 1 {
		t.Errorf("cancel = %+v", resp)
	}

	w = s.do(http.MethodDelete, rsvp, nil, &alice)
	testutil.AssertDetail(t, w, http.StatusNotFound, "RSVP not found")

	w = s.do(http.MethodPost, rsvp, nil, &alice)
	testutil.AssertStatus(t, w, http.StatusOK)

	w = s.do(http.MethodPost, "/api/events/999/rsvp", nil, &alice)
	testutil.AssertDetail(t, w, http.StatusNotFound, "Event not found")
	w = s.do(http.MethodGet, "/api/events/999", nil, nil)
	testutil.AssertDetail(t, w, http.StatusNotFound, "Event not found")
}

func TestUpdateAndDeleteEvent(t *testing.T) {
	s := newTestServer(t)
	creator := s.user("olga", models.RoleOrganizer)
	otherOrganizer := s.user("otto", models.RoleOrganizer)
	member := s.user("mike", models.RoleMember)
	event := testutil.CreateTestEvent(t, s.db, creator.ID, "Rally")
	s.do(http.MethodPost, path("/events/%d/rsvp", event.ID), nil, &member)
	target := path("/events/%d", event.ID)
	start := event.StartTime.Truncate(time.Second)

	w := s.do(http.MethodPut, target, eventBody("Mine now", start, nil), &member)
	testutil.AssertDetail(t, w, http.StatusForbidden, "Only the event creator or admins can edit this event")

	body := eventBody("Rally", start, nil)
	body["location"] = "Main hall"
	w = s.do(http.MethodPut, target, body, &creator)
	testutil.AssertStatus(t, w, http.StatusOK)
	var view models.EventView
	testutil.AssertJSON(t, w, &view)
	if view.Title != "Rally" || view.Location == nil || *view.Location != "Main hall" || view.AttendeeCount != 1 || view.CreatorID != creator.ID {
		t.Errorf("updated = %+v", view)
	}

	before := start.Add(-time.Hour)
	w = s.do(http.MethodPut, target, eventBody("Rally", start, &before), &otherOrganizer)
	testutil.AssertDetail(t, w, http.StatusBadRequest, "end_time must be after start_time")

	w = s.do(http.MethodPut, target, map[string]string{"location": "Elsewhere"}, &otherOrganizer)
	testutil.AssertDetail(t, w, http.StatusBadRequest, "title cannot be empty")

	w = s.do(http.MethodPut, target, eventBody("Big Rally", start, nil), &otherOrganizer)
	testutil.AssertStatus(t, w, http.StatusOK)
	view = models.EventView{}
	testutil.AssertJSON(t, w, &view)
	if view.Title != "Big Rally" || view.Location != nil {
		t.Errorf("omitted location should be cleared: %+v", view)
	}

	w = s.do(http.MethodDelete, target, nil, &member)
	testutil.AssertDetail(t, w, http.StatusForbidden, "Only the event creator or admins can delete this event")

	w = s.do(http.MethodDelete, target, nil, &creator)
	testutil.AssertStatus(t, w, http.StatusOK)

	var attendees int64
	s.db.Model(&models.EventAttendee{}).Count(&attendees)
	if attendees != 0 {
		t.Errorf("attendees left after delete: %d", attendees)
	}
	w = s.do(http.MethodGet, target, nil, nil)
	testutil.AssertStatus(t, w, http.StatusNotFound)
}

func TestUpdateEventClearsEndTime(t *testing.T) {
	s := newTestServer(t)
	organizer := s.user("olga", models.RoleOrganizer)
	start := time.Date(2030, 5, 1, 10, 0, 0, 0, time.UTC)
	end := start.Add(2 * time.Hour)

	w := s.do(http.MethodPost, "/api/events/", eventBody("Shift meeting", start, &end), &organizer)
	testutil.AssertStatus(t, w, http.StatusOK)
	var created models.EventView
	testutil.AssertJSON(t, w, &created)

	nextDay := start.Add(24 * time.Hour)
	body := eventBody("Shift meeting", nextDay, nil)
	body["end_time"] = nil
	w = s.do(http.MethodPut, path("/events/%d", created.ID), body, &organizer)
	testutil.AssertStatus(t, w, http.StatusOK)
	var updated models.EventView
	testutil.AssertJSON(t, w, &updated)
	if !updated.StartTime.Equal(nextDay) || updated.EndTime != nil {
		t.Errorf("updated = start %v end %v, want start %v and no end", updated.StartTime, updated.EndTime, nextDay)
	}

	var stored models.Event
	if err := s.db.First(&stored, created.ID).Error; err != nil {
		t.Fatal(err)
	}
	if stored.EndTime != nil {
		t.Errorf("stored end_time = %v, want NULL", stored.EndTime)
	}
}
