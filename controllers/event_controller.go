package controllers

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/sandarika/labubananas/middleware"
	"github.com/sandarika/labubananas/models"
	"github.com/sandarika/labubananas/utils"
)

var (
	errAlreadyRSVPd   = errors.New("already rsvp'd")
	errRSVPNotFound   = errors.New("rsvp not found")
	errEndBeforeStart = errors.New("end before start")
)

// EventController manages events and RSVPs.
type EventController struct {
	db *gorm.DB
}

// NewEventController creates a new EventController instance.
func NewEventController(db *gorm.DB) *EventController {
	return &EventController{db: db}
}

type eventRequest struct {
	Title       *string   `json:"title"`
	Description *string   `json:"description"`
	Location    *string   `json:"location"`
	StartTime   *flexTime `json:"start_time"`
	EndTime     *flexTime `json:"end_time"`
	UnionID     *uint     `json:"union_id"`
}

// RSVPResponse reports the attendee count after an RSVP change.
type RSVPResponse struct {
	Message       string `json:"message"`
	AttendeeCount int64  `json:"attendee_count"`
}

// AttendeesResponse lists who RSVP'd to an event.
type AttendeesResponse struct {
	EventID       uint                  `json:"event_id"`
	AttendeeCount int                   `json:"attendee_count"`
	Attendees     []models.AttendeeView `json:"attendees"`
}

// validateEventTimes enforces that end, when present, is not before start.
func validateEventTimes(start time.Time, end *time.Time) error {
	if end != nil && end.Before(start) {
		return errEndBeforeStart
	}
	return nil
}

// bindEvent reads and validates a full event payload.
func bindEvent(ctx *gin.Context) (models.Event, bool) {
	var req eventRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		utils.Error(ctx, http.StatusBadRequest, 40060, "invalid request payload")
		return models.Event{}, false
	}
	var title string
	if req.Title != nil {
		title = utils.Sanitize(*req.Title)
	}
	if title == "" {
		utils.Error(ctx, http.StatusBadRequest, 40061, "title cannot be empty")
		return models.Event{}, false
	}
	if req.StartTime == nil {
		utils.Error(ctx, http.StatusBadRequest, 40062, "start_time is required")
		return models.Event{}, false
	}

	event := models.Event{
		Title:       title,
		Description: utils.SanitizeOptional(req.Description),
		Location:    utils.SanitizeOptional(req.Location),
		StartTime:   req.StartTime.Time,
		UnionID:     req.UnionID,
	}
	if req.EndTime != nil {
		end := req.EndTime.Time
		event.EndTime = &end
	}
	if err := validateEventTimes(event.StartTime, event.EndTime); err != nil {
		utils.Error(ctx, http.StatusBadRequest, 40063, "end_time must be after start_time")
		return models.Event{}, false
	}
	return event, true
}

// CreateEvent schedules an event created by the caller.
func (e *EventController) CreateEvent(ctx *gin.Context) {
	user, ok := requireUser(ctx)
	if !ok {
		return
	}
	event, ok := bindEvent(ctx)
	if !ok {
		return
	}
	event.CreatorID = user.ID

	err := e.db.Transaction(func(tx *gorm.DB) error {
		if err := checkUnion(tx, event.UnionID); err != nil {
			return err
		}
		return tx.Create(&event).Error
	})
	if errors.Is(err, errUnionNotFound) {
		utils.Error(ctx, http.StatusNotFound, 40410, "Union not found")
		return
	}
	if err != nil {
		internalError(ctx, 50060, "create event failed", err)
		return
	}

	utils.Success(ctx, models.EventView{Event: event, Creator: user.Summary()})
}

// ListEvents returns events, latest start first.
func (e *EventController) ListEvents(ctx *gin.Context) {
	skip, limit := parsePagination(ctx, 100)
	var events []models.Event
	err := e.db.Order("start_time DESC").Order("id DESC").Offset(skip).Limit(limit).Find(&events).Error
	if err != nil {
		internalError(ctx, 50061, "list events failed", err)
		return
	}
	views, err := e.eventViews(events, nil)
	if err != nil {
		internalError(ctx, 50062, "load event aggregates failed", err)
		return
	}
	utils.Success(ctx, views)
}

// GetEvent returns one event. Authenticated callers also learn whether they RSVP'd.
func (e *EventController) GetEvent(ctx *gin.Context) {
	event, ok := e.loadEvent(ctx)
	if !ok {
		return
	}
	var viewer *models.User
	if user, ok := middleware.CurrentUser(ctx); ok {
		viewer = &user
	}
	views, err := e.eventViews([]models.Event{event}, viewer)
	if err != nil {
		internalError(ctx, 50062, "load event aggregates failed", err)
		return
	}
	utils.Success(ctx, views[0])
}

// UpdateEvent replaces an event with the payload; omitted optional fields are cleared.
// Allowed for the creator, admins and organizers.
func (e *EventController) UpdateEvent(ctx *gin.Context) {
	user, ok := requireUser(ctx)
	if !ok {
		return
	}
	current, ok := e.loadEvent(ctx)
	if !ok {
		return
	}
	if !canManageEvent(user, current) {
		utils.Error(ctx, http.StatusForbidden, 40360, "Only the event creator or admins can edit this event")
		return
	}
	event, ok := bindEvent(ctx)
	if !ok {
		return
	}
	event.ID = current.ID
	event.CreatorID = current.CreatorID
	event.CreatedAt = current.CreatedAt

	err := e.db.Transaction(func(tx *gorm.DB) error {
		if err := checkUnion(tx, event.UnionID); err != nil {
			return err
		}
		return tx.Save(&event).Error
	})
	if errors.Is(err, errUnionNotFound) {
		utils.Error(ctx, http.StatusNotFound, 40410, "Union not found")
		return
	}
	if err != nil {
		internalError(ctx, 50063, "update event failed", err)
		return
	}

	views, err := e.eventViews([]models.Event{event}, nil)
	if err != nil {
		internalError(ctx, 50062, "load event aggregates failed", err)
		return
	}
	utils.Success(ctx, views[0])
}

// DeleteEvent removes an event and its RSVPs.
func (e *EventController) DeleteEvent(ctx *gin.Context) {
	user, ok := requireUser(ctx)
	if !ok {
		return
	}
	event, ok := e.loadEvent(ctx)
	if !ok {
		return
	}
	if !canManageEvent(user, event) {
		utils.Error(ctx, http.StatusForbidden, 40361, "Only the event creator or admins can delete this event")
		return
	}
	err := e.db.Transaction(func(tx *gorm.DB) error {
		return deleteEvents(tx, []uint{event.ID})
	})
	if err != nil {
		internalError(ctx, 50064, "delete event failed", err)
		return
	}
	utils.Message(ctx, "Event deleted")
}

// RSVP registers the caller as an attendee.
func (e *EventController) RSVP(ctx *gin.Context) {
	e.changeRSVP(ctx, func(tx *gorm.DB, eventID, userID uint) error {
		attendee := models.EventAttendee{EventID: eventID, UserID: userID}
		return insertUnique(tx, &attendee, errAlreadyRSVPd, "event_id = ? AND user_id = ?", eventID, userID)
	}, "RSVP successful")
}

// CancelRSVP removes the caller's RSVP.
func (e *EventController) CancelRSVP(ctx *gin.Context) {
	e.changeRSVP(ctx, func(tx *gorm.DB, eventID, userID uint) error {
		res := tx.Where("event_id = ? AND user_id = ?", eventID, userID).Delete(&models.EventAttendee{})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return errRSVPNotFound
		}
		return nil
	}, "RSVP cancelled")
}

func (e *EventController) changeRSVP(ctx *gin.Context, mutate func(tx *gorm.DB, eventID, userID uint) error, message string) {
	user, ok := requireUser(ctx)
	if !ok {
		return
	}
	id, ok := parseID(ctx, "id")
	if !ok {
		utils.Error(ctx, http.StatusNotFound, 40460, "Event not found")
		return
	}

	var count int64
	err := e.db.Transaction(func(tx *gorm.DB) error {
		var event models.Event
		if err := lockShared(tx, &event, id); err != nil {
			return err
		}
		if err := mutate(tx, id, user.ID); err != nil {
			return err
		}
		return tx.Model(&models.EventAttendee{}).Where("event_id = ?", id).Count(&count).Error
	})
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		utils.Error(ctx, http.StatusNotFound, 40460, "Event not found")
		return
	case errors.Is(err, errAlreadyRSVPd):
		utils.Error(ctx, http.StatusBadRequest, 40064, "Already RSVP'd to this event")
		return
	case errors.Is(err, errRSVPNotFound):
		utils.Error(ctx, http.StatusNotFound, 40461, "RSVP not found")
		return
	case err != nil:
		internalError(ctx, 50065, "update rsvp failed", err)
		return
	}
	utils.Success(ctx, RSVPResponse{Message: message, AttendeeCount: count})
}

// ListAttendees returns everyone who RSVP'd, in RSVP order.
func (e *EventController) ListAttendees(ctx *gin.Context) {
	event, ok := e.loadEvent(ctx)
	if !ok {
		return
	}
	attendees := []models.AttendeeView{}
	err := e.db.Table("event_attendees").
		Select("users.id AS user_id, users.username").
		Joins("JOIN users ON users.id = event_attendees.user_id").
		Where("event_attendees.event_id = ?", event.ID).
		Order("event_attendees.id ASC").
		Scan(&attendees).Error
	if err != nil {
		internalError(ctx, 50066, "list attendees failed", err)
		return
	}
	utils.Success(ctx, AttendeesResponse{
		EventID:       event.ID,
		AttendeeCount: len(attendees),
		Attendees:     attendees,
	})
}

func canManageEvent(user models.User, event models.Event) bool {
	return event.CreatorID == user.ID || user.HasRole(models.RoleAdmin, models.RoleOrganizer)
}

// checkUnion verifies an optional union reference.
func checkUnion(tx *gorm.DB, unionID *uint) error {
	if unionID == nil {
		return nil
	}
	var union models.Union
	if err := lockShared(tx, &union, *unionID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return errUnionNotFound
		}
		return err
	}
	return nil
}

func (e *EventController) loadEvent(ctx *gin.Context) (models.Event, bool) {
	var event models.Event
	id, ok := parseID(ctx, "id")
	if !ok {
		utils.Error(ctx, http.StatusNotFound, 40460, "Event not found")
		return event, false
	}
	if err := e.db.First(&event, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			utils.Error(ctx, http.StatusNotFound, 40460, "Event not found")
			return event, false
		}
		internalError(ctx, 50067, "load event failed", err)
		return event, false
	}
	return event, true
}

// eventViews attaches creators and attendee counts. viewer, when set, fills IsAttending.
func (e *EventController) eventViews(events []models.Event, viewer *models.User) ([]models.EventView, error) {
	views := make([]models.EventView, 0, len(events))
	if len(events) == 0 {
		return views, nil
	}
	ids := make([]uint, len(events))
	creatorIDs := make([]uint, len(events))
	for i, ev := range events {
		ids[i] = ev.ID
		creatorIDs[i] = ev.CreatorID
	}

	counts, err := countBy(e.db, &models.EventAttendee{}, "event_id", ids)
	if err != nil {
		return nil, err
	}
	creators, err := loadUsers(e.db, creatorIDs)
	if err != nil {
		return nil, err
	}

	var attending map[uint]bool
	if viewer != nil {
		var mine []uint
		err := e.db.Model(&models.EventAttendee{}).
			Where("user_id = ? AND event_id IN ?", viewer.ID, ids).
			Pluck("event_id", &mine).Error
		if err != nil {
			return nil, err
		}
		attending = make(map[uint]bool, len(mine))
		for _, id := range mine {
			attending[id] = true
		}
	}

	for _, ev := range events {
		view := models.EventView{
			Event:         ev,
			Creator:       creators[ev.CreatorID].Summary(),
			AttendeeCount: counts[ev.ID],
		}
		if attending != nil {
			v := attending[ev.ID]
			view.IsAttending = &v
		}
		views = append(views, view)
	}
	return views, nil
}
