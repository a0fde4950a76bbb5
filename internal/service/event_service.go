package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"remindly/internal/dto"
	"remindly/internal/model"
	"remindly/internal/recurrence"
	"remindly/internal/repository"
)

var (
	ErrEventNotFound      = errors.New("event not found")
	ErrEventForbidden     = errors.New("event belongs to another user")
	ErrInvalidDate        = errors.New("invalid date, expected yyyy-mm-dd")
	ErrInvalidDateTime    = errors.New("invalid timestamp, expected RFC 3339 UTC")
	ErrInvalidRecurrence  = errors.New("unknown recurrence type")
	ErrReminderAfterEvent = errors.New("reminder must not fall after the event date")
	ErrEndBeforeStart     = errors.New("recurrence end date must not precede the event date")
	ErrDateTooEarly       = errors.New("new date must be at least tomorrow")
)

// sortColumns whitelists sortable listing fields; anything else falls back
// to the primary key.
var sortColumns = map[string]string{
	"id":            "event_id",
	"event_date":    "event_date",
	"title":         "title",
	"reminder_time": "reminder_time",
}

// EventService covers stored-row operations: CRUD, listings and the
// standalone date move. Series-aware edits live in SeriesService, virtual
// expansion in CalendarService.
type EventService interface {
	Create(ctx context.Context, userID string, req *dto.EventRequest, now time.Time) (*dto.EventResponse, error)
	GetByID(ctx context.Context, userID, eventID string) (*dto.EventResponse, error)
	Update(ctx context.Context, userID, eventID string, req *dto.EventRequest, now time.Time) (*dto.EventResponse, error)
	Delete(ctx context.Context, userID, eventID string) error

	// MoveEventDate reschedules a non-recurring event, shifting its reminder
	// by the same day offset.
	MoveEventDate(ctx context.Context, userID, eventID string, newDate string, now time.Time) (*dto.EventResponse, error)

	// List pages the caller's stored rows. An empty userID lists every
	// user's rows (admin listings).
	List(ctx context.Context, userID string, req *dto.EventListRequest) ([]dto.EventResponse, int64, error)

	// EventsPerDay returns the per-day event histogram over [from, to].
	EventsPerDay(ctx context.Context, from, to time.Time) ([]dto.DayCountResponse, error)
}

type eventService struct {
	repo   *repository.Repository
	logger *zap.Logger
}

// NewEventService builds the event service.
func NewEventService(repo *repository.Repository, logger *zap.Logger) EventService {
	return &eventService{repo: repo, logger: logger}
}

func (s *eventService) Create(ctx context.Context, userID string, req *dto.EventRequest, now time.Time) (*dto.EventResponse, error) {
	fields, err := parseEventRequest(req, now)
	if err != nil {
		return nil, err
	}

	event := &model.Event{
		UserID:            userID,
		Title:             req.Title,
		Description:       req.Description,
		EventDate:         fields.eventDate,
		ReminderTime:      fields.reminderTime,
		RecurrenceType:    fields.recurrenceType,
		RecurrenceInt:     fields.interval,
		RecurrenceEndDate: fields.recurrenceEnd,
	}

	if err := s.repo.Event.Create(ctx, event); err != nil {
		s.logger.Error("create event failed", zap.Error(err))
		return nil, err
	}
	return toEventResponse(event), nil
}

func (s *eventService) GetByID(ctx context.Context, userID, eventID string) (*dto.EventResponse, error) {
	event, err := s.getOwned(ctx, userID, eventID)
	if err != nil {
		return nil, err
	}
	return toEventResponse(event), nil
}

func (s *eventService) Update(ctx context.Context, userID, eventID string, req *dto.EventRequest, now time.Time) (*dto.EventResponse, error) {
	event, err := s.getOwned(ctx, userID, eventID)
	if err != nil {
		return nil, err
	}

	fields, err := parseEventRequest(req, now)
	if err != nil {
		return nil, err
	}

	// A changed date or reminder starts a new delivery lifecycle.
	if !sameTimePtr(event.EventDate, fields.eventDate) ||
		!sameTimePtr(event.ReminderTime, fields.reminderTime) {
		event.ResetReminderState()
	}

	event.Title = req.Title
	event.Description = req.Description
	event.EventDate = fields.eventDate
	event.ReminderTime = fields.reminderTime
	event.RecurrenceType = fields.recurrenceType
	event.RecurrenceInt = fields.interval
	event.RecurrenceEndDate = fields.recurrenceEnd

	if err := s.repo.Event.Update(ctx, event); err != nil {
		s.logger.Error("update event failed", zap.String("event_id", eventID), zap.Error(err))
		return nil, err
	}
	return toEventResponse(event), nil
}

func (s *eventService) Delete(ctx context.Context, userID, eventID string) error {
	event, err := s.getOwned(ctx, userID, eventID)
	if err != nil {
		return err
	}

	// Deleting a master orphans its exceptions; remove them in the same
	// transaction so the calendar never shows an exception without a series.
	return s.repo.Transaction(ctx, func(tx *repository.Repository) error {
		if event.Kind() == model.KindMaster {
			if err := tx.Event.DeleteExceptionsOfMaster(ctx, event.EventID); err != nil {
				return err
			}
		}
		return tx.Event.Delete(ctx, event.EventID)
	})
}

func (s *eventService) MoveEventDate(ctx context.Context, userID, eventID string, newDateStr string, now time.Time) (*dto.EventResponse, error) {
	event, err := s.getOwned(ctx, userID, eventID)
	if err != nil {
		return nil, err
	}

	newDate, err := parseDate(newDateStr)
	if err != nil {
		return nil, err
	}
	if err := validateMoveTarget(newDate, now); err != nil {
		return nil, err
	}

	if event.EventDate != nil && event.ReminderTime != nil {
		shifted := recurrence.ShiftReminder(*event.ReminderTime, *event.EventDate, newDate)
		if err := recurrence.ValidateReminderNotPast(shifted, now); err != nil {
			return nil, err
		}
		event.ReminderTime = &shifted
	}
	event.EventDate = &newDate
	event.ResetReminderState()

	if err := s.repo.Event.Update(ctx, event); err != nil {
		s.logger.Error("move event date failed", zap.String("event_id", eventID), zap.Error(err))
		return nil, err
	}
	return toEventResponse(event), nil
}

func (s *eventService) List(ctx context.Context, userID string, req *dto.EventListRequest) ([]dto.EventResponse, int64, error) {
	opts := repository.ListOptions{
		SortBy: "event_id",
		Desc:   req.Direction == "desc" || req.Direction == "DESC",
		Offset: req.GetOffset(),
		Limit:  req.GetPageSize(),
		Search: req.Search,
	}
	if col, ok := sortColumns[req.SortBy]; ok {
		opts.SortBy = col
	}
	if req.AfterDate != "" {
		after, err := parseDate(req.AfterDate)
		if err != nil {
			return nil, 0, err
		}
		opts.AfterDate = &after
	}

	events, total, err := s.repo.Event.List(ctx, userID, opts)
	if err != nil {
		s.logger.Error("list events failed", zap.Error(err))
		return nil, 0, err
	}

	out := make([]dto.EventResponse, 0, len(events))
	for i := range events {
		out = append(out, *toEventResponse(&events[i]))
	}
	return out, total, nil
}

func (s *eventService) EventsPerDay(ctx context.Context, from, to time.Time) ([]dto.DayCountResponse, error) {
	counts, err := s.repo.Event.CountPerDay(ctx, recurrence.DateOnly(from), recurrence.DateOnly(to))
	if err != nil {
		s.logger.Error("count events per day failed", zap.Error(err))
		return nil, err
	}

	out := make([]dto.DayCountResponse, 0, len(counts))
	for _, c := range counts {
		out = append(out, dto.DayCountResponse{
			Date:  c.Day.Format(dto.DateLayout),
			Count: c.Count,
		})
	}
	return out, nil
}

// getOwned loads an event and enforces ownership.
func (s *eventService) getOwned(ctx context.Context, userID, eventID string) (*model.Event, error) {
	event, err := s.repo.Event.GetByID(ctx, eventID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrEventNotFound
		}
		s.logger.Error("load event failed", zap.String("event_id", eventID), zap.Error(err))
		return nil, err
	}
	if event.UserID != userID {
		return nil, ErrEventForbidden
	}
	return event, nil
}

// ── request parsing and conversion ──

type eventFields struct {
	eventDate      *time.Time
	reminderTime   *time.Time
	recurrenceType model.RecurrenceType
	interval       int
	recurrenceEnd  *time.Time
}

// parseEventRequest validates and converts the wire representation. The
// reminder must not be later than the event's calendar day, and a reminder
// being created or changed must still lie in the future.
func parseEventRequest(req *dto.EventRequest, now time.Time) (*eventFields, error) {
	eventDate, err := parseDate(req.EventDate)
	if err != nil {
		return nil, err
	}

	recurrenceType := model.RecurrenceNone
	if req.RecurrenceType != "" {
		recurrenceType = model.RecurrenceType(req.RecurrenceType)
		if !recurrenceType.Valid() {
			return nil, ErrInvalidRecurrence
		}
	}

	fields := &eventFields{
		eventDate:      &eventDate,
		recurrenceType: recurrenceType,
		interval:       req.RecurrenceInterval,
	}
	if fields.interval <= 0 {
		fields.interval = 1
	}

	if req.ReminderTime != nil && *req.ReminderTime != "" {
		reminder, err := parseDateTime(*req.ReminderTime)
		if err != nil {
			return nil, err
		}
		if recurrence.DateOnly(reminder).After(eventDate) {
			return nil, ErrReminderAfterEvent
		}
		if err := recurrence.ValidateReminderNotPast(reminder, now); err != nil {
			return nil, err
		}
		fields.reminderTime = &reminder
	}

	if req.RecurrenceEndDate != nil && *req.RecurrenceEndDate != "" {
		end, err := parseDate(*req.RecurrenceEndDate)
		if err != nil {
			return nil, err
		}
		if end.Before(eventDate) {
			return nil, ErrEndBeforeStart
		}
		fields.recurrenceEnd = &end
	}

	return fields, nil
}

// validateMoveTarget enforces that a drag-and-drop target is at least
// tomorrow, so a move can never create an occurrence the reminder scan
// already passed by.
func validateMoveTarget(newDate, now time.Time) error {
	tomorrow := recurrence.DateOnly(now).AddDate(0, 0, 1)
	if newDate.Before(tomorrow) {
		return ErrDateTooEarly
	}
	return nil
}

func parseDate(s string) (time.Time, error) {
	d, err := time.Parse(dto.DateLayout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %q", ErrInvalidDate, s)
	}
	return recurrence.DateOnly(d), nil
}

func parseDateTime(s string) (time.Time, error) {
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %q", ErrInvalidDateTime, s)
	}
	return t.UTC(), nil
}

func sameTimePtr(a, b *time.Time) bool {
	if a == nil || b == nil {
		return a == b
	}
	return a.Equal(*b)
}

func fmtDatePtr(t *time.Time) *string {
	if t == nil {
		return nil
	}
	s := t.Format(dto.DateLayout)
	return &s
}

func fmtDateTimePtr(t *time.Time) *string {
	if t == nil {
		return nil
	}
	s := t.UTC().Format(time.RFC3339)
	return &s
}

func toEventResponse(e *model.Event) *dto.EventResponse {
	return &dto.EventResponse{
		ID:                 e.EventID,
		Title:              e.Title,
		Description:        e.Description,
		EventDate:          fmtDatePtr(e.EventDate),
		ReminderTime:       fmtDateTimePtr(e.ReminderTime),
		RecurrenceType:     string(e.RecurrenceType),
		RecurrenceInterval: e.Interval(),
		RecurrenceEndDate:  fmtDatePtr(e.RecurrenceEndDate),
		IsException:        e.IsException,
		OriginalDate:       fmtDatePtr(e.OriginalDate),
		ParentEventID:      e.ParentEventID,
		ReminderSent:       e.ReminderSent,
		ReminderSentTime:   fmtDateTimePtr(e.ReminderSentTime),
		CreatedAt:          e.CreatedAt.UTC().Format(time.RFC3339),
		UpdatedAt:          e.UpdatedAt.UTC().Format(time.RFC3339),
	}
}
