package repository

import (
	"context"
	"strings"
	"time"

	"gorm.io/gorm"

	"remindly/internal/model"
)

// ListOptions carries sanitized paging/filter parameters for event listings.
// Sanitizing (sort whitelist, page bounds) is the service's job; values here
// are trusted.
type ListOptions struct {
	SortBy    string // column name
	Desc      bool
	Offset    int
	Limit     int
	AfterDate *time.Time
	Search    string // already lowercased, without wildcards
}

// DayCount is one bucket of the events-per-day histogram.
type DayCount struct {
	Day   time.Time `json:"day"`
	Count int64     `json:"count"`
}

// EventRepository is the event store port: row CRUD plus the range, due and
// exception queries the calendar, series and reminder services run on.
type EventRepository interface {
	Create(ctx context.Context, event *model.Event) error
	GetByID(ctx context.Context, id string) (*model.Event, error)
	Update(ctx context.Context, event *model.Event) error
	Delete(ctx context.Context, id string) error

	// List returns a page of events plus the total count. An empty userID
	// lists across all owners (admin listings).
	List(ctx context.Context, userID string, opts ListOptions) ([]model.Event, int64, error)
	CountPerDay(ctx context.Context, from, to time.Time) ([]DayCount, error)

	// ── calendar expansion queries ──
	FindSinglesInRange(ctx context.Context, userID string, start, end time.Time) ([]model.Event, error)
	// FindExceptionsInRange matches exceptions whose event_date or
	// original_date falls in the range, so skip rows (null event_date) still
	// suppress their projected occurrence.
	FindExceptionsInRange(ctx context.Context, userID string, start, end time.Time) ([]model.Event, error)
	FindMastersAffectingRange(ctx context.Context, userID string, start, end time.Time) ([]model.Event, error)

	// ── series edit queries ──
	FindExceptionByParentAndOriginalDate(ctx context.Context, parentID string, originalDate time.Time) (*model.Event, error)
	FindSuccessorMaster(ctx context.Context, parentID string) (*model.Event, error)
	FindCurrentMaster(ctx context.Context, userID, masterID string) (*model.Event, error)
	DeleteExceptionsAfter(ctx context.Context, parentID string, after time.Time) error
	DeleteExceptionsOfMaster(ctx context.Context, parentID string) error

	// ── reminder queries ──
	FindDueReminders(ctx context.Context, now time.Time) ([]model.Event, error)
	MarkRemindersSentByIDs(ctx context.Context, ids []string, sentAt time.Time) (int64, error)
	FindUpcomingReminders(ctx context.Context, userID string, now, until time.Time) ([]model.Event, error)
	FindSentReminders(ctx context.Context, userID string, since, now time.Time) ([]model.Event, error)
}

type eventRepo struct {
	db *gorm.DB
}

// NewEventRepo builds the gorm-backed EventRepository.
func NewEventRepo(db *gorm.DB) EventRepository {
	return &eventRepo{db: db}
}

func (r *eventRepo) Create(ctx context.Context, event *model.Event) error {
	return r.db.WithContext(ctx).Create(event).Error
}

func (r *eventRepo) GetByID(ctx context.Context, id string) (*model.Event, error) {
	var event model.Event
	err := r.db.WithContext(ctx).
		Where("event_id = ?", id).
		First(&event).Error
	if err != nil {
		return nil, err
	}
	return &event, nil
}

func (r *eventRepo) Update(ctx context.Context, event *model.Event) error {
	// Select("*") so cleared nullable columns (reminder_time, event_date,
	// original_date, parent_event_id) are written back as NULL.
	return r.db.WithContext(ctx).
		Model(event).
		Select("*").
		Omit("event_id", "created_at").
		Where("event_id = ?", event.EventID).
		Updates(event).Error
}

func (r *eventRepo) Delete(ctx context.Context, id string) error {
	return r.db.WithContext(ctx).
		Where("event_id = ?", id).
		Delete(&model.Event{}).Error
}

func (r *eventRepo) List(ctx context.Context, userID string, opts ListOptions) ([]model.Event, int64, error) {
	db := r.db.WithContext(ctx).Model(&model.Event{})
	if userID != "" {
		db = db.Where("user_id = ?", userID)
	}
	if opts.AfterDate != nil {
		db = db.Where("event_date >= ?", *opts.AfterDate)
	}
	if opts.Search != "" {
		like := "%" + strings.ToLower(strings.TrimSpace(opts.Search)) + "%"
		db = db.Where("LOWER(title) LIKE ? OR LOWER(description) LIKE ?", like, like)
	}

	var total int64
	if err := db.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	dir := "ASC"
	if opts.Desc {
		dir = "DESC"
	}

	var events []model.Event
	err := db.
		Order(opts.SortBy + " " + dir).
		Order("event_id " + dir). // stable tiebreak
		Offset(opts.Offset).
		Limit(opts.Limit).
		Find(&events).Error
	return events, total, err
}

func (r *eventRepo) CountPerDay(ctx context.Context, from, to time.Time) ([]DayCount, error) {
	var counts []DayCount
	err := r.db.WithContext(ctx).
		Model(&model.Event{}).
		Select("event_date AS day, COUNT(*) AS count").
		Where("event_date IS NOT NULL AND event_date BETWEEN ? AND ?", from, to).
		Group("event_date").
		Order("event_date ASC").
		Scan(&counts).Error
	return counts, err
}

// ── calendar expansion queries ──

func (r *eventRepo) FindSinglesInRange(ctx context.Context, userID string, start, end time.Time) ([]model.Event, error) {
	var events []model.Event
	err := r.db.WithContext(ctx).
		Where("user_id = ? AND is_exception = false", userID).
		Where("recurrence_type IS NULL OR recurrence_type = ?", model.RecurrenceNone).
		Where("event_date BETWEEN ? AND ?", start, end).
		Find(&events).Error
	return events, err
}

func (r *eventRepo) FindExceptionsInRange(ctx context.Context, userID string, start, end time.Time) ([]model.Event, error) {
	var events []model.Event
	err := r.db.WithContext(ctx).
		Where("user_id = ? AND is_exception = true", userID).
		Where("(event_date BETWEEN ? AND ?) OR (original_date BETWEEN ? AND ?)",
			start, end, start, end).
		Find(&events).Error
	return events, err
}

func (r *eventRepo) FindMastersAffectingRange(ctx context.Context, userID string, start, end time.Time) ([]model.Event, error) {
	var events []model.Event
	err := r.db.WithContext(ctx).
		Where("user_id = ? AND is_exception = false", userID).
		Where("recurrence_type IS NOT NULL AND recurrence_type <> ?", model.RecurrenceNone).
		Where("event_date <= ?", end).
		Where("recurrence_end_date IS NULL OR recurrence_end_date >= ?", start).
		Find(&events).Error
	return events, err
}

// ── series edit queries ──

func (r *eventRepo) FindExceptionByParentAndOriginalDate(ctx context.Context, parentID string, originalDate time.Time) (*model.Event, error) {
	var event model.Event
	err := r.db.WithContext(ctx).
		Where("parent_event_id = ? AND is_exception = true AND original_date = ?", parentID, originalDate).
		First(&event).Error
	if err != nil {
		return nil, err
	}
	return &event, nil
}

func (r *eventRepo) FindSuccessorMaster(ctx context.Context, parentID string) (*model.Event, error) {
	var event model.Event
	err := r.db.WithContext(ctx).
		Where("parent_event_id = ? AND is_exception = false", parentID).
		Order("created_at DESC").
		First(&event).Error
	if err != nil {
		return nil, err
	}
	return &event, nil
}

func (r *eventRepo) FindCurrentMaster(ctx context.Context, userID, masterID string) (*model.Event, error) {
	var event model.Event
	err := r.db.WithContext(ctx).
		Where("user_id = ? AND is_exception = false", userID).
		Where("recurrence_type IS NOT NULL AND recurrence_type <> ?", model.RecurrenceNone).
		Where("event_id = ? OR parent_event_id = ?", masterID, masterID).
		Order("event_date DESC").
		First(&event).Error
	if err != nil {
		return nil, err
	}
	return &event, nil
}

func (r *eventRepo) DeleteExceptionsAfter(ctx context.Context, parentID string, after time.Time) error {
	return r.db.WithContext(ctx).
		Where("parent_event_id = ? AND is_exception = true AND original_date > ?", parentID, after).
		Delete(&model.Event{}).Error
}

func (r *eventRepo) DeleteExceptionsOfMaster(ctx context.Context, parentID string) error {
	return r.db.WithContext(ctx).
		Where("parent_event_id = ? AND is_exception = true", parentID).
		Delete(&model.Event{}).Error
}

// ── reminder queries ──

func (r *eventRepo) FindDueReminders(ctx context.Context, now time.Time) ([]model.Event, error) {
	var events []model.Event
	err := r.db.WithContext(ctx).
		Preload("User").
		Where("reminder_sent = false AND reminder_time IS NOT NULL AND reminder_time <= ?", now).
		Where("event_date IS NOT NULL"). // skip exceptions carry no occurrence to remind about
		Order("reminder_time ASC").
		Find(&events).Error
	return events, err
}

func (r *eventRepo) MarkRemindersSentByIDs(ctx context.Context, ids []string, sentAt time.Time) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	result := r.db.WithContext(ctx).
		Model(&model.Event{}).
		Where("event_id IN ?", ids).
		Updates(map[string]interface{}{
			"reminder_sent":      true,
			"reminder_sent_time": sentAt,
		})
	return result.RowsAffected, result.Error
}

func (r *eventRepo) FindUpcomingReminders(ctx context.Context, userID string, now, until time.Time) ([]model.Event, error) {
	var events []model.Event
	err := r.db.WithContext(ctx).
		Where("user_id = ? AND reminder_sent = false", userID).
		Where("reminder_time IS NOT NULL AND reminder_time BETWEEN ? AND ?", now, until).
		Order("reminder_time ASC").
		Find(&events).Error
	return events, err
}

func (r *eventRepo) FindSentReminders(ctx context.Context, userID string, since, now time.Time) ([]model.Event, error) {
	var events []model.Event
	err := r.db.WithContext(ctx).
		Where("user_id = ? AND reminder_sent = true", userID).
		Where("reminder_sent_time IS NOT NULL AND reminder_sent_time BETWEEN ? AND ?", since, now).
		Order("reminder_sent_time DESC").
		Find(&events).Error
	return events, err
}
