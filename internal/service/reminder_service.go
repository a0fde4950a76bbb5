package service

import (
	"context"
	"time"

	"go.uber.org/zap"

	"remindly/config"
	"remindly/internal/dto"
	"remindly/internal/mail"
	"remindly/internal/model"
	"remindly/internal/recurrence"
	"remindly/internal/repository"
)

// ReminderService runs the due-reminder pipeline and serves reminder
// listings. Tick is driven by the process-wide scheduler; nothing else calls
// it in normal operation.
type ReminderService interface {
	// Tick processes one due-reminder scan: dispatch every due
	// notification, mark the successful ones sent in one batch, and
	// materialize the next occurrence of each recurring event that was
	// dispatched. A dispatch failure leaves its event unsent so the next
	// scan retries it.
	Tick(ctx context.Context, now time.Time) error

	// ListUpcoming returns the caller's pending reminders due within the
	// configured window.
	ListUpcoming(ctx context.Context, userID string, now time.Time) ([]dto.ReminderResponse, error)

	// ListSent returns the caller's reminders delivered within the
	// configured window.
	ListSent(ctx context.Context, userID string, now time.Time) ([]dto.ReminderResponse, error)
}

type reminderService struct {
	repo   *repository.Repository
	sender mail.Sender
	window time.Duration
	logger *zap.Logger
}

// NewReminderService builds the reminder service.
func NewReminderService(cfg *config.Config, repo *repository.Repository, sender mail.Sender, logger *zap.Logger) ReminderService {
	window := cfg.Scheduler.UpcomingWindow
	if window <= 0 {
		window = 7 * 24 * time.Hour
	}
	return &reminderService{
		repo:   repo,
		sender: sender,
		window: window,
		logger: logger,
	}
}

func (s *reminderService) Tick(ctx context.Context, now time.Time) error {
	due, err := s.repo.Event.FindDueReminders(ctx, now)
	if err != nil {
		s.logger.Error("reminder scan failed", zap.Error(err))
		return err
	}
	if len(due) == 0 {
		return nil
	}

	sentIDs := make([]string, 0, len(due))
	for i := range due {
		event := &due[i]
		if event.User == nil || event.EventDate == nil {
			s.logger.Warn("due reminder without owner or date, skipping",
				zap.String("event_id", event.EventID))
			continue
		}

		body := mail.BuildReminderHTML(event.Title, event.Description, *event.EventDate)
		if err := s.sender.Send(event.User.Email, "Reminder: "+event.Title, body); err != nil {
			// stays unsent; the next scan retries it
			s.logger.Error("reminder dispatch failed",
				zap.String("event_id", event.EventID),
				zap.String("to", event.User.Email),
				zap.Error(err))
			continue
		}
		sentIDs = append(sentIDs, event.EventID)

		if err := s.materializeNext(ctx, event); err != nil {
			// delivery already happened; the occurrence is still marked
			// sent even when its successor could not be written
			s.logger.Error("materialize next occurrence failed",
				zap.String("event_id", event.EventID),
				zap.Error(err))
		}
	}

	if len(sentIDs) == 0 {
		return nil
	}
	updated, err := s.repo.Event.MarkRemindersSentByIDs(ctx, sentIDs, now)
	if err != nil {
		s.logger.Error("mark reminders sent failed", zap.Error(err))
		return err
	}
	s.logger.Info("processed reminders",
		zap.Int64("count", updated),
		zap.Time("at", now))
	return nil
}

// materializeNext writes the literal next occurrence row of a recurring
// event whose reminder just fired. The successor carries the recurrence
// metadata forward; nothing is written when the series end date is passed.
func (s *reminderService) materializeNext(ctx context.Context, event *model.Event) error {
	if !event.IsRecurring() || event.EventDate == nil {
		return nil
	}

	nextDate := recurrence.Advance(*event.EventDate, event.RecurrenceType, event.Interval())
	if event.RecurrenceEndDate != nil && event.RecurrenceEndDate.Before(nextDate) {
		return nil
	}

	next := &model.Event{
		UserID:            event.UserID,
		Title:             event.Title,
		Description:       event.Description,
		EventDate:         &nextDate,
		RecurrenceType:    event.RecurrenceType,
		RecurrenceInt:     event.Interval(),
		RecurrenceEndDate: event.RecurrenceEndDate,
	}
	if event.ReminderTime != nil {
		nextReminder := recurrence.Advance(*event.ReminderTime, event.RecurrenceType, event.Interval())
		next.ReminderTime = &nextReminder
	}
	return s.repo.Event.Create(ctx, next)
}

func (s *reminderService) ListUpcoming(ctx context.Context, userID string, now time.Time) ([]dto.ReminderResponse, error) {
	events, err := s.repo.Event.FindUpcomingReminders(ctx, userID, now, now.Add(s.window))
	if err != nil {
		s.logger.Error("list upcoming reminders failed", zap.Error(err))
		return nil, err
	}
	return toReminderResponses(events), nil
}

func (s *reminderService) ListSent(ctx context.Context, userID string, now time.Time) ([]dto.ReminderResponse, error) {
	events, err := s.repo.Event.FindSentReminders(ctx, userID, now.Add(-s.window), now)
	if err != nil {
		s.logger.Error("list sent reminders failed", zap.Error(err))
		return nil, err
	}
	return toReminderResponses(events), nil
}

func toReminderResponses(events []model.Event) []dto.ReminderResponse {
	out := make([]dto.ReminderResponse, 0, len(events))
	for i := range events {
		e := &events[i]
		resp := dto.ReminderResponse{
			EventID:   e.EventID,
			Title:     e.Title,
			EventDate: fmtDatePtr(e.EventDate),
			Sent:      e.ReminderSent,
			SentTime:  fmtDateTimePtr(e.ReminderSentTime),
		}
		if e.ReminderTime != nil {
			resp.ReminderTime = e.ReminderTime.UTC().Format(time.RFC3339)
		}
		out = append(out, resp)
	}
	return out
}
