package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"remindly/internal/dto"
	"remindly/internal/model"
	"remindly/internal/recurrence"
	"remindly/internal/repository"
)

var (
	ErrNotRecurring        = errors.New("event does not anchor a recurring series")
	ErrDateAfterSeriesEnd  = errors.New("new date cannot be after the recurrence end date")
	ErrUnknownMoveMode     = errors.New("unknown move mode")
	ErrSplitStateCorrupted = errors.New("corrupted split state: successor master missing")
)

// Move modes.
const (
	MoveSingle        = "SINGLE"
	MoveThisAndFuture = "THIS_AND_FUTURE"
	MoveAll           = "ALL"
)

// SeriesService edits recurring series: moving one occurrence, splitting a
// series at a pivot, or shifting the whole series. Each move runs in one
// transaction so a half-applied split is never observable.
type SeriesService interface {
	MoveOccurrence(ctx context.Context, userID, masterID string, req *dto.MoveOccurrenceRequest, now time.Time) error
}

type seriesService struct {
	repo   *repository.Repository
	logger *zap.Logger
}

// NewSeriesService builds the series service.
func NewSeriesService(repo *repository.Repository, logger *zap.Logger) SeriesService {
	return &seriesService{repo: repo, logger: logger}
}

func (s *seriesService) MoveOccurrence(ctx context.Context, userID, masterID string, req *dto.MoveOccurrenceRequest, now time.Time) error {
	master, err := s.repo.Event.GetByID(ctx, masterID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrEventNotFound
		}
		s.logger.Error("load master failed", zap.String("event_id", masterID), zap.Error(err))
		return err
	}
	if master.UserID != userID {
		return ErrEventForbidden
	}
	if master.Kind() != model.KindMaster {
		return ErrNotRecurring
	}

	originalDate, err := parseDate(req.OriginalDate)
	if err != nil {
		return err
	}
	newDate, err := parseDate(req.NewDate)
	if err != nil {
		return err
	}
	if err := validateMoveTarget(newDate, now); err != nil {
		return err
	}

	mode := strings.ToUpper(req.Mode)
	return s.repo.Transaction(ctx, func(tx *repository.Repository) error {
		switch mode {
		case MoveSingle:
			return s.moveSingle(ctx, tx, master, originalDate, newDate, now)
		case MoveThisAndFuture:
			return s.moveThisAndFuture(ctx, tx, master, originalDate, newDate, now)
		case MoveAll:
			return s.moveAll(ctx, tx, userID, master, newDate, now)
		default:
			return ErrUnknownMoveMode
		}
	})
}

// moveSingle reschedules exactly one occurrence. The series keeps projecting
// everything else; the moved instance becomes a stored exception carrying a
// date-suffixed title so it reads as moved in listings.
//
// Anchor special case: when originalDate is the master's own eventDate, the
// master advances to its next computed occurrence and the moved instance is
// demoted to a plain standalone event instead of an exception, so the master
// row always points at its next real occurrence.
func (s *seriesService) moveSingle(ctx context.Context, tx *repository.Repository, master *model.Event, originalDate, newDate time.Time, now time.Time) error {
	if master.RecurrenceEndDate != nil && newDate.After(*master.RecurrenceEndDate) {
		return ErrDateAfterSeriesEnd
	}

	moved := &model.Event{
		UserID:        master.UserID,
		Title:         master.Title,
		Description:   master.Description,
		IsException:   true,
		ParentEventID: &master.EventID,
	}
	movedOriginal := originalDate
	moved.OriginalDate = &movedOriginal

	if master.ReminderTime != nil && master.EventDate != nil {
		shifted := recurrence.ShiftReminder(*master.ReminderTime, *master.EventDate, newDate)
		if err := recurrence.ValidateReminderNotPast(shifted, now); err != nil {
			return err
		}
		moved.ReminderTime = &shifted
	}

	if master.EventDate != nil && originalDate.Equal(recurrence.DateOnly(*master.EventDate)) {
		nextDate := recurrence.Advance(*master.EventDate, master.RecurrenceType, master.Interval())

		if master.ReminderTime != nil {
			nextReminder := recurrence.ShiftReminder(*master.ReminderTime, *master.EventDate, nextDate)
			if err := recurrence.ValidateReminderNotPast(nextReminder, now); err != nil {
				return err
			}
			master.ReminderTime = &nextReminder
		}
		master.EventDate = &nextDate
		master.ResetReminderState()
		if err := tx.Event.Update(ctx, master); err != nil {
			return err
		}

		moved.IsException = false
		moved.ParentEventID = nil
		moved.OriginalDate = nil
	}

	movedDate := newDate
	moved.EventDate = &movedDate
	moved.Title = master.Title + " # " + newDate.Format(dto.DateLayout)
	return tx.Event.Create(ctx, moved)
}

// moveThisAndFuture splits the series at originalDate: occurrences before the
// pivot keep the old schedule, the pivot and everything after adopt newStart
// as the successor master's anchor.
//
// A repeated split on the same pivot reuses the first split's successor
// instead of forking another chain: the pivot's exception row is turned into
// a skip and the existing successor is re-anchored.
func (s *seriesService) moveThisAndFuture(ctx context.Context, tx *repository.Repository, master *model.Event, originalDate, newStart time.Time, now time.Time) error {
	oldEnd := master.RecurrenceEndDate

	existing, err := tx.Event.FindExceptionByParentAndOriginalDate(ctx, master.EventID, originalDate)
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return err
	}

	if existing != nil {
		// prior split at this pivot: collapse its exception to a skip and
		// re-anchor the successor
		existing.EventDate = nil
		existing.ReminderTime = nil
		existing.ResetReminderState()
		if err := tx.Event.Update(ctx, existing); err != nil {
			return err
		}

		successor, err := tx.Event.FindSuccessorMaster(ctx, master.EventID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrSplitStateCorrupted
			}
			return err
		}

		if successor.ReminderTime != nil {
			shifted := recurrence.ShiftReminder(*successor.ReminderTime, originalDate, newStart)
			if err := recurrence.ValidateReminderNotPast(shifted, now); err != nil {
				return err
			}
			successor.ReminderTime = &shifted
		}
		anchor := newStart
		successor.EventDate = &anchor
		successor.ResetReminderState()
		if err := tx.Event.Update(ctx, successor); err != nil {
			return err
		}
	} else {
		// first split at this pivot: freeze the predecessor the day before,
		// consume the pivot date with a skip, fork the successor
		cutEnd := originalDate.AddDate(0, 0, -1)
		master.RecurrenceEndDate = &cutEnd
		if err := tx.Event.Update(ctx, master); err != nil {
			return err
		}

		skipOriginal := originalDate
		skip := &model.Event{
			UserID:        master.UserID,
			Title:         master.Title,
			IsException:   true,
			ParentEventID: &master.EventID,
			OriginalDate:  &skipOriginal,
		}
		if err := tx.Event.Create(ctx, skip); err != nil {
			return err
		}

		anchor := newStart
		successor := &model.Event{
			UserID:            master.UserID,
			Title:             master.Title,
			Description:       master.Description,
			EventDate:         &anchor,
			RecurrenceType:    master.RecurrenceType,
			RecurrenceInt:     master.Interval(),
			RecurrenceEndDate: oldEnd,
			ParentEventID:     &master.EventID,
		}
		if master.ReminderTime != nil && master.EventDate != nil {
			shifted := recurrence.ShiftReminder(*master.ReminderTime, *master.EventDate, newStart)
			if err := recurrence.ValidateReminderNotPast(shifted, now); err != nil {
				return err
			}
			successor.ReminderTime = &shifted
		}
		if err := tx.Event.Create(ctx, successor); err != nil {
			return err
		}
	}

	// deviations past the pivot belonged to the old tail; the split
	// supersedes them
	return tx.Event.DeleteExceptionsAfter(ctx, master.EventID, originalDate)
}

// moveAll shifts the whole series so its cadence lands on newStart,
// preserving series length. The shift applies to the current real master
// (the latest master in the split/materialization chain), anchored at
// whichever of its two computed occurrences surrounding newStart lies
// closer (the later one on a tie). Every prior exception is deleted: a
// full-series move invalidates all prior deviations.
func (s *seriesService) moveAll(ctx context.Context, tx *repository.Repository, userID string, master *model.Event, newStart time.Time, now time.Time) error {
	if master.RecurrenceEndDate != nil && newStart.After(*master.RecurrenceEndDate) {
		return ErrDateAfterSeriesEnd
	}

	real, err := tx.Event.FindCurrentMaster(ctx, userID, master.EventID)
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return err
	}

	if real != nil && real.EventDate != nil {
		// walk the cadence to the two occurrences surrounding newStart
		next := recurrence.DateOnly(*real.EventDate)
		prev := next
		for steps := 0; steps < maxOccurrencesPerMaster && next.Before(newStart); steps++ {
			prev = next
			next = recurrence.Advance(next, real.RecurrenceType, real.Interval())
		}

		diffPrev := absDays(prev, newStart)
		diffNext := absDays(next, newStart)

		var offsetDays int
		if diffPrev < diffNext {
			offsetDays = diffPrev
		} else {
			offsetDays = -diffNext
		}

		newAnchor := recurrence.DateOnly(*real.EventDate).AddDate(0, 0, offsetDays)
		if err := validateMoveTarget(newAnchor, now); err != nil {
			return err
		}

		if real.ReminderTime != nil {
			shifted := recurrence.ShiftReminder(*real.ReminderTime, *real.EventDate, newAnchor)
			if err := recurrence.ValidateReminderNotPast(shifted, now); err != nil {
				return err
			}
			real.ReminderTime = &shifted
		}
		real.EventDate = &newAnchor
		if real.RecurrenceEndDate != nil {
			newEnd := real.RecurrenceEndDate.AddDate(0, 0, offsetDays)
			real.RecurrenceEndDate = &newEnd
		}
		real.ResetReminderState()
		if err := tx.Event.Update(ctx, real); err != nil {
			return err
		}
	}

	return tx.Event.DeleteExceptionsOfMaster(ctx, master.EventID)
}

func absDays(a, b time.Time) int {
	d := recurrence.DaysBetween(a, b)
	if d < 0 {
		return -d
	}
	return d
}
