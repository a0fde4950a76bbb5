package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	ics "github.com/arran4/golang-ical"
	"go.uber.org/zap"

	"remindly/internal/dto"
	"remindly/internal/model"
	"remindly/internal/recurrence"
	"remindly/internal/repository"
)

var ErrRangeInverted = errors.New("range end must not precede range start")

// maxOccurrencesPerMaster caps the expansion walk so a corrupt interval can
// never spin the request.
const maxOccurrencesPerMaster = 1000

// CalendarService computes the concrete occurrences visible in a date range.
// Recurring series store a single master row; every occurrence except stored
// exceptions is projected here on read.
type CalendarService interface {
	// ExpandRange returns every occurrence in [from, to]: stored one-off
	// events, rescheduled exceptions, and virtual projections of recurring
	// masters, minus occurrences suppressed by a skip or reschedule.
	ExpandRange(ctx context.Context, userID string, from, to string) ([]dto.OccurrenceResponse, error)

	// BuildICSFeed renders the same expansion as an iCalendar document.
	BuildICSFeed(ctx context.Context, userID string, from, to string) (string, error)
}

type calendarService struct {
	repo   *repository.Repository
	logger *zap.Logger
}

// NewCalendarService builds the calendar service.
func NewCalendarService(repo *repository.Repository, logger *zap.Logger) CalendarService {
	return &calendarService{repo: repo, logger: logger}
}

func (s *calendarService) ExpandRange(ctx context.Context, userID string, from, to string) ([]dto.OccurrenceResponse, error) {
	start, end, err := parseRange(from, to)
	if err != nil {
		return nil, err
	}

	occurrences, err := s.expand(ctx, userID, start, end)
	if err != nil {
		return nil, err
	}

	out := make([]dto.OccurrenceResponse, 0, len(occurrences))
	for i := range occurrences {
		out = append(out, toOccurrenceResponse(&occurrences[i]))
	}
	return out, nil
}

func (s *calendarService) BuildICSFeed(ctx context.Context, userID string, from, to string) (string, error) {
	start, end, err := parseRange(from, to)
	if err != nil {
		return "", err
	}

	occurrences, err := s.expand(ctx, userID, start, end)
	if err != nil {
		return "", err
	}

	cal := ics.NewCalendar()
	cal.SetMethod(ics.MethodPublish)
	cal.SetProductId("-//Remindly//Calendar//EN")

	for i := range occurrences {
		occ := &occurrences[i]
		if occ.EventDate == nil {
			continue
		}
		day := *occ.EventDate

		// One UID per concrete occurrence: virtual projections of the same
		// master get distinct date-suffixed UIDs.
		uid := fmt.Sprintf("%s-%s@remindly", occ.EventID, day.Format(dto.DateLayout))
		ev := cal.AddEvent(uid)
		ev.SetSummary(occ.Title)
		if occ.Description != "" {
			ev.SetDescription(occ.Description)
		}
		ev.SetAllDayStartAt(day)
		ev.SetAllDayEndAt(day.AddDate(0, 0, 1))
		ev.SetDtStampTime(time.Now().UTC())
		if occ.ReminderTime != nil {
			alarm := ev.AddAlarm()
			alarm.SetAction(ics.ActionDisplay)
			alarm.SetTrigger(occ.ReminderTime.UTC().Format("20060102T150405Z"))
		}
	}

	return cal.Serialize(), nil
}

// expand runs the three-pass expansion over model rows. Output keeps the
// pass order (singles, then rescheduled exceptions, then master projections);
// callers needing chronological order sort the result themselves.
func (s *calendarService) expand(ctx context.Context, userID string, start, end time.Time) ([]model.Event, error) {
	var occurrences []model.Event

	// pass 1: stored one-off events
	singles, err := s.repo.Event.FindSinglesInRange(ctx, userID, start, end)
	if err != nil {
		s.logger.Error("expand: load singles failed", zap.Error(err))
		return nil, err
	}
	occurrences = append(occurrences, singles...)

	// pass 2: exceptions. Every exception suppresses the projected
	// occurrence at its original date; rescheduled ones additionally appear
	// at their new date, skips appear nowhere.
	exceptions, err := s.repo.Event.FindExceptionsInRange(ctx, userID, start, end)
	if err != nil {
		s.logger.Error("expand: load exceptions failed", zap.Error(err))
		return nil, err
	}
	suppressed := make(map[string]bool, len(exceptions))
	for i := range exceptions {
		exc := &exceptions[i]
		if exc.ParentEventID != nil && exc.OriginalDate != nil {
			suppressed[suppressionKey(*exc.ParentEventID, *exc.OriginalDate)] = true
		}
		if exc.EventDate != nil && !exc.EventDate.Before(start) && !exc.EventDate.After(end) {
			occurrences = append(occurrences, *exc)
		}
	}

	// pass 3: virtual projections of recurring masters
	masters, err := s.repo.Event.FindMastersAffectingRange(ctx, userID, start, end)
	if err != nil {
		s.logger.Error("expand: load masters failed", zap.Error(err))
		return nil, err
	}
	for i := range masters {
		occurrences = append(occurrences, projectMaster(&masters[i], start, end, suppressed)...)
	}

	return occurrences, nil
}

// projectMaster walks a master's cadence from its anchor date and collects
// the virtual occurrences that land in [start, end], skipping dates a stored
// exception replaces or cancels. Reminders shift with each occurrence,
// keeping the master's day offset and time of day.
func projectMaster(master *model.Event, start, end time.Time, suppressed map[string]bool) []model.Event {
	if master.EventDate == nil {
		return nil
	}

	seriesEnd := end
	if master.RecurrenceEndDate != nil && master.RecurrenceEndDate.Before(end) {
		seriesEnd = *master.RecurrenceEndDate
	}

	var out []model.Event
	current := recurrence.DateOnly(*master.EventDate)
	for steps := 0; steps < maxOccurrencesPerMaster && !current.After(seriesEnd); steps++ {
		if !current.Before(start) && !suppressed[suppressionKey(master.EventID, current)] {
			out = append(out, projectOccurrence(master, current))
		}
		next := recurrence.Advance(current, master.RecurrenceType, master.Interval())
		if !next.After(current) {
			break
		}
		current = next
	}
	return out
}

// projectOccurrence materializes one virtual occurrence of a master without
// touching storage. Every projection points back at the master it came from
// and records the cadence date it stands for, so clients can address it in a
// series move. Successor masters carry a parent link of their own; the
// projection's link always names the row being expanded.
func projectOccurrence(master *model.Event, date time.Time) model.Event {
	occ := *master
	occ.User = nil
	occDate := date
	occ.EventDate = &occDate
	occOriginal := date
	occ.OriginalDate = &occOriginal
	parentID := master.EventID
	occ.ParentEventID = &parentID
	if master.ReminderTime != nil {
		shifted := recurrence.ShiftReminder(*master.ReminderTime, *master.EventDate, date)
		occ.ReminderTime = &shifted
	}
	return occ
}

func suppressionKey(parentID string, date time.Time) string {
	return parentID + "|" + recurrence.DateOnly(date).Format(dto.DateLayout)
}

func parseRange(from, to string) (time.Time, time.Time, error) {
	start, err := parseDate(from)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	end, err := parseDate(to)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	if end.Before(start) {
		return time.Time{}, time.Time{}, ErrRangeInverted
	}
	return start, end, nil
}

func toOccurrenceResponse(e *model.Event) dto.OccurrenceResponse {
	resp := dto.OccurrenceResponse{
		EventID:            e.EventID,
		Title:              e.Title,
		Description:        e.Description,
		ReminderTime:       fmtDateTimePtr(e.ReminderTime),
		RecurrenceType:     string(e.RecurrenceType),
		RecurrenceInterval: e.RecurrenceInt,
		RecurrenceEndDate:  fmtDatePtr(e.RecurrenceEndDate),
		IsException:        e.IsException,
		OriginalDate:       fmtDatePtr(e.OriginalDate),
		ParentEventID:      e.ParentEventID,
	}
	if e.EventDate != nil {
		resp.EventDate = e.EventDate.Format(dto.DateLayout)
	}
	return resp
}
