package service

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"go.uber.org/zap"

	"remindly/internal/model"
)

// weeklyMaster is the reference series used across calendar tests: weekly on
// Saturdays from 2025-03-01 until 2025-04-01, reminder two days ahead at
// 09:00.
func weeklyMaster(userID string) *model.Event {
	return &model.Event{
		UserID:            userID,
		Title:             "Team sync",
		Description:       "weekly standup",
		EventDate:         datePtr(2025, 3, 1),
		ReminderTime:      timePtr(time.Date(2025, 2, 27, 9, 0, 0, 0, time.UTC)),
		RecurrenceType:    model.RecurrenceWeekly,
		RecurrenceInt:     1,
		RecurrenceEndDate: datePtr(2025, 4, 1),
	}
}

func TestExpandRange_WeeklySeries(t *testing.T) {
	repo, events, _ := newTestRepo()
	svc := NewCalendarService(repo, zap.NewNop())
	ctx := context.Background()

	master := weeklyMaster("user-1")
	events.Create(ctx, master)

	occurrences, err := svc.ExpandRange(ctx, "user-1", "2025-03-01", "2025-03-22")
	if err != nil {
		t.Fatalf("ExpandRange failed: %v", err)
	}

	wantDates := []string{"2025-03-01", "2025-03-08", "2025-03-15", "2025-03-22"}
	if len(occurrences) != len(wantDates) {
		t.Fatalf("expected %d occurrences, got %d", len(wantDates), len(occurrences))
	}
	for i, want := range wantDates {
		if occurrences[i].EventDate != want {
			t.Errorf("occurrence %d: expected date %s, got %s", i, want, occurrences[i].EventDate)
		}
		// every projection names its master and the cadence date it stands
		// for, so clients can address it in a series move
		if occurrences[i].ParentEventID == nil || *occurrences[i].ParentEventID != master.EventID {
			t.Errorf("occurrence %d: projection should link its master, got %v", i, occurrences[i].ParentEventID)
		}
		if occurrences[i].OriginalDate == nil || *occurrences[i].OriginalDate != want {
			t.Errorf("occurrence %d: expected original date %s, got %v", i, want, occurrences[i].OriginalDate)
		}
		if occurrences[i].ReminderTime == nil {
			t.Fatalf("occurrence %d: expected a reminder", i)
		}
		// reminder keeps the two-day offset and the 09:00 time of day
		eventDate, _ := time.Parse("2006-01-02", want)
		wantReminder := eventDate.AddDate(0, 0, -2).Add(9 * time.Hour).Format(time.RFC3339)
		if *occurrences[i].ReminderTime != wantReminder {
			t.Errorf("occurrence %d: expected reminder %s, got %s", i, wantReminder, *occurrences[i].ReminderTime)
		}
	}
}

func TestExpandRange_NeverOutsideBounds(t *testing.T) {
	repo, events, _ := newTestRepo()
	svc := NewCalendarService(repo, zap.NewNop())
	ctx := context.Background()

	events.Create(ctx, weeklyMaster("user-1"))
	events.Create(ctx, &model.Event{
		UserID:    "user-1",
		Title:     "One-off outside",
		EventDate: datePtr(2025, 2, 20),
	})
	events.Create(ctx, &model.Event{
		UserID:    "user-1",
		Title:     "One-off inside",
		EventDate: datePtr(2025, 3, 10),
	})

	occurrences, err := svc.ExpandRange(ctx, "user-1", "2025-03-05", "2025-03-16")
	if err != nil {
		t.Fatalf("ExpandRange failed: %v", err)
	}

	for _, occ := range occurrences {
		if occ.EventDate < "2025-03-05" || occ.EventDate > "2025-03-16" {
			t.Errorf("occurrence date %s outside requested range", occ.EventDate)
		}
	}
	// 03-08, 03-10, 03-15
	if len(occurrences) != 3 {
		t.Fatalf("expected 3 occurrences, got %d", len(occurrences))
	}
}

func TestExpandRange_SkipExceptionSuppresses(t *testing.T) {
	repo, events, _ := newTestRepo()
	svc := NewCalendarService(repo, zap.NewNop())
	ctx := context.Background()

	master := weeklyMaster("user-1")
	events.Create(ctx, master)
	events.Create(ctx, &model.Event{
		UserID:        "user-1",
		Title:         master.Title,
		IsException:   true,
		ParentEventID: &master.EventID,
		OriginalDate:  datePtr(2025, 3, 8),
		// EventDate nil: pure cancellation
	})

	occurrences, err := svc.ExpandRange(ctx, "user-1", "2025-03-01", "2025-03-22")
	if err != nil {
		t.Fatalf("ExpandRange failed: %v", err)
	}

	for _, occ := range occurrences {
		if occ.EventDate == "2025-03-08" {
			t.Error("skipped occurrence 2025-03-08 should not be projected")
		}
	}
	if len(occurrences) != 3 {
		t.Fatalf("expected 3 occurrences after skip, got %d", len(occurrences))
	}
}

func TestExpandRange_RescheduledException(t *testing.T) {
	repo, events, _ := newTestRepo()
	svc := NewCalendarService(repo, zap.NewNop())
	ctx := context.Background()

	master := weeklyMaster("user-1")
	events.Create(ctx, master)
	events.Create(ctx, &model.Event{
		UserID:        "user-1",
		Title:         master.Title + " # 2025-03-10",
		IsException:   true,
		ParentEventID: &master.EventID,
		OriginalDate:  datePtr(2025, 3, 8),
		EventDate:     datePtr(2025, 3, 10),
	})

	occurrences, err := svc.ExpandRange(ctx, "user-1", "2025-03-01", "2025-03-22")
	if err != nil {
		t.Fatalf("ExpandRange failed: %v", err)
	}

	var dates []string
	for _, occ := range occurrences {
		dates = append(dates, occ.EventDate)
	}
	// pass order, not chronological: the rescheduled exception comes out
	// before the master's remaining projections
	want := []string{"2025-03-10", "2025-03-01", "2025-03-15", "2025-03-22"}
	if len(dates) != len(want) {
		t.Fatalf("expected dates %v, got %v", want, dates)
	}
	for i := range want {
		if dates[i] != want[i] {
			t.Fatalf("expected dates %v, got %v", want, dates)
		}
	}
}

func TestExpandRange_HonorsRecurrenceEnd(t *testing.T) {
	repo, events, _ := newTestRepo()
	svc := NewCalendarService(repo, zap.NewNop())
	ctx := context.Background()

	events.Create(ctx, weeklyMaster("user-1"))

	occurrences, err := svc.ExpandRange(ctx, "user-1", "2025-03-23", "2025-05-01")
	if err != nil {
		t.Fatalf("ExpandRange failed: %v", err)
	}

	// only 03-29 fits between range start and the 04-01 series end
	if len(occurrences) != 1 || occurrences[0].EventDate != "2025-03-29" {
		t.Fatalf("expected single occurrence on 2025-03-29, got %+v", occurrences)
	}
}

func TestExpandRange_ScopedToUser(t *testing.T) {
	repo, events, _ := newTestRepo()
	svc := NewCalendarService(repo, zap.NewNop())
	ctx := context.Background()

	events.Create(ctx, weeklyMaster("user-1"))
	events.Create(ctx, &model.Event{
		UserID:    "user-2",
		Title:     "Someone else's event",
		EventDate: datePtr(2025, 3, 10),
	})

	occurrences, err := svc.ExpandRange(ctx, "user-2", "2025-03-01", "2025-03-22")
	if err != nil {
		t.Fatalf("ExpandRange failed: %v", err)
	}
	if len(occurrences) != 1 || occurrences[0].Title != "Someone else's event" {
		t.Fatalf("expected only user-2's event, got %+v", occurrences)
	}
}

func TestExpandRange_InvalidInput(t *testing.T) {
	repo, _, _ := newTestRepo()
	svc := NewCalendarService(repo, zap.NewNop())
	ctx := context.Background()

	if _, err := svc.ExpandRange(ctx, "user-1", "not-a-date", "2025-03-22"); !errors.Is(err, ErrInvalidDate) {
		t.Errorf("expected ErrInvalidDate, got %v", err)
	}
	if _, err := svc.ExpandRange(ctx, "user-1", "2025-03-22", "2025-03-01"); !errors.Is(err, ErrRangeInverted) {
		t.Errorf("expected ErrRangeInverted, got %v", err)
	}
}

func TestBuildICSFeed(t *testing.T) {
	repo, events, _ := newTestRepo()
	svc := NewCalendarService(repo, zap.NewNop())
	ctx := context.Background()

	events.Create(ctx, weeklyMaster("user-1"))

	feed, err := svc.BuildICSFeed(ctx, "user-1", "2025-03-01", "2025-03-22")
	if err != nil {
		t.Fatalf("BuildICSFeed failed: %v", err)
	}

	if !strings.Contains(feed, "BEGIN:VCALENDAR") {
		t.Error("feed should be an iCalendar document")
	}
	if got := strings.Count(feed, "BEGIN:VEVENT"); got != 4 {
		t.Errorf("expected 4 VEVENT blocks, got %d", got)
	}
	if !strings.Contains(feed, "Team sync") {
		t.Error("feed should carry the event summary")
	}
	if got := strings.Count(feed, "BEGIN:VALARM"); got != 4 {
		t.Errorf("expected 4 VALARM blocks, got %d", got)
	}
}
