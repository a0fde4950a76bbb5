package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"go.uber.org/zap"

	"remindly/internal/dto"
	"remindly/internal/model"
)

var eventNow = time.Date(2025, 2, 27, 12, 0, 0, 0, time.UTC)

func TestCreateEvent(t *testing.T) {
	repo, _, _ := newTestRepo()
	svc := NewEventService(repo, zap.NewNop())
	ctx := context.Background()

	created, err := svc.Create(ctx, "user-1", &dto.EventRequest{
		Title:          "Team sync",
		Description:    "weekly standup",
		EventDate:      "2025-03-01",
		ReminderTime:   strPtr("2025-02-27T09:00:00Z"),
		RecurrenceType: "WEEKLY",
	}, time.Date(2025, 2, 20, 0, 0, 0, 0, time.UTC))
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	if created.ID == "" {
		t.Error("created event should have an id")
	}
	if created.RecurrenceInterval != 1 {
		t.Errorf("absent interval should normalize to 1, got %d", created.RecurrenceInterval)
	}
	if created.EventDate == nil || *created.EventDate != "2025-03-01" {
		t.Errorf("unexpected event date %v", created.EventDate)
	}
	if created.ReminderSent {
		t.Error("new event must start unsent")
	}
}

func TestCreateEvent_Validation(t *testing.T) {
	repo, _, _ := newTestRepo()
	svc := NewEventService(repo, zap.NewNop())
	ctx := context.Background()

	cases := []struct {
		name    string
		req     *dto.EventRequest
		wantErr error
	}{
		{"malformed date", &dto.EventRequest{Title: "x", EventDate: "March 1st"}, ErrInvalidDate},
		{"unknown recurrence", &dto.EventRequest{Title: "x", EventDate: "2025-03-01", RecurrenceType: "FORTNIGHTLY"}, ErrInvalidRecurrence},
		{"reminder after event", &dto.EventRequest{Title: "x", EventDate: "2025-03-01", ReminderTime: strPtr("2025-03-02T09:00:00Z")}, ErrReminderAfterEvent},
		{"reminder in past", &dto.EventRequest{Title: "x", EventDate: "2025-03-01", ReminderTime: strPtr("2025-02-20T09:00:00Z")}, nil},
		{"end before start", &dto.EventRequest{Title: "x", EventDate: "2025-03-01", RecurrenceType: "WEEKLY", RecurrenceEndDate: strPtr("2025-02-01")}, ErrEndBeforeStart},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := svc.Create(ctx, "user-1", tc.req, eventNow)
			if tc.wantErr != nil {
				if !errors.Is(err, tc.wantErr) {
					t.Errorf("expected %v, got %v", tc.wantErr, err)
				}
				return
			}
			if err == nil {
				t.Error("expected an error")
			}
		})
	}
}

func TestUpdateEvent_ResetsDeliveryStateOnDateChange(t *testing.T) {
	repo, events, _ := newTestRepo()
	svc := NewEventService(repo, zap.NewNop())
	ctx := context.Background()

	event := &model.Event{
		UserID:           "user-1",
		Title:            "Dentist",
		EventDate:        datePtr(2025, 3, 5),
		ReminderTime:     timePtr(time.Date(2025, 3, 4, 10, 0, 0, 0, time.UTC)),
		ReminderSent:     true,
		ReminderSentTime: timePtr(time.Date(2025, 3, 4, 10, 1, 0, 0, time.UTC)),
	}
	events.Create(ctx, event)

	updated, err := svc.Update(ctx, "user-1", event.EventID, &dto.EventRequest{
		Title:        "Dentist",
		EventDate:    "2025-03-12",
		ReminderTime: strPtr("2025-03-11T10:00:00Z"),
	}, eventNow)
	if err != nil {
		t.Fatalf("Update failed: %v", err)
	}

	if updated.ReminderSent {
		t.Error("date change must reset reminder_sent")
	}
	if updated.ReminderSentTime != nil {
		t.Error("date change must clear reminder_sent_time")
	}
}

func TestUpdateEvent_KeepsDeliveryStateWhenScheduleUnchanged(t *testing.T) {
	repo, events, _ := newTestRepo()
	svc := NewEventService(repo, zap.NewNop())
	ctx := context.Background()

	event := &model.Event{
		UserID:           "user-1",
		Title:            "Dentist",
		EventDate:        datePtr(2025, 3, 5),
		ReminderTime:     timePtr(time.Date(2025, 3, 4, 10, 0, 0, 0, time.UTC)),
		ReminderSent:     true,
		ReminderSentTime: timePtr(time.Date(2025, 3, 4, 10, 1, 0, 0, time.UTC)),
	}
	events.Create(ctx, event)

	updated, err := svc.Update(ctx, "user-1", event.EventID, &dto.EventRequest{
		Title:        "Dentist (rescheduled room)",
		EventDate:    "2025-03-05",
		ReminderTime: strPtr("2025-03-04T10:00:00Z"),
	}, eventNow)
	if err != nil {
		t.Fatalf("Update failed: %v", err)
	}

	if !updated.ReminderSent {
		t.Error("title-only edit must not reset delivery state")
	}
}

func TestEventOwnership(t *testing.T) {
	repo, events, _ := newTestRepo()
	svc := NewEventService(repo, zap.NewNop())
	ctx := context.Background()

	event := &model.Event{UserID: "user-1", Title: "Private", EventDate: datePtr(2025, 3, 5)}
	events.Create(ctx, event)

	if _, err := svc.GetByID(ctx, "user-2", event.EventID); !errors.Is(err, ErrEventForbidden) {
		t.Errorf("expected ErrEventForbidden, got %v", err)
	}
	if _, err := svc.GetByID(ctx, "user-1", "missing"); !errors.Is(err, ErrEventNotFound) {
		t.Errorf("expected ErrEventNotFound, got %v", err)
	}
	if err := svc.Delete(ctx, "user-2", event.EventID); !errors.Is(err, ErrEventForbidden) {
		t.Errorf("expected ErrEventForbidden on delete, got %v", err)
	}
}

func TestDeleteMaster_RemovesExceptions(t *testing.T) {
	repo, events, _ := newTestRepo()
	svc := NewEventService(repo, zap.NewNop())
	ctx := context.Background()

	master := weeklyMaster("user-1")
	events.Create(ctx, master)
	events.Create(ctx, &model.Event{
		UserID:        "user-1",
		Title:         master.Title,
		IsException:   true,
		ParentEventID: &master.EventID,
		OriginalDate:  datePtr(2025, 3, 8),
	})

	if err := svc.Delete(ctx, "user-1", master.EventID); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	if len(events.events) != 0 {
		t.Errorf("master delete should cascade to exceptions, %d rows left", len(events.events))
	}
}

func TestMoveEventDate_ShiftsReminder(t *testing.T) {
	repo, events, _ := newTestRepo()
	svc := NewEventService(repo, zap.NewNop())
	ctx := context.Background()

	event := &model.Event{
		UserID:       "user-1",
		Title:        "Dentist",
		EventDate:    datePtr(2025, 3, 5),
		ReminderTime: timePtr(time.Date(2025, 3, 4, 10, 0, 0, 0, time.UTC)),
		ReminderSent: true,
	}
	events.Create(ctx, event)

	moved, err := svc.MoveEventDate(ctx, "user-1", event.EventID, "2025-03-12", eventNow)
	if err != nil {
		t.Fatalf("MoveEventDate failed: %v", err)
	}

	if moved.EventDate == nil || *moved.EventDate != "2025-03-12" {
		t.Errorf("unexpected event date %v", moved.EventDate)
	}
	// one-day gap and 10:00 time of day preserved
	if moved.ReminderTime == nil || *moved.ReminderTime != "2025-03-11T10:00:00Z" {
		t.Errorf("unexpected reminder %v", moved.ReminderTime)
	}
	if moved.ReminderSent {
		t.Error("move must reset delivery state")
	}

	if _, err := svc.MoveEventDate(ctx, "user-1", event.EventID, "2025-02-26", eventNow); !errors.Is(err, ErrDateTooEarly) {
		t.Errorf("expected ErrDateTooEarly, got %v", err)
	}
}

func TestListEvents_SortingAndPaging(t *testing.T) {
	repo, events, _ := newTestRepo()
	svc := NewEventService(repo, zap.NewNop())
	ctx := context.Background()

	titles := []string{"banana", "apple", "cherry"}
	for i, title := range titles {
		events.Create(ctx, &model.Event{
			UserID:    "user-1",
			Title:     title,
			EventDate: datePtr(2025, 3, 1+i),
		})
	}
	events.Create(ctx, &model.Event{UserID: "user-2", Title: "other", EventDate: datePtr(2025, 3, 1)})

	list, total, err := svc.List(ctx, "user-1", &dto.EventListRequest{SortBy: "title"})
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if total != 3 {
		t.Fatalf("expected total 3, got %d", total)
	}
	if list[0].Title != "apple" || list[2].Title != "cherry" {
		t.Errorf("expected title-sorted listing, got %v", []string{list[0].Title, list[1].Title, list[2].Title})
	}

	// descending with paging
	list, _, err = svc.List(ctx, "user-1", &dto.EventListRequest{
		SortBy:            "title",
		Direction:         "desc",
		PaginationRequest: dto.PaginationRequest{Page: 1, PageSize: 2},
	})
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(list) != 2 || list[0].Title != "cherry" {
		t.Errorf("expected descending page starting at cherry, got %+v", list)
	}

	// unknown sort column falls back to the primary key instead of erroring
	if _, _, err := svc.List(ctx, "user-1", &dto.EventListRequest{SortBy: "password_hash"}); err != nil {
		t.Errorf("unknown sort column should fall back, got %v", err)
	}

	// empty user id lists across owners
	_, total, err = svc.List(ctx, "", &dto.EventListRequest{})
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if total != 4 {
		t.Errorf("expected 4 rows across owners, got %d", total)
	}
}

func TestListEvents_SearchAndAfterDate(t *testing.T) {
	repo, events, _ := newTestRepo()
	svc := NewEventService(repo, zap.NewNop())
	ctx := context.Background()

	events.Create(ctx, &model.Event{UserID: "user-1", Title: "Dentist appointment", EventDate: datePtr(2025, 3, 1)})
	events.Create(ctx, &model.Event{UserID: "user-1", Title: "Standup", Description: "with the dentist team", EventDate: datePtr(2025, 3, 10)})
	events.Create(ctx, &model.Event{UserID: "user-1", Title: "Lunch", EventDate: datePtr(2025, 3, 20)})

	list, total, err := svc.List(ctx, "user-1", &dto.EventListRequest{Search: "DENTIST"})
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if total != 2 {
		t.Fatalf("case-insensitive search over title and description should match 2, got %d", total)
	}
	_ = list

	_, total, err = svc.List(ctx, "user-1", &dto.EventListRequest{AfterDate: "2025-03-05"})
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if total != 2 {
		t.Errorf("expected 2 rows on or after 2025-03-05, got %d", total)
	}

	if _, _, err := svc.List(ctx, "user-1", &dto.EventListRequest{AfterDate: "someday"}); !errors.Is(err, ErrInvalidDate) {
		t.Errorf("expected ErrInvalidDate, got %v", err)
	}
}

func TestEventsPerDay(t *testing.T) {
	repo, events, _ := newTestRepo()
	svc := NewEventService(repo, zap.NewNop())
	ctx := context.Background()

	events.Create(ctx, &model.Event{UserID: "user-1", Title: "a", EventDate: datePtr(2025, 3, 1)})
	events.Create(ctx, &model.Event{UserID: "user-2", Title: "b", EventDate: datePtr(2025, 3, 1)})
	events.Create(ctx, &model.Event{UserID: "user-1", Title: "c", EventDate: datePtr(2025, 3, 2)})

	counts, err := svc.EventsPerDay(ctx, date(2025, 3, 1), date(2025, 3, 31))
	if err != nil {
		t.Fatalf("EventsPerDay failed: %v", err)
	}
	if len(counts) != 2 {
		t.Fatalf("expected 2 buckets, got %d", len(counts))
	}
	if counts[0].Date != "2025-03-01" || counts[0].Count != 2 {
		t.Errorf("unexpected first bucket %+v", counts[0])
	}
}
