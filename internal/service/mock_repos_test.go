package service

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"gorm.io/gorm"

	"remindly/internal/model"
	"remindly/internal/repository"
)

// ── mock EventRepository ──

type mockEventRepo struct {
	events map[string]*model.Event
	owners map[string]*model.User
	seq    int
}

func newMockEventRepo() *mockEventRepo {
	return &mockEventRepo{
		events: make(map[string]*model.Event),
		owners: make(map[string]*model.User),
	}
}

func (m *mockEventRepo) Create(_ context.Context, event *model.Event) error {
	m.seq++
	if event.EventID == "" {
		event.EventID = fmt.Sprintf("evt-%d", m.seq)
	}
	// monotonic created_at so successor lookups order deterministically
	event.CreatedAt = time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC).Add(time.Duration(m.seq) * time.Second)
	event.UpdatedAt = event.CreatedAt
	m.events[event.EventID] = event
	return nil
}

func (m *mockEventRepo) GetByID(_ context.Context, id string) (*model.Event, error) {
	if e, ok := m.events[id]; ok {
		return e, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockEventRepo) Update(_ context.Context, event *model.Event) error {
	if _, ok := m.events[event.EventID]; !ok {
		return gorm.ErrRecordNotFound
	}
	m.events[event.EventID] = event
	return nil
}

func (m *mockEventRepo) Delete(_ context.Context, id string) error {
	delete(m.events, id)
	return nil
}

func (m *mockEventRepo) List(_ context.Context, userID string, opts repository.ListOptions) ([]model.Event, int64, error) {
	var rows []model.Event
	for _, e := range m.events {
		if userID != "" && e.UserID != userID {
			continue
		}
		if opts.AfterDate != nil && (e.EventDate == nil || e.EventDate.Before(*opts.AfterDate)) {
			continue
		}
		if opts.Search != "" {
			needle := strings.ToLower(opts.Search)
			if !strings.Contains(strings.ToLower(e.Title), needle) &&
				!strings.Contains(strings.ToLower(e.Description), needle) {
				continue
			}
		}
		rows = append(rows, *e)
	}

	sort.Slice(rows, func(i, j int) bool {
		less := false
		switch opts.SortBy {
		case "title":
			if rows[i].Title != rows[j].Title {
				less = rows[i].Title < rows[j].Title
			} else {
				less = rows[i].EventID < rows[j].EventID
			}
		case "event_date":
			di, dj := rows[i].EventDate, rows[j].EventDate
			switch {
			case di == nil:
				less = dj != nil
			case dj == nil:
				less = false
			case !di.Equal(*dj):
				less = di.Before(*dj)
			default:
				less = rows[i].EventID < rows[j].EventID
			}
		case "reminder_time":
			ri, rj := rows[i].ReminderTime, rows[j].ReminderTime
			switch {
			case ri == nil:
				less = rj != nil
			case rj == nil:
				less = false
			case !ri.Equal(*rj):
				less = ri.Before(*rj)
			default:
				less = rows[i].EventID < rows[j].EventID
			}
		default:
			less = rows[i].EventID < rows[j].EventID
		}
		if opts.Desc {
			return !less
		}
		return less
	})

	total := int64(len(rows))
	if opts.Offset >= len(rows) {
		return nil, total, nil
	}
	rows = rows[opts.Offset:]
	if opts.Limit > 0 && opts.Limit < len(rows) {
		rows = rows[:opts.Limit]
	}
	return rows, total, nil
}

func (m *mockEventRepo) CountPerDay(_ context.Context, from, to time.Time) ([]repository.DayCount, error) {
	byDay := make(map[time.Time]int64)
	for _, e := range m.events {
		if e.EventDate == nil || e.EventDate.Before(from) || e.EventDate.After(to) {
			continue
		}
		byDay[*e.EventDate]++
	}
	var counts []repository.DayCount
	for day, n := range byDay {
		counts = append(counts, repository.DayCount{Day: day, Count: n})
	}
	sort.Slice(counts, func(i, j int) bool { return counts[i].Day.Before(counts[j].Day) })
	return counts, nil
}

func (m *mockEventRepo) FindSinglesInRange(_ context.Context, userID string, start, end time.Time) ([]model.Event, error) {
	var out []model.Event
	for _, e := range m.events {
		if e.UserID != userID || e.IsException || e.IsRecurring() {
			continue
		}
		if e.EventDate == nil || e.EventDate.Before(start) || e.EventDate.After(end) {
			continue
		}
		out = append(out, *e)
	}
	return out, nil
}

func (m *mockEventRepo) FindExceptionsInRange(_ context.Context, userID string, start, end time.Time) ([]model.Event, error) {
	inRange := func(d *time.Time) bool {
		return d != nil && !d.Before(start) && !d.After(end)
	}
	var out []model.Event
	for _, e := range m.events {
		if e.UserID != userID || !e.IsException {
			continue
		}
		if inRange(e.EventDate) || inRange(e.OriginalDate) {
			out = append(out, *e)
		}
	}
	return out, nil
}

func (m *mockEventRepo) FindMastersAffectingRange(_ context.Context, userID string, start, end time.Time) ([]model.Event, error) {
	var out []model.Event
	for _, e := range m.events {
		if e.UserID != userID || e.IsException || !e.IsRecurring() {
			continue
		}
		if e.EventDate == nil || e.EventDate.After(end) {
			continue
		}
		if e.RecurrenceEndDate != nil && e.RecurrenceEndDate.Before(start) {
			continue
		}
		out = append(out, *e)
	}
	return out, nil
}

func (m *mockEventRepo) FindExceptionByParentAndOriginalDate(_ context.Context, parentID string, originalDate time.Time) (*model.Event, error) {
	for _, e := range m.events {
		if e.IsException && e.ParentEventID != nil && *e.ParentEventID == parentID &&
			e.OriginalDate != nil && e.OriginalDate.Equal(originalDate) {
			return e, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockEventRepo) FindSuccessorMaster(_ context.Context, parentID string) (*model.Event, error) {
	var found *model.Event
	for _, e := range m.events {
		if e.IsException || e.ParentEventID == nil || *e.ParentEventID != parentID {
			continue
		}
		if found == nil || e.CreatedAt.After(found.CreatedAt) {
			found = e
		}
	}
	if found == nil {
		return nil, gorm.ErrRecordNotFound
	}
	return found, nil
}

func (m *mockEventRepo) FindCurrentMaster(_ context.Context, userID, masterID string) (*model.Event, error) {
	var found *model.Event
	for _, e := range m.events {
		if e.UserID != userID || e.IsException || !e.IsRecurring() {
			continue
		}
		if e.EventID != masterID && (e.ParentEventID == nil || *e.ParentEventID != masterID) {
			continue
		}
		if found == nil || (e.EventDate != nil && found.EventDate != nil && e.EventDate.After(*found.EventDate)) {
			found = e
		}
	}
	if found == nil {
		return nil, gorm.ErrRecordNotFound
	}
	return found, nil
}

func (m *mockEventRepo) DeleteExceptionsAfter(_ context.Context, parentID string, after time.Time) error {
	for id, e := range m.events {
		if e.IsException && e.ParentEventID != nil && *e.ParentEventID == parentID &&
			e.OriginalDate != nil && e.OriginalDate.After(after) {
			delete(m.events, id)
		}
	}
	return nil
}

func (m *mockEventRepo) DeleteExceptionsOfMaster(_ context.Context, parentID string) error {
	for id, e := range m.events {
		if e.IsException && e.ParentEventID != nil && *e.ParentEventID == parentID {
			delete(m.events, id)
		}
	}
	return nil
}

func (m *mockEventRepo) FindDueReminders(_ context.Context, now time.Time) ([]model.Event, error) {
	var out []model.Event
	for _, e := range m.events {
		if e.ReminderSent || e.ReminderTime == nil || e.ReminderTime.After(now) || e.EventDate == nil {
			continue
		}
		copied := *e
		if copied.User == nil {
			copied.User = m.owners[e.UserID]
		}
		out = append(out, copied)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ReminderTime.Before(*out[j].ReminderTime) })
	return out, nil
}

func (m *mockEventRepo) MarkRemindersSentByIDs(_ context.Context, ids []string, sentAt time.Time) (int64, error) {
	var n int64
	for _, id := range ids {
		if e, ok := m.events[id]; ok {
			e.ReminderSent = true
			sent := sentAt
			e.ReminderSentTime = &sent
			n++
		}
	}
	return n, nil
}

func (m *mockEventRepo) FindUpcomingReminders(_ context.Context, userID string, now, until time.Time) ([]model.Event, error) {
	var out []model.Event
	for _, e := range m.events {
		if e.UserID != userID || e.ReminderSent || e.ReminderTime == nil {
			continue
		}
		if e.ReminderTime.Before(now) || e.ReminderTime.After(until) {
			continue
		}
		out = append(out, *e)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ReminderTime.Before(*out[j].ReminderTime) })
	return out, nil
}

func (m *mockEventRepo) FindSentReminders(_ context.Context, userID string, since, now time.Time) ([]model.Event, error) {
	var out []model.Event
	for _, e := range m.events {
		if e.UserID != userID || !e.ReminderSent || e.ReminderSentTime == nil {
			continue
		}
		if e.ReminderSentTime.Before(since) || e.ReminderSentTime.After(now) {
			continue
		}
		out = append(out, *e)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ReminderSentTime.After(*out[j].ReminderSentTime) })
	return out, nil
}

// ── mock UserRepository ──

type mockUserRepo struct {
	users map[string]*model.User
	seq   int
}

func newMockUserRepo() *mockUserRepo {
	return &mockUserRepo{users: make(map[string]*model.User)}
}

func (m *mockUserRepo) Create(_ context.Context, user *model.User) error {
	m.seq++
	if user.UserID == "" {
		user.UserID = fmt.Sprintf("user-%d", m.seq)
	}
	m.users[user.UserID] = user
	return nil
}

func (m *mockUserRepo) GetByID(_ context.Context, id string) (*model.User, error) {
	if u, ok := m.users[id]; ok {
		return u, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockUserRepo) GetByEmail(_ context.Context, email string) (*model.User, error) {
	for _, u := range m.users {
		if u.Email == email {
			return u, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockUserRepo) Update(_ context.Context, user *model.User) error {
	m.users[user.UserID] = user
	return nil
}

// ── mock mail.Sender ──

type mockMailer struct {
	sent []sentMail
	fail bool
}

type sentMail struct {
	to      string
	subject string
	body    string
}

func (m *mockMailer) Send(to, subject, htmlBody string) error {
	if m.fail {
		return errors.New("smtp unavailable")
	}
	m.sent = append(m.sent, sentMail{to: to, subject: subject, body: htmlBody})
	return nil
}

// ── shared helpers ──

func newTestRepo() (*repository.Repository, *mockEventRepo, *mockUserRepo) {
	events := newMockEventRepo()
	users := newMockUserRepo()
	return &repository.Repository{Event: events, User: users}, events, users
}

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func datePtr(y int, m time.Month, d int) *time.Time {
	t := date(y, m, d)
	return &t
}

func timePtr(t time.Time) *time.Time { return &t }

func strPtr(s string) *string { return &s }
