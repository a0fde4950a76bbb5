package model

import "time"

// RecurrenceType enumerates the supported repeat cadences.
type RecurrenceType string

const (
	RecurrenceNone    RecurrenceType = "NONE"
	RecurrenceDaily   RecurrenceType = "DAILY"
	RecurrenceWeekly  RecurrenceType = "WEEKLY"
	RecurrenceMonthly RecurrenceType = "MONTHLY"
	RecurrenceYearly  RecurrenceType = "YEARLY"
)

// Valid reports whether t is one of the known recurrence types.
func (t RecurrenceType) Valid() bool {
	switch t {
	case RecurrenceNone, RecurrenceDaily, RecurrenceWeekly, RecurrenceMonthly, RecurrenceYearly:
		return true
	}
	return false
}

// EventKind is the logical role of an event row. Rows live in one physical
// table; branching on the kind keeps the nullable discriminator columns out
// of business logic.
type EventKind int

const (
	// KindStandalone is a plain one-off occurrence.
	KindStandalone EventKind = iota
	// KindMaster anchors a recurring series; its occurrences are virtual.
	KindMaster
	// KindException is a stored deviation (reschedule or skip) from a
	// master's projected occurrence.
	KindException
)

// Event is the only persisted scheduling entity, corresponds to events.
//
// A master row anchors a recurring series. No row is stored per virtual
// occurrence; the calendar service computes them on read. Exception rows
// reference the master via ParentEventID and the projected date they replace
// via OriginalDate; a null EventDate on an exception means the occurrence is
// skipped entirely.
type Event struct {
	EventID           string         `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"event_id"`
	UserID            string         `gorm:"type:uuid;not null;index"                       json:"user_id"`
	Title             string         `gorm:"type:varchar(200);not null"                     json:"title"`
	Description       string         `gorm:"type:text"                                      json:"description"`
	EventDate         *time.Time     `gorm:"type:date"                                      json:"event_date,omitempty"`
	ReminderTime      *time.Time     `json:"reminder_time,omitempty"`
	RecurrenceType    RecurrenceType `gorm:"type:varchar(10);not null;default:'NONE'"       json:"recurrence_type"`
	RecurrenceInt     int            `gorm:"column:recurrence_interval;not null;default:1"  json:"recurrence_interval"`
	RecurrenceEndDate *time.Time     `gorm:"type:date"                                      json:"recurrence_end_date,omitempty"`
	IsException       bool           `gorm:"not null;default:false"                         json:"is_exception"`
	OriginalDate      *time.Time     `gorm:"type:date"                                      json:"original_date,omitempty"`
	ParentEventID     *string        `gorm:"type:uuid;index"                                json:"parent_event_id,omitempty"`
	ReminderSent      bool           `gorm:"not null;default:false"                         json:"reminder_sent"`
	ReminderSentTime  *time.Time     `json:"reminder_sent_time,omitempty"`
	BaseModel

	User *User `gorm:"foreignKey:UserID;references:UserID" json:"user,omitempty"`
}

// TableName sets the table name.
func (Event) TableName() string { return "events" }

// Kind classifies the row. Exceptions win over recurrence metadata: a split
// successor carries both a parent link and recurrence but is a master.
func (e *Event) Kind() EventKind {
	if e.IsException {
		return KindException
	}
	if e.IsRecurring() {
		return KindMaster
	}
	return KindStandalone
}

// IsRecurring reports whether the row anchors a repeating series.
func (e *Event) IsRecurring() bool {
	return e.RecurrenceType != "" && e.RecurrenceType != RecurrenceNone
}

// IsSkip reports whether the row is a pure cancellation of a projected
// occurrence (exception with no replacement date).
func (e *Event) IsSkip() bool {
	return e.IsException && e.EventDate == nil
}

// Interval returns the recurrence interval normalized to a positive integer.
func (e *Event) Interval() int {
	if e.RecurrenceInt <= 0 {
		return 1
	}
	return e.RecurrenceInt
}

// ResetReminderState clears delivery state after an edit that changed
// EventDate or ReminderTime; reminder_sent flips false→true exactly once per
// occurrence lifecycle, so any such edit starts a new lifecycle.
func (e *Event) ResetReminderState() {
	e.ReminderSent = false
	e.ReminderSentTime = nil
}
