package dto

// ── event requests ──

// EventRequest creates or fully updates an event. Dates travel as
// yyyy-mm-dd strings, timestamps as RFC 3339; parsing happens in the service
// so a malformed date surfaces as one clear validation error.
type EventRequest struct {
	Title              string  `json:"title"       binding:"required,min=1,max=200"`
	Description        string  `json:"description" binding:"max=2000"`
	EventDate          string  `json:"event_date"  binding:"required"`
	ReminderTime       *string `json:"reminder_time"`
	RecurrenceType     string  `json:"recurrence_type"`
	RecurrenceInterval int     `json:"recurrence_interval"`
	RecurrenceEndDate  *string `json:"recurrence_end_date"`
}

// MoveOccurrenceRequest moves one occurrence, a tail, or a whole series.
type MoveOccurrenceRequest struct {
	OriginalDate string `json:"original_date" binding:"required"`
	NewDate      string `json:"new_date"      binding:"required"`
	Mode         string `json:"mode"          binding:"required"` // SINGLE | THIS_AND_FUTURE | ALL
}

// MoveEventDateRequest moves a standalone event to a new date.
type MoveEventDateRequest struct {
	NewDate string `json:"new_date" binding:"required"`
}

// EventListRequest carries listing filters.
type EventListRequest struct {
	SortBy    string `form:"sort_by"`
	Direction string `form:"direction"`
	AfterDate string `form:"after_date"`
	Search    string `form:"search"`
	PaginationRequest
}

// ── event responses ──

// EventResponse is the full stored-row view.
type EventResponse struct {
	ID                 string  `json:"id"`
	Title              string  `json:"title"`
	Description        string  `json:"description,omitempty"`
	EventDate          *string `json:"event_date,omitempty"`
	ReminderTime       *string `json:"reminder_time,omitempty"`
	RecurrenceType     string  `json:"recurrence_type"`
	RecurrenceInterval int     `json:"recurrence_interval"`
	RecurrenceEndDate  *string `json:"recurrence_end_date,omitempty"`
	IsException        bool    `json:"is_exception"`
	OriginalDate       *string `json:"original_date,omitempty"`
	ParentEventID      *string `json:"parent_event_id,omitempty"`
	ReminderSent       bool    `json:"reminder_sent"`
	ReminderSentTime   *string `json:"reminder_sent_time,omitempty"`
	CreatedAt          string  `json:"created_at"`
	UpdatedAt          string  `json:"updated_at"`
}

// OccurrenceResponse is one concrete calendar occurrence, either a stored
// row or a virtual projection of a recurring master.
type OccurrenceResponse struct {
	EventID            string  `json:"event_id"`
	Title              string  `json:"title"`
	Description        string  `json:"description,omitempty"`
	EventDate          string  `json:"event_date"`
	ReminderTime       *string `json:"reminder_time,omitempty"`
	RecurrenceType     string  `json:"recurrence_type"`
	RecurrenceInterval int     `json:"recurrence_interval,omitempty"`
	RecurrenceEndDate  *string `json:"recurrence_end_date,omitempty"`
	IsException        bool    `json:"is_exception"`
	OriginalDate       *string `json:"original_date,omitempty"`
	ParentEventID      *string `json:"parent_event_id,omitempty"`
}

// ReminderResponse is one entry of a user's reminder listing.
type ReminderResponse struct {
	EventID      string  `json:"event_id"`
	Title        string  `json:"title"`
	EventDate    *string `json:"event_date,omitempty"`
	ReminderTime string  `json:"reminder_time"`
	Sent         bool    `json:"sent"`
	SentTime     *string `json:"sent_time,omitempty"`
}

// DayCountResponse is one bucket of the events-per-day histogram.
type DayCountResponse struct {
	Date  string `json:"date"`
	Count int64  `json:"count"`
}
