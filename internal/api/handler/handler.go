package handler

import "remindly/internal/service"

// Handler aggregates all HTTP handlers.
type Handler struct {
	Auth     *AuthHandler
	Event    *EventHandler
	Calendar *CalendarHandler
	Reminder *ReminderHandler
	Export   *ExportHandler
}

// NewHandler builds the handler aggregate.
func NewHandler(svc *service.Service) *Handler {
	return &Handler{
		Auth:     NewAuthHandler(svc.Auth),
		Event:    NewEventHandler(svc.Event, svc.Series),
		Calendar: NewCalendarHandler(svc.Calendar),
		Reminder: NewReminderHandler(svc.Reminder),
		Export:   NewExportHandler(svc.Export),
	}
}
