package handler

import (
	"time"

	"github.com/gin-gonic/gin"

	"remindly/internal/service"
	"remindly/pkg/response"
)

// ReminderHandler serves the reminder listings.
type ReminderHandler struct {
	reminderSvc service.ReminderService
}

// NewReminderHandler builds the ReminderHandler.
func NewReminderHandler(reminderSvc service.ReminderService) *ReminderHandler {
	return &ReminderHandler{reminderSvc: reminderSvc}
}

// ListReminders returns the caller's reminders.
// GET /api/v1/reminders?sent=true|false
func (h *ReminderHandler) ListReminders(c *gin.Context) {
	userID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	now := time.Now().UTC()

	var (
		reminders interface{}
		err       error
	)
	if c.Query("sent") == "true" {
		reminders, err = h.reminderSvc.ListSent(c.Request.Context(), userID, now)
	} else {
		reminders, err = h.reminderSvc.ListUpcoming(c.Request.Context(), userID, now)
	}
	if err != nil {
		response.InternalError(c)
		return
	}

	response.OK(c, reminders)
}
