package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"remindly/internal/service"
	"remindly/pkg/response"
)

// CalendarHandler serves the expanded calendar views.
type CalendarHandler struct {
	calendarSvc service.CalendarService
}

// NewCalendarHandler builds the CalendarHandler.
func NewCalendarHandler(calendarSvc service.CalendarService) *CalendarHandler {
	return &CalendarHandler{calendarSvc: calendarSvc}
}

// GetCalendar returns every occurrence in a date range, virtual ones
// included.
// GET /api/v1/calendar?from=yyyy-mm-dd&to=yyyy-mm-dd
func (h *CalendarHandler) GetCalendar(c *gin.Context) {
	userID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	occurrences, err := h.calendarSvc.ExpandRange(c.Request.Context(), userID, c.Query("from"), c.Query("to"))
	if err != nil {
		h.handleCalendarError(c, err)
		return
	}

	response.OK(c, occurrences)
}

// GetICSFeed renders the range as an iCalendar document.
// GET /api/v1/calendar/feed.ics?from=yyyy-mm-dd&to=yyyy-mm-dd
func (h *CalendarHandler) GetICSFeed(c *gin.Context) {
	userID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	feed, err := h.calendarSvc.BuildICSFeed(c.Request.Context(), userID, c.Query("from"), c.Query("to"))
	if err != nil {
		h.handleCalendarError(c, err)
		return
	}

	c.Header("Content-Disposition", `attachment; filename="calendar.ics"`)
	c.Data(http.StatusOK, "text/calendar; charset=utf-8", []byte(feed))
}

func (h *CalendarHandler) handleCalendarError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrInvalidDate), errors.Is(err, service.ErrRangeInverted):
		response.BadRequest(c, 13001, err.Error())
	default:
		response.InternalError(c)
	}
}
