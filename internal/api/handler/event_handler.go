package handler

import (
	"errors"
	"time"

	"github.com/gin-gonic/gin"

	"remindly/internal/dto"
	"remindly/internal/recurrence"
	"remindly/internal/service"
	"remindly/pkg/response"
)

// EventHandler serves event CRUD, listings and the series move endpoints.
type EventHandler struct {
	eventSvc  service.EventService
	seriesSvc service.SeriesService
}

// NewEventHandler builds the EventHandler.
func NewEventHandler(eventSvc service.EventService, seriesSvc service.SeriesService) *EventHandler {
	return &EventHandler{eventSvc: eventSvc, seriesSvc: seriesSvc}
}

// CreateEvent creates an event.
// POST /api/v1/events
func (h *EventHandler) CreateEvent(c *gin.Context) {
	userID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	var req dto.EventRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "invalid request body")
		return
	}

	event, err := h.eventSvc.Create(c.Request.Context(), userID, &req, time.Now().UTC())
	if err != nil {
		h.handleEventError(c, err)
		return
	}

	response.Created(c, event)
}

// GetEvent returns one stored event row.
// GET /api/v1/events/:id
func (h *EventHandler) GetEvent(c *gin.Context) {
	userID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	event, err := h.eventSvc.GetByID(c.Request.Context(), userID, c.Param("id"))
	if err != nil {
		h.handleEventError(c, err)
		return
	}

	response.OK(c, event)
}

// UpdateEvent fully updates an event.
// PUT /api/v1/events/:id
func (h *EventHandler) UpdateEvent(c *gin.Context) {
	userID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	var req dto.EventRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "invalid request body")
		return
	}

	event, err := h.eventSvc.Update(c.Request.Context(), userID, c.Param("id"), &req, time.Now().UTC())
	if err != nil {
		h.handleEventError(c, err)
		return
	}

	response.OK(c, event)
}

// DeleteEvent deletes an event (and, for a master, its exceptions).
// DELETE /api/v1/events/:id
func (h *EventHandler) DeleteEvent(c *gin.Context) {
	userID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	if err := h.eventSvc.Delete(c.Request.Context(), userID, c.Param("id")); err != nil {
		h.handleEventError(c, err)
		return
	}

	response.OK(c, nil)
}

// MoveEventDate reschedules a standalone event.
// PUT /api/v1/events/:id/date
func (h *EventHandler) MoveEventDate(c *gin.Context) {
	userID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	var req dto.MoveEventDateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "invalid request body")
		return
	}

	event, err := h.eventSvc.MoveEventDate(c.Request.Context(), userID, c.Param("id"), req.NewDate, time.Now().UTC())
	if err != nil {
		h.handleEventError(c, err)
		return
	}

	response.OK(c, event)
}

// MoveOccurrence moves one occurrence, a tail, or a whole series.
// PUT /api/v1/events/:id/occurrence
func (h *EventHandler) MoveOccurrence(c *gin.Context) {
	userID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	var req dto.MoveOccurrenceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "invalid request body")
		return
	}

	err := h.seriesSvc.MoveOccurrence(c.Request.Context(), userID, c.Param("id"), &req, time.Now().UTC())
	if err != nil {
		h.handleEventError(c, err)
		return
	}

	response.OK(c, nil)
}

// ListEvents pages the caller's stored rows.
// GET /api/v1/events
func (h *EventHandler) ListEvents(c *gin.Context) {
	userID, ok := MustGetUserID(c)
	if !ok {
		return
	}
	h.list(c, userID)
}

// ListAllEvents pages every user's rows.
// GET /api/v1/admin/events
func (h *EventHandler) ListAllEvents(c *gin.Context) {
	h.list(c, "")
}

func (h *EventHandler) list(c *gin.Context, userID string) {
	var req dto.EventListRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		response.BadRequest(c, 10001, "invalid query parameters")
		return
	}

	events, total, err := h.eventSvc.List(c.Request.Context(), userID, &req)
	if err != nil {
		h.handleEventError(c, err)
		return
	}

	response.OKPage(c, events, total, req.GetPage(), req.GetPageSize())
}

// EventsPerDay returns the per-day event histogram.
// GET /api/v1/admin/events/stats?from=yyyy-mm-dd&to=yyyy-mm-dd
func (h *EventHandler) EventsPerDay(c *gin.Context) {
	from, err := time.Parse(dto.DateLayout, c.Query("from"))
	if err != nil {
		response.BadRequest(c, 10001, "from must be yyyy-mm-dd")
		return
	}
	to, err := time.Parse(dto.DateLayout, c.Query("to"))
	if err != nil {
		response.BadRequest(c, 10001, "to must be yyyy-mm-dd")
		return
	}

	counts, err := h.eventSvc.EventsPerDay(c.Request.Context(), from, to)
	if err != nil {
		h.handleEventError(c, err)
		return
	}

	response.OK(c, counts)
}

func (h *EventHandler) handleEventError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrEventNotFound):
		response.NotFound(c, 12001, "event not found")
	case errors.Is(err, service.ErrEventForbidden):
		response.Forbidden(c, 12002, "event belongs to another user")
	case errors.Is(err, service.ErrInvalidDate),
		errors.Is(err, service.ErrInvalidDateTime),
		errors.Is(err, service.ErrInvalidRecurrence),
		errors.Is(err, service.ErrReminderAfterEvent),
		errors.Is(err, service.ErrEndBeforeStart),
		errors.Is(err, service.ErrDateTooEarly),
		errors.Is(err, service.ErrDateAfterSeriesEnd),
		errors.Is(err, service.ErrUnknownMoveMode),
		errors.Is(err, service.ErrNotRecurring),
		errors.Is(err, service.ErrRangeInverted),
		errors.Is(err, recurrence.ErrReminderInPast):
		response.BadRequest(c, 12003, err.Error())
	case errors.Is(err, service.ErrSplitStateCorrupted):
		response.InternalError(c)
	default:
		response.InternalError(c)
	}
}
