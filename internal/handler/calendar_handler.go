package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/sma-calendar-portlet/internal/dto"
	"github.com/noah-isme/sma-calendar-portlet/internal/models"
	appErrors "github.com/noah-isme/sma-calendar-portlet/pkg/errors"
	"github.com/noah-isme/sma-calendar-portlet/pkg/response"
)

type calendarViewService interface {
	Render(ctx context.Context, req dto.CalendarViewRequest) (*dto.CalendarViewResponse, error)
}

type calendarEventService interface {
	ListEvents(ctx context.Context, req dto.CalendarEventsRequest) (*dto.CalendarEventsResponse, error)
}

type sessionRangeService interface {
	UpdateRange(ctx context.Context, sessionID string, state *models.SessionState, req dto.UpdateSessionRangeRequest) (*dto.SessionRangeResponse, error)
}

// CalendarHandler exposes the calendar portlet endpoints.
type CalendarHandler struct {
	views    calendarViewService
	events   calendarEventService
	sessions sessionRangeService
}

// NewCalendarHandler constructs the handler.
func NewCalendarHandler(views calendarViewService, events calendarEventService, sessions sessionRangeService) *CalendarHandler {
	return &CalendarHandler{views: views, events: events, sessions: sessions}
}

// View godoc
// @Summary Render the calendar portlet view
// @Tags Calendar
// @Produce json
// @Param windowId path string true "Portal window ID"
// @Param interval query string false "ISO-8601 interval, e.g. 2024-01-01T00:00:00.000Z/P7D"
// @Param hideCalendar query int false "Calendar configuration ID to hide"
// @Param showCalendar query int false "Calendar configuration ID to show"
// @Param windowState query string false "Portal window state (MAXIMIZED, DETACHED, NORMAL)"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /portlets/{windowId}/calendar [get]
func (h *CalendarHandler) View(c *gin.Context) {
	sessionID, session := sessionFromContext(c)
	req := dto.CalendarViewRequest{
		WindowID:     c.Param("windowId"),
		SessionID:    sessionID,
		Session:      session,
		Interval:     c.Query("interval"),
		HideCalendar: c.Query("hideCalendar"),
		ShowCalendar: c.Query("showCalendar"),
		WindowState:  windowState(c),
		Guest:        claimsFromContext(c) == nil,
	}

	resp, err := h.views.Render(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, resp)
}

// Events godoc
// @Summary List occurrences of every visible calendar
// @Tags Calendar
// @Produce json
// @Param windowId path string true "Portal window ID"
// @Param interval query string false "ISO-8601 interval"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /portlets/{windowId}/calendar/events [get]
func (h *CalendarHandler) Events(c *gin.Context) {
	_, session := sessionFromContext(c)
	resp, err := h.events.ListEvents(c.Request.Context(), dto.CalendarEventsRequest{
		WindowID: c.Param("windowId"),
		Session:  session,
		Interval: c.Query("interval"),
	})
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, resp, map[string]interface{}{
		"total":  len(resp.Events),
		"failed": len(resp.Errors),
	})
}

// UpdateSession godoc
// @Summary Change the displayed date range of the session
// @Tags Calendar
// @Accept json
// @Produce json
// @Param windowId path string true "Portal window ID"
// @Param payload body dto.UpdateSessionRangeRequest true "Range payload"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /portlets/{windowId}/calendar/session [put]
func (h *CalendarHandler) UpdateSession(c *gin.Context) {
	var req dto.UpdateSessionRangeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid payload"))
		return
	}
	sessionID, session := sessionFromContext(c)
	resp, err := h.sessions.UpdateRange(c.Request.Context(), sessionID, session, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, resp)
}
