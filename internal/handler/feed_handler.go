package handler

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/sma-calendar-portlet/internal/service"
	"github.com/noah-isme/sma-calendar-portlet/pkg/response"
)

type calendarFeedService interface {
	Export(ctx context.Context, token string) (*service.CalendarFeed, error)
}

// FeedHandler serves signed iCalendar exports.
type FeedHandler struct {
	feeds calendarFeedService
}

// NewFeedHandler constructs the handler.
func NewFeedHandler(feeds calendarFeedService) *FeedHandler {
	return &FeedHandler{feeds: feeds}
}

// Export godoc
// @Summary Download a calendar as iCalendar
// @Tags Feeds
// @Produce text/calendar
// @Param token path string true "Signed feed token"
// @Success 200 {string} string "iCalendar document"
// @Failure 404 {object} response.Envelope
// @Router /feeds/{token} [get]
func (h *FeedHandler) Export(c *gin.Context) {
	feed, err := h.feeds.Export(c.Request.Context(), c.Param("token"))
	if err != nil {
		response.Error(c, err)
		return
	}
	c.Header("Content-Disposition", fmt.Sprintf("inline; filename=%q", feedFilename(feed.Name)))
	c.Header("Cache-Control", "private, max-age=300")
	c.Data(http.StatusOK, "text/calendar; charset=utf-8", feed.Body)
}

func feedFilename(name string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(name) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
		case r == ' ' || r == '-' || r == '_':
			b.WriteRune('-')
		}
	}
	if b.Len() == 0 {
		return "calendar.ics"
	}
	return b.String() + ".ics"
}
