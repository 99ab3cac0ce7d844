package middleware

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/noah-isme/sma-calendar-portlet/internal/models"
	"github.com/noah-isme/sma-calendar-portlet/pkg/response"
)

// Context keys set by Session.
const (
	ContextSessionIDKey = "calendarSessionID"
	ContextSessionKey   = "calendarSession"
)

// SessionLoader loads (and possibly bootstraps) the calendar session of a window.
type SessionLoader interface {
	Load(ctx context.Context, sessionID, windowID string) (*models.SessionState, error)
}

// SessionCookie configures the session cookie.
type SessionCookie struct {
	Name   string
	TTL    time.Duration
	Secure bool
}

// Session resolves the calendar session from its cookie, issuing a new id when
// the cookie is missing or malformed, and stores the state in the gin context.
func Session(loader SessionLoader, cookie SessionCookie) gin.HandlerFunc {
	if cookie.Name == "" {
		cookie.Name = "calendar_session"
	}
	return func(c *gin.Context) {
		sessionID, err := c.Cookie(cookie.Name)
		if err == nil {
			if _, perr := uuid.Parse(sessionID); perr != nil {
				err = perr
			}
		}
		if err != nil {
			sessionID = uuid.NewString()
		}
		c.SetSameSite(http.SameSiteLaxMode)
		c.SetCookie(cookie.Name, sessionID, int(cookie.TTL.Seconds()), "/", "", cookie.Secure, true)

		state, err := loader.Load(c.Request.Context(), sessionID, c.Param("windowId"))
		if err != nil {
			response.Error(c, err)
			c.Abort()
			return
		}

		c.Set(ContextSessionIDKey, sessionID)
		c.Set(ContextSessionKey, state)
		c.Next()
	}
}

// SessionState returns the session loaded by Session.
func SessionState(c *gin.Context) (string, *models.SessionState) {
	id := c.GetString(ContextSessionIDKey)
	value, ok := c.Get(ContextSessionKey)
	if !ok {
		return id, nil
	}
	state, _ := value.(*models.SessionState)
	return id, state
}
