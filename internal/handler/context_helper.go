package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/noah-isme/sma-calendar-portlet/internal/middleware"
	"github.com/noah-isme/sma-calendar-portlet/internal/models"
)

func claimsFromContext(c *gin.Context) *models.JWTClaims {
	return middleware.Claims(c)
}

func sessionFromContext(c *gin.Context) (string, *models.SessionState) {
	return middleware.SessionState(c)
}

// windowState prefers the query parameter and falls back to the header the
// portal sets when rendering the portlet.
func windowState(c *gin.Context) string {
	if state := c.Query("windowState"); state != "" {
		return state
	}
	return c.GetHeader("X-Window-State")
}
