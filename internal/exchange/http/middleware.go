// Package http provides the browser HTTP handlers and their middleware.
package http

import (
	"log/slog"

	"github.com/gin-gonic/gin"

	"github.com/inesdata/dataspace-tools/internal/exchange/domain"
	"github.com/inesdata/dataspace-tools/internal/httputil"
)

const sessionIDKey = "session_id"

// SessionMiddleware requires the session cookie and stores its value in the
// gin context. The session itself is resolved by the use case.
func SessionMiddleware(cookieName string, logger *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		sessionID, err := c.Cookie(cookieName)
		if err != nil || sessionID == "" {
			httputil.HandleErrorGin(c, domain.ErrSessionNotFound, logger)
			c.Abort()
			return
		}

		c.Set(sessionIDKey, sessionID)
		c.Next()
	}
}

// sessionID returns the session id stored by SessionMiddleware.
func sessionID(c *gin.Context) string {
	return c.GetString(sessionIDKey)
}
