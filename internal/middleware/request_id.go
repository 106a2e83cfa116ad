package middleware

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"go-reqflow/internal/shared/contextutil"
)

// RequestID propagates the caller's X-Request-ID or mints one, so every log
// line, audit entry and outbox row of a command shares a correlation id.
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		rid := c.GetHeader("X-Request-ID")
		if rid == "" {
			rid = uuid.New().String()
		}

		c.Set("request_id", rid)
		c.Request = c.Request.WithContext(contextutil.WithRequestID(c.Request.Context(), rid))
		c.Header("X-Request-ID", rid)

		c.Next()
	}
}
