package middleware

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"go-reqflow/internal/shared/contextutil"
)

// ContextLogger seeds every request with a request id, a scoped logger, and
// the client details the audit trail records.
func ContextLogger(logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		rid := c.GetHeader("X-Request-ID")
		if rid == "" {
			rid = uuid.New().String()
		}
		c.Header("X-Request-ID", rid)

		uid := c.GetString("user_id")
		if uid == "" {
			uid = c.GetString("user_id_validated")
		}

		reqLogger := logger.With(
			zap.String("request_id", rid),
			zap.String("user_id", uid),
		)

		ctx := c.Request.Context()
		ctx = contextutil.WithRequestID(ctx, rid)
		ctx = contextutil.WithUserID(ctx, uid)
		ctx = contextutil.WithLogger(ctx, reqLogger)
		ctx = contextutil.WithClientInfo(ctx, contextutil.ClientInfo{
			IPAddress: c.ClientIP(),
			UserAgent: c.Request.UserAgent(),
			SessionID: c.GetString("session_id"),
		})

		c.Request = c.Request.WithContext(ctx)

		c.Next()
	}
}
