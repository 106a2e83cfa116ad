package notification

import (
	"github.com/gin-gonic/gin"

	"go-reqflow/internal/middleware"
	"go-reqflow/internal/rbac"
)

func RegisterRoutes(
	r *gin.RouterGroup,
	handler *Handler,
	rbacService rbac.Service,
) {
	notifs := r.Group("/notifications")
	notifs.Use(middleware.AuthMiddleware())
	notifs.Use(middleware.ExtractUserID())
	{
		notifs.GET("",
			middleware.RateLimitByUser(5, 20),
			middleware.RBACAuthorize(rbacService, "notification", "read"),
			handler.List,
		)
		notifs.GET("/unread-count",
			middleware.RateLimitByUser(5, 20),
			middleware.RBACAuthorize(rbacService, "notification", "read"),
			handler.UnreadCount,
		)
		// Mark-read is naturally idempotent, a retry is harmless.
		notifs.POST("/:id/read",
			middleware.RateLimitByUser(5, 20),
			middleware.RBACAuthorize(rbacService, "notification", "read"),
			handler.MarkRead,
		)
	}
}
