package audit

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
	logs := r.Group("/audit-logs")
	logs.Use(middleware.AuthMiddleware())
	{
		logs.GET("/:entityType/:id", middleware.RBACAuthorize(rbacService, "audit", "read"), handler.EntityHistory)
		// Kept routable so clients get a stable UNSUPPORTED error instead of 404.
		logs.DELETE("/:entityType/:id", middleware.RBACAuthorize(rbacService, "audit", "manage"), handler.Delete)
	}
}
