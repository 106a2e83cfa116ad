package rbac_http

import (
	"github.com/gin-gonic/gin"

	"go-reqflow/internal/middleware"
	"go-reqflow/internal/rbac"
)

func RegisterRoutes(r *gin.RouterGroup, handler *rbac.Handler, service rbac.Service) {
	group := r.Group("/rbac")
	group.Use(middleware.AuthMiddleware())
	{
		// Enforce reloads policy from the database; cap by source IP so a
		// misbehaving client cannot turn it into a load test.
		group.POST("/enforce", middleware.RateLimitByIP(5, 20), handler.Enforce)
	}
}
