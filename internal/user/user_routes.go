package user

import (
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"

	"go-reqflow/internal/middleware"
	"go-reqflow/internal/rbac"
)

func RegisterRoutes(
	r *gin.RouterGroup,
	handler *Handler,
	rbacService rbac.Service,
	rdb ...*redis.Client,
) {
	var redisClient *redis.Client
	if len(rdb) > 0 {
		redisClient = rdb[0]
	}

	users := r.Group("/users")
	users.Use(middleware.AuthMiddleware())
	{
		users.GET("",
			middleware.RateLimitByUser(3, 10),
			middleware.RBACAuthorize(rbacService, "user", "read"),
			handler.GetAll,
		)
		users.GET("/reviewer-options",
			middleware.RateLimitByUser(3, 10),
			middleware.RBACAuthorize(rbacService, "user", "read"),
			handler.GetReviewerOptions,
		)
		users.GET("/:id",
			middleware.RateLimitByUser(3, 10),
			middleware.RBACAuthorize(rbacService, "user", "read"),
			handler.GetById,
		)

		if redisClient != nil {
			users.POST("",
				middleware.RateLimitByUser(0.1, 1),
				middleware.Idempotency(redisClient),
				middleware.RBACAuthorize(rbacService, "user", "manage"),
				handler.Create,
			)
		} else {
			users.POST("",
				middleware.RateLimitByUser(0.1, 1),
				middleware.RBACAuthorize(rbacService, "user", "manage"),
				handler.Create,
			)
		}
		users.PUT("/:id",
			middleware.RateLimitByUser(0.5, 2),
			middleware.RBACAuthorize(rbacService, "user", "manage"),
			handler.Update,
		)
	}
}
