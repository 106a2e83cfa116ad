package request

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

	// Transitions replay safely under an Idempotency-Key: a retried command
	// either gets the cached response or trips the version check.
	idemp := func(c *gin.Context) { c.Next() }
	if redisClient != nil {
		idemp = middleware.Idempotency(redisClient)
	}

	requests := r.Group("/requests")
	requests.Use(middleware.AuthMiddleware())
	requests.Use(middleware.ExtractUserID())
	{
		requests.GET("",
			middleware.RateLimitByUser(5, 20),
			middleware.RBACAuthorize(rbacService, "request", "read"),
			handler.GetAll,
		)
		requests.GET("/:id",
			middleware.RateLimitByUser(5, 20),
			middleware.RBACAuthorize(rbacService, "request", "read"),
			handler.GetById,
		)
		requests.GET("/:id/history",
			middleware.RateLimitByUser(5, 20),
			middleware.RBACAuthorize(rbacService, "request", "read"),
			handler.GetHistory,
		)

		requests.POST("",
			middleware.RateLimitByUser(1, 5),
			idemp,
			middleware.RBACAuthorize(rbacService, "request", "create"),
			handler.Create,
		)
		requests.PUT("/:id",
			middleware.RateLimitByUser(1, 5),
			middleware.RBACAuthorize(rbacService, "request", "update"),
			handler.Update,
		)
		requests.POST("/:id/submit",
			middleware.RateLimitByUser(1, 5),
			idemp,
			middleware.RBACAuthorize(rbacService, "request", "submit"),
			handler.Submit,
		)
		requests.POST("/:id/review",
			middleware.RateLimitByUser(1, 5),
			idemp,
			middleware.RBACAuthorize(rbacService, "request", "review"),
			handler.BeginReview,
		)
		requests.POST("/:id/approve",
			middleware.RateLimitByUser(1, 5),
			idemp,
			middleware.RBACAuthorize(rbacService, "request", "review"),
			handler.Approve,
		)
		requests.POST("/:id/reject",
			middleware.RateLimitByUser(1, 5),
			idemp,
			middleware.RBACAuthorize(rbacService, "request", "review"),
			handler.Reject,
		)
		requests.POST("/:id/cancel",
			middleware.RateLimitByUser(1, 5),
			idemp,
			middleware.RBACAuthorize(rbacService, "request", "cancel"),
			handler.Cancel,
		)
		requests.POST("/:id/reopen",
			middleware.RateLimitByUser(1, 5),
			idemp,
			middleware.RBACAuthorize(rbacService, "request", "submit"),
			handler.Reopen,
		)
	}
}
