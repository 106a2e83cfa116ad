package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"go-reqflow/internal/domain"
	"go-reqflow/internal/shared/response"
)

// RBACService is a local interface so any package exposing
// Enforce(domain.EnforceRequest) plugs in without a dependency on rbac.
type RBACService interface {
	Enforce(req domain.EnforceRequest) (bool, error)
}

// RBACAuthorize gates a route on a resource/action pair. Ownership rules
// (requester-only, assignee-only) stay in the services; this only checks the
// role grant.
func RBACAuthorize(service RBACService, resource, action string) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID := c.GetString("user_id")
		if userID == "" {
			response.Error(c, http.StatusUnauthorized, "UNAUTHORIZED", "missing auth context", nil)
			c.Abort()
			return
		}

		allowed, err := service.Enforce(domain.EnforceRequest{
			UserID:   userID,
			Resource: resource,
			Action:   action,
		})
		if err != nil {
			response.Error(c, http.StatusInternalServerError, "INTERNAL_ERROR", err.Error(), nil)
			c.Abort()
			return
		}

		if !allowed {
			response.Error(c, http.StatusForbidden, "FORBIDDEN",
				"You do not have permission to access this resource",
				map[string]string{"required": resource + ":" + action})
			c.Abort()
			return
		}

		c.Next()
	}
}
