package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"go-reqflow/internal/shared/response"
)

// ExtractUserID guards routes that must know who is acting. AuthMiddleware
// sets user_id; this re-checks the value is a usable string before handlers
// trust it.
func ExtractUserID() gin.HandlerFunc {
	return func(ctx *gin.Context) {
		raw, exists := ctx.Get("user_id")
		if !exists {
			response.Error(ctx, http.StatusUnauthorized, "UNAUTHORIZED", "User is not authenticated", nil)
			ctx.Abort()
			return
		}

		userID, ok := raw.(string)
		if !ok || userID == "" {
			response.Error(ctx, http.StatusUnauthorized, "INVALID_USER_ID", "Malformed user_id", nil)
			ctx.Abort()
			return
		}

		ctx.Set("user_id_validated", userID)
		ctx.Next()
	}
}
