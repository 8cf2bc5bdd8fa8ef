package middleware

import (
	"errors"
	"net/http"
	"strings"

	"task-tracker/backend/internal/services"

	"github.com/gin-gonic/gin"
)

// Context keys set by RequireAuth.
const (
	ContextUsername    = "username"
	ContextUserID      = "user_id"
	ContextIsSuperuser = "is_superuser"
)

// RequireAuth extracts the bearer token, validates it, and re-checks the
// subject against the credential store. The resolved username is what
// scopes every downstream data access; handlers never trust a
// client-supplied owner.
func RequireAuth(authService services.AuthService) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error":   "missing_token",
				"message": "Authorization header is required",
			})
			return
		}

		if !strings.HasPrefix(authHeader, "Bearer ") {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error":   "invalid_token_format",
				"message": "Authorization header must use Bearer token",
			})
			return
		}

		tokenStr := strings.TrimPrefix(authHeader, "Bearer ")

		user, err := authService.ResolveIdentity(tokenStr)
		if err != nil {
			switch {
			case errors.Is(err, services.ErrAccountInactive):
				c.AbortWithStatusJSON(http.StatusForbidden, gin.H{
					"error":   "account_inactive",
					"message": "Account has been deactivated",
				})
			case errors.Is(err, services.ErrStorageUnavailable):
				c.AbortWithStatusJSON(http.StatusServiceUnavailable, gin.H{
					"error":   "storage_unavailable",
					"message": "Service temporarily unavailable",
				})
			default:
				c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
					"error":   "invalid_token",
					"message": "Token validation failed",
				})
			}
			return
		}

		c.Set(ContextUsername, user.Username)
		c.Set(ContextUserID, user.ID)
		c.Set(ContextIsSuperuser, user.IsSuperuser)

		c.Next()
	}
}

// RequireSuperuser gates user-administration endpoints. It assumes
// RequireAuth already ran.
func RequireSuperuser() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !c.GetBool(ContextIsSuperuser) {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{
				"error":   "insufficient_permissions",
				"message": "Superuser privileges required",
			})
			return
		}
		c.Next()
	}
}
