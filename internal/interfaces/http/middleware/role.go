package middleware

import (
	"net/http"

	"github.com/armonia/backend/internal/domain/identity"
	"github.com/gin-gonic/gin"
)

// RequireRoles returns middleware that allows only requests whose JWT
// carries one of the given roles. It must run after JWTAuthMiddleware.
func RequireRoles(roles ...identity.UserRole) gin.HandlerFunc {
	return func(c *gin.Context) {
		role := identity.UserRole(GetJWTRole(c))
		if role == "" {
			abortForbidden(c, "Role information missing from token")
			return
		}
		for _, allowed := range roles {
			if role == allowed {
				c.Next()
				return
			}
		}
		abortForbidden(c, "Insufficient role for this operation")
	}
}

// RequirePlatformAdmin restricts an endpoint to platform operators
func RequirePlatformAdmin() gin.HandlerFunc {
	return RequireRoles(identity.UserRoleAdmin)
}

// RequireManagement restricts an endpoint to platform operators and
// complex administrators
func RequireManagement() gin.HandlerFunc {
	return RequireRoles(identity.UserRoleAdmin, identity.UserRoleComplexAdmin)
}

func abortForbidden(c *gin.Context, message string) {
	c.AbortWithStatusJSON(http.StatusForbidden, gin.H{
		"success": false,
		"error": gin.H{
			"code":    "FORBIDDEN",
			"message": message,
		},
	})
}
