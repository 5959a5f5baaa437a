package middleware

import (
	"github.com/gin-gonic/gin"

	"github.com/noah-isme/club-portal/internal/models"
	appErrors "github.com/noah-isme/club-portal/pkg/errors"
	"github.com/noah-isme/club-portal/pkg/response"
)

// RBAC enforces role-based access control for routes.
func RBAC(allowed ...models.UserRole) gin.HandlerFunc {
	allowedRoles := make(map[models.UserRole]struct{}, len(allowed))
	for _, r := range allowed {
		allowedRoles[r] = struct{}{}
	}
	return func(c *gin.Context) {
		claimsValue, exists := c.Get(ContextUserKey)
		if !exists {
			response.Error(c, appErrors.ErrUnauthorized)
			c.Abort()
			return
		}
		claims, ok := claimsValue.(*models.JWTClaims)
		if !ok {
			response.Error(c, appErrors.ErrUnauthorized)
			c.Abort()
			return
		}

		if _, ok := allowedRoles[claims.Role]; ok {
			c.Next()
			return
		}

		response.Error(c, appErrors.ErrForbidden)
		c.Abort()
	}
}

// RequireAdmin admits administrators and super administrators.
func RequireAdmin() gin.HandlerFunc {
	return RBAC(models.RoleAdmin, models.RoleSuperAdmin)
}
