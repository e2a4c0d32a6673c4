package middleware

import (
	"github.com/gin-gonic/gin"

	"github.com/noah-isme/campus-ledger-api/internal/models"
	appErrors "github.com/noah-isme/campus-ledger-api/pkg/errors"
	"github.com/noah-isme/campus-ledger-api/pkg/response"
)

// Self grants access when the :id route parameter is the caller's own id.
const Self = "SELF"

// RBAC admits callers whose role is listed. Listing Self also admits a caller
// whose id equals the :id route parameter, whatever their role.
func RBAC(allowed ...string) gin.HandlerFunc {
	allowSelf := false
	allowedRoles := make(map[models.UserRole]struct{})
	for _, a := range allowed {
		if a == Self {
			allowSelf = true
			continue
		}
		allowedRoles[models.UserRole(a)] = struct{}{}
	}

	return func(c *gin.Context) {
		claims := Claims(c)
		if claims == nil {
			response.Error(c, appErrors.ErrUnauthorized)
			c.Abort()
			return
		}

		if _, ok := allowedRoles[claims.Role]; ok {
			c.Next()
			return
		}

		if allowSelf {
			if targetID := c.Param("id"); targetID != "" && targetID == claims.UserID {
				c.Next()
				return
			}
		}

		response.Error(c, appErrors.Forbidden("role "+string(claims.Role)+" may not access this resource"))
		c.Abort()
	}
}

// RequireRoles is a helper that accepts a list of roles.
func RequireRoles(roles ...models.UserRole) gin.HandlerFunc {
	allowed := make([]string, len(roles))
	for i, r := range roles {
		allowed[i] = string(r)
	}
	return RBAC(allowed...)
}

// StaffOr allows admins, registrars and the listed extra entries.
func StaffOr(extra ...string) gin.HandlerFunc {
	return RBAC(append([]string{string(models.RoleAdmin), string(models.RoleRegistrar)}, extra...)...)
}
