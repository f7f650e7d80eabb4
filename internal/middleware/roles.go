package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"webagency/api/internal/models"
)

// RequireRoles gates a route on role-set membership. This is distinct from
// the hierarchy's level comparison, which governs who may manage whom.
func RequireRoles(roles ...models.Role) gin.HandlerFunc {
	roleSet := make(map[models.Role]struct{}, len(roles))
	for _, role := range roles {
		roleSet[role] = struct{}{}
	}

	return func(c *gin.Context) {
		user, ok := CurrentUser(c)
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error":   "unauthenticated",
				"message": "authentication required",
			})
			return
		}

		if _, allowed := roleSet[user.Role]; !allowed {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{
				"error":   "forbidden",
				"message": "insufficient privileges",
			})
			return
		}

		c.Next()
	}
}

func RequireAdmin() gin.HandlerFunc {
	return RequireRoles(models.RoleAdmin, models.RoleSuperAdmin)
}

func RequireSuperAdmin() gin.HandlerFunc {
	return RequireRoles(models.RoleSuperAdmin)
}

func RequireModerator() gin.HandlerFunc {
	return RequireRoles(models.RoleModerator, models.RoleAdmin, models.RoleSuperAdmin)
}
