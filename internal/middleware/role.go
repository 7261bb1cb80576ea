package middleware

import (
	"context"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/bcn-golf/backend/internal/models"
	"github.com/bcn-golf/backend/pkg/response"
)

// RoleResolver derives a user's effective role at request time.
type RoleResolver interface {
	ResolveRole(ctx context.Context, userID uuid.UUID) (models.Role, error)
}

// RequireRole returns a middleware that allows only callers whose
// resolved role is one of the given roles. The role is recomputed from
// the admission history on every request, never read from the token.
func RequireRole(resolver RoleResolver, roles ...models.Role) gin.HandlerFunc {
	allowed := make(map[models.Role]struct{})
	for _, r := range roles {
		allowed[r] = struct{}{}
	}
	return func(c *gin.Context) {
		userID := CurrentUserID(c)
		role, err := resolver.ResolveRole(c.Request.Context(), userID)
		if err != nil {
			response.Internal(c, "failed to resolve role")
			c.Abort()
			return
		}
		if _, ok := allowed[role]; !ok {
			response.Forbidden(c, "insufficient permissions")
			c.Abort()
			return
		}
		c.Next()
	}
}

// RequireAdmin is shorthand for RequireRole(resolver, ADMIN).
func RequireAdmin(resolver RoleResolver) gin.HandlerFunc {
	return RequireRole(resolver, models.RoleAdmin)
}
