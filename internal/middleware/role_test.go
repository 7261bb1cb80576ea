package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bcn-golf/backend/internal/auth"
	"github.com/bcn-golf/backend/internal/models"
)

type roleFunc func(ctx context.Context, userID uuid.UUID) (models.Role, error)

func (f roleFunc) ResolveRole(ctx context.Context, userID uuid.UUID) (models.Role, error) {
	return f(ctx, userID)
}

func newProtectedRouter(svc *auth.JWTService, resolver RoleResolver, roles ...models.Role) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/guarded", JWT(svc), RequireRole(resolver, roles...), func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"user_id": CurrentUserID(c)})
	})
	return r
}

func TestRequireRole(t *testing.T) {
	svc := auth.NewJWTService("test-secret", 1)
	userID := uuid.New()
	token, err := svc.Generate(userID, "member@bcngolf.club")
	require.NoError(t, err)

	call := func(r *gin.Engine, authz string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodGet, "/guarded", nil)
		if authz != "" {
			req.Header.Set("Authorization", authz)
		}
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		return w
	}

	t.Run("resolved role is allowed", func(t *testing.T) {
		resolver := roleFunc(func(context.Context, uuid.UUID) (models.Role, error) { return models.RoleMember, nil })
		w := call(newProtectedRouter(svc, resolver, models.RoleMember, models.RoleAdmin), "Bearer "+token)
		assert.Equal(t, http.StatusOK, w.Code)
	})

	t.Run("resolved role is refused", func(t *testing.T) {
		resolver := roleFunc(func(context.Context, uuid.UUID) (models.Role, error) { return models.RoleGuest, nil })
		w := call(newProtectedRouter(svc, resolver, models.RoleMember, models.RoleAdmin), "Bearer "+token)
		assert.Equal(t, http.StatusForbidden, w.Code)
	})

	t.Run("role comes from the resolver, not the token", func(t *testing.T) {
		// Same token both times; only the resolver's answer changes.
		resolved := models.RoleAdmin
		resolver := roleFunc(func(context.Context, uuid.UUID) (models.Role, error) { return resolved, nil })
		r := newProtectedRouter(svc, resolver, models.RoleAdmin)

		assert.Equal(t, http.StatusOK, call(r, "Bearer "+token).Code)
		resolved = models.RoleGuest
		assert.Equal(t, http.StatusForbidden, call(r, "Bearer "+token).Code)
	})

	t.Run("RequireAdmin refuses members", func(t *testing.T) {
		gin.SetMode(gin.TestMode)
		resolved := models.RoleMember
		resolver := roleFunc(func(context.Context, uuid.UUID) (models.Role, error) { return resolved, nil })
		r := gin.New()
		r.POST("/admin-only", JWT(svc), RequireAdmin(resolver), func(c *gin.Context) {
			c.Status(http.StatusCreated)
		})

		req := httptest.NewRequest(http.MethodPost, "/admin-only", nil)
		req.Header.Set("Authorization", "Bearer "+token)
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		assert.Equal(t, http.StatusForbidden, w.Code)

		resolved = models.RoleAdmin
		w = httptest.NewRecorder()
		r.ServeHTTP(w, req)
		assert.Equal(t, http.StatusCreated, w.Code)
	})

	t.Run("missing token", func(t *testing.T) {
		resolver := roleFunc(func(context.Context, uuid.UUID) (models.Role, error) { return models.RoleAdmin, nil })
		w := call(newProtectedRouter(svc, resolver, models.RoleAdmin), "")
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("malformed header", func(t *testing.T) {
		resolver := roleFunc(func(context.Context, uuid.UUID) (models.Role, error) { return models.RoleAdmin, nil })
		w := call(newProtectedRouter(svc, resolver, models.RoleAdmin), "Token "+token)
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("bad token", func(t *testing.T) {
		resolver := roleFunc(func(context.Context, uuid.UUID) (models.Role, error) { return models.RoleAdmin, nil })
		w := call(newProtectedRouter(svc, resolver, models.RoleAdmin), "Bearer nope")
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})
}
