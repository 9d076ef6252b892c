package authz

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"social-service/internal/middleware"
	"social-service/internal/model"
	"social-service/pkg/jwtutil"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Full middleware chain: token verification then role guard, the way the
// admin group is wired in main.
func TestAdminRoutesThroughFullChain(t *testing.T) {
	users := &fakeUsers{users: map[string]*model.Usuario{
		"user_cliente": {ID: 1, SubjectID: "user_cliente", Role: model.RoleCliente},
		"user_admin":   {ID: 2, SubjectID: "user_admin", Role: model.RoleAdmin},
	}}

	jwt := jwtutil.NewJWTUtil(&jwtutil.JWTConfig{SigningKey: "test-signing-key"})

	e := echo.New()
	admin := e.Group("/admin")
	admin.Use(middleware.JWTAuthMiddleware(jwt))
	admin.Use(RequireRole(users, model.RoleAdmin))
	admin.GET("/empresas", okHandler)

	request := func(token string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodGet, "/admin/empresas", nil)
		if token != "" {
			req.Header.Set("Authorization", "Bearer "+token)
		}
		rec := httptest.NewRecorder()
		e.ServeHTTP(rec, req)
		return rec
	}

	// No token at all
	assert.Equal(t, http.StatusUnauthorized, request("").Code)

	// Authenticated cliente on an admin route
	clienteToken, err := jwt.SignSessionToken("user_cliente", "c@example.com", time.Hour)
	require.NoError(t, err)
	assert.Equal(t, http.StatusForbidden, request(clienteToken).Code)

	// Admin passes
	adminToken, err := jwt.SignSessionToken("user_admin", "a@example.com", time.Hour)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, request(adminToken).Code)

	// Token signed with another key
	otherJWT := jwtutil.NewJWTUtil(&jwtutil.JWTConfig{SigningKey: "other-key"})
	forged, err := otherJWT.SignSessionToken("user_admin", "a@example.com", time.Hour)
	require.NoError(t, err)
	assert.Equal(t, http.StatusUnauthorized, request(forged).Code)
}
