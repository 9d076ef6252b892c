package authz

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"social-service/internal/model"
	"social-service/pkg/jwtutil"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func okHandler(c echo.Context) error {
	return c.JSON(http.StatusOK, echo.Map{"message": "ok"})
}

// sessionContext builds an echo context carrying verified session claims,
// as the auth middleware would have left them.
func sessionContext(e *echo.Echo, path, subject string) (echo.Context, *httptest.ResponseRecorder) {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	sess := &jwtutil.SessionClaims{}
	sess.Subject = subject
	c.Set("session", sess)
	return c, rec
}

func TestRequireRoleDeniesClienteOnAdminGate(t *testing.T) {
	users := &fakeUsers{users: map[string]*model.Usuario{
		"user_cliente": {ID: 1, SubjectID: "user_cliente", Role: model.RoleCliente},
	}}

	c, rec := sessionContext(echo.New(), "/admin/empresas", "user_cliente")

	err := RequireRole(users, model.RoleAdmin)(okHandler)(c)

	require.NoError(t, err)
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestRequireRoleAdminPassesEveryGate(t *testing.T) {
	users := &fakeUsers{users: map[string]*model.Usuario{
		"user_admin": {ID: 1, SubjectID: "user_admin", Role: model.RoleAdmin},
	}}

	for _, gate := range []model.Role{model.RoleAdmin, model.RoleCliente} {
		c, rec := sessionContext(echo.New(), "/", "user_admin")

		err := RequireRole(users, gate)(okHandler)(c)

		require.NoError(t, err)
		assert.Equal(t, http.StatusOK, rec.Code, "gate %s", gate)
	}
}

func TestRequireRoleUnknownSubjectUnauthorized(t *testing.T) {
	users := &fakeUsers{users: map[string]*model.Usuario{}}

	c, rec := sessionContext(echo.New(), "/", "user_ghost")

	err := RequireRole(users, model.RoleAdmin)(okHandler)(c)

	require.NoError(t, err)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestRequireRoleFailsClosedOnLookupError(t *testing.T) {
	// A transient store failure denies; the guard never fails open.
	users := &fakeUsers{err: errors.New("connection refused")}

	c, rec := sessionContext(echo.New(), "/", "user_1")

	err := RequireRole(users, model.RoleCliente)(okHandler)(c)

	require.NoError(t, err)
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestRequireRoleUnknownRoleDenied(t *testing.T) {
	users := &fakeUsers{users: map[string]*model.Usuario{
		"user_odd": {ID: 1, SubjectID: "user_odd", Role: model.Role("superuser")},
	}}

	c, rec := sessionContext(echo.New(), "/", "user_odd")

	err := RequireRole(users, model.RoleCliente)(okHandler)(c)

	require.NoError(t, err)
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestPaymentCheckDeniesWithReason(t *testing.T) {
	users := &fakeUsers{users: map[string]*model.Usuario{
		"user_1": {ID: 1, SubjectID: "user_1", Role: model.RoleCliente, EmpresaID: uintPtr(5)},
	}}
	empresas := &fakeEmpresas{empresas: map[uint]*model.Empresa{
		5: {ID: 5, Active: true, PaymentReceived: false},
	}}

	c, rec := sessionContext(echo.New(), "/empresas/me", "user_1")

	err := PaymentCheck(newTestChecker(users, empresas))(okHandler)(c)

	require.NoError(t, err)
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Contains(t, rec.Body.String(), "PAYMENT_PENDING")
}

func TestPaymentCheckAllowsAndInjectsContext(t *testing.T) {
	users := &fakeUsers{users: map[string]*model.Usuario{
		"user_1": {ID: 1, SubjectID: "user_1", Role: model.RoleCliente, EmpresaID: uintPtr(5)},
	}}
	empresas := &fakeEmpresas{empresas: map[uint]*model.Empresa{
		5: {ID: 5, Name: "Acme", Slug: "acme", Active: true, PaymentReceived: true},
	}}

	c, rec := sessionContext(echo.New(), "/empresas/me", "user_1")

	var seenUsuario *model.Usuario
	var seenEmpresa *model.EmpresaSummary
	inner := func(c echo.Context) error {
		seenUsuario, _ = UsuarioFromEcho(c)
		seenEmpresa, _ = EmpresaFromEcho(c)
		return c.NoContent(http.StatusOK)
	}

	err := PaymentCheck(newTestChecker(users, empresas))(inner)(c)

	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, rec.Code)
	require.NotNil(t, seenUsuario)
	assert.Equal(t, uint(1), seenUsuario.ID)
	require.NotNil(t, seenEmpresa)
	assert.Equal(t, "acme", seenEmpresa.Slug)
}
