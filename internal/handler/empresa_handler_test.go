package handler

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"social-service/internal/authz"
	"social-service/internal/model"
	"social-service/internal/slug"
	"social-service/internal/store"
	"social-service/pkg/cache"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeEmpresaDirectory struct {
	empresas map[uint]*model.Empresa
	nextID   uint
}

func newFakeEmpresaDirectory(empresas ...*model.Empresa) *fakeEmpresaDirectory {
	dir := &fakeEmpresaDirectory{empresas: map[uint]*model.Empresa{}, nextID: 1}
	for _, e := range empresas {
		dir.empresas[e.ID] = e
		if e.ID >= dir.nextID {
			dir.nextID = e.ID + 1
		}
	}
	return dir
}

func (f *fakeEmpresaDirectory) FindByID(_ context.Context, id uint) (*model.Empresa, error) {
	e, ok := f.empresas[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	return e, nil
}

func (f *fakeEmpresaDirectory) List(_ context.Context, includeInactive bool) ([]model.Empresa, error) {
	var out []model.Empresa
	for _, e := range f.empresas {
		if e.Active || includeInactive {
			out = append(out, *e)
		}
	}
	return out, nil
}

func (f *fakeEmpresaDirectory) Create(ctx context.Context, e *model.Empresa) error {
	sl, err := f.GenerateUniqueSlug(ctx, e.Name, nil)
	if err != nil {
		return err
	}
	e.Slug = sl
	e.ID = f.nextID
	f.nextID++
	f.empresas[e.ID] = e
	return nil
}

func (f *fakeEmpresaDirectory) Save(_ context.Context, e *model.Empresa) error {
	f.empresas[e.ID] = e
	return nil
}

func (f *fakeEmpresaDirectory) SoftDelete(_ context.Context, id uint) error {
	e, ok := f.empresas[id]
	if !ok {
		return store.ErrNotFound
	}
	e.Active = false
	return nil
}

func (f *fakeEmpresaDirectory) GenerateUniqueSlug(ctx context.Context, name string, excludeID *uint) (string, error) {
	base := slug.Normalize(name)
	if base == "" {
		base = "empresa"
	}
	return slug.Unique(ctx, base, func(_ context.Context, candidate string) (bool, error) {
		for _, e := range f.empresas {
			if e.Slug != candidate {
				continue
			}
			if excludeID != nil && e.ID == *excludeID {
				continue
			}
			return true, nil
		}
		return false, nil
	})
}

type fakeUserFinder struct {
	users map[string]*model.Usuario
}

func (f *fakeUserFinder) FindBySubject(_ context.Context, subjectID string) (*model.Usuario, error) {
	u, ok := f.users[subjectID]
	if !ok {
		return nil, store.ErrNotFound
	}
	return u, nil
}

func newCachedChecker(users *fakeUserFinder, dir *fakeEmpresaDirectory) *authz.Checker {
	return authz.NewChecker(users, dir, cache.New(time.Minute, time.Minute), time.Minute)
}

func jsonContext(method, path, body string) (echo.Context, *httptest.ResponseRecorder) {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	return echo.New().NewContext(req, rec), rec
}

func empresaID(v uint) *uint { return &v }

// Revoking payment must take effect on the next access check, not after the
// cached decision's TTL runs out.
func TestEmpresaUpdateInvalidatesCachedDecisions(t *testing.T) {
	dir := newFakeEmpresaDirectory(
		&model.Empresa{ID: 5, Name: "Cafe Aroma", Slug: "cafe-aroma", Active: true, PaymentReceived: true},
	)
	users := &fakeUserFinder{users: map[string]*model.Usuario{
		"user_1": {ID: 1, SubjectID: "user_1", Role: model.RoleCliente, EmpresaID: empresaID(5)},
	}}
	checker := newCachedChecker(users, dir)
	h := &EmpresaHandler{Empresas: dir, Checker: checker}

	require.True(t, checker.CheckAccess(context.Background(), "user_1").Allowed)

	c, rec := jsonContext(http.MethodPut, "/admin/empresas/5", `{"payment_received":false}`)
	c.SetParamNames("id")
	c.SetParamValues("5")
	require.NoError(t, h.Update(c))
	require.Equal(t, http.StatusOK, rec.Code)

	d := checker.CheckAccess(context.Background(), "user_1")
	assert.False(t, d.Allowed)
	assert.Equal(t, authz.ReasonPaymentPending, d.Reason)
}

func TestEmpresaDeleteInvalidatesCachedDecisions(t *testing.T) {
	dir := newFakeEmpresaDirectory(
		&model.Empresa{ID: 5, Name: "Cafe Aroma", Slug: "cafe-aroma", Active: true, PaymentReceived: true},
	)
	users := &fakeUserFinder{users: map[string]*model.Usuario{
		"user_1": {ID: 1, SubjectID: "user_1", Role: model.RoleCliente, EmpresaID: empresaID(5)},
	}}
	checker := newCachedChecker(users, dir)
	h := &EmpresaHandler{Empresas: dir, Checker: checker}

	require.True(t, checker.CheckAccess(context.Background(), "user_1").Allowed)

	c, rec := jsonContext(http.MethodDelete, "/admin/empresas/5", "")
	c.SetParamNames("id")
	c.SetParamValues("5")
	require.NoError(t, h.Delete(c))
	require.Equal(t, http.StatusOK, rec.Code)

	d := checker.CheckAccess(context.Background(), "user_1")
	assert.False(t, d.Allowed)
	assert.Equal(t, authz.ReasonTenantInactive, d.Reason)
}

func TestEmpresaCreateSuffixesCollidingSlug(t *testing.T) {
	dir := newFakeEmpresaDirectory(
		&model.Empresa{ID: 1, Name: "Cafe Aroma", Slug: "cafe-aroma", Active: true},
	)
	h := &EmpresaHandler{Empresas: dir, Checker: newCachedChecker(&fakeUserFinder{}, dir)}

	c, rec := jsonContext(http.MethodPost, "/admin/empresas", `{"name":"Café Aroma"}`)
	require.NoError(t, h.Create(c))

	require.Equal(t, http.StatusCreated, rec.Code)
	assert.Contains(t, rec.Body.String(), `"slug":"cafe-aroma-1"`)
}

// A rename excludes the empresa's own row from the collision probe: renaming
// to a variant of its own name keeps the slug, colliding with another row
// picks up a suffix.
func TestEmpresaUpdateRenameReslug(t *testing.T) {
	dir := newFakeEmpresaDirectory(
		&model.Empresa{ID: 5, Name: "Cafe Aroma", Slug: "cafe-aroma", Active: true, PaymentReceived: true},
		&model.Empresa{ID: 6, Name: "Padaria Central", Slug: "padaria-central", Active: true, PaymentReceived: true},
	)
	h := &EmpresaHandler{Empresas: dir, Checker: newCachedChecker(&fakeUserFinder{}, dir)}

	c, rec := jsonContext(http.MethodPut, "/admin/empresas/5", `{"name":"Café Aroma!"}`)
	c.SetParamNames("id")
	c.SetParamValues("5")
	require.NoError(t, h.Update(c))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "cafe-aroma", dir.empresas[5].Slug)

	c, rec = jsonContext(http.MethodPut, "/admin/empresas/5", `{"name":"Padaria Central"}`)
	c.SetParamNames("id")
	c.SetParamValues("5")
	require.NoError(t, h.Update(c))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "padaria-central-1", dir.empresas[5].Slug)
}
