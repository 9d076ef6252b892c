package handler

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"social-service/internal/model"
	"social-service/internal/social"
	"social-service/internal/store"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeScheduledPosts struct {
	due       []model.Post
	dueErr    error
	published map[uint]time.Time
	failed    map[uint]string
}

func newFakeScheduledPosts(due ...model.Post) *fakeScheduledPosts {
	return &fakeScheduledPosts{
		due:       due,
		published: map[uint]time.Time{},
		failed:    map[uint]string{},
	}
}

func (f *fakeScheduledPosts) DueScheduled(_ context.Context, _ time.Time) ([]model.Post, error) {
	return f.due, f.dueErr
}

func (f *fakeScheduledPosts) MarkPublished(_ context.Context, id uint, publishedAt time.Time) error {
	f.published[id] = publishedAt
	return nil
}

func (f *fakeScheduledPosts) MarkFailed(_ context.Context, id uint, reason string) error {
	f.failed[id] = reason
	return nil
}

type fakeEmpresaFinder struct {
	empresas map[uint]*model.Empresa
}

func (f *fakeEmpresaFinder) FindByID(_ context.Context, id uint) (*model.Empresa, error) {
	e, ok := f.empresas[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	return e, nil
}

type fakeConnectionFinder struct {
	conns map[uint]*model.SocialConnection
}

func (f *fakeConnectionFinder) FindActive(_ context.Context, empresaID uint, _ model.Platform) (*model.SocialConnection, error) {
	conn, ok := f.conns[empresaID]
	if !ok {
		return nil, store.ErrNotFound
	}
	return conn, nil
}

type fakeActivityRecorder struct {
	types []string
}

func (f *fakeActivityRecorder) Record(_ context.Context, _, _ uint, activityType, _ string) error {
	f.types = append(f.types, activityType)
	return nil
}

type fakePublisher struct {
	err       error
	published []uint
}

func (f *fakePublisher) Publish(_ context.Context, _ *model.SocialConnection, post *model.Post) error {
	if f.err != nil {
		return f.err
	}
	f.published = append(f.published, post.ID)
	return nil
}

func schedulerRequest(secret string) (echo.Context, *httptest.ResponseRecorder) {
	req := httptest.NewRequest(http.MethodPost, "/scheduler/process", nil)
	if secret != "" {
		req.Header.Set("X-Scheduler-Secret", secret)
	}
	rec := httptest.NewRecorder()
	return echo.New().NewContext(req, rec), rec
}

func TestSchedulerProcessSummary(t *testing.T) {
	paid := &model.Empresa{ID: 1, Active: true, PaymentReceived: true}
	lapsed := &model.Empresa{ID: 2, Active: true, PaymentReceived: false}

	posts := newFakeScheduledPosts(
		model.Post{ID: 10, EmpresaID: 1, UserID: 1, Platform: model.PlatformInstagram, Status: model.PostStatusScheduled},
		model.Post{ID: 11, EmpresaID: 2, UserID: 2, Platform: model.PlatformInstagram, Status: model.PostStatusScheduled},
		model.Post{ID: 12, EmpresaID: 1, UserID: 1, Platform: model.PlatformFacebook, Status: model.PostStatusScheduled},
	)
	publisher := &fakePublisher{}
	activities := &fakeActivityRecorder{}

	h := &SchedulerHandler{
		Posts:    posts,
		Empresas: &fakeEmpresaFinder{empresas: map[uint]*model.Empresa{1: paid, 2: lapsed}},
		// Only empresa 1 has an instagram connection; post 12 finds no facebook one.
		Conexoes:   &fakeConnectionFinder{conns: map[uint]*model.SocialConnection{1: {ID: 100, EmpresaID: 1}}},
		Activities: activities,
		Clients: map[model.Platform]social.Publisher{
			model.PlatformInstagram: publisher,
		},
		Secret: "cron-secret",
	}

	c, rec := schedulerRequest("cron-secret")
	require.NoError(t, h.Process(c))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"processed":3,"published":1,"failed":2}`, rec.Body.String())

	assert.Equal(t, []uint{10}, publisher.published)
	assert.Contains(t, posts.published, uint(10))
	assert.Equal(t, "empresa payment pending", posts.failed[11])
	assert.NotEmpty(t, posts.failed[12])
	assert.Equal(t, []string{"post_published"}, activities.types)
}

// Deactivation after scheduling stops the publish; the post is failed with
// the standing reason rather than silently skipped.
func TestSchedulerProcessInactiveEmpresaFails(t *testing.T) {
	posts := newFakeScheduledPosts(
		model.Post{ID: 10, EmpresaID: 1, UserID: 1, Platform: model.PlatformInstagram, Status: model.PostStatusScheduled},
	)
	publisher := &fakePublisher{}

	h := &SchedulerHandler{
		Posts:      posts,
		Empresas:   &fakeEmpresaFinder{empresas: map[uint]*model.Empresa{1: {ID: 1, Active: false, PaymentReceived: true}}},
		Conexoes:   &fakeConnectionFinder{conns: map[uint]*model.SocialConnection{1: {ID: 100, EmpresaID: 1}}},
		Activities: &fakeActivityRecorder{},
		Clients:    map[model.Platform]social.Publisher{model.PlatformInstagram: publisher},
	}

	c, rec := schedulerRequest("")
	require.NoError(t, h.Process(c))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"processed":1,"published":0,"failed":1}`, rec.Body.String())
	assert.Empty(t, publisher.published)
	assert.Equal(t, "empresa is inactive", posts.failed[10])
}

func TestSchedulerProcessUpstreamFailureMarksFailed(t *testing.T) {
	posts := newFakeScheduledPosts(
		model.Post{ID: 10, EmpresaID: 1, UserID: 1, Platform: model.PlatformInstagram, Status: model.PostStatusScheduled},
	)
	publisher := &fakePublisher{err: errors.New("rate limit exceeded")}

	h := &SchedulerHandler{
		Posts:      posts,
		Empresas:   &fakeEmpresaFinder{empresas: map[uint]*model.Empresa{1: {ID: 1, Active: true, PaymentReceived: true}}},
		Conexoes:   &fakeConnectionFinder{conns: map[uint]*model.SocialConnection{1: {ID: 100, EmpresaID: 1}}},
		Activities: &fakeActivityRecorder{},
		Clients:    map[model.Platform]social.Publisher{model.PlatformInstagram: publisher},
	}

	c, rec := schedulerRequest("")
	require.NoError(t, h.Process(c))

	assert.JSONEq(t, `{"processed":1,"published":0,"failed":1}`, rec.Body.String())
	assert.Equal(t, "rate limit exceeded", posts.failed[10])
}

func TestSchedulerProcessRejectsBadSecret(t *testing.T) {
	posts := newFakeScheduledPosts()
	h := &SchedulerHandler{Posts: posts, Secret: "cron-secret"}

	c, rec := schedulerRequest("wrong")
	require.NoError(t, h.Process(c))

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestSchedulerProcessNothingDue(t *testing.T) {
	h := &SchedulerHandler{Posts: newFakeScheduledPosts()}

	c, rec := schedulerRequest("")
	require.NoError(t, h.Process(c))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"processed":0,"published":0,"failed":0}`, rec.Body.String())
}
