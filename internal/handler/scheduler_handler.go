package handler

import (
	"context"
	"net/http"
	"time"

	"social-service/internal/model"
	"social-service/internal/social"
	"social-service/pkg/logger"
	"social-service/prometheus"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

// Store slices the scheduler needs, satisfied by the concrete accessors
type (
	// ScheduledPostStore loads due posts and stamps their outcome
	ScheduledPostStore interface {
		DueScheduled(ctx context.Context, now time.Time) ([]model.Post, error)
		MarkPublished(ctx context.Context, id uint, publishedAt time.Time) error
		MarkFailed(ctx context.Context, id uint, reason string) error
	}

	// EmpresaStandingFinder resolves an empresa for the publish-time re-check
	EmpresaStandingFinder interface {
		FindByID(ctx context.Context, id uint) (*model.Empresa, error)
	}

	// ActiveConnectionFinder resolves the connection a post publishes through
	ActiveConnectionFinder interface {
		FindActive(ctx context.Context, empresaID uint, platform model.Platform) (*model.SocialConnection, error)
	}

	// ActivityRecorder appends audit entries
	ActivityRecorder interface {
		Record(ctx context.Context, empresaID, userID uint, activityType, description string) error
	}
)

// SchedulerHandler serves the externally-triggered publication endpoint.
// An external cron POSTs here on a fixed interval; there is no in-process
// queueing or retry.
type SchedulerHandler struct {
	Posts      ScheduledPostStore
	Empresas   EmpresaStandingFinder
	Conexoes   ActiveConnectionFinder
	Activities ActivityRecorder
	Clients    map[model.Platform]social.Publisher
	Secret     string
}

// Process publishes every due scheduled post and returns a work summary.
// Posts of empresas that lost their standing since scheduling are marked
// failed rather than published.
func (h *SchedulerHandler) Process(c echo.Context) error {
	log := logger.FromEcho(c)

	if h.Secret != "" && c.Request().Header.Get("X-Scheduler-Secret") != h.Secret {
		log.Warn("Scheduler trigger with bad secret")
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid scheduler secret"})
	}

	ctx := c.Request().Context()
	now := time.Now()

	due, err := h.Posts.DueScheduled(ctx, now)
	if err != nil {
		log.Error("Failed to load due posts", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to load scheduled posts"})
	}
	prometheus.ScheduledPostsGauge.Set(float64(len(due)))

	published := 0
	failed := 0

	for i := range due {
		post := &due[i]
		platform := string(post.Platform)

		if err := h.publishOne(c, post, now); err != nil {
			failed++
			prometheus.RecordPublish(platform, "failed")
			if markErr := h.Posts.MarkFailed(ctx, post.ID, err.Error()); markErr != nil {
				log.Error("Failed to mark post as failed",
					zap.Uint("post_id", post.ID),
					zap.Error(markErr))
			}
			continue
		}

		published++
		prometheus.RecordPublish(platform, "published")
	}

	log.Info("Scheduler run finished",
		zap.Int("processed", len(due)),
		zap.Int("published", published),
		zap.Int("failed", failed))

	return c.JSON(http.StatusOK, echo.Map{
		"processed": len(due),
		"published": published,
		"failed":    failed,
	})
}

func (h *SchedulerHandler) publishOne(c echo.Context, post *model.Post, now time.Time) error {
	log := logger.FromEcho(c)
	ctx := c.Request().Context()

	// The empresa's standing is re-checked at publish time; scheduling does
	// not grandfather access past a payment lapse or deactivation.
	empresa, err := h.Empresas.FindByID(ctx, post.EmpresaID)
	if err != nil {
		return err
	}
	if !empresa.Active {
		return errEmpresaInactive
	}
	if !empresa.PaymentReceived {
		return errPaymentPending
	}

	conn, err := h.Conexoes.FindActive(ctx, post.EmpresaID, post.Platform)
	if err != nil {
		return err
	}

	publisher, ok := h.Clients[post.Platform]
	if !ok {
		return errUnsupportedPlatform
	}

	if err := publisher.Publish(ctx, conn, post); err != nil {
		return err
	}

	if err := h.Posts.MarkPublished(ctx, post.ID, now); err != nil {
		log.Error("Failed to mark post as published",
			zap.Uint("post_id", post.ID),
			zap.Error(err))
	}

	if err := h.Activities.Record(ctx, post.EmpresaID, post.UserID,
		"post_published", "Published scheduled post to "+string(post.Platform)); err != nil {
		log.Error("Failed to record publish activity", zap.Error(err))
	}

	return nil
}

var (
	errEmpresaInactive     = &schedulerError{"empresa is inactive"}
	errPaymentPending      = &schedulerError{"empresa payment pending"}
	errUnsupportedPlatform = &schedulerError{"unsupported platform"}
)

type schedulerError struct{ msg string }

func (e *schedulerError) Error() string { return e.msg }
