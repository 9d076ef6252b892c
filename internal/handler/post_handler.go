package handler

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"social-service/internal/authz"
	"social-service/internal/model"
	"social-service/internal/social"
	"social-service/internal/store"
	"social-service/pkg/logger"
	"social-service/prometheus"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

// PostHandler serves content CRUD and publishing for the caller's empresa
type PostHandler struct {
	Posts      *store.PostStore
	Conexoes   *store.ConexaoStore
	Activities *store.ActivityStore
	Clients    map[model.Platform]social.Publisher
}

// Create handles post creation. A scheduled_at in the payload puts the post
// straight into the scheduled state.
func (h *PostHandler) Create(c echo.Context) error {
	log := logger.FromEcho(c)

	usuario, ok := authz.UsuarioFromEcho(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "authentication required"})
	}
	if usuario.EmpresaID == nil {
		return c.JSON(http.StatusForbidden, echo.Map{"error": "no empresa assigned"})
	}

	var req struct {
		Content     string     `json:"content"`
		ImageURL    string     `json:"image_url"`
		Platform    string     `json:"platform"`
		ScheduledAt *time.Time `json:"scheduled_at"`
	}

	if err := c.Bind(&req); err != nil {
		log.Error("Failed to parse post creation request", zap.Error(err))
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request"})
	}

	if req.Content == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "content is required"})
	}
	platform := model.Platform(req.Platform)
	if !platform.Valid() {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid platform"})
	}

	status := model.PostStatusDraft
	if req.ScheduledAt != nil {
		status = model.PostStatusScheduled
	}

	post := model.Post{
		EmpresaID:   *usuario.EmpresaID,
		UserID:      usuario.ID,
		Content:     req.Content,
		ImageURL:    req.ImageURL,
		Platform:    platform,
		Status:      status,
		ScheduledAt: req.ScheduledAt,
		Active:      true,
	}

	if err := h.Posts.Create(c.Request().Context(), &post); err != nil {
		log.Error("Failed to create post", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "post creation failed"})
	}

	log.Info("Post created",
		zap.Uint("id", post.ID),
		zap.Uint("empresa_id", post.EmpresaID),
		zap.String("status", string(post.Status)))

	return c.JSON(http.StatusCreated, echo.Map{
		"message": "Post created successfully",
		"post":    post,
	})
}

// List returns the caller's empresa posts
func (h *PostHandler) List(c echo.Context) error {
	log := logger.FromEcho(c)

	usuario, ok := authz.UsuarioFromEcho(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "authentication required"})
	}
	if usuario.EmpresaID == nil {
		return c.JSON(http.StatusOK, []model.Post{})
	}

	posts, err := h.Posts.ListByEmpresa(c.Request().Context(), *usuario.EmpresaID)
	if err != nil {
		log.Error("Failed to list posts", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to retrieve posts"})
	}

	return c.JSON(http.StatusOK, posts)
}

// Get returns one post scoped to the caller's empresa
func (h *PostHandler) Get(c echo.Context) error {
	_, post, errResp := h.resolvePost(c)
	if errResp != nil {
		return errResp(c)
	}
	return c.JSON(http.StatusOK, post)
}

// Update edits a post's content or schedule. Published posts are immutable.
func (h *PostHandler) Update(c echo.Context) error {
	log := logger.FromEcho(c)

	_, post, errResp := h.resolvePost(c)
	if errResp != nil {
		return errResp(c)
	}

	if post.Status == model.PostStatusPublished {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "published posts cannot be edited"})
	}

	var req struct {
		Content     *string    `json:"content"`
		ImageURL    *string    `json:"image_url"`
		ScheduledAt *time.Time `json:"scheduled_at"`
	}

	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request"})
	}

	if req.Content != nil {
		if *req.Content == "" {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "content is required"})
		}
		post.Content = *req.Content
	}
	if req.ImageURL != nil {
		post.ImageURL = *req.ImageURL
	}
	if req.ScheduledAt != nil {
		post.ScheduledAt = req.ScheduledAt
		post.Status = model.PostStatusScheduled
	}

	if err := h.Posts.Save(c.Request().Context(), post); err != nil {
		log.Error("Failed to update post", zap.Uint("id", post.ID), zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "post update failed"})
	}

	return c.JSON(http.StatusOK, echo.Map{
		"message": "Post updated successfully",
		"post":    post,
	})
}

// Delete soft-deletes a post
func (h *PostHandler) Delete(c echo.Context) error {
	log := logger.FromEcho(c)

	usuario, post, errResp := h.resolvePost(c)
	if errResp != nil {
		return errResp(c)
	}

	if err := h.Posts.SoftDelete(c.Request().Context(), *usuario.EmpresaID, post.ID); err != nil {
		log.Error("Failed to delete post", zap.Uint("id", post.ID), zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "post deletion failed"})
	}

	return c.JSON(http.StatusOK, echo.Map{"message": "Post deleted successfully"})
}

// Publish publishes a post now through the empresa's platform connection
func (h *PostHandler) Publish(c echo.Context) error {
	log := logger.FromEcho(c)

	usuario, post, errResp := h.resolvePost(c)
	if errResp != nil {
		return errResp(c)
	}

	if post.Status == model.PostStatusPublished {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "post already published"})
	}

	ctx := c.Request().Context()
	platform := string(post.Platform)

	conn, err := h.Conexoes.FindActive(ctx, *usuario.EmpresaID, post.Platform)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return c.JSON(http.StatusBadRequest, echo.Map{
				"error":   "no active connection",
				"details": platform + " account is not connected",
			})
		}
		log.Error("Failed to resolve connection", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "publish failed"})
	}

	publisher, ok := h.Clients[post.Platform]
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "unsupported platform"})
	}

	if err := publisher.Publish(ctx, conn, post); err != nil {
		log.Error("Publish failed",
			zap.Uint("post_id", post.ID),
			zap.String("platform", platform),
			zap.Error(err))
		prometheus.RecordPublish(platform, "failed")

		if markErr := h.Posts.MarkFailed(ctx, post.ID, err.Error()); markErr != nil {
			log.Error("Failed to mark post as failed", zap.Error(markErr))
		}

		var ue *social.UpstreamError
		if errors.As(err, &ue) {
			return c.JSON(http.StatusBadGateway, echo.Map{
				"error":   "publish failed",
				"details": ue.Message,
			})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "publish failed"})
	}

	now := time.Now()
	if err := h.Posts.MarkPublished(ctx, post.ID, now); err != nil {
		log.Error("Failed to mark post as published", zap.Uint("id", post.ID), zap.Error(err))
	}

	if err := h.Activities.Record(ctx, *usuario.EmpresaID, usuario.ID,
		"post_published", "Published post to "+platform); err != nil {
		log.Error("Failed to record publish activity", zap.Error(err))
	}

	prometheus.RecordPublish(platform, "published")
	log.Info("Post published", zap.Uint("id", post.ID), zap.String("platform", platform))

	post.Status = model.PostStatusPublished
	post.PublishedAt = &now
	return c.JSON(http.StatusOK, echo.Map{
		"message": "Post published successfully",
		"post":    post,
	})
}

// resolvePost resolves the path id into a post scoped to the caller's
// empresa, returning a ready error responder when anything is off.
func (h *PostHandler) resolvePost(c echo.Context) (*model.Usuario, *model.Post, func(echo.Context) error) {
	log := logger.FromEcho(c)

	usuario, ok := authz.UsuarioFromEcho(c)
	if !ok {
		return nil, nil, func(c echo.Context) error {
			return c.JSON(http.StatusUnauthorized, echo.Map{"error": "authentication required"})
		}
	}
	if usuario.EmpresaID == nil {
		return nil, nil, func(c echo.Context) error {
			return c.JSON(http.StatusForbidden, echo.Map{"error": "no empresa assigned"})
		}
	}

	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		return nil, nil, func(c echo.Context) error {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid post ID"})
		}
	}

	post, err := h.Posts.FindByID(c.Request().Context(), *usuario.EmpresaID, uint(id))
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, nil, func(c echo.Context) error {
				return c.JSON(http.StatusNotFound, echo.Map{"error": "post not found"})
			}
		}
		log.Error("Failed to retrieve post", zap.Uint64("id", id), zap.Error(err))
		return nil, nil, func(c echo.Context) error {
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to retrieve post"})
		}
	}

	return usuario, post, nil
}
