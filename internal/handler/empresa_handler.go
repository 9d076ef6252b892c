package handler

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"social-service/internal/authz"
	"social-service/internal/model"
	"social-service/internal/store"
	"social-service/pkg/logger"
	"social-service/prometheus"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

// EmpresaDirectory is the slice of the empresa accessor the handlers need
type EmpresaDirectory interface {
	FindByID(ctx context.Context, id uint) (*model.Empresa, error)
	List(ctx context.Context, includeInactive bool) ([]model.Empresa, error)
	Create(ctx context.Context, e *model.Empresa) error
	Save(ctx context.Context, e *model.Empresa) error
	SoftDelete(ctx context.Context, id uint) error
	GenerateUniqueSlug(ctx context.Context, name string, excludeID *uint) (string, error)
}

// EmpresaHandler serves empresa administration and self-service endpoints
type EmpresaHandler struct {
	Empresas EmpresaDirectory
	Checker  *authz.Checker
}

// Create handles empresa creation (admin only)
func (h *EmpresaHandler) Create(c echo.Context) error {
	log := logger.FromEcho(c)
	prometheus.RecordEmpresaOperation("create")

	var req struct {
		Name            string `json:"name"`
		PaymentReceived bool   `json:"payment_received"`
		PrimaryColor    string `json:"primary_color"`
		SecondaryColor  string `json:"secondary_color"`
		FontFamily      string `json:"font_family"`
		TargetAudience  string `json:"target_audience"`
	}

	if err := c.Bind(&req); err != nil {
		log.Error("Failed to parse empresa creation request", zap.Error(err))
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request"})
	}

	if req.Name == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "name is required"})
	}

	empresa := model.Empresa{
		Name:            req.Name,
		PaymentReceived: req.PaymentReceived,
		Active:          true,
		PrimaryColor:    req.PrimaryColor,
		SecondaryColor:  req.SecondaryColor,
		FontFamily:      req.FontFamily,
		TargetAudience:  req.TargetAudience,
	}

	defer prometheus.TrackDBOperation("insert")(time.Now())
	if err := h.Empresas.Create(c.Request().Context(), &empresa); err != nil {
		log.Error("Failed to create empresa", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "empresa creation failed"})
	}

	log.Info("Empresa created",
		zap.String("name", empresa.Name),
		zap.String("slug", empresa.Slug),
		zap.Uint("id", empresa.ID))

	return c.JSON(http.StatusCreated, echo.Map{
		"message": "Empresa created successfully",
		"empresa": empresa,
	})
}

// List returns empresas (admin only). include_inactive=true widens the
// listing to soft-deleted rows.
func (h *EmpresaHandler) List(c echo.Context) error {
	log := logger.FromEcho(c)
	prometheus.RecordEmpresaOperation("list")

	includeInactive := c.QueryParam("include_inactive") == "true"

	defer prometheus.TrackDBOperation("query")(time.Now())
	empresas, err := h.Empresas.List(c.Request().Context(), includeInactive)
	if err != nil {
		log.Error("Failed to list empresas", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to retrieve empresas"})
	}

	return c.JSON(http.StatusOK, empresas)
}

// Get returns one empresa by id (admin only)
func (h *EmpresaHandler) Get(c echo.Context) error {
	log := logger.FromEcho(c)
	prometheus.RecordEmpresaOperation("get")

	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid empresa ID"})
	}

	empresa, err := h.Empresas.FindByID(c.Request().Context(), uint(id))
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "empresa not found"})
		}
		log.Error("Failed to retrieve empresa", zap.Uint64("id", id), zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to retrieve empresa"})
	}

	return c.JSON(http.StatusOK, empresa)
}

// Update edits an empresa (admin only). A rename regenerates the slug,
// excluding the row itself from the collision probe.
func (h *EmpresaHandler) Update(c echo.Context) error {
	log := logger.FromEcho(c)
	prometheus.RecordEmpresaOperation("update")

	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid empresa ID"})
	}

	var req struct {
		Name            *string `json:"name"`
		PaymentReceived *bool   `json:"payment_received"`
		Active          *bool   `json:"active"`
		PrimaryColor    *string `json:"primary_color"`
		SecondaryColor  *string `json:"secondary_color"`
		FontFamily      *string `json:"font_family"`
		TargetAudience  *string `json:"target_audience"`
	}

	if err := c.Bind(&req); err != nil {
		log.Error("Failed to parse empresa update request", zap.Error(err))
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request"})
	}

	ctx := c.Request().Context()
	empresa, err := h.Empresas.FindByID(ctx, uint(id))
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "empresa not found"})
		}
		log.Error("Failed to retrieve empresa", zap.Uint64("id", id), zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to retrieve empresa"})
	}

	if req.Name != nil && *req.Name != "" && *req.Name != empresa.Name {
		empresa.Name = *req.Name
		excludeID := empresa.ID
		slug, err := h.Empresas.GenerateUniqueSlug(ctx, empresa.Name, &excludeID)
		if err != nil {
			log.Error("Failed to regenerate slug", zap.Error(err))
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "empresa update failed"})
		}
		empresa.Slug = slug
	}
	if req.PaymentReceived != nil {
		empresa.PaymentReceived = *req.PaymentReceived
	}
	if req.Active != nil {
		empresa.Active = *req.Active
	}
	if req.PrimaryColor != nil {
		empresa.PrimaryColor = *req.PrimaryColor
	}
	if req.SecondaryColor != nil {
		empresa.SecondaryColor = *req.SecondaryColor
	}
	if req.FontFamily != nil {
		empresa.FontFamily = *req.FontFamily
	}
	if req.TargetAudience != nil {
		empresa.TargetAudience = *req.TargetAudience
	}

	defer prometheus.TrackDBOperation("update")(time.Now())
	if err := h.Empresas.Save(ctx, empresa); err != nil {
		log.Error("Failed to update empresa", zap.Uint64("id", id), zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "empresa update failed"})
	}

	// Payment or active flags may have changed; stale cached decisions would
	// keep granting access until their TTL.
	h.Checker.InvalidateAll()

	log.Info("Empresa updated", zap.Uint("id", empresa.ID), zap.String("slug", empresa.Slug))

	return c.JSON(http.StatusOK, echo.Map{
		"message": "Empresa updated successfully",
		"empresa": empresa,
	})
}

// Delete soft-deletes an empresa (admin only)
func (h *EmpresaHandler) Delete(c echo.Context) error {
	log := logger.FromEcho(c)
	prometheus.RecordEmpresaOperation("delete")

	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid empresa ID"})
	}

	defer prometheus.TrackDBOperation("update")(time.Now())
	if err := h.Empresas.SoftDelete(c.Request().Context(), uint(id)); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "empresa not found"})
		}
		log.Error("Failed to delete empresa", zap.Uint64("id", id), zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "empresa deletion failed"})
	}

	h.Checker.InvalidateAll()

	log.Info("Empresa deactivated", zap.Uint64("id", id))
	return c.JSON(http.StatusOK, echo.Map{"message": "Empresa deactivated successfully"})
}

// Me returns the caller's own empresa with branding
func (h *EmpresaHandler) Me(c echo.Context) error {
	log := logger.FromEcho(c)

	usuario, ok := authz.UsuarioFromEcho(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "authentication required"})
	}
	if usuario.EmpresaID == nil {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "no empresa assigned"})
	}

	empresa, err := h.Empresas.FindByID(c.Request().Context(), *usuario.EmpresaID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "empresa not found"})
		}
		log.Error("Failed to retrieve empresa", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to retrieve empresa"})
	}

	return c.JSON(http.StatusOK, empresa)
}

// UpdateMe edits the caller's empresa branding. Payment state, slug and the
// active flag are admin-owned and never touched here.
func (h *EmpresaHandler) UpdateMe(c echo.Context) error {
	log := logger.FromEcho(c)

	usuario, ok := authz.UsuarioFromEcho(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "authentication required"})
	}
	if usuario.EmpresaID == nil {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "no empresa assigned"})
	}

	var req struct {
		PrimaryColor   *string `json:"primary_color"`
		SecondaryColor *string `json:"secondary_color"`
		FontFamily     *string `json:"font_family"`
		TargetAudience *string `json:"target_audience"`
	}

	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request"})
	}

	ctx := c.Request().Context()
	empresa, err := h.Empresas.FindByID(ctx, *usuario.EmpresaID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "empresa not found"})
		}
		log.Error("Failed to retrieve empresa", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to retrieve empresa"})
	}

	if req.PrimaryColor != nil {
		empresa.PrimaryColor = *req.PrimaryColor
	}
	if req.SecondaryColor != nil {
		empresa.SecondaryColor = *req.SecondaryColor
	}
	if req.FontFamily != nil {
		empresa.FontFamily = *req.FontFamily
	}
	if req.TargetAudience != nil {
		empresa.TargetAudience = *req.TargetAudience
	}

	if err := h.Empresas.Save(ctx, empresa); err != nil {
		log.Error("Failed to update empresa branding", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "empresa update failed"})
	}

	return c.JSON(http.StatusOK, echo.Map{
		"message": "Empresa updated successfully",
		"empresa": empresa,
	})
}
