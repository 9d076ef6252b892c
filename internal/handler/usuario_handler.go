package handler

import (
	"errors"
	"net/http"
	"strconv"

	"social-service/internal/authz"
	"social-service/internal/model"
	"social-service/internal/store"
	"social-service/pkg/logger"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

// UsuarioHandler serves user administration endpoints
type UsuarioHandler struct {
	Usuarios *store.UsuarioStore
	Checker  *authz.Checker
}

// List returns active usuarios, optionally filtered by empresa (admin only)
func (h *UsuarioHandler) List(c echo.Context) error {
	log := logger.FromEcho(c)

	var empresaID *uint
	if raw := c.QueryParam("empresa_id"); raw != "" {
		id, err := strconv.ParseUint(raw, 10, 32)
		if err != nil {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid empresa_id"})
		}
		v := uint(id)
		empresaID = &v
	}

	usuarios, err := h.Usuarios.List(c.Request().Context(), empresaID)
	if err != nil {
		log.Error("Failed to list usuarios", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to retrieve usuarios"})
	}

	return c.JSON(http.StatusOK, usuarios)
}

// Update assigns a usuario's role and empresa (admin only)
func (h *UsuarioHandler) Update(c echo.Context) error {
	log := logger.FromEcho(c)

	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid user ID"})
	}

	var req struct {
		Role      *string `json:"role"`
		EmpresaID *uint   `json:"empresa_id"`
	}

	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request"})
	}

	ctx := c.Request().Context()
	usuario, err := h.Usuarios.FindByID(ctx, uint(id))
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "user not found"})
		}
		log.Error("Failed to retrieve usuario", zap.Uint64("id", id), zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to retrieve user"})
	}

	role := usuario.Role
	if req.Role != nil {
		role = model.Role(*req.Role)
		if !role.Valid() {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid role"})
		}
	}

	empresaID := usuario.EmpresaID
	if req.EmpresaID != nil {
		if *req.EmpresaID == 0 {
			empresaID = nil
		} else {
			empresaID = req.EmpresaID
		}
	}

	if err := h.Usuarios.Assign(ctx, uint(id), role, empresaID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "user not found"})
		}
		log.Error("Failed to update usuario", zap.Uint64("id", id), zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "user update failed"})
	}

	// The user's standing may have changed; drop any cached decision.
	h.Checker.Invalidate(usuario.SubjectID)

	log.Info("Usuario updated",
		zap.Uint64("id", id),
		zap.String("role", string(role)))

	return c.JSON(http.StatusOK, echo.Map{"message": "User updated successfully"})
}

// Delete soft-deletes a usuario (admin only)
func (h *UsuarioHandler) Delete(c echo.Context) error {
	log := logger.FromEcho(c)

	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid user ID"})
	}

	ctx := c.Request().Context()
	usuario, err := h.Usuarios.FindByID(ctx, uint(id))
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "user not found"})
		}
		log.Error("Failed to retrieve usuario", zap.Uint64("id", id), zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to retrieve user"})
	}

	if err := h.Usuarios.SoftDelete(ctx, usuario.SubjectID); err != nil {
		log.Error("Failed to delete usuario", zap.Uint64("id", id), zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "user deletion failed"})
	}

	h.Checker.Invalidate(usuario.SubjectID)

	log.Info("Usuario deactivated", zap.Uint64("id", id))
	return c.JSON(http.StatusOK, echo.Map{"message": "User deactivated successfully"})
}
