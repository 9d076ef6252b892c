package handler

import (
	"net/http"
	"strconv"

	"social-service/internal/authz"
	"social-service/internal/store"
	"social-service/pkg/logger"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

// ActivityHandler serves the audit trail of the caller's empresa
type ActivityHandler struct {
	Activities *store.ActivityStore
}

// List returns recent audit entries, newest first
func (h *ActivityHandler) List(c echo.Context) error {
	log := logger.FromEcho(c)

	usuario, ok := authz.UsuarioFromEcho(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "authentication required"})
	}
	if usuario.EmpresaID == nil {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "no empresa assigned"})
	}

	limit := 0
	if raw := c.QueryParam("limit"); raw != "" {
		v, err := strconv.Atoi(raw)
		if err != nil || v < 0 {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid limit"})
		}
		limit = v
	}

	activities, err := h.Activities.ListByEmpresa(c.Request().Context(), *usuario.EmpresaID, limit)
	if err != nil {
		log.Error("Failed to list activities", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to retrieve activities"})
	}

	return c.JSON(http.StatusOK, activities)
}
