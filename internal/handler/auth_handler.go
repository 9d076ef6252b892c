package handler

import (
	"errors"
	"net/http"

	"social-service/internal/authz"
	"social-service/internal/store"
	"social-service/pkg/logger"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

// AuthHandler serves the identity endpoints
type AuthHandler struct {
	Usuarios *store.UsuarioStore
	Checker  *authz.Checker
}

// Me returns the local usuario for the authenticated session
func (h *AuthHandler) Me(c echo.Context) error {
	log := logger.FromEcho(c)

	claims, ok := authz.SessionFromEcho(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "authentication required"})
	}

	usuario, err := h.Usuarios.FindBySubject(c.Request().Context(), claims.Subject)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "user not found"})
		}
		log.Error("Failed to resolve usuario", zap.String("subject_id", claims.Subject), zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to resolve user"})
	}

	return c.JSON(http.StatusOK, usuario)
}

// CheckAccess runs the access policy for the session and returns the
// decision. The policy never errors; denial reasons come back in the body.
func (h *AuthHandler) CheckAccess(c echo.Context) error {
	claims, ok := authz.SessionFromEcho(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "authentication required"})
	}

	decision := h.Checker.CheckAccess(c.Request().Context(), claims.Subject)
	return c.JSON(http.StatusOK, decision)
}
