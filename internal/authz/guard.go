package authz

import (
	"errors"
	"net/http"

	"social-service/internal/model"
	"social-service/internal/store"
	"social-service/pkg/jwtutil"
	"social-service/pkg/logger"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

// Context keys set by the guards for downstream handlers
const (
	ContextUsuario = "usuario"
	ContextEmpresa = "empresa"
)

// SessionFromEcho returns the verified session claims placed in the context
// by the auth middleware.
func SessionFromEcho(c echo.Context) (*jwtutil.SessionClaims, bool) {
	claims, ok := c.Get("session").(*jwtutil.SessionClaims)
	return claims, ok
}

// UsuarioFromEcho returns the resolved usuario placed in the context by a guard
func UsuarioFromEcho(c echo.Context) (*model.Usuario, bool) {
	u, ok := c.Get(ContextUsuario).(*model.Usuario)
	return u, ok
}

// EmpresaFromEcho returns the empresa summary placed in the context by the
// payment guard. Administrators carry the synthetic admin marker.
func EmpresaFromEcho(c echo.Context) (*model.EmpresaSummary, bool) {
	e, ok := c.Get(ContextEmpresa).(*model.EmpresaSummary)
	return e, ok
}

// RequireRole gates a route group on the caller's role. Administrators pass
// every role gate (admin superset access); any role outside the closed set
// is denied. Lookup failures deny: the guard fails closed, matching the
// access policy.
func RequireRole(users UserFinder, role model.Role) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			log := logger.FromEcho(c)

			claims, ok := SessionFromEcho(c)
			if !ok {
				return c.JSON(http.StatusUnauthorized, echo.Map{"error": "authentication required"})
			}

			usuario, err := users.FindBySubject(c.Request().Context(), claims.Subject)
			if err != nil {
				if errors.Is(err, store.ErrNotFound) {
					log.Warn("role guard: unknown subject", zap.String("subject_id", claims.Subject))
					return c.JSON(http.StatusUnauthorized, echo.Map{"error": "user not found"})
				}
				log.Error("role guard: user lookup failed", zap.Error(err))
				return c.JSON(http.StatusForbidden, echo.Map{"error": "access denied"})
			}

			switch usuario.Role {
			case model.RoleAdmin:
				// admins pass every gate
			case model.RoleCliente:
				if role != model.RoleCliente {
					log.Warn("role guard: insufficient role",
						zap.String("subject_id", claims.Subject),
						zap.String("role", string(usuario.Role)))
					return c.JSON(http.StatusForbidden, echo.Map{"error": "access denied"})
				}
			default:
				log.Warn("role guard: unknown role",
					zap.String("subject_id", claims.Subject),
					zap.String("role", string(usuario.Role)))
				return c.JSON(http.StatusForbidden, echo.Map{"error": "access denied"})
			}

			c.Set(ContextUsuario, usuario)
			return next(c)
		}
	}
}

// PaymentCheck gates a route group on the access policy: the caller's
// empresa must be active with payment received, administrators bypass. The
// resolved usuario and empresa summary are placed in the context.
func PaymentCheck(checker *Checker) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			log := logger.FromEcho(c)

			claims, ok := SessionFromEcho(c)
			if !ok {
				return c.JSON(http.StatusUnauthorized, echo.Map{"error": "authentication required"})
			}

			decision := checker.CheckAccess(c.Request().Context(), claims.Subject)
			if !decision.Allowed {
				log.Warn("payment check denied",
					zap.String("subject_id", claims.Subject),
					zap.String("reason", string(decision.Reason)))

				status := http.StatusForbidden
				if decision.Reason == ReasonUserNotFound {
					status = http.StatusUnauthorized
				}
				return c.JSON(status, echo.Map{
					"error":  "access denied",
					"reason": string(decision.Reason),
				})
			}

			c.Set(ContextUsuario, decision.Usuario)
			c.Set(ContextEmpresa, decision.Empresa)
			return next(c)
		}
	}
}
