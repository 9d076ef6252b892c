package handler

import (
	"errors"
	"fmt"
	"net/http"
	"net/url"

	"social-service/internal/authz"
	"social-service/internal/model"
	"social-service/internal/social"
	"social-service/internal/store"
	"social-service/pkg/logger"
	"social-service/prometheus"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

// SocialHandler serves the connection lifecycle for one platform. The same
// handler type backs /instagram/* and /facebook/*, differing only in the
// injected client.
type SocialHandler struct {
	Client      social.Client
	Usuarios    *store.UsuarioStore
	Conexoes    *store.ConexaoStore
	Activities  *store.ActivityStore
	SettingsURL string
}

// AuthURL returns the platform authorization URL. The identity subject id
// doubles as the anti-forgery state token, so the callback can resolve the
// initiating user without a session header.
func (h *SocialHandler) AuthURL(c echo.Context) error {
	claims, ok := authz.SessionFromEcho(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "authentication required"})
	}

	return c.JSON(http.StatusOK, echo.Map{
		"url": h.Client.AuthCodeURL(claims.Subject),
	})
}

// Callback consumes the platform redirect: exchange the code, fetch account
// details, persist the connection, append the audit entry. Every failure
// redirects to the settings page with a distinct error message; the browser
// never sees a JSON error here.
func (h *SocialHandler) Callback(c echo.Context) error {
	log := logger.FromEcho(c)
	platform := string(h.Client.Platform())
	ctx := c.Request().Context()

	if errParam := c.QueryParam("error"); errParam != "" {
		log.Warn("Platform authorization denied",
			zap.String("platform", platform),
			zap.String("error", errParam))
		prometheus.RecordConnection(platform, "failed")
		return h.redirectError(c, platform+"_auth_failed", "authorization was denied")
	}

	code := c.QueryParam("code")
	if code == "" {
		prometheus.RecordConnection(platform, "failed")
		return h.redirectError(c, platform+"_no_code", "no authorization code received")
	}

	state := c.QueryParam("state")
	usuario, err := h.Usuarios.FindBySubject(ctx, state)
	if err != nil {
		log.Warn("Callback state does not resolve to a user",
			zap.String("platform", platform),
			zap.Error(err))
		prometheus.RecordConnection(platform, "failed")
		return h.redirectError(c, platform+"_setup_failed", "could not complete setup")
	}
	if usuario.EmpresaID == nil {
		prometheus.RecordConnection(platform, "failed")
		return h.redirectError(c, platform+"_setup_failed", "no company assigned to this account")
	}

	token, err := h.Client.Exchange(ctx, code)
	if err != nil || token.AccessToken == "" {
		log.Error("Token exchange failed", zap.String("platform", platform), zap.Error(err))
		prometheus.RecordConnection(platform, "failed")
		return h.redirectError(c, platform+"_no_token", "could not obtain an access token")
	}

	info, err := h.Client.FetchAccountInfo(ctx, token)
	if err != nil {
		var cbErr *social.CallbackError
		reason := social.FailureSetupFailed
		if errors.As(err, &cbErr) {
			reason = cbErr.Reason
		}
		log.Error("Account info fetch failed",
			zap.String("platform", platform),
			zap.String("reason", string(reason)),
			zap.Error(err))
		prometheus.RecordConnection(platform, "failed")

		switch reason {
		case social.FailureAccountNotFound:
			return h.redirectError(c, platform+"_account_not_found", "business account not linked")
		case social.FailureDetailFetchFailed:
			return h.redirectError(c, platform+"_detail_fetch_failed", "could not read account details")
		default:
			return h.redirectError(c, platform+"_setup_failed", "could not complete setup")
		}
	}

	conn := model.SocialConnection{
		UserID:      usuario.ID,
		EmpresaID:   *usuario.EmpresaID,
		Platform:    h.Client.Platform(),
		AccessToken: info.AccessToken,
		PageID:      info.PageID,
		AccountID:   info.AccountID,
		Username:    info.Username,
		Active:      true,
	}

	if err := h.Conexoes.Create(ctx, &conn); err != nil {
		log.Error("Failed to persist connection", zap.String("platform", platform), zap.Error(err))
		prometheus.RecordConnection(platform, "failed")
		return h.redirectError(c, platform+"_setup_failed", "could not save the connection")
	}

	// The audit entry is written after the connection and is not transactional
	// with it: a failed audit write is logged and the connection stands.
	if err := h.Activities.Record(ctx, conn.EmpresaID, conn.UserID,
		platform+"_connected",
		fmt.Sprintf("Connected %s account %s", platform, info.Username)); err != nil {
		log.Error("Failed to record connection activity",
			zap.String("platform", platform),
			zap.Error(err))
	}

	log.Info("Social connection established",
		zap.String("platform", platform),
		zap.Uint("empresa_id", conn.EmpresaID),
		zap.String("username", info.Username))
	prometheus.RecordConnection(platform, "connected")

	return c.Redirect(http.StatusFound, h.SettingsURL+"?connected="+platform)
}

// Status reports whether the caller's empresa has an active connection
func (h *SocialHandler) Status(c echo.Context) error {
	log := logger.FromEcho(c)

	usuario, ok := authz.UsuarioFromEcho(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "authentication required"})
	}
	if usuario.EmpresaID == nil {
		return c.JSON(http.StatusOK, echo.Map{"connected": false})
	}

	conn, err := h.Conexoes.FindActive(c.Request().Context(), *usuario.EmpresaID, h.Client.Platform())
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return c.JSON(http.StatusOK, echo.Map{"connected": false})
		}
		log.Error("Failed to check connection status", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to check connection status"})
	}

	return c.JSON(http.StatusOK, echo.Map{
		"connected": true,
		"username":  conn.Username,
		"page_id":   conn.PageID,
	})
}

// Disconnect deactivates the caller's platform connection. The row stays
// behind as the audit trail.
func (h *SocialHandler) Disconnect(c echo.Context) error {
	log := logger.FromEcho(c)
	platform := string(h.Client.Platform())

	usuario, ok := authz.UsuarioFromEcho(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "authentication required"})
	}
	if usuario.EmpresaID == nil {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "no empresa assigned"})
	}

	ctx := c.Request().Context()
	if err := h.Conexoes.Deactivate(ctx, *usuario.EmpresaID, h.Client.Platform()); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "no active connection"})
		}
		log.Error("Failed to disconnect", zap.String("platform", platform), zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "disconnect failed"})
	}

	if err := h.Activities.Record(ctx, *usuario.EmpresaID, usuario.ID,
		platform+"_disconnected",
		fmt.Sprintf("Disconnected %s account", platform)); err != nil {
		log.Error("Failed to record disconnect activity", zap.Error(err))
	}

	prometheus.RecordConnection(platform, "disconnected")
	return c.JSON(http.StatusOK, echo.Map{"message": "Disconnected successfully"})
}

func (h *SocialHandler) redirectError(c echo.Context, code, message string) error {
	q := url.Values{}
	q.Set("error", code)
	q.Set("message", message)
	return c.Redirect(http.StatusFound, h.SettingsURL+"?"+q.Encode())
}
