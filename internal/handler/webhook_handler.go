package handler

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"social-service/internal/identity"
	"social-service/pkg/logger"
	"social-service/prometheus"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

// WebhookHandler receives identity-provider lifecycle events
type WebhookHandler struct {
	Verifier  *identity.Verifier
	Processor *identity.Processor
}

// IdentityWebhook verifies the payload signature and applies the event.
// All three signature headers are required; missing or bad signatures
// reject the delivery before the body is even parsed.
func (h *WebhookHandler) IdentityWebhook(c echo.Context) error {
	log := logger.FromEcho(c)

	body, err := io.ReadAll(c.Request().Body)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "failed to read request body"})
	}

	headers := c.Request().Header
	err = h.Verifier.Verify(
		headers.Get(identity.HeaderID),
		headers.Get(identity.HeaderTimestamp),
		headers.Get(identity.HeaderSignature),
		body,
	)
	if err != nil {
		log.Warn("Webhook signature rejected", zap.Error(err))
		prometheus.RecordWebhookEvent("unknown", "rejected")
		if errors.Is(err, identity.ErrMissingHeaders) {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "missing signature headers"})
		}
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid webhook signature"})
	}

	var event identity.Event
	if err := json.Unmarshal(body, &event); err != nil {
		log.Error("Failed to parse webhook payload", zap.Error(err))
		prometheus.RecordWebhookEvent("unknown", "rejected")
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid webhook payload"})
	}

	if err := h.Processor.Apply(c.Request().Context(), event); err != nil {
		if errors.Is(err, identity.ErrUnknownEvent) {
			// Acknowledge event types we do not track so the provider stops retrying.
			log.Debug("Ignoring webhook event", zap.String("type", event.Type))
			prometheus.RecordWebhookEvent(event.Type, "ignored")
			return c.JSON(http.StatusOK, echo.Map{"message": "event ignored"})
		}
		log.Error("Failed to apply webhook event",
			zap.String("type", event.Type),
			zap.Error(err))
		prometheus.RecordWebhookEvent(event.Type, "failed")
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to process event"})
	}

	log.Info("Webhook event applied", zap.String("type", event.Type))
	prometheus.RecordWebhookEvent(event.Type, "applied")
	return c.JSON(http.StatusOK, echo.Map{"message": "event processed"})
}
