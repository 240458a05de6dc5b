package handlers

import (
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/boon-market/support-router/internal/auth"
	"github.com/boon-market/support-router/internal/dispatch"
	"github.com/boon-market/support-router/internal/gateway"
	apperrors "github.com/boon-market/support-router/pkg/util/errorutil"
)

// WebhookHandler receives gateway updates over HTTP and hands them to the
// dispatcher.
type WebhookHandler struct {
	dispatcher *dispatch.Dispatcher
	logger     *zap.Logger
}

// NewWebhookHandler returns a new handler instance.
func NewWebhookHandler(dispatcher *dispatch.Dispatcher, logger *zap.Logger) *WebhookHandler {
	return &WebhookHandler{dispatcher: dispatcher, logger: logger}
}

// Receive decodes one update and dispatches it. Handler-level failures are
// absorbed inside the dispatch chain; a non-200 response here would make
// the gateway redeliver an update whose side effects may already have
// happened.
func (h *WebhookHandler) Receive(c *fiber.Ctx) error {
	var update gateway.Update
	if err := c.BodyParser(&update); err != nil {
		return apperrors.NewValidationError("malformed update payload", map[string]any{"error": err.Error()})
	}
	if update.Message == nil && update.Callback == nil {
		return apperrors.NewValidationError("empty update", nil)
	}

	gatewayID, _ := auth.GatewayIDFromContext(c)
	if err := h.dispatcher.Dispatch(c.UserContext(), &update); err != nil {
		h.logger.Error("dispatch failed", zap.String("gateway_id", gatewayID), zap.Error(err))
	}
	return c.JSON(fiber.Map{"status": "accepted"})
}
