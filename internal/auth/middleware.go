package auth

import (
	"strings"

	"github.com/gofiber/fiber/v2"

	apperrors "github.com/boon-market/support-router/pkg/util/errorutil"
)

const gatewayIDKey = "auth_gateway_id"

// WebhookMiddleware validates the gateway's bearer token on webhook routes.
type WebhookMiddleware struct {
	tokens *TokenManager
}

// NewWebhookMiddleware constructs middleware.
func NewWebhookMiddleware(tokens *TokenManager) *WebhookMiddleware {
	return &WebhookMiddleware{tokens: tokens}
}

// Handle enforces authentication for webhook routes.
func (m *WebhookMiddleware) Handle(c *fiber.Ctx) error {
	authHeader := c.Get("Authorization")
	if authHeader == "" {
		return apperrors.NewUnauthorized("missing authorization header")
	}

	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return apperrors.NewUnauthorized("invalid authorization header")
	}

	claims, err := m.tokens.ParseToken(parts[1])
	if err != nil {
		return apperrors.NewUnauthorized("invalid token")
	}

	c.Locals(gatewayIDKey, claims.GatewayID)
	return c.Next()
}

// GatewayIDFromContext retrieves the authenticated gateway id.
func GatewayIDFromContext(c *fiber.Ctx) (string, bool) {
	val := c.Locals(gatewayIDKey)
	if val == nil {
		return "", false
	}
	id, ok := val.(string)
	return id, ok
}
