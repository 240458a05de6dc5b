package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/boon-market/support-router/internal/api/http/handlers"
	"github.com/boon-market/support-router/internal/auth"
)

// RouteConfig bundles dependencies for route registration.
type RouteConfig struct {
	Health            *handlers.HealthHandler
	Webhook           *handlers.WebhookHandler
	WebhookMiddleware *auth.WebhookMiddleware
}

// RegisterRoutes wires HTTP routes.
func RegisterRoutes(app *fiber.App, cfg RouteConfig) {
	app.Get("/health/live", cfg.Health.Live)
	app.Get("/health/ready", cfg.Health.Ready)

	webhook := app.Group("/gateway", cfg.WebhookMiddleware.Handle)
	webhook.Post("/updates", cfg.Webhook.Receive)
}
