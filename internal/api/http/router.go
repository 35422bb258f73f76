package http

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"

	"github.com/semprecheio/auth-api/internal/api/http/handlers"
	"github.com/semprecheio/auth-api/internal/auth"
	"github.com/semprecheio/auth-api/internal/domain"
	"github.com/semprecheio/auth-api/internal/observability"
)

// RouteConfig bundles dependencies for route registration.
type RouteConfig struct {
	Health         *handlers.HealthHandler
	Auth           *handlers.AuthHandler
	Accounts       *handlers.AccountsHandler
	AuthMiddleware *auth.AuthMiddleware
	Metrics        *observability.Metrics
}

// RegisterRoutes wires HTTP routes.
func RegisterRoutes(app *fiber.App, cfg RouteConfig) {
	if cfg.Health != nil {
		app.Get("/health/live", cfg.Health.Live)
		app.Get("/health/ready", cfg.Health.Ready)
	}
	if cfg.Metrics != nil {
		app.Get("/metrics", adaptor.HTTPHandler(cfg.Metrics.Handler()))
	}

	authGroup := app.Group("/api/auth")
	authGroup.All("/login", cfg.Auth.Login)
	authGroup.Post("/refresh", cfg.Auth.Refresh)
	authGroup.Post("/logout", cfg.Auth.Logout)

	protected := authGroup.Group("", cfg.AuthMiddleware.Handle, auth.RequireAuthenticated())
	protected.Get("/user", cfg.Auth.CurrentUser)
	protected.Post("/change-password", cfg.Auth.ChangePassword)

	if cfg.Accounts != nil {
		admin := app.Group("/api/admin", cfg.AuthMiddleware.Handle, auth.RequireRoles(domain.RoleSuperAdmin))
		admin.Get("/accounts", cfg.Accounts.List)
		admin.Post("/accounts", cfg.Accounts.Create)
		admin.Patch("/accounts/:id/status", cfg.Accounts.SetStatus)
	}
}
