package http

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"

	"github.com/spec-kit/hotel-requests/internal/api/http/handlers"
	"github.com/spec-kit/hotel-requests/internal/auth"
	"github.com/spec-kit/hotel-requests/internal/domain"
	"github.com/spec-kit/hotel-requests/internal/observability"
)

// RouteConfig bundles dependencies for route registration.
type RouteConfig struct {
	Health         *handlers.HealthHandler
	Requests       *handlers.RequestsHandler
	Admin          *handlers.AdminHandler
	AuthMiddleware *auth.AuthMiddleware
	Metrics        *observability.Metrics
}

// RegisterRoutes wires HTTP routes.
func RegisterRoutes(app *fiber.App, cfg RouteConfig) {
	app.Get("/health/live", cfg.Health.Live)
	app.Get("/health/ready", cfg.Health.Ready)
	if cfg.Metrics != nil {
		app.Get("/metrics", adaptor.HTTPHandler(cfg.Metrics.Handler()))
	}

	api := app.Group("/api/v1", cfg.AuthMiddleware.Handle)
	api.Get("/me", handlers.Me)

	requests := api.Group("/requests")
	requests.Post("/", auth.RequireRole(domain.RoleGuest), cfg.Requests.Create)
	requests.Get("/", cfg.Requests.List)
	requests.Get("/:id", cfg.Requests.Get)
	requests.Get("/:id/history", cfg.Requests.History)
	requests.Post("/:id/claim", cfg.Requests.Claim)
	requests.Post("/:id/status", cfg.Requests.UpdateStatus)
	requests.Post("/:id/reassign", auth.RequireRole(domain.RoleAdmin), cfg.Requests.Reassign)
	requests.Post("/:id/escalate", auth.RequireRole(domain.RoleStaff, domain.RoleAdmin), cfg.Requests.Escalate)
	requests.Post("/:id/cancel", cfg.Requests.Cancel)
	requests.Patch("/:id/note", auth.RequireRole(domain.RoleGuest), cfg.Requests.UpdateNote)

	admin := api.Group("/admin", auth.RequireRole(domain.RoleAdmin))
	admin.Get("/metrics", cfg.Admin.Metrics)
	admin.Get("/staff", cfg.Admin.ListStaff)
	admin.Post("/guests", cfg.Admin.RegisterGuest)
}
