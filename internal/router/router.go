package router

import (
	"github.com/gofiber/fiber/v2"

	"github.com/moosefactory/registrar-api/internal/config"
	"github.com/moosefactory/registrar-api/internal/handler"
	"github.com/moosefactory/registrar-api/internal/middleware"
	"github.com/moosefactory/registrar-api/internal/models"
	"github.com/moosefactory/registrar-api/internal/observability"
)

// Dependencies groups router dependencies for registration.
type Dependencies struct {
	AuthHandler         *handler.AuthHandler
	AdminHandler        *handler.AdminHandler
	RequestHandler      *handler.RequestHandler
	ReportHandler       *handler.ReportHandler
	NotificationHandler *handler.NotificationHandler
	ProfileHandler      *handler.ProfileHandler

	Principal  fiber.Handler
	AttachUser fiber.Handler
	StatusGate fiber.Handler

	SubmitLimit fiber.Handler
	ReportLimit fiber.Handler
}

// Register wires the HTTP routes into the fiber application.
func Register(app *fiber.App, cfg config.Config, deps Dependencies) {
	app.Get("/metrics", observability.MetricsHandler())

	api := app.Group("/api/v1", func(c *fiber.Ctx) error {
		c.Set("X-Application", cfg.AppName)
		return c.Next()
	})
	api.Get("/health", handler.HealthCheck(cfg))

	// Identity chain: resolve the principal, upsert the directory row, and
	// gate disabled accounts. Exempt routes are handled inside the gate.
	api.Use(noop(deps.Principal), noop(deps.AttachUser), noop(deps.StatusGate))

	if deps.AuthHandler != nil {
		deps.AuthHandler.Register(api)
	}

	if deps.RequestHandler != nil {
		requests := api.Group("/requests", middleware.RequireAuthenticated())
		deps.RequestHandler.Register(requests, noop(deps.SubmitLimit))
	}

	if deps.ReportHandler != nil {
		reports := api.Group("/reports", middleware.RequireAuthenticated())
		deps.ReportHandler.RegisterFiling(reports, noop(deps.ReportLimit))

		moderation := api.Group("/moderation/reports", middleware.RequireRole(models.RoleAdmin, models.RoleModerator))
		deps.ReportHandler.RegisterModeration(moderation)
	}

	if deps.AdminHandler != nil {
		admin := api.Group("/admin", middleware.RequireRole(models.RoleAdmin))
		deps.AdminHandler.Register(admin)
	}

	if deps.ProfileHandler != nil {
		profile := api.Group("/profile", middleware.RequireAuthenticated())
		deps.ProfileHandler.Register(profile)
	}

	if deps.NotificationHandler != nil {
		notifications := api.Group("/notifications", middleware.RequireAuthenticated())
		deps.NotificationHandler.Register(notifications)
	}
}

func noop(h fiber.Handler) fiber.Handler {
	if h != nil {
		return h
	}
	return func(c *fiber.Ctx) error { return c.Next() }
}
