package middleware

import (
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/moosefactory/registrar-api/internal/models"
	"github.com/moosefactory/registrar-api/internal/service"
)

// Paths exempt from the status gate: the disabled view itself and health.
var statusGateExempt = map[string]struct{}{
	"/api/v1/disabled": {},
	"/api/v1/health":   {},
	"/metrics":         {},
}

// AttachUser upserts the resolved principal into the directory and binds
// the stored user to the request. An upsert failure is logged and the
// request proceeds anonymously; authorization guards downstream reject it
// if identity is required. Runs strictly after ResolvePrincipal.
func AttachUser(directory service.DirectoryService, logger zerolog.Logger) fiber.Handler {
	log := logger.With().Str("component", "directory_middleware").Logger()

	return func(c *fiber.Ctx) error {
		principal := PrincipalFromContext(c)
		if !principal.Valid() {
			return c.Next()
		}

		user, err := directory.EnsureUser(c.Context(), principal)
		if err != nil {
			log.Error().Err(err).Str("email", principal.Email).Msg("directory upsert failed")
			return c.Next()
		}

		c.Locals("user_id", user.ID)
		c.Locals("user_role", user.Role)
		c.Locals("user_status", user.Status)
		c.Locals("user", user)

		return c.Next()
	}
}

// StatusGate redirects inactive accounts to the disabled view for every
// route except the disabled view itself and health. Runs after AttachUser
// and before any route-specific authorization.
func StatusGate() fiber.Handler {
	return func(c *fiber.Ctx) error {
		status, _ := c.Locals("user_status").(string)
		if status != models.StatusInactive {
			return c.Next()
		}

		if _, exempt := statusGateExempt[c.Path()]; exempt {
			return c.Next()
		}

		return c.Redirect("/api/v1/disabled", fiber.StatusSeeOther)
	}
}

// UserFromContext returns the directory user bound to this request, if any.
func UserFromContext(c *fiber.Ctx) (models.User, bool) {
	if value := c.Locals("user"); value != nil {
		if user, ok := value.(models.User); ok {
			return user, true
		}
	}
	return models.User{}, false
}
