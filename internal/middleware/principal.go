package middleware

import (
	"github.com/gofiber/fiber/v2"

	"github.com/moosefactory/registrar-api/internal/auth"
)

// ResolvePrincipal resolves the caller identity fresh on every request:
// first from the platform-injected client principal header, then from the
// session cookie minted after an OAuth login. A malformed or absent signal
// leaves the request anonymous; it never fails the request. Nothing is
// cached between requests, so the identity disappears as soon as the
// platform stops sending it.
func ResolvePrincipal(sessionSecret string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		principal := auth.DecodeClientPrincipal(c.Get(auth.HeaderClientPrincipal))
		if !principal.Valid() {
			principal = auth.ParseSessionToken(sessionSecret, c.Cookies(auth.SessionCookie))
		}

		if principal.Valid() {
			c.Locals("principal", principal)
		}

		return c.Next()
	}
}

// PrincipalFromContext returns the resolved principal for this request, or
// a zero principal for anonymous callers.
func PrincipalFromContext(c *fiber.Ctx) auth.Principal {
	if value := c.Locals("principal"); value != nil {
		if principal, ok := value.(auth.Principal); ok {
			return principal
		}
	}
	return auth.Principal{}
}
