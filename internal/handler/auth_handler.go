package handler

import (
	"errors"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/moosefactory/registrar-api/internal/auth"
	"github.com/moosefactory/registrar-api/internal/dto"
	"github.com/moosefactory/registrar-api/internal/middleware"
	"github.com/moosefactory/registrar-api/internal/service"
	"github.com/moosefactory/registrar-api/internal/utils"
)

const oauthStateCookie = "registrar_oauth_state"

// AuthHandler manages the OAuth login flow and the session endpoints.
type AuthHandler struct {
	identity   service.IdentityService
	sessionTTL time.Duration
	logger     zerolog.Logger
}

// NewAuthHandler builds an auth handler instance.
func NewAuthHandler(identity service.IdentityService, sessionTTL time.Duration, logger zerolog.Logger) *AuthHandler {
	return &AuthHandler{
		identity:   identity,
		sessionTTL: sessionTTL,
		logger:     logger.With().Str("component", "auth_handler").Logger(),
	}
}

// Register attaches the auth and session routes to the API group.
func (h *AuthHandler) Register(router fiber.Router) {
	group := router.Group("/auth")
	group.Get("/login", h.login)
	group.Get("/callback", h.callback)
	group.Post("/logout", h.logout)

	router.Get("/me", h.me)
	router.Get("/disabled", h.disabled)
}

func (h *AuthHandler) login(c *fiber.Ctx) error {
	state := uuid.NewString()
	c.Cookie(&fiber.Cookie{
		Name:     oauthStateCookie,
		Value:    state,
		Expires:  time.Now().Add(10 * time.Minute),
		HTTPOnly: true,
		SameSite: fiber.CookieSameSiteLaxMode,
	})

	return c.Redirect(h.identity.LoginURL(state), fiber.StatusSeeOther)
}

func (h *AuthHandler) callback(c *fiber.Ctx) error {
	state := c.Query("state")
	if state == "" || state != c.Cookies(oauthStateCookie) {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid login state")
	}
	c.ClearCookie(oauthStateCookie)

	code := c.Query("code")
	if code == "" {
		return utils.SendError(c, fiber.StatusBadRequest, "missing authorization code")
	}

	principal, token, err := h.identity.CompleteLogin(c.Context(), code)
	if err != nil {
		if errors.Is(err, service.ErrLoginFailed) {
			return utils.SendError(c, fiber.StatusUnauthorized, "login failed")
		}
		requestLogger(h.logger, c).Error().Err(err).Msg("login exchange failed")
		return utils.SendError(c, fiber.StatusInternalServerError, "internal server error")
	}

	c.Cookie(&fiber.Cookie{
		Name:     auth.SessionCookie,
		Value:    token,
		Expires:  time.Now().Add(h.sessionTTL),
		HTTPOnly: true,
		SameSite: fiber.CookieSameSiteLaxMode,
	})

	requestLogger(h.logger, c).Info().Str("email", principal.Email).Msg("session issued")
	return c.Redirect("/", fiber.StatusSeeOther)
}

func (h *AuthHandler) logout(c *fiber.Ctx) error {
	c.Cookie(&fiber.Cookie{
		Name:     auth.SessionCookie,
		Value:    "",
		Expires:  time.Now().Add(-time.Hour),
		HTTPOnly: true,
		SameSite: fiber.CookieSameSiteLaxMode,
	})

	return utils.SendSuccess(c, "logged out", nil)
}

func (h *AuthHandler) me(c *fiber.Ctx) error {
	user, ok := middleware.UserFromContext(c)
	if !ok {
		return utils.SendError(c, fiber.StatusUnauthorized, "authentication required")
	}

	return utils.SendSuccess(c, "session retrieved", dto.MeResponse{
		Email:  user.Email,
		Name:   user.Name,
		Role:   user.Role,
		Status: user.Status,
	})
}

func (h *AuthHandler) disabled(c *fiber.Ctx) error {
	return utils.SendSuccess(c, "account disabled", fiber.Map{
		"status": "inactive",
		"detail": "your account has been disabled; contact the registrar office",
	})
}
