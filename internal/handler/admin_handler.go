package handler

import (
	"errors"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/moosefactory/registrar-api/internal/dto"
	"github.com/moosefactory/registrar-api/internal/middleware"
	"github.com/moosefactory/registrar-api/internal/service"
	"github.com/moosefactory/registrar-api/internal/utils"
)

// AdminHandler manages the directory administration endpoints.
type AdminHandler struct {
	directory service.DirectoryService
	validator *validator.Validate
	logger    zerolog.Logger
}

// NewAdminHandler builds an admin handler instance.
func NewAdminHandler(directory service.DirectoryService, validator *validator.Validate, logger zerolog.Logger) *AdminHandler {
	return &AdminHandler{
		directory: directory,
		validator: validator,
		logger:    logger.With().Str("component", "admin_handler").Logger(),
	}
}

// Register attaches the routes to the provided router group.
func (h *AdminHandler) Register(router fiber.Router) {
	router.Get("/users", h.listUsers)
	router.Post("/users/role", h.setRole)
	router.Post("/users/status", h.setStatus)
	router.Get("/summary", h.summary)
}

func (h *AdminHandler) listUsers(c *fiber.Ctx) error {
	req := dto.UserListRequest{
		Search:   c.Query("search"),
		Role:     c.Query("role"),
		Status:   c.Query("status"),
		Page:     parseQueryInt(c, "page", 1),
		PageSize: parseQueryInt(c, "page_size", 20),
	}
	if err := h.validator.Struct(req); err != nil {
		return h.handleError(c, err)
	}

	users, err := h.directory.ListUsers(c.Context(), req)
	if err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccess(c, "users retrieved", users)
}

func (h *AdminHandler) setRole(c *fiber.Ctx) error {
	actor, ok := middleware.UserFromContext(c)
	if !ok {
		return utils.SendError(c, fiber.StatusUnauthorized, "authentication required")
	}

	var payload dto.SetRoleRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid request body")
	}
	if err := h.validator.Struct(payload); err != nil {
		return h.handleError(c, err)
	}

	user, err := h.directory.SetRole(c.Context(), actor, payload.Email, payload.Role)
	if err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccess(c, "role updated", dto.NewUserResponse(user))
}

func (h *AdminHandler) setStatus(c *fiber.Ctx) error {
	actor, ok := middleware.UserFromContext(c)
	if !ok {
		return utils.SendError(c, fiber.StatusUnauthorized, "authentication required")
	}

	var payload dto.SetStatusRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid request body")
	}
	if err := h.validator.Struct(payload); err != nil {
		return h.handleError(c, err)
	}

	user, err := h.directory.SetStatus(c.Context(), actor, payload.Email, payload.Status)
	if err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccess(c, "status updated", dto.NewUserResponse(user))
}

func (h *AdminHandler) summary(c *fiber.Ctx) error {
	summary, err := h.directory.Summary(c.Context())
	if err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccess(c, "summary retrieved", summary)
}

func (h *AdminHandler) handleError(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, service.ErrForbidden):
		return utils.SendError(c, fiber.StatusForbidden, "insufficient permissions")
	case errors.Is(err, service.ErrUserNotFound):
		return utils.SendError(c, fiber.StatusNotFound, "user not found")
	case errors.Is(err, service.ErrSelfModification):
		return utils.SendError(c, fiber.StatusUnprocessableEntity, "cannot modify own account")
	case errors.Is(err, service.ErrInvalidRole), errors.Is(err, service.ErrInvalidStatus):
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	case isValidationError(err):
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	default:
		requestLogger(h.logger, c).Error().Err(err).Msg("internal server error")
		return utils.SendError(c, fiber.StatusInternalServerError, "internal server error")
	}
}
