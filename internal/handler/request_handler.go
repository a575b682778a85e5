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
	"github.com/moosefactory/registrar-api/pkg/typeset"
)

// RequestHandler manages the form request workflow endpoints.
type RequestHandler struct {
	requests  service.RequestService
	validator *validator.Validate
	logger    zerolog.Logger
}

// NewRequestHandler builds a request handler instance.
func NewRequestHandler(requests service.RequestService, validator *validator.Validate, logger zerolog.Logger) *RequestHandler {
	return &RequestHandler{
		requests:  requests,
		validator: validator,
		logger:    logger.With().Str("component", "request_handler").Logger(),
	}
}

// Register attaches the routes to the provided router group. The submit
// route additionally carries the rate limiter passed by the router.
func (h *RequestHandler) Register(router fiber.Router, submitLimit fiber.Handler) {
	router.Get("", h.list)
	router.Post("/:formType", submitLimit, h.submit)
	router.Get("/:id/document", h.document)
	router.Post("/:id/approve", h.approve)
}

func (h *RequestHandler) submit(c *fiber.Ctx) error {
	user, ok := middleware.UserFromContext(c)
	if !ok {
		return utils.SendError(c, fiber.StatusUnauthorized, "authentication required")
	}

	var payload dto.SubmitFormRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid request body")
	}
	if err := h.validator.Struct(payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	request, err := h.requests.Submit(c.Context(), user, c.Params("formType"), payload.Fields)
	if err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccessWithStatus(c, fiber.StatusCreated, "request submitted", request)
}

func (h *RequestHandler) list(c *fiber.Ctx) error {
	viewer, ok := middleware.UserFromContext(c)
	if !ok {
		return utils.SendError(c, fiber.StatusUnauthorized, "authentication required")
	}

	req := dto.RequestListRequest{
		FormType: c.Query("form_type"),
		Status:   c.Query("status"),
		Page:     parseQueryInt(c, "page", 1),
		PageSize: parseQueryInt(c, "page_size", 20),
	}
	if err := h.validator.Struct(req); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	requests, err := h.requests.List(c.Context(), viewer, req)
	if err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccess(c, "requests retrieved", requests)
}

func (h *RequestHandler) document(c *fiber.Ctx) error {
	viewer, ok := middleware.UserFromContext(c)
	if !ok {
		return utils.SendError(c, fiber.StatusUnauthorized, "authentication required")
	}

	id, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	document, err := h.requests.Document(c.Context(), viewer, id)
	if err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccess(c, "document retrieved", document)
}

func (h *RequestHandler) approve(c *fiber.Ctx) error {
	actor, ok := middleware.UserFromContext(c)
	if !ok {
		return utils.SendError(c, fiber.StatusUnauthorized, "authentication required")
	}

	id, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	request, err := h.requests.Approve(c.Context(), actor, id)
	if err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccess(c, "request approved", request)
}

func (h *RequestHandler) handleError(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, service.ErrUnknownFormType):
		return utils.SendError(c, fiber.StatusNotFound, "unknown form type")
	case errors.Is(err, service.ErrFieldValidation):
		return utils.SendError(c, fiber.StatusUnprocessableEntity, err.Error())
	case errors.Is(err, service.ErrRequestNotFound):
		return utils.SendError(c, fiber.StatusNotFound, "request not found")
	case errors.Is(err, service.ErrForbidden):
		return utils.SendError(c, fiber.StatusForbidden, "insufficient permissions")
	case errors.Is(err, typeset.ErrRenderTimeout):
		return utils.SendError(c, fiber.StatusGatewayTimeout, "document generation timed out")
	case errors.Is(err, typeset.ErrRenderFailed):
		return utils.SendError(c, fiber.StatusBadGateway, "document generation failed")
	default:
		requestLogger(h.logger, c).Error().Err(err).Msg("internal server error")
		return utils.SendError(c, fiber.StatusInternalServerError, "internal server error")
	}
}
