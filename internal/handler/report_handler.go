package handler

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/moosefactory/registrar-api/internal/dto"
	"github.com/moosefactory/registrar-api/internal/middleware"
	"github.com/moosefactory/registrar-api/internal/service"
	"github.com/moosefactory/registrar-api/internal/utils"
)

// ReportHandler manages abuse report filing and the moderation queue.
type ReportHandler struct {
	reports service.ReportService
	logger  zerolog.Logger
}

// NewReportHandler builds a report handler instance.
func NewReportHandler(reports service.ReportService, logger zerolog.Logger) *ReportHandler {
	return &ReportHandler{
		reports: reports,
		logger:  logger.With().Str("component", "report_handler").Logger(),
	}
}

// RegisterFiling attaches the user-facing report routes.
func (h *ReportHandler) RegisterFiling(router fiber.Router, fileLimit fiber.Handler) {
	router.Post("", fileLimit, h.file)
	router.Get("/categories", h.categories)
}

// RegisterModeration attaches the staff moderation queue routes.
func (h *ReportHandler) RegisterModeration(router fiber.Router) {
	router.Get("", h.list)
	router.Post("/:id/resolve", h.resolve)
}

func (h *ReportHandler) file(c *fiber.Ctx) error {
	reporter, ok := middleware.UserFromContext(c)
	if !ok {
		return utils.SendError(c, fiber.StatusUnauthorized, "authentication required")
	}

	var payload dto.FileReportRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid request body")
	}

	report, err := h.reports.File(c.Context(), reporter, payload)
	if err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccessWithStatus(c, fiber.StatusCreated, "report filed", report)
}

func (h *ReportHandler) list(c *fiber.Ctx) error {
	req := dto.ReportListRequest{
		Status:   c.Query("status"),
		Page:     parseQueryInt(c, "page", 1),
		PageSize: parseQueryInt(c, "page_size", 20),
	}

	reports, err := h.reports.List(c.Context(), req)
	if err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccess(c, "reports retrieved", reports)
}

func (h *ReportHandler) resolve(c *fiber.Ctx) error {
	staff, ok := middleware.UserFromContext(c)
	if !ok {
		return utils.SendError(c, fiber.StatusUnauthorized, "authentication required")
	}

	id, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	var payload dto.ResolveReportRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid request body")
	}

	report, err := h.reports.Resolve(c.Context(), staff, id, payload)
	if err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccess(c, "report resolved", report)
}

func (h *ReportHandler) categories(c *fiber.Ctx) error {
	categories, err := h.reports.Categories(c.Context())
	if err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccess(c, "categories retrieved", categories)
}

func (h *ReportHandler) handleError(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, service.ErrUnauthenticated):
		return utils.SendError(c, fiber.StatusUnauthorized, "authentication required")
	case errors.Is(err, service.ErrForbidden):
		return utils.SendError(c, fiber.StatusForbidden, "insufficient permissions")
	case errors.Is(err, service.ErrUserNotFound):
		return utils.SendError(c, fiber.StatusNotFound, "user not found")
	case errors.Is(err, service.ErrCategoryNotFound):
		return utils.SendError(c, fiber.StatusNotFound, "report category not found")
	case errors.Is(err, service.ErrCategoryInactive):
		return utils.SendError(c, fiber.StatusUnprocessableEntity, "report category is inactive")
	case errors.Is(err, service.ErrSelfReport):
		return utils.SendError(c, fiber.StatusUnprocessableEntity, "cannot report yourself")
	case errors.Is(err, service.ErrReportNotFound):
		return utils.SendError(c, fiber.StatusNotFound, "report not found")
	case errors.Is(err, service.ErrReportTerminal):
		return utils.SendError(c, fiber.StatusConflict, "report is already resolved")
	case isValidationError(err):
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	default:
		requestLogger(h.logger, c).Error().Err(err).Msg("internal server error")
		return utils.SendError(c, fiber.StatusInternalServerError, "internal server error")
	}
}
