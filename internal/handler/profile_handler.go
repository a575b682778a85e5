package handler

import (
	"errors"
	"io"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/moosefactory/registrar-api/internal/middleware"
	"github.com/moosefactory/registrar-api/internal/service"
	"github.com/moosefactory/registrar-api/internal/utils"
	"github.com/moosefactory/registrar-api/pkg/archive"
)

const maxSignatureBytes = 2 << 20

// ProfileHandler manages the current user's profile artifacts.
type ProfileHandler struct {
	directory service.DirectoryService
	logger    zerolog.Logger
}

// NewProfileHandler builds a profile handler instance.
func NewProfileHandler(directory service.DirectoryService, logger zerolog.Logger) *ProfileHandler {
	return &ProfileHandler{
		directory: directory,
		logger:    logger.With().Str("component", "profile_handler").Logger(),
	}
}

// Register attaches the routes to the provided router group.
func (h *ProfileHandler) Register(router fiber.Router) {
	router.Post("/signature", h.uploadSignature)
}

func (h *ProfileHandler) uploadSignature(c *fiber.Ctx) error {
	user, ok := middleware.UserFromContext(c)
	if !ok {
		return utils.SendError(c, fiber.StatusUnauthorized, "authentication required")
	}

	fileHeader, err := c.FormFile("signature")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "signature file is required")
	}
	if fileHeader.Size > maxSignatureBytes {
		return utils.SendError(c, fiber.StatusRequestEntityTooLarge, "signature file too large")
	}

	file, err := fileHeader.Open()
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "unable to read signature file")
	}
	defer file.Close()

	data, err := io.ReadAll(io.LimitReader(file, maxSignatureBytes+1))
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "unable to read signature file")
	}

	signature, err := h.directory.StoreSignature(c.Context(), user, data)
	if err != nil {
		if errors.Is(err, archive.ErrUnsupportedImage) {
			return utils.SendError(c, fiber.StatusUnsupportedMediaType, "signature must be a png or jpeg image")
		}
		requestLogger(h.logger, c).Error().Err(err).Msg("internal server error")
		return utils.SendError(c, fiber.StatusInternalServerError, "internal server error")
	}

	return utils.SendSuccessWithStatus(c, fiber.StatusCreated, "signature stored", signature)
}
