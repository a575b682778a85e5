package service

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/moosefactory/registrar-api/internal/models"
	"github.com/moosefactory/registrar-api/internal/repository"
)

// defaultCategories is the reference data inserted on first boot.
var defaultCategories = []models.ReportCategory{
	{Name: "Harassment", IsActive: true},
	{Name: "Academic Dishonesty", IsActive: true},
	{Name: "Impersonation", IsActive: true},
	{Name: "Spam", IsActive: true},
	{Name: "Other", IsActive: true},
}

// SeedService installs static reference data at boot.
type SeedService interface {
	EnsureReportCategories(ctx context.Context) error
}

type seedService struct {
	reports repository.ReportRepository
	logger  zerolog.Logger
}

// NewSeedService constructs the seeding service.
func NewSeedService(reports repository.ReportRepository, logger zerolog.Logger) SeedService {
	return &seedService{
		reports: reports,
		logger:  logger.With().Str("component", "seed_service").Logger(),
	}
}

// EnsureReportCategories inserts the default categories, skipping any that
// already exist.
func (s *seedService) EnsureReportCategories(ctx context.Context) error {
	categories := make([]models.ReportCategory, len(defaultCategories))
	copy(categories, defaultCategories)

	if err := s.reports.SeedCategories(ctx, categories); err != nil {
		return err
	}

	s.logger.Info().Int("count", len(categories)).Msg("report categories ensured")
	return nil
}
