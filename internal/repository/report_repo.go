package repository

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/moosefactory/registrar-api/internal/models"
)

// ReportFilter narrows report listings for the moderation queue.
type ReportFilter struct {
	Status   string
	Page     int
	PageSize int
}

// ReportResolution captures the fields written when a report leaves the
// submitted state.
type ReportResolution struct {
	Outcome           string
	ResolvedBy        uint
	ModeratorComments string
	AdminComments     string
}

// ReportRepository persists abuse reports and their reference categories.
type ReportRepository interface {
	Create(ctx context.Context, report *models.Report) error
	GetByID(ctx context.Context, id uint) (models.Report, error)
	List(ctx context.Context, filter ReportFilter) ([]models.Report, int64, error)
	Resolve(ctx context.Context, id uint, resolution ReportResolution) (int64, error)
	CountByStatus(ctx context.Context, status string) (int64, error)
	GetCategory(ctx context.Context, id uint) (models.ReportCategory, error)
	ListCategories(ctx context.Context, activeOnly bool) ([]models.ReportCategory, error)
	SeedCategories(ctx context.Context, categories []models.ReportCategory) error
}

type reportRepository struct {
	db *gorm.DB
}

// NewReportRepository constructs a report repository.
func NewReportRepository(db *gorm.DB) ReportRepository {
	return &reportRepository{db: db}
}

func (r *reportRepository) Create(ctx context.Context, report *models.Report) error {
	return r.db.WithContext(ctx).Create(report).Error
}

func (r *reportRepository) GetByID(ctx context.Context, id uint) (models.Report, error) {
	var report models.Report
	if err := r.db.WithContext(ctx).Preload("Category").First(&report, id).Error; err != nil {
		return models.Report{}, err
	}

	return report, nil
}

func (r *reportRepository) List(ctx context.Context, filter ReportFilter) ([]models.Report, int64, error) {
	query := r.db.WithContext(ctx).Model(&models.Report{})

	if filter.Status != "" {
		query = query.Where("status = ?", filter.Status)
	}

	countQuery := query.Session(&gorm.Session{})
	var total int64
	if err := countQuery.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	if filter.PageSize > 0 {
		page := filter.Page
		if page <= 0 {
			page = 1
		}
		query = query.Offset((page - 1) * filter.PageSize).Limit(filter.PageSize)
	}

	var reports []models.Report
	if err := query.Preload("Category").Order("created_at DESC").Find(&reports).Error; err != nil {
		return nil, 0, err
	}

	return reports, total, nil
}

// Resolve transitions a submitted report to its terminal state in one
// guarded update. Zero affected rows means the report was missing or already
// terminal.
func (r *reportRepository) Resolve(ctx context.Context, id uint, resolution ReportResolution) (int64, error) {
	result := r.db.WithContext(ctx).Model(&models.Report{}).
		Where("id = ? AND status = ?", id, models.ReportStatusSubmitted).
		Updates(map[string]interface{}{
			"status":             resolution.Outcome,
			"resolved_by":        resolution.ResolvedBy,
			"moderator_comments": resolution.ModeratorComments,
			"admin_comments":     resolution.AdminComments,
		})
	return result.RowsAffected, result.Error
}

func (r *reportRepository) CountByStatus(ctx context.Context, status string) (int64, error) {
	var total int64
	err := r.db.WithContext(ctx).Model(&models.Report{}).
		Where("status = ?", status).
		Count(&total).Error
	return total, err
}

func (r *reportRepository) GetCategory(ctx context.Context, id uint) (models.ReportCategory, error) {
	var category models.ReportCategory
	if err := r.db.WithContext(ctx).First(&category, id).Error; err != nil {
		return models.ReportCategory{}, err
	}

	return category, nil
}

func (r *reportRepository) ListCategories(ctx context.Context, activeOnly bool) ([]models.ReportCategory, error) {
	query := r.db.WithContext(ctx).Model(&models.ReportCategory{})
	if activeOnly {
		query = query.Where("is_active = ?", true)
	}

	var categories []models.ReportCategory
	if err := query.Order("name").Find(&categories).Error; err != nil {
		return nil, err
	}

	return categories, nil
}

// SeedCategories inserts reference categories, skipping names already present.
func (r *reportRepository) SeedCategories(ctx context.Context, categories []models.ReportCategory) error {
	if len(categories) == 0 {
		return nil
	}

	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{Columns: []clause.Column{{Name: "name"}}, DoNothing: true}).
		Create(&categories).Error
}
