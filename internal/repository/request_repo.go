package repository

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/moosefactory/registrar-api/internal/models"
)

// RequestFilter narrows form request listings.
type RequestFilter struct {
	UserID   *uint
	FormType string
	Status   string
	Page     int
	PageSize int
}

// RequestRepository persists form requests and their generated documents.
type RequestRepository interface {
	CreateWithDocument(ctx context.Context, request *models.FormRequest, document *models.Document) error
	GetByID(ctx context.Context, id uint) (models.FormRequest, error)
	List(ctx context.Context, filter RequestFilter) ([]models.FormRequest, int64, error)
	MarkApproved(ctx context.Context, id, approvedBy uint, at time.Time) (int64, error)
	CountByStatus(ctx context.Context, status string) (int64, error)
}

type requestRepository struct {
	db *gorm.DB
}

// NewRequestRepository constructs a request repository.
func NewRequestRepository(db *gorm.DB) RequestRepository {
	return &requestRepository{db: db}
}

// CreateWithDocument inserts the request row and its document in a single
// transaction so a failed document insert leaves no orphan request.
func (r *requestRepository) CreateWithDocument(ctx context.Context, request *models.FormRequest, document *models.Document) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(request).Error; err != nil {
			return err
		}

		document.FormRequestID = request.ID
		if err := tx.Create(document).Error; err != nil {
			return err
		}

		request.Document = document
		return nil
	})
}

func (r *requestRepository) GetByID(ctx context.Context, id uint) (models.FormRequest, error) {
	var request models.FormRequest
	if err := r.db.WithContext(ctx).Preload("Document").First(&request, id).Error; err != nil {
		return models.FormRequest{}, err
	}

	return request, nil
}

func (r *requestRepository) List(ctx context.Context, filter RequestFilter) ([]models.FormRequest, int64, error) {
	query := r.db.WithContext(ctx).Model(&models.FormRequest{})

	if filter.UserID != nil {
		query = query.Where("user_id = ?", *filter.UserID)
	}
	if filter.FormType != "" {
		query = query.Where("form_type = ?", filter.FormType)
	}
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

	var requests []models.FormRequest
	if err := query.Preload("Document").Order("submitted_at DESC").Find(&requests).Error; err != nil {
		return nil, 0, err
	}

	return requests, total, nil
}

// MarkApproved flips a submitted request to approved in one guarded update.
// Returns the number of affected rows; zero means the request was missing or
// already approved, which the caller disambiguates.
func (r *requestRepository) MarkApproved(ctx context.Context, id, approvedBy uint, at time.Time) (int64, error) {
	result := r.db.WithContext(ctx).Model(&models.FormRequest{}).
		Where("id = ? AND status = ?", id, models.RequestStatusSubmitted).
		Updates(map[string]interface{}{
			"status":      models.RequestStatusApproved,
			"approved_by": approvedBy,
			"approved_at": at,
		})
	return result.RowsAffected, result.Error
}

func (r *requestRepository) CountByStatus(ctx context.Context, status string) (int64, error) {
	var total int64
	err := r.db.WithContext(ctx).Model(&models.FormRequest{}).
		Where("status = ?", status).
		Count(&total).Error
	return total, err
}
