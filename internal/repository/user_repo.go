package repository

import (
	"context"
	"strings"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/moosefactory/registrar-api/internal/models"
)

// UserFilter narrows directory listings for the admin panel.
type UserFilter struct {
	Search   string
	Role     string
	Status   string
	Page     int
	PageSize int
}

// UserRepository provides access to directory user records.
type UserRepository interface {
	EnsureByEmail(ctx context.Context, email, name string) (models.User, error)
	GetByEmail(ctx context.Context, email string) (models.User, error)
	GetByID(ctx context.Context, id uint) (models.User, error)
	List(ctx context.Context, filter UserFilter) ([]models.User, int64, error)
	UpdateRole(ctx context.Context, email, role string) (int64, error)
	UpdateStatus(ctx context.Context, email, status string) (int64, error)
	UpdateSignature(ctx context.Context, id uint, path string) error
}

type userRepository struct {
	db *gorm.DB
}

// NewUserRepository constructs a user repository.
func NewUserRepository(db *gorm.DB) UserRepository {
	return &userRepository{db: db}
}

// EnsureByEmail inserts the user on first sight and returns the stored row.
// The insert uses ON CONFLICT DO NOTHING on the unique email column, so a
// concurrent duplicate insert degrades to a read of the winning row.
func (r *userRepository) EnsureByEmail(ctx context.Context, email, name string) (models.User, error) {
	user := models.User{
		Email:  strings.ToLower(strings.TrimSpace(email)),
		Name:   strings.TrimSpace(name),
		Role:   models.RoleBasic,
		Status: models.StatusActive,
	}

	if err := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{Columns: []clause.Column{{Name: "email"}}, DoNothing: true}).
		Create(&user).Error; err != nil {
		return models.User{}, err
	}

	return r.GetByEmail(ctx, user.Email)
}

func (r *userRepository) GetByEmail(ctx context.Context, email string) (models.User, error) {
	var user models.User
	if err := r.db.WithContext(ctx).
		Where("email = ?", strings.ToLower(strings.TrimSpace(email))).
		First(&user).Error; err != nil {
		return models.User{}, err
	}

	return user, nil
}

func (r *userRepository) GetByID(ctx context.Context, id uint) (models.User, error) {
	var user models.User
	if err := r.db.WithContext(ctx).First(&user, id).Error; err != nil {
		return models.User{}, err
	}

	return user, nil
}

func (r *userRepository) List(ctx context.Context, filter UserFilter) ([]models.User, int64, error) {
	query := r.db.WithContext(ctx).Model(&models.User{})

	if search := strings.TrimSpace(filter.Search); search != "" {
		pattern := "%" + strings.ToLower(search) + "%"
		query = query.Where("LOWER(name) LIKE ? OR LOWER(email) LIKE ?", pattern, pattern)
	}
	if filter.Role != "" {
		query = query.Where("role = ?", filter.Role)
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

	var users []models.User
	if err := query.Order("created_at DESC").Find(&users).Error; err != nil {
		return nil, 0, err
	}

	return users, total, nil
}

func (r *userRepository) UpdateRole(ctx context.Context, email, role string) (int64, error) {
	result := r.db.WithContext(ctx).Model(&models.User{}).
		Where("email = ?", strings.ToLower(strings.TrimSpace(email))).
		Update("role", role)
	return result.RowsAffected, result.Error
}

func (r *userRepository) UpdateStatus(ctx context.Context, email, status string) (int64, error) {
	result := r.db.WithContext(ctx).Model(&models.User{}).
		Where("email = ?", strings.ToLower(strings.TrimSpace(email))).
		Update("status", status)
	return result.RowsAffected, result.Error
}

func (r *userRepository) UpdateSignature(ctx context.Context, id uint, path string) error {
	return r.db.WithContext(ctx).Model(&models.User{}).
		Where("id = ?", id).
		Update("signature_path", path).Error
}
