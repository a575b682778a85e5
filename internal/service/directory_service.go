package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/moosefactory/registrar-api/internal/auth"
	"github.com/moosefactory/registrar-api/internal/dto"
	"github.com/moosefactory/registrar-api/internal/models"
	"github.com/moosefactory/registrar-api/internal/repository"
)

const summaryCacheKey = "admin:summary"

var (
	// ErrSelfModification indicates an admin targeted their own account.
	ErrSelfModification = errors.New("cannot modify own account")
	// ErrInvalidRole indicates an unknown role name.
	ErrInvalidRole = errors.New("unknown role")
	// ErrInvalidStatus indicates an unknown account status.
	ErrInvalidStatus = errors.New("unknown status")
)

// DirectoryService maintains the user directory and answers the
// authorization questions the middleware chain asks.
type DirectoryService interface {
	EnsureUser(ctx context.Context, principal auth.Principal) (models.User, error)
	GetByEmail(ctx context.Context, email string) (models.User, error)
	ListUsers(ctx context.Context, req dto.UserListRequest) (dto.UserListResponse, error)
	SetRole(ctx context.Context, actor models.User, targetEmail, newRole string) (models.User, error)
	SetStatus(ctx context.Context, actor models.User, targetEmail, status string) (models.User, error)
	Summary(ctx context.Context) (dto.AdminSummaryResponse, error)
	StoreSignature(ctx context.Context, user models.User, data []byte) (dto.SignatureResponse, error)
}

// SignatureStore persists signature image artifacts.
type SignatureStore interface {
	PutImage(ctx context.Context, name string, data []byte) (url, mimeType string, err error)
}

type directoryService struct {
	users         repository.UserRepository
	requests      repository.RequestRepository
	reports       repository.ReportRepository
	audit         repository.AuditRepository
	signatures    SignatureStore
	notifications Notifier
	cache         *redis.Client
	cacheTTL      time.Duration
	validator     *validator.Validate
	logger        zerolog.Logger
	tracer        trace.Tracer
}

// DirectoryDeps groups the directory service collaborators.
type DirectoryDeps struct {
	Users         repository.UserRepository
	Requests      repository.RequestRepository
	Reports       repository.ReportRepository
	Audit         repository.AuditRepository
	Signatures    SignatureStore
	Notifications Notifier
	Cache         *redis.Client
	CacheTTL      time.Duration
	Validator     *validator.Validate
	Logger        zerolog.Logger
}

// NewDirectoryService constructs the directory service.
func NewDirectoryService(deps DirectoryDeps) DirectoryService {
	return &directoryService{
		users:         deps.Users,
		requests:      deps.Requests,
		reports:       deps.Reports,
		audit:         deps.Audit,
		signatures:    deps.Signatures,
		notifications: deps.Notifications,
		cache:         deps.Cache,
		cacheTTL:      deps.CacheTTL,
		validator:     deps.Validator,
		logger:        deps.Logger.With().Str("component", "directory_service").Logger(),
		tracer:        otel.Tracer("github.com/moosefactory/registrar-api/internal/service/directory"),
	}
}

// EnsureUser upserts the resolved principal into the directory. First sight
// creates a basic, active user; later calls return the stored row untouched.
func (s *directoryService) EnsureUser(ctx context.Context, principal auth.Principal) (models.User, error) {
	if !principal.Valid() {
		return models.User{}, ErrUnauthenticated
	}

	ctx, span := s.tracer.Start(ctx, "directory.ensure_user", trace.WithAttributes(
		attribute.String("directory.email", principal.Email),
	))
	defer span.End()

	user, err := s.users.EnsureByEmail(ctx, principal.Email, principal.Name)
	if err != nil {
		span.RecordError(err)
		return models.User{}, err
	}

	return user, nil
}

func (s *directoryService) GetByEmail(ctx context.Context, email string) (models.User, error) {
	user, err := s.users.GetByEmail(ctx, email)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return models.User{}, ErrUserNotFound
	}
	return user, err
}

func (s *directoryService) ListUsers(ctx context.Context, req dto.UserListRequest) (dto.UserListResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return dto.UserListResponse{}, err
	}

	page := req.Page
	if page <= 0 {
		page = 1
	}
	pageSize := req.PageSize
	if pageSize <= 0 {
		pageSize = 25
	}

	users, total, err := s.users.List(ctx, repository.UserFilter{
		Search:   req.Search,
		Role:     req.Role,
		Status:   req.Status,
		Page:     page,
		PageSize: pageSize,
	})
	if err != nil {
		return dto.UserListResponse{}, err
	}

	response := dto.UserListResponse{
		Users:    make([]dto.UserResponse, 0, len(users)),
		Total:    total,
		Page:     page,
		PageSize: pageSize,
	}
	for _, user := range users {
		response.Users = append(response.Users, dto.NewUserResponse(user))
	}

	return response, nil
}

// SetRole changes a user's role. Only admins may call it and an admin can
// never target their own row, closing the self-promotion path.
func (s *directoryService) SetRole(ctx context.Context, actor models.User, targetEmail, newRole string) (models.User, error) {
	if actor.Role != models.RoleAdmin {
		return models.User{}, ErrForbidden
	}
	if !models.ValidRole(newRole) {
		return models.User{}, ErrInvalidRole
	}

	targetEmail = strings.ToLower(strings.TrimSpace(targetEmail))
	if targetEmail == actor.Email {
		return models.User{}, ErrSelfModification
	}

	affected, err := s.users.UpdateRole(ctx, targetEmail, newRole)
	if err != nil {
		return models.User{}, err
	}
	if affected == 0 {
		return models.User{}, ErrUserNotFound
	}

	user, err := s.users.GetByEmail(ctx, targetEmail)
	if err != nil {
		return models.User{}, err
	}

	s.recordAudit(ctx, actor, models.ActionRoleUpdated, "user", &user.ID, map[string]interface{}{
		"email": targetEmail,
		"role":  newRole,
	})
	s.invalidateSummary(ctx)

	if s.notifications != nil {
		s.notifications.Notify(ctx, user.ID, models.NotificationRoleChanged, fmt.Sprintf("Your account role is now %s.", newRole))
	}

	s.logger.Info().Str("email", targetEmail).Str("role", newRole).Uint("actor_id", actor.ID).Msg("user role updated")

	return user, nil
}

// SetStatus toggles the global account lockout. Admin-only, never self.
func (s *directoryService) SetStatus(ctx context.Context, actor models.User, targetEmail, status string) (models.User, error) {
	if actor.Role != models.RoleAdmin {
		return models.User{}, ErrForbidden
	}
	if status != models.StatusActive && status != models.StatusInactive {
		return models.User{}, ErrInvalidStatus
	}

	targetEmail = strings.ToLower(strings.TrimSpace(targetEmail))
	if targetEmail == actor.Email {
		return models.User{}, ErrSelfModification
	}

	affected, err := s.users.UpdateStatus(ctx, targetEmail, status)
	if err != nil {
		return models.User{}, err
	}
	if affected == 0 {
		return models.User{}, ErrUserNotFound
	}

	user, err := s.users.GetByEmail(ctx, targetEmail)
	if err != nil {
		return models.User{}, err
	}

	s.recordAudit(ctx, actor, models.ActionStatusToggled, "user", &user.ID, map[string]interface{}{
		"email":  targetEmail,
		"status": status,
	})
	s.invalidateSummary(ctx)

	s.logger.Info().Str("email", targetEmail).Str("status", status).Uint("actor_id", actor.ID).Msg("user status updated")

	return user, nil
}

// Summary aggregates panel headline counts, cached briefly in redis.
func (s *directoryService) Summary(ctx context.Context) (dto.AdminSummaryResponse, error) {
	if s.cache != nil {
		if cached, err := s.cache.Get(ctx, summaryCacheKey).Result(); err == nil {
			var response dto.AdminSummaryResponse
			if unmarshalErr := json.Unmarshal([]byte(cached), &response); unmarshalErr == nil {
				response.CacheHit = true
				return response, nil
			}
		} else if err != redis.Nil {
			s.logger.Warn().Err(err).Msg("failed to read summary cache")
		}
	}

	_, totalUsers, err := s.users.List(ctx, repository.UserFilter{PageSize: 1})
	if err != nil {
		return dto.AdminSummaryResponse{}, err
	}
	_, activeUsers, err := s.users.List(ctx, repository.UserFilter{Status: models.StatusActive, PageSize: 1})
	if err != nil {
		return dto.AdminSummaryResponse{}, err
	}
	pendingRequests, err := s.requests.CountByStatus(ctx, models.RequestStatusSubmitted)
	if err != nil {
		return dto.AdminSummaryResponse{}, err
	}
	pendingReports, err := s.reports.CountByStatus(ctx, models.ReportStatusSubmitted)
	if err != nil {
		return dto.AdminSummaryResponse{}, err
	}

	response := dto.AdminSummaryResponse{
		TotalUsers:      totalUsers,
		ActiveUsers:     activeUsers,
		PendingRequests: pendingRequests,
		PendingReports:  pendingReports,
		GeneratedAt:     time.Now().UTC(),
	}

	if s.cache != nil {
		if payload, err := json.Marshal(response); err == nil {
			if err := s.cache.Set(ctx, summaryCacheKey, payload, s.cacheTTL).Err(); err != nil {
				s.logger.Warn().Err(err).Msg("failed to store summary cache")
			}
		}
	}

	return response, nil
}

// StoreSignature archives the user's signature image and records its path.
func (s *directoryService) StoreSignature(ctx context.Context, user models.User, data []byte) (dto.SignatureResponse, error) {
	if s.signatures == nil {
		return dto.SignatureResponse{}, errors.New("signature store not configured")
	}
	if len(data) == 0 {
		return dto.SignatureResponse{}, errors.New("empty signature payload")
	}

	url, mimeType, err := s.signatures.PutImage(ctx, fmt.Sprintf("signature-%d", user.ID), data)
	if err != nil {
		return dto.SignatureResponse{}, err
	}

	if err := s.users.UpdateSignature(ctx, user.ID, url); err != nil {
		return dto.SignatureResponse{}, err
	}

	return dto.SignatureResponse{URL: url, MimeType: mimeType}, nil
}

func (s *directoryService) recordAudit(ctx context.Context, actor models.User, action, entityType string, entityID *uint, metadata map[string]interface{}) {
	if s.audit == nil {
		return
	}

	entry := models.AuditEntry{
		ActorID:    actor.ID,
		ActorRole:  actor.Role,
		Action:     action,
		EntityType: entityType,
		EntityID:   entityID,
		Metadata:   datatypes.JSONMap(metadata),
	}
	if err := s.audit.Create(ctx, &entry); err != nil {
		s.logger.Warn().Err(err).Str("action", action).Msg("failed to record audit entry")
	}
}

func (s *directoryService) invalidateSummary(ctx context.Context) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Del(ctx, summaryCacheKey).Err(); err != nil {
		s.logger.Warn().Err(err).Msg("failed to invalidate summary cache")
	}
}
