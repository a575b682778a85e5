package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/microcosm-cc/bluemonday"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/moosefactory/registrar-api/internal/dto"
	"github.com/moosefactory/registrar-api/internal/models"
	"github.com/moosefactory/registrar-api/internal/observability"
	"github.com/moosefactory/registrar-api/internal/repository"
)

var (
	// ErrReportNotFound indicates the referenced report does not exist.
	ErrReportNotFound = errors.New("report not found")
	// ErrCategoryNotFound indicates the referenced category does not exist.
	ErrCategoryNotFound = errors.New("report category not found")
	// ErrCategoryInactive indicates the category is retired.
	ErrCategoryInactive = errors.New("report category is inactive")
	// ErrSelfReport indicates a user attempted to report themselves.
	ErrSelfReport = errors.New("cannot report yourself")
	// ErrReportTerminal indicates the report already left the submitted state.
	ErrReportTerminal = errors.New("report is already resolved")
)

// ReportService drives the moderation workflow for abuse reports.
type ReportService interface {
	File(ctx context.Context, reporter models.User, req dto.FileReportRequest) (dto.ReportResponse, error)
	Resolve(ctx context.Context, staff models.User, reportID uint, req dto.ResolveReportRequest) (dto.ReportResponse, error)
	List(ctx context.Context, req dto.ReportListRequest) (dto.ReportListResponse, error)
	Categories(ctx context.Context) ([]dto.CategoryResponse, error)
}

type reportService struct {
	reports              repository.ReportRepository
	users                repository.UserRepository
	audit                repository.AuditRepository
	notifications        Notifier
	moderatorsMayResolve bool
	validator            *validator.Validate
	sanitizer            *bluemonday.Policy
	logger               zerolog.Logger
	tracer               trace.Tracer
}

// NewReportService constructs the moderation service. moderatorsMayResolve
// reflects the configured moderation policy.
func NewReportService(reports repository.ReportRepository, users repository.UserRepository, audit repository.AuditRepository, notifications Notifier, moderatorsMayResolve bool, validate *validator.Validate, logger zerolog.Logger) ReportService {
	return &reportService{
		reports:              reports,
		users:                users,
		audit:                audit,
		notifications:        notifications,
		moderatorsMayResolve: moderatorsMayResolve,
		validator:            validate,
		sanitizer:            bluemonday.StrictPolicy(),
		logger:               logger.With().Str("component", "report_service").Logger(),
		tracer:               otel.Tracer("github.com/moosefactory/registrar-api/internal/service/report"),
	}
}

// File creates a report after the ordered precondition checks: reporter is
// authenticated, the reported user exists, the category is active, and the
// reporter is not reporting themselves. Any failure aborts with no row.
func (s *reportService) File(ctx context.Context, reporter models.User, req dto.FileReportRequest) (dto.ReportResponse, error) {
	if reporter.ID == 0 {
		return dto.ReportResponse{}, ErrUnauthenticated
	}

	if err := s.validator.Struct(req); err != nil {
		return dto.ReportResponse{}, err
	}

	ctx, span := s.tracer.Start(ctx, "report.file", trace.WithAttributes(
		attribute.Int("report.category_id", int(req.CategoryID)),
	))
	defer span.End()

	reported, err := s.users.GetByEmail(ctx, req.ReportedEmail)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		span.SetStatus(codes.Error, "reported user missing")
		return dto.ReportResponse{}, ErrUserNotFound
	}
	if err != nil {
		span.RecordError(err)
		return dto.ReportResponse{}, err
	}

	category, err := s.reports.GetCategory(ctx, req.CategoryID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		span.SetStatus(codes.Error, "category missing")
		return dto.ReportResponse{}, ErrCategoryNotFound
	}
	if err != nil {
		span.RecordError(err)
		return dto.ReportResponse{}, err
	}
	if !category.IsActive {
		span.SetStatus(codes.Error, "category inactive")
		return dto.ReportResponse{}, ErrCategoryInactive
	}

	if reported.ID == reporter.ID {
		span.SetStatus(codes.Error, "self report")
		return dto.ReportResponse{}, ErrSelfReport
	}

	report := models.Report{
		ReporterID:     reporter.ID,
		ReportedUserID: reported.ID,
		CategoryID:     category.ID,
		Description:    strings.TrimSpace(s.sanitizer.Sanitize(req.Description)),
		Status:         models.ReportStatusSubmitted,
	}

	if err := s.reports.Create(ctx, &report); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "persistence failed")
		return dto.ReportResponse{}, err
	}

	report.Category = category
	observability.ReportEvents().WithLabelValues("filed").Inc()
	s.logger.Info().Uint("report_id", report.ID).Uint("reporter_id", reporter.ID).Msg("report filed")

	return dto.NewReportResponse(report), nil
}

// Resolve transitions a submitted report to its terminal outcome. The
// acting role decides which comment field the remarks land in. Reports that
// already left the submitted state are rejected.
func (s *reportService) Resolve(ctx context.Context, staff models.User, reportID uint, req dto.ResolveReportRequest) (dto.ReportResponse, error) {
	if !s.mayResolve(staff) {
		return dto.ReportResponse{}, ErrForbidden
	}

	if err := s.validator.Struct(req); err != nil {
		return dto.ReportResponse{}, err
	}

	ctx, span := s.tracer.Start(ctx, "report.resolve", trace.WithAttributes(
		attribute.Int("report.id", int(reportID)),
		attribute.String("report.outcome", req.Outcome),
	))
	defer span.End()

	resolution := repository.ReportResolution{
		Outcome:    req.Outcome,
		ResolvedBy: staff.ID,
	}
	comments := strings.TrimSpace(s.sanitizer.Sanitize(req.Comments))
	if staff.Role == models.RoleAdmin {
		resolution.AdminComments = comments
	} else {
		resolution.ModeratorComments = comments
	}

	affected, err := s.reports.Resolve(ctx, reportID, resolution)
	if err != nil {
		span.RecordError(err)
		return dto.ReportResponse{}, err
	}

	report, err := s.reports.GetByID(ctx, reportID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return dto.ReportResponse{}, ErrReportNotFound
	}
	if err != nil {
		return dto.ReportResponse{}, err
	}

	if affected == 0 {
		span.SetStatus(codes.Error, "report already terminal")
		return dto.ReportResponse{}, ErrReportTerminal
	}

	if s.audit != nil {
		entry := models.AuditEntry{
			ActorID:    staff.ID,
			ActorRole:  staff.Role,
			Action:     models.ActionReportResolved,
			EntityType: "report",
			EntityID:   &report.ID,
			Metadata:   datatypes.JSONMap{"outcome": req.Outcome},
		}
		if err := s.audit.Create(ctx, &entry); err != nil {
			s.logger.Warn().Err(err).Uint("report_id", reportID).Msg("failed to record resolution audit entry")
		}
	}

	if s.notifications != nil {
		s.notifications.Notify(ctx, report.ReporterID, models.NotificationReportResolved, fmt.Sprintf("Your report #%d was %s.", report.ID, req.Outcome))
	}

	observability.ReportEvents().WithLabelValues(req.Outcome).Inc()
	s.logger.Info().Uint("report_id", reportID).Str("outcome", req.Outcome).Uint("actor_id", staff.ID).Msg("report resolved")

	return dto.NewReportResponse(report), nil
}

func (s *reportService) List(ctx context.Context, req dto.ReportListRequest) (dto.ReportListResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return dto.ReportListResponse{}, err
	}

	page := req.Page
	if page <= 0 {
		page = 1
	}
	pageSize := req.PageSize
	if pageSize <= 0 {
		pageSize = 25
	}

	reports, total, err := s.reports.List(ctx, repository.ReportFilter{
		Status:   req.Status,
		Page:     page,
		PageSize: pageSize,
	})
	if err != nil {
		return dto.ReportListResponse{}, err
	}

	response := dto.ReportListResponse{
		Reports:  make([]dto.ReportResponse, 0, len(reports)),
		Total:    total,
		Page:     page,
		PageSize: pageSize,
	}
	for _, report := range reports {
		response.Reports = append(response.Reports, dto.NewReportResponse(report))
	}

	return response, nil
}

func (s *reportService) Categories(ctx context.Context) ([]dto.CategoryResponse, error) {
	categories, err := s.reports.ListCategories(ctx, true)
	if err != nil {
		return nil, err
	}

	responses := make([]dto.CategoryResponse, 0, len(categories))
	for _, category := range categories {
		responses = append(responses, dto.CategoryResponse{
			ID:       category.ID,
			Name:     category.Name,
			IsActive: category.IsActive,
		})
	}

	return responses, nil
}

func (s *reportService) mayResolve(staff models.User) bool {
	switch staff.Role {
	case models.RoleAdmin:
		return true
	case models.RoleModerator:
		return s.moderatorsMayResolve
	}
	return false
}
