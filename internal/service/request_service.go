package service

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/microcosm-cc/bluemonday"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/moosefactory/registrar-api/internal/dto"
	"github.com/moosefactory/registrar-api/internal/forms"
	"github.com/moosefactory/registrar-api/internal/models"
	"github.com/moosefactory/registrar-api/internal/observability"
	"github.com/moosefactory/registrar-api/internal/repository"
	"github.com/moosefactory/registrar-api/pkg/typeset"
)

var (
	// ErrUnknownFormType indicates the submitted form type is not registered.
	ErrUnknownFormType = errors.New("unknown form type")
	// ErrFieldValidation indicates the field values failed the form schema.
	ErrFieldValidation = errors.New("form field validation failed")
	// ErrRequestNotFound indicates the referenced request does not exist.
	ErrRequestNotFound = errors.New("request not found")
)

// DocumentStore archives rendered documents.
type DocumentStore interface {
	Put(ctx context.Context, name string, reader io.Reader) (string, error)
}

// RequestService drives the form request workflow: submission with document
// generation, admin approval, and document retrieval.
type RequestService interface {
	Submit(ctx context.Context, user models.User, formType string, fields map[string]interface{}) (dto.RequestResponse, error)
	Approve(ctx context.Context, actor models.User, requestID uint) (dto.RequestResponse, error)
	List(ctx context.Context, viewer models.User, req dto.RequestListRequest) (dto.RequestListResponse, error)
	Document(ctx context.Context, viewer models.User, requestID uint) (dto.DocumentResponse, error)
}

type requestService struct {
	repo          repository.RequestRepository
	audit         repository.AuditRepository
	renderer      typeset.Renderer
	store         DocumentStore
	notifications Notifier
	sanitizer     *bluemonday.Policy
	logger        zerolog.Logger
	tracer        trace.Tracer
}

// NewRequestService constructs the request workflow service.
func NewRequestService(repo repository.RequestRepository, audit repository.AuditRepository, renderer typeset.Renderer, store DocumentStore, notifications Notifier, logger zerolog.Logger) RequestService {
	return &requestService{
		repo:          repo,
		audit:         audit,
		renderer:      renderer,
		store:         store,
		notifications: notifications,
		sanitizer:     bluemonday.StrictPolicy(),
		logger:        logger.With().Str("component", "request_service").Logger(),
		tracer:        otel.Tracer("github.com/moosefactory/registrar-api/internal/service/request"),
	}
}

// Submit validates the fields against the form schema, renders the document
// through the bounded typesetter, archives it, and records the request and
// document rows in one transaction. A render or archive failure leaves no
// rows behind.
func (s *requestService) Submit(ctx context.Context, user models.User, formType string, fields map[string]interface{}) (dto.RequestResponse, error) {
	ctx, span := s.tracer.Start(ctx, "request.submit", trace.WithAttributes(
		attribute.String("request.form_type", formType),
	))
	defer span.End()

	definition, ok := forms.Get(formType)
	if !ok {
		span.SetStatus(codes.Error, "unknown form type")
		return dto.RequestResponse{}, ErrUnknownFormType
	}

	sanitized := s.sanitizeFields(fields)

	if err := definition.Validate(sanitized); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "schema validation failed")
		observability.FormSubmissions().WithLabelValues(formType, "invalid").Inc()
		return dto.RequestResponse{}, fmt.Errorf("%w: %v", ErrFieldValidation, err)
	}

	markup, err := definition.RenderHTML(forms.RenderInput{
		StudentName: user.Name,
		Email:       user.Email,
		Fields:      sanitized,
	})
	if err != nil {
		span.RecordError(err)
		return dto.RequestResponse{}, err
	}

	rendered, err := s.renderer.Render(ctx, typeset.Document{
		Name: fmt.Sprintf("%s-%d", formType, user.ID),
		HTML: markup,
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "render failed")
		observability.FormSubmissions().WithLabelValues(formType, "render_error").Inc()
		return dto.RequestResponse{}, err
	}

	fileURL, err := s.store.Put(ctx, rendered.FileName, bytes.NewReader(rendered.PDF))
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "archive failed")
		observability.FormSubmissions().WithLabelValues(formType, "archive_error").Inc()
		return dto.RequestResponse{}, err
	}

	fieldJSON, err := json.Marshal(sanitized)
	if err != nil {
		return dto.RequestResponse{}, err
	}

	checksum := sha256.Sum256(rendered.PDF)

	request := models.FormRequest{
		UserID:      user.ID,
		FormType:    formType,
		Status:      models.RequestStatusSubmitted,
		FieldValues: datatypes.JSON(fieldJSON),
		SubmittedAt: time.Now().UTC(),
	}
	document := models.Document{
		FileURL:   fileURL,
		FileName:  rendered.FileName,
		SizeBytes: int64(len(rendered.PDF)),
		Checksum:  hex.EncodeToString(checksum[:]),
	}

	if err := s.repo.CreateWithDocument(ctx, &request, &document); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "persistence failed")
		observability.FormSubmissions().WithLabelValues(formType, "store_error").Inc()
		return dto.RequestResponse{}, err
	}

	observability.FormSubmissions().WithLabelValues(formType, "submitted").Inc()
	s.logger.Info().Uint("request_id", request.ID).Str("form_type", formType).Uint("user_id", user.ID).Msg("form request submitted")

	return dto.NewRequestResponse(request), nil
}

// Approve moves a submitted request to approved. Approving an already
// approved request is a no-op returning the current state.
func (s *requestService) Approve(ctx context.Context, actor models.User, requestID uint) (dto.RequestResponse, error) {
	if actor.Role != models.RoleAdmin {
		return dto.RequestResponse{}, ErrForbidden
	}

	ctx, span := s.tracer.Start(ctx, "request.approve", trace.WithAttributes(
		attribute.Int("request.id", int(requestID)),
	))
	defer span.End()

	affected, err := s.repo.MarkApproved(ctx, requestID, actor.ID, time.Now().UTC())
	if err != nil {
		span.RecordError(err)
		return dto.RequestResponse{}, err
	}

	request, err := s.repo.GetByID(ctx, requestID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return dto.RequestResponse{}, ErrRequestNotFound
	}
	if err != nil {
		return dto.RequestResponse{}, err
	}

	if affected == 0 {
		// Already approved; nothing changed.
		return dto.NewRequestResponse(request), nil
	}

	if s.audit != nil {
		entry := models.AuditEntry{
			ActorID:    actor.ID,
			ActorRole:  actor.Role,
			Action:     models.ActionRequestApproved,
			EntityType: "request",
			EntityID:   &request.ID,
			Metadata:   datatypes.JSONMap{"form_type": request.FormType},
		}
		if err := s.audit.Create(ctx, &entry); err != nil {
			s.logger.Warn().Err(err).Uint("request_id", requestID).Msg("failed to record approval audit entry")
		}
	}

	if s.notifications != nil {
		s.notifications.Notify(ctx, request.UserID, models.NotificationRequestApproved, fmt.Sprintf("Your %s request has been approved.", request.FormType))
	}

	s.logger.Info().Uint("request_id", requestID).Uint("actor_id", actor.ID).Msg("form request approved")

	return dto.NewRequestResponse(request), nil
}

// List returns requests visible to the viewer: staff see everything, basic
// users only their own submissions.
func (s *requestService) List(ctx context.Context, viewer models.User, req dto.RequestListRequest) (dto.RequestListResponse, error) {
	page := req.Page
	if page <= 0 {
		page = 1
	}
	pageSize := req.PageSize
	if pageSize <= 0 {
		pageSize = 25
	}

	filter := repository.RequestFilter{
		FormType: req.FormType,
		Status:   req.Status,
		Page:     page,
		PageSize: pageSize,
	}
	if !viewer.IsStaff() {
		filter.UserID = &viewer.ID
	}

	requests, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return dto.RequestListResponse{}, err
	}

	response := dto.RequestListResponse{
		Requests: make([]dto.RequestResponse, 0, len(requests)),
		Total:    total,
		Page:     page,
		PageSize: pageSize,
	}
	for _, request := range requests {
		response.Requests = append(response.Requests, dto.NewRequestResponse(request))
	}

	return response, nil
}

// Document returns the stored artifact reference. Only the owning user or
// staff may fetch it; documents are never served anonymously by id.
func (s *requestService) Document(ctx context.Context, viewer models.User, requestID uint) (dto.DocumentResponse, error) {
	request, err := s.repo.GetByID(ctx, requestID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return dto.DocumentResponse{}, ErrRequestNotFound
	}
	if err != nil {
		return dto.DocumentResponse{}, err
	}

	if request.UserID != viewer.ID && !viewer.IsStaff() {
		return dto.DocumentResponse{}, ErrForbidden
	}

	if request.Document == nil {
		return dto.DocumentResponse{}, ErrRequestNotFound
	}

	return dto.DocumentResponse{
		URL:       request.Document.FileURL,
		FileName:  request.Document.FileName,
		SizeBytes: request.Document.SizeBytes,
	}, nil
}

func (s *requestService) sanitizeFields(fields map[string]interface{}) map[string]interface{} {
	sanitized := make(map[string]interface{}, len(fields))
	for key, value := range fields {
		if text, ok := value.(string); ok {
			sanitized[key] = s.sanitizer.Sanitize(text)
			continue
		}
		sanitized[key] = value
	}
	return sanitized
}
