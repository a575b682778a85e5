package service

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"github.com/microcosm-cc/bluemonday"
	"github.com/nats-io/nats.go"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/moosefactory/registrar-api/internal/dto"
	"github.com/moosefactory/registrar-api/internal/models"
	"github.com/moosefactory/registrar-api/internal/repository"
)

// Notifier records a workflow event for a user. Delivery is best-effort:
// workflow transitions never fail because a notice could not be written.
type Notifier interface {
	Notify(ctx context.Context, userID uint, eventType, message string)
}

// NotificationService persists workflow notices and fans them out to the
// message bus for other consumers.
type NotificationService interface {
	Notifier
	List(ctx context.Context, userID uint, limit, offset int) ([]dto.NotificationResponse, error)
	MarkRead(ctx context.Context, id, userID uint) (dto.NotificationResponse, error)
}

type notificationEvent struct {
	UserID  uint      `json:"user_id"`
	Type    string    `json:"type"`
	Message string    `json:"message"`
	SentAt  time.Time `json:"sent_at"`
}

type notificationService struct {
	repo         repository.NotificationRepository
	redis        *redis.Client
	redisChannel string
	nats         *nats.Conn
	natsSubject  string
	sanitizer    *bluemonday.Policy
	logger       zerolog.Logger
}

// NewNotificationService constructs the notification service. Redis and
// NATS connections are optional; absent ones are skipped.
func NewNotificationService(repo repository.NotificationRepository, redisClient *redis.Client, natsConn *nats.Conn, logger zerolog.Logger) NotificationService {
	return &notificationService{
		repo:         repo,
		redis:        redisClient,
		redisChannel: "registrar:notifications",
		nats:         natsConn,
		natsSubject:  "registrar.notifications",
		sanitizer:    bluemonday.StrictPolicy(),
		logger:       logger.With().Str("component", "notification_service").Logger(),
	}
}

func (s *notificationService) Notify(ctx context.Context, userID uint, eventType, message string) {
	clean := strings.TrimSpace(s.sanitizer.Sanitize(message))
	if clean == "" {
		return
	}

	notification := models.Notification{
		UserID:  userID,
		Type:    eventType,
		Message: clean,
	}
	if err := s.repo.Create(ctx, &notification); err != nil {
		s.logger.Warn().Err(err).Uint("user_id", userID).Str("type", eventType).Msg("failed to persist notification")
		return
	}

	event := notificationEvent{
		UserID:  userID,
		Type:    eventType,
		Message: clean,
		SentAt:  time.Now().UTC(),
	}
	payload, err := json.Marshal(event)
	if err != nil {
		return
	}

	if s.redis != nil {
		if err := s.redis.Publish(ctx, s.redisChannel, payload).Err(); err != nil {
			s.logger.Warn().Err(err).Msg("failed to publish notification to redis")
		}
	}

	if s.nats != nil {
		if err := s.nats.Publish(s.natsSubject, payload); err != nil {
			s.logger.Warn().Err(err).Msg("failed to publish notification to nats")
		}
	}
}

func (s *notificationService) List(ctx context.Context, userID uint, limit, offset int) ([]dto.NotificationResponse, error) {
	notifications, err := s.repo.ListByUser(ctx, userID, limit, offset)
	if err != nil {
		return nil, err
	}

	responses := make([]dto.NotificationResponse, 0, len(notifications))
	for _, notification := range notifications {
		responses = append(responses, dto.NewNotificationResponse(notification))
	}

	return responses, nil
}

func (s *notificationService) MarkRead(ctx context.Context, id, userID uint) (dto.NotificationResponse, error) {
	notification, err := s.repo.MarkRead(ctx, id, userID)
	if err != nil {
		return dto.NotificationResponse{}, err
	}

	return dto.NewNotificationResponse(notification), nil
}
