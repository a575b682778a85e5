package dto

import (
	"time"

	"github.com/moosefactory/registrar-api/internal/models"
)

// NotificationResponse is the user-facing view of a notification.
type NotificationResponse struct {
	ID        uint      `json:"id"`
	Type      string    `json:"type"`
	Message   string    `json:"message"`
	Read      bool      `json:"read"`
	CreatedAt time.Time `json:"created_at"`
}

// NewNotificationResponse maps a notification model to its API view.
func NewNotificationResponse(notification models.Notification) NotificationResponse {
	return NotificationResponse{
		ID:        notification.ID,
		Type:      notification.Type,
		Message:   notification.Message,
		Read:      notification.Read,
		CreatedAt: notification.CreatedAt,
	}
}
