package models

import "time"

// Notification event types emitted by the workflows.
const (
	NotificationRequestApproved = "request.approved"
	NotificationReportResolved  = "report.resolved"
	NotificationRoleChanged     = "role.changed"
)

// Notification is a per-user notice produced by a workflow transition.
type Notification struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	UserID    uint      `gorm:"not null;index" json:"user_id"`
	Type      string    `gorm:"size:64;not null" json:"type"`
	Message   string    `gorm:"type:text" json:"message"`
	Read      bool      `gorm:"not null;default:false" json:"read"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
