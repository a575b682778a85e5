package dto

import (
	"time"

	"github.com/moosefactory/registrar-api/internal/models"
)

// MeResponse describes the current session identity.
type MeResponse struct {
	Email  string `json:"email"`
	Name   string `json:"name"`
	Role   string `json:"role"`
	Status string `json:"status"`
}

// UserResponse is the directory view returned to administrators.
type UserResponse struct {
	ID         uint      `json:"id"`
	Email      string    `json:"email"`
	Name       string    `json:"name"`
	Role       string    `json:"role"`
	Status     string    `json:"status"`
	ExternalID *string   `json:"external_id"`
	CreatedAt  time.Time `json:"created_at"`
}

// UserListRequest describes query filters for the admin user listing.
type UserListRequest struct {
	Search   string `query:"search"`
	Role     string `query:"role" validate:"omitempty,oneof=basic moderator admin"`
	Status   string `query:"status" validate:"omitempty,oneof=active inactive"`
	Page     int    `query:"page" validate:"omitempty,gte=1"`
	PageSize int    `query:"page_size" validate:"omitempty,gte=1,lte=100"`
}

// UserListResponse wraps a page of directory users.
type UserListResponse struct {
	Users    []UserResponse `json:"users"`
	Total    int64          `json:"total"`
	Page     int            `json:"page"`
	PageSize int            `json:"page_size"`
}

// SetRoleRequest changes a user's role.
type SetRoleRequest struct {
	Email string `json:"email" validate:"required,email"`
	Role  string `json:"role" validate:"required,oneof=basic moderator admin"`
}

// SetStatusRequest toggles a user's account status.
type SetStatusRequest struct {
	Email  string `json:"email" validate:"required,email"`
	Status string `json:"status" validate:"required,oneof=active inactive"`
}

// AdminSummaryResponse aggregates panel headline counts.
type AdminSummaryResponse struct {
	TotalUsers      int64     `json:"total_users"`
	ActiveUsers     int64     `json:"active_users"`
	PendingRequests int64     `json:"pending_requests"`
	PendingReports  int64     `json:"pending_reports"`
	GeneratedAt     time.Time `json:"generated_at"`
	CacheHit        bool      `json:"cache_hit"`
}

// SignatureResponse returns the stored signature artifact location.
type SignatureResponse struct {
	URL      string `json:"url"`
	MimeType string `json:"mime_type"`
}

// NewUserResponse maps a directory model to its API view.
func NewUserResponse(user models.User) UserResponse {
	return UserResponse{
		ID:         user.ID,
		Email:      user.Email,
		Name:       user.Name,
		Role:       user.Role,
		Status:     user.Status,
		ExternalID: user.ExternalID,
		CreatedAt:  user.CreatedAt,
	}
}
