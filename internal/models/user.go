package models

import "time"

// Roles assignable to directory users. Every identity starts out as a
// basic user; promotion happens only through an admin action.
const (
	RoleBasic     = "basic"
	RoleModerator = "moderator"
	RoleAdmin     = "admin"
)

// Account status values. Inactive is a global lockout independent of role.
const (
	StatusActive   = "active"
	StatusInactive = "inactive"
)

// User represents a directory identity created on first successful login.
// Rows are never hard-deleted.
type User struct {
	ID            uint      `gorm:"primaryKey" json:"id"`
	Email         string    `gorm:"size:255;uniqueIndex;not null" json:"email"`
	Name          string    `gorm:"size:255;not null" json:"name"`
	Role          string    `gorm:"size:32;not null;default:'basic'" json:"role"`
	Status        string    `gorm:"size:32;not null;default:'active'" json:"status"`
	ExternalID    *string   `gorm:"size:64" json:"external_id"`
	SignaturePath *string   `gorm:"size:512" json:"signature_path"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// IsStaff reports whether the user holds a moderation-capable role.
func (u User) IsStaff() bool {
	return u.Role == RoleAdmin || u.Role == RoleModerator
}

// ValidRole reports whether the supplied role name is assignable.
func ValidRole(role string) bool {
	switch role {
	case RoleBasic, RoleModerator, RoleAdmin:
		return true
	}
	return false
}
