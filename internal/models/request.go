package models

import (
	"time"

	"gorm.io/datatypes"
)

// Form types accepted by the request workflow.
const (
	FormPetition           = "petition"
	FormWithdrawal         = "withdrawal"
	FormInterInstitutional = "inter_institutional"
	FormUndergradPetition  = "undergrad_petition"
)

// Request lifecycle states. Approved is terminal.
const (
	RequestStatusSubmitted = "submitted"
	RequestStatusApproved  = "approved"
)

// FormRequest is a submitted student form awaiting or having received
// approval. The generated document is owned by the request.
type FormRequest struct {
	ID          uint           `gorm:"primaryKey" json:"id"`
	UserID      uint           `gorm:"not null;index" json:"user_id"`
	User        User           `gorm:"foreignKey:UserID" json:"-"`
	FormType    string         `gorm:"size:32;not null" json:"form_type"`
	Status      string         `gorm:"size:32;not null;default:'submitted'" json:"status"`
	FieldValues datatypes.JSON `gorm:"type:json" json:"field_values"`
	SubmittedAt time.Time      `json:"submitted_at"`
	ApprovedBy  *uint          `json:"approved_by"`
	ApprovedAt  *time.Time     `json:"approved_at"`
	Document    *Document      `gorm:"foreignKey:FormRequestID" json:"document,omitempty"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
}

// Document is the rendered artifact attached to a form request. Exactly one
// exists per request once generation succeeds.
type Document struct {
	ID            uint      `gorm:"primaryKey" json:"id"`
	FormRequestID uint      `gorm:"not null;uniqueIndex" json:"form_request_id"`
	FileURL       string    `gorm:"size:1024;not null" json:"file_url"`
	FileName      string    `gorm:"size:255;not null" json:"file_name"`
	SizeBytes     int64     `json:"size_bytes"`
	Checksum      string    `gorm:"size:64" json:"checksum"`
	CreatedAt     time.Time `json:"created_at"`
}

// ValidFormType reports whether the supplied form type is known.
func ValidFormType(formType string) bool {
	switch formType {
	case FormPetition, FormWithdrawal, FormInterInstitutional, FormUndergradPetition:
		return true
	}
	return false
}
