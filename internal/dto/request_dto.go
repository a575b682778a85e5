package dto

import (
	"encoding/json"
	"time"

	"github.com/moosefactory/registrar-api/internal/models"
)

// SubmitFormRequest is the payload for a form submission. The field values
// are validated against the per-form JSON schema.
type SubmitFormRequest struct {
	Fields map[string]interface{} `json:"fields" validate:"required"`
}

// DocumentResponse describes a generated document artifact.
type DocumentResponse struct {
	URL       string `json:"url"`
	FileName  string `json:"file_name"`
	SizeBytes int64  `json:"size_bytes"`
}

// RequestResponse is returned when viewing a form request.
type RequestResponse struct {
	ID          uint                   `json:"id"`
	UserID      uint                   `json:"user_id"`
	FormType    string                 `json:"form_type"`
	Status      string                 `json:"status"`
	Fields      map[string]interface{} `json:"fields,omitempty"`
	SubmittedAt time.Time              `json:"submitted_at"`
	ApprovedBy  *uint                  `json:"approved_by"`
	ApprovedAt  *time.Time             `json:"approved_at"`
	Document    *DocumentResponse      `json:"document,omitempty"`
}

// RequestListRequest filters form request listings.
type RequestListRequest struct {
	FormType string `query:"form_type" validate:"omitempty,oneof=petition withdrawal inter_institutional undergrad_petition"`
	Status   string `query:"status" validate:"omitempty,oneof=submitted approved"`
	Page     int    `query:"page" validate:"omitempty,gte=1"`
	PageSize int    `query:"page_size" validate:"omitempty,gte=1,lte=100"`
}

// RequestListResponse wraps a page of form requests.
type RequestListResponse struct {
	Requests []RequestResponse `json:"requests"`
	Total    int64             `json:"total"`
	Page     int               `json:"page"`
	PageSize int               `json:"page_size"`
}

// NewRequestResponse maps a form request model to its API view.
func NewRequestResponse(request models.FormRequest) RequestResponse {
	response := RequestResponse{
		ID:          request.ID,
		UserID:      request.UserID,
		FormType:    request.FormType,
		Status:      request.Status,
		SubmittedAt: request.SubmittedAt,
		ApprovedBy:  request.ApprovedBy,
		ApprovedAt:  request.ApprovedAt,
	}

	if len(request.FieldValues) > 0 {
		var fields map[string]interface{}
		if err := json.Unmarshal(request.FieldValues, &fields); err == nil {
			response.Fields = fields
		}
	}

	if request.Document != nil {
		response.Document = &DocumentResponse{
			URL:       request.Document.FileURL,
			FileName:  request.Document.FileName,
			SizeBytes: request.Document.SizeBytes,
		}
	}

	return response
}
