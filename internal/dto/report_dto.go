package dto

import (
	"time"

	"github.com/moosefactory/registrar-api/internal/models"
)

// FileReportRequest is the payload for filing an abuse report.
type FileReportRequest struct {
	ReportedEmail string `json:"reported_email" validate:"required,email"`
	CategoryID    uint   `json:"category_id" validate:"required,gt=0"`
	Description   string `json:"description" validate:"required,min=10,max=4000"`
}

// ResolveReportRequest closes out a report with an outcome.
type ResolveReportRequest struct {
	Outcome  string `json:"outcome" validate:"required,oneof=resolved dismissed"`
	Comments string `json:"comments" validate:"omitempty,max=4000"`
}

// ReportResponse is the moderation queue view of a report.
type ReportResponse struct {
	ID                uint      `json:"id"`
	ReporterID        uint      `json:"reporter_id"`
	ReportedUserID    uint      `json:"reported_user_id"`
	CategoryID        uint      `json:"category_id"`
	CategoryName      string    `json:"category_name,omitempty"`
	Description       string    `json:"description"`
	Status            string    `json:"status"`
	ModeratorComments string    `json:"moderator_comments,omitempty"`
	AdminComments     string    `json:"admin_comments,omitempty"`
	ResolvedBy        *uint     `json:"resolved_by"`
	CreatedAt         time.Time `json:"created_at"`
	UpdatedAt         time.Time `json:"updated_at"`
}

// ReportListRequest filters the moderation queue.
type ReportListRequest struct {
	Status   string `query:"status" validate:"omitempty,oneof=submitted resolved dismissed"`
	Page     int    `query:"page" validate:"omitempty,gte=1"`
	PageSize int    `query:"page_size" validate:"omitempty,gte=1,lte=100"`
}

// ReportListResponse wraps a page of reports.
type ReportListResponse struct {
	Reports  []ReportResponse `json:"reports"`
	Total    int64            `json:"total"`
	Page     int              `json:"page"`
	PageSize int              `json:"page_size"`
}

// CategoryResponse describes a report category.
type CategoryResponse struct {
	ID       uint   `json:"id"`
	Name     string `json:"name"`
	IsActive bool   `json:"is_active"`
}

// NewReportResponse maps a report model to its API view.
func NewReportResponse(report models.Report) ReportResponse {
	return ReportResponse{
		ID:                report.ID,
		ReporterID:        report.ReporterID,
		ReportedUserID:    report.ReportedUserID,
		CategoryID:        report.CategoryID,
		CategoryName:      report.Category.Name,
		Description:       report.Description,
		Status:            report.Status,
		ModeratorComments: report.ModeratorComments,
		AdminComments:     report.AdminComments,
		ResolvedBy:        report.ResolvedBy,
		CreatedAt:         report.CreatedAt,
		UpdatedAt:         report.UpdatedAt,
	}
}
