package models

import "time"

// Report lifecycle states. Resolved and dismissed are terminal.
const (
	ReportStatusSubmitted = "submitted"
	ReportStatusResolved  = "resolved"
	ReportStatusDismissed = "dismissed"
)

// Report is a complaint filed by one user against another, routed to
// moderation staff.
type Report struct {
	ID                uint           `gorm:"primaryKey" json:"id"`
	ReporterID        uint           `gorm:"not null;index" json:"reporter_id"`
	Reporter          User           `gorm:"foreignKey:ReporterID" json:"-"`
	ReportedUserID    uint           `gorm:"not null;index" json:"reported_user_id"`
	ReportedUser      User           `gorm:"foreignKey:ReportedUserID" json:"-"`
	CategoryID        uint           `gorm:"not null" json:"category_id"`
	Category          ReportCategory `gorm:"foreignKey:CategoryID" json:"-"`
	Description       string         `gorm:"type:text;not null" json:"description"`
	Status            string         `gorm:"size:32;not null;default:'submitted'" json:"status"`
	ModeratorComments string         `gorm:"type:text" json:"moderator_comments"`
	AdminComments     string         `gorm:"type:text" json:"admin_comments"`
	ResolvedBy        *uint          `json:"resolved_by"`
	CreatedAt         time.Time      `json:"created_at"`
	UpdatedAt         time.Time      `json:"updated_at"`
}

// ReportCategory is static reference data seeded at boot.
type ReportCategory struct {
	ID       uint   `gorm:"primaryKey" json:"id"`
	Name     string `gorm:"size:128;uniqueIndex;not null" json:"name"`
	IsActive bool   `gorm:"not null;default:true" json:"is_active"`
}

// Terminal reports whether the report has left the submitted state.
func (r Report) Terminal() bool {
	return r.Status != ReportStatusSubmitted
}

// ValidReportOutcome reports whether the supplied outcome is a terminal state.
func ValidReportOutcome(outcome string) bool {
	return outcome == ReportStatusResolved || outcome == ReportStatusDismissed
}
