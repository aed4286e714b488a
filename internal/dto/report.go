package dto

import "github.com/noah-isme/hrm-case-api/internal/models"

// SubmitReportRequest captures the form fields of POST /reports.
type SubmitReportRequest struct {
	ReporterType   models.ReporterType `form:"reporter_type" json:"reporter_type" validate:"required,oneof=victim witness organization anonymous"`
	Anonymous      bool                `form:"anonymous" json:"anonymous"`
	Pseudonym      string              `form:"pseudonym" json:"pseudonym" conform:"trim" validate:"max=120"`
	ContactInfo    map[string]string   `form:"-" json:"contact_info"`
	IncidentDate   string              `form:"incident_date" json:"incident_date" conform:"trim"`
	LocationText   string              `form:"location" json:"location" conform:"trim" validate:"max=300"`
	ViolationTypes []string            `form:"violation_types" json:"violation_types" validate:"dive,max=120"`
	Description    string              `form:"description" json:"description" conform:"trim" validate:"required,max=10000"`
}

// DecideReportRequest captures PUT /reports/:id/decision payload.
type DecideReportRequest struct {
	Decision models.ReportStatus `json:"decision" validate:"required,oneof=approved rejected"`
	Comment  string              `json:"comment" conform:"trim" validate:"max=2000"`
}

// ReportQuery captures GET /reports query parameters.
type ReportQuery struct {
	Status      string `form:"status"`
	PendingOnly bool   `form:"pending_only"`
	Country     string `form:"country" conform:"trim"`
	CreatedFrom string `form:"created_from"`
	CreatedTo   string `form:"created_to"`
	Page        int    `form:"page"`
	PageSize    int    `form:"page_size"`
}

// ReportList is a page of reports.
type ReportList struct {
	Items      []models.IncidentReport `json:"items"`
	Pagination models.Pagination       `json:"pagination"`
}
