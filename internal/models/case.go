package models

import (
	"database/sql/driver"
	"fmt"
	"regexp"
	"strings"
	"time"
)

// CaseStatus is the investigation state of a case.
type CaseStatus string

const (
	CaseStatusNew                CaseStatus = "new"
	CaseStatusUnderInvestigation CaseStatus = "under_investigation"
	CaseStatusResolved           CaseStatus = "resolved"
	CaseStatusArchived           CaseStatus = "archived"
)

// CanTransition reports whether a case may move from s to next. Archived is terminal;
// re-archiving goes through archival, not through a status change.
func (s CaseStatus) CanTransition(next CaseStatus) bool {
	if s == CaseStatusArchived {
		return false
	}
	if s == next {
		return true
	}
	switch s {
	case CaseStatusNew:
		return next == CaseStatusUnderInvestigation || next == CaseStatusResolved || next == CaseStatusArchived
	case CaseStatusUnderInvestigation:
		return next == CaseStatusResolved || next == CaseStatusArchived
	case CaseStatusResolved:
		return next == CaseStatusUnderInvestigation || next == CaseStatusArchived
	default:
		return false
	}
}

// CasePriority ranks case urgency.
type CasePriority string

const (
	CasePriorityLow    CasePriority = "low"
	CasePriorityMedium CasePriority = "medium"
	CasePriorityHigh   CasePriority = "high"
)

var caseCodePattern = regexp.MustCompile(`^HRM-\d{4}-\d{4,}$`)

// FormatCaseCode renders the human readable case identifier.
func FormatCaseCode(year, seq int) string {
	return fmt.Sprintf("HRM-%04d-%04d", year, seq)
}

// ValidCaseCode reports whether code matches HRM-YYYY-NNNN.
func ValidCaseCode(code string) bool {
	return caseCodePattern.MatchString(code)
}

// ViolationLabel is a violation classification with labels in both working languages.
type ViolationLabel struct {
	Code      string `json:"code"`
	Primary   string `json:"primary"`
	Secondary string `json:"secondary"`
}

// Matches reports an exact match on the code or either label.
func (v ViolationLabel) Matches(term string) bool {
	return term != "" && (v.Code == term || v.Primary == term || v.Secondary == term)
}

// ViolationLabels is persisted as a JSONB array.
type ViolationLabels []ViolationLabel

// Value marshals the list, storing an empty array for nil.
func (v ViolationLabels) Value() (driver.Value, error) {
	if v == nil {
		v = ViolationLabels{}
	}
	return marshalJSON([]ViolationLabel(v), "ViolationLabels")
}

// Scan unmarshals a JSONB array.
func (v *ViolationLabels) Scan(value interface{}) error {
	return scanJSON(value, v, "ViolationLabels")
}

// Contains reports whether any entry matches term.
func (v ViolationLabels) Contains(term string) bool {
	for _, label := range v {
		if label.Matches(term) {
			return true
		}
	}
	return false
}

// EvidenceDescriptor is a denormalized copy of evidence metadata held by a case.
type EvidenceDescriptor struct {
	EvidenceID  string     `json:"evidence_id"`
	Filename    string     `json:"filename"`
	ContentType string     `json:"content_type"`
	CapturedAt  *time.Time `json:"captured_at,omitempty"`
	UploadedAt  time.Time  `json:"uploaded_at"`
}

// EvidenceDescriptors is persisted as a JSONB array.
type EvidenceDescriptors []EvidenceDescriptor

// Value marshals the list, storing an empty array for nil.
func (e EvidenceDescriptors) Value() (driver.Value, error) {
	if e == nil {
		e = EvidenceDescriptors{}
	}
	return marshalJSON([]EvidenceDescriptor(e), "EvidenceDescriptors")
}

// Scan unmarshals a JSONB array.
func (e *EvidenceDescriptors) Scan(value interface{}) error {
	return scanJSON(value, e, "EvidenceDescriptors")
}

// Case is a curated record of a confirmed incident.
type Case struct {
	ID                   string              `db:"id" json:"id"`
	CaseCode             string              `db:"case_code" json:"case_code"`
	TitlePrimary         string              `db:"title_primary" json:"title_primary"`
	TitleSecondary       string              `db:"title_secondary" json:"title_secondary"`
	DescriptionPrimary   string              `db:"description_primary" json:"description_primary"`
	DescriptionSecondary string              `db:"description_secondary" json:"description_secondary"`
	ViolationTypes       ViolationLabels     `db:"violation_types" json:"violation_types"`
	Status               CaseStatus          `db:"status" json:"status"`
	Priority             CasePriority        `db:"priority" json:"priority"`
	CountryPrimary       string              `db:"country_primary" json:"country_primary"`
	CountrySecondary     string              `db:"country_secondary" json:"country_secondary"`
	RegionPrimary        string              `db:"region_primary" json:"region_primary"`
	RegionSecondary      string              `db:"region_secondary" json:"region_secondary"`
	Longitude            *float64            `db:"longitude" json:"longitude,omitempty"`
	Latitude             *float64            `db:"latitude" json:"latitude,omitempty"`
	DateOccurred         *Date               `db:"date_occurred" json:"date_occurred"`
	DateReported         Date                `db:"date_reported" json:"date_reported"`
	Evidence             EvidenceDescriptors `db:"evidence" json:"evidence"`
	SourceReportID       *string             `db:"source_report_id" json:"source_report_id,omitempty"`
	CreatedBy            string              `db:"created_by" json:"created_by"`
	CreatedAt            time.Time           `db:"created_at" json:"created_at"`
	UpdatedAt            time.Time           `db:"updated_at" json:"updated_at"`
	DateAnomaly          bool                `db:"-" json:"date_anomaly"`
}

// FlagAnomalies recomputes derived flags; a report dated before the incident is kept but flagged.
func (c *Case) FlagAnomalies() {
	c.DateAnomaly = c.DateOccurred != nil && c.DateReported.Before(c.DateOccurred.Time)
}

// MatchesCountry compares against either country label, case-insensitively.
func (c *Case) MatchesCountry(country string) bool {
	return strings.EqualFold(c.CountryPrimary, country) || strings.EqualFold(c.CountrySecondary, country)
}

// CaseFilter scopes case listings. Date bounds are inclusive and either may be open.
type CaseFilter struct {
	Status        *CaseStatus
	Country       string
	ViolationType string
	OccurredFrom  *Date
	OccurredTo    *Date
	Page          int
	PageSize      int
}

// CasePatch is a shallow, field-level update; nil fields are left untouched.
type CasePatch struct {
	TitlePrimary         *string
	TitleSecondary       *string
	DescriptionPrimary   *string
	DescriptionSecondary *string
	ViolationTypes       *ViolationLabels
	Status               *CaseStatus
	Priority             *CasePriority
	CountryPrimary       *string
	CountrySecondary     *string
	RegionPrimary        *string
	RegionSecondary      *string
	Longitude            *float64
	Latitude             *float64
	DateOccurred         *Date
	DateReported         *Date
}

// IsEmpty reports whether the patch changes nothing.
func (p CasePatch) IsEmpty() bool {
	return p == (CasePatch{})
}
