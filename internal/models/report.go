package models

import (
	"fmt"
	"time"

	"github.com/lib/pq"
)

// ReporterType identifies who filed an incident report.
type ReporterType string

const (
	ReporterVictim       ReporterType = "victim"
	ReporterWitness      ReporterType = "witness"
	ReporterOrganization ReporterType = "organization"
	ReporterAnonymous    ReporterType = "anonymous"
)

// ReportStatus is the review lifecycle state of an incident report.
type ReportStatus string

const (
	ReportStatusNew         ReportStatus = "new"
	ReportStatusUnderReview ReportStatus = "under_review"
	ReportStatusApproved    ReportStatus = "approved"
	ReportStatusRejected    ReportStatus = "rejected"
	ReportStatusArchived    ReportStatus = "archived"
)

// AnonymousSubmitter marks reports filed without an authenticated account.
const AnonymousSubmitter = "anonymous"

// MaxEvidencePerReport bounds evidence files per submission.
const MaxEvidencePerReport = 5

// IsPending reports whether the status still awaits an admin decision.
func (s ReportStatus) IsPending() bool {
	return s == ReportStatusNew || s == ReportStatusUnderReview
}

// CanTransition reports whether the review workflow allows moving to next.
// Rejected and archived are terminal.
func (s ReportStatus) CanTransition(next ReportStatus) bool {
	switch s {
	case ReportStatusNew:
		return next == ReportStatusUnderReview || next == ReportStatusApproved || next == ReportStatusRejected
	case ReportStatusUnderReview:
		return next == ReportStatusApproved || next == ReportStatusRejected
	case ReportStatusApproved:
		return next == ReportStatusArchived
	default:
		return false
	}
}

// IncidentReport is a submitted account of an incident awaiting or past review.
type IncidentReport struct {
	ID               string         `db:"id" json:"id"`
	ReporterType     ReporterType   `db:"reporter_type" json:"reporter_type"`
	Anonymous        bool           `db:"anonymous" json:"anonymous"`
	ContactInfo      ContactInfo    `db:"contact_info" json:"contact_info,omitempty"`
	Pseudonym        *string        `db:"pseudonym" json:"pseudonym,omitempty"`
	IncidentDate     *Date          `db:"incident_date" json:"incident_date"`
	Country          string         `db:"country" json:"country"`
	CountryCode      string         `db:"country_code" json:"country_code,omitempty"`
	Longitude        *float64       `db:"longitude" json:"longitude,omitempty"`
	Latitude         *float64       `db:"latitude" json:"latitude,omitempty"`
	ViolationTypes   pq.StringArray `db:"violation_types" json:"violation_types"`
	Description      string         `db:"description" json:"description"`
	CreatedBy        string         `db:"created_by" json:"created_by"`
	Status           ReportStatus   `db:"status" json:"status"`
	PendingApproval  bool           `db:"pending_approval" json:"pending_approval"`
	EvidenceRefs     pq.StringArray `db:"evidence_refs" json:"evidence_refs"`
	RejectionComment *string        `db:"rejection_comment" json:"rejection_comment,omitempty"`
	CaseID           *string        `db:"case_id" json:"case_id,omitempty"`
	CreatedAt        time.Time      `db:"created_at" json:"created_at"`
	UpdatedAt        time.Time      `db:"updated_at" json:"updated_at"`
}

// HasCoordinates reports whether geocoding produced a point.
func (r *IncidentReport) HasCoordinates() bool {
	return r.Longitude != nil && r.Latitude != nil
}

// Validate checks the structural invariants every stored report must satisfy.
func (r *IncidentReport) Validate() error {
	if r.PendingApproval != r.Status.IsPending() {
		return fmt.Errorf("report %s: pending_approval=%t inconsistent with status %s", r.ID, r.PendingApproval, r.Status)
	}
	if r.Anonymous && r.ContactInfo != nil {
		return fmt.Errorf("report %s: anonymous report carries contact info", r.ID)
	}
	if r.Anonymous && r.CreatedBy != "" && r.CreatedBy != AnonymousSubmitter {
		return fmt.Errorf("report %s: anonymous report carries submitter id", r.ID)
	}
	if !r.Anonymous && r.Pseudonym != nil {
		return fmt.Errorf("report %s: named report carries pseudonym", r.ID)
	}
	if len(r.EvidenceRefs) > MaxEvidencePerReport {
		return fmt.Errorf("report %s: %d evidence refs exceeds %d", r.ID, len(r.EvidenceRefs), MaxEvidencePerReport)
	}
	if r.RejectionComment != nil && r.Status != ReportStatusRejected {
		return fmt.Errorf("report %s: rejection comment on %s report", r.ID, r.Status)
	}
	return nil
}

// Redacted returns a copy safe for callers who may not see reporter identity.
func (r IncidentReport) Redacted() IncidentReport {
	r.ContactInfo = nil
	r.CreatedBy = AnonymousSubmitter
	return r
}

// ReportFilter scopes report listings.
type ReportFilter struct {
	Status          *ReportStatus
	PendingApproval *bool
	Country         string
	CreatedFrom     *time.Time
	CreatedTo       *time.Time
	Page            int
	PageSize        int
}

// Evidence is metadata for one stored evidence file owned by a report.
type Evidence struct {
	ID              string     `db:"id" json:"id"`
	ReportID        string     `db:"report_id" json:"report_id"`
	Filename        string     `db:"filename" json:"filename"`
	StoredReference string     `db:"stored_reference" json:"-"`
	ContentType     string     `db:"content_type" json:"content_type"`
	SizeBytes       int64      `db:"size_bytes" json:"size_bytes"`
	CapturedAt      *time.Time `db:"captured_at" json:"captured_at,omitempty"`
	UploadedAt      time.Time  `db:"uploaded_at" json:"uploaded_at"`
}

// EvidenceLink is a time-limited download URL for one evidence file.
type EvidenceLink struct {
	EvidenceID string    `json:"evidence_id"`
	URL        string    `json:"url"`
	ExpiresAt  time.Time `json:"expires_at"`
}
