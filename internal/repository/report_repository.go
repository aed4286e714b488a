package repository

import (
	"context"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/noah-isme/hrm-case-api/internal/models"
)

const reportColumns = `id, reporter_type, anonymous, contact_info, pseudonym, incident_date, country, country_code,
	longitude, latitude, violation_types, description, created_by, status, pending_approval, evidence_refs,
	rejection_comment, case_id, created_at, updated_at`

// ReportRepository persists incident reports.
type ReportRepository struct {
	db *sqlx.DB
}

// NewReportRepository constructs the repository.
func NewReportRepository(db *sqlx.DB) *ReportRepository {
	return &ReportRepository{db: db}
}

// Create inserts a new report row.
func (r *ReportRepository) Create(ctx context.Context, report *models.IncidentReport) error {
	if report.ViolationTypes == nil {
		report.ViolationTypes = pq.StringArray{}
	}
	if report.EvidenceRefs == nil {
		report.EvidenceRefs = pq.StringArray{}
	}
	const query = `INSERT INTO incident_reports (` + reportColumns + `)
	VALUES (:id, :reporter_type, :anonymous, :contact_info, :pseudonym, :incident_date, :country, :country_code,
	:longitude, :latitude, :violation_types, :description, :created_by, :status, :pending_approval, :evidence_refs,
	:rejection_comment, :case_id, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, report); err != nil {
		return fmt.Errorf("create report: %w", err)
	}
	return nil
}

// GetByID fetches a report; sql.ErrNoRows when absent.
func (r *ReportRepository) GetByID(ctx context.Context, id string) (*models.IncidentReport, error) {
	query := `SELECT ` + reportColumns + ` FROM incident_reports WHERE id = $1`
	var report models.IncidentReport
	if err := r.db.GetContext(ctx, &report, query, id); err != nil {
		return nil, err
	}
	return &report, nil
}

// List returns one page of reports matching the filter, newest first, with the total count.
func (r *ReportRepository) List(ctx context.Context, filter models.ReportFilter) ([]models.IncidentReport, int, error) {
	where := sq.And{}
	if filter.Status != nil {
		where = append(where, sq.Eq{"status": *filter.Status})
	}
	if filter.PendingApproval != nil {
		where = append(where, sq.Eq{"pending_approval": *filter.PendingApproval})
	}
	if filter.Country != "" {
		where = append(where, sq.Expr("LOWER(country) = LOWER(?)", filter.Country))
	}
	if filter.CreatedFrom != nil {
		where = append(where, sq.GtOrEq{"created_at": *filter.CreatedFrom})
	}
	if filter.CreatedTo != nil {
		where = append(where, sq.LtOrEq{"created_at": *filter.CreatedTo})
	}

	total, err := countBuilt(ctx, r.db, psql.Select("COUNT(*)").From("incident_reports").Where(where))
	if err != nil {
		return nil, 0, fmt.Errorf("count reports: %w", err)
	}

	_, size, offset := normalizePage(filter.Page, filter.PageSize)
	builder := psql.Select(reportColumns).From("incident_reports").Where(where).
		OrderBy("created_at DESC").Limit(uint64(size)).Offset(offset)

	var reports []models.IncidentReport
	if err := selectBuilt(ctx, r.db, &reports, builder); err != nil {
		return nil, 0, fmt.Errorf("list reports: %w", err)
	}
	return reports, total, nil
}

// AttachEvidence records the evidence references stored for a report.
func (r *ReportRepository) AttachEvidence(ctx context.Context, id string, refs []string, at time.Time) error {
	const query = `UPDATE incident_reports SET evidence_refs = $2, updated_at = $3 WHERE id = $1`
	result, err := r.db.ExecContext(ctx, query, id, pq.StringArray(refs), at)
	if err != nil {
		return fmt.Errorf("attach evidence: %w", err)
	}
	return expectAffected(result, "attach evidence")
}

// ReportDecision carries the outcome of an admin review.
type ReportDecision struct {
	ID        string
	Status    models.ReportStatus
	Comment   *string
	DecidedAt time.Time
}

// Decide applies a decision only while the report is still pending; sql.ErrNoRows otherwise.
func (r *ReportRepository) Decide(ctx context.Context, decision ReportDecision) error {
	const query = `UPDATE incident_reports
	SET status = $2, pending_approval = FALSE, rejection_comment = $3, updated_at = $4
	WHERE id = $1 AND pending_approval = TRUE`
	result, err := r.db.ExecContext(ctx, query, decision.ID, decision.Status, decision.Comment, decision.DecidedAt)
	if err != nil {
		return fmt.Errorf("decide report: %w", err)
	}
	return expectAffected(result, "decide report")
}

// StartReview moves a new report under review; sql.ErrNoRows when it is no longer new.
func (r *ReportRepository) StartReview(ctx context.Context, id string, at time.Time) error {
	const query = `UPDATE incident_reports SET status = $2, updated_at = $3 WHERE id = $1 AND status = $4`
	result, err := r.db.ExecContext(ctx, query, id, models.ReportStatusUnderReview, at, models.ReportStatusNew)
	if err != nil {
		return fmt.Errorf("start review: %w", err)
	}
	return expectAffected(result, "start review")
}

// ArchiveApproved moves an approved report to archived; sql.ErrNoRows when it is not approved.
func (r *ReportRepository) ArchiveApproved(ctx context.Context, id string, at time.Time) error {
	const query = `UPDATE incident_reports SET status = $2, updated_at = $3 WHERE id = $1 AND status = $4`
	result, err := r.db.ExecContext(ctx, query, id, models.ReportStatusArchived, at, models.ReportStatusApproved)
	if err != nil {
		return fmt.Errorf("archive report: %w", err)
	}
	return expectAffected(result, "archive report")
}
