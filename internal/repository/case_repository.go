package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/hrm-case-api/internal/models"
)

const caseColumns = `id, case_code, title_primary, title_secondary, description_primary, description_secondary,
	violation_types, status, priority, country_primary, country_secondary, region_primary, region_secondary,
	longitude, latitude, date_occurred, date_reported, evidence, source_report_id, created_by, created_at, updated_at`

// ErrReportNotPromotable is returned when the source report is not approved or already promoted.
var ErrReportNotPromotable = errors.New("report is not approved or already promoted")

// CaseRepository persists cases and allocates their human readable codes.
type CaseRepository struct {
	db *sqlx.DB
}

// NewCaseRepository constructs the repository.
func NewCaseRepository(db *sqlx.DB) *CaseRepository {
	return &CaseRepository{db: db}
}

// Create allocates a case code and inserts the case in one transaction.
func (r *CaseRepository) Create(ctx context.Context, c *models.Case) error {
	return r.withTx(ctx, func(tx *sqlx.Tx) error {
		return r.insert(ctx, tx, c)
	})
}

// PromoteFromReport claims an approved, unpromoted report for the case and inserts the case atomically.
// ErrReportNotPromotable when the claim matches no row.
func (r *CaseRepository) PromoteFromReport(ctx context.Context, c *models.Case, reportID string) error {
	return r.withTx(ctx, func(tx *sqlx.Tx) error {
		const claim = `UPDATE incident_reports SET case_id = $2, updated_at = $3
		WHERE id = $1 AND status = $4 AND case_id IS NULL`
		result, err := tx.ExecContext(ctx, claim, reportID, c.ID, c.CreatedAt, models.ReportStatusApproved)
		if err != nil {
			return fmt.Errorf("claim report: %w", err)
		}
		if err := expectAffected(result, "claim report"); err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return ErrReportNotPromotable
			}
			return err
		}
		c.SourceReportID = &reportID
		return r.insert(ctx, tx, c)
	})
}

func (r *CaseRepository) insert(ctx context.Context, tx *sqlx.Tx, c *models.Case) error {
	year := c.CreatedAt.UTC().Year()
	seq, err := nextCaseSequence(ctx, tx, year)
	if err != nil {
		return err
	}
	c.CaseCode = models.FormatCaseCode(year, seq)
	if c.ViolationTypes == nil {
		c.ViolationTypes = models.ViolationLabels{}
	}
	if c.Evidence == nil {
		c.Evidence = models.EvidenceDescriptors{}
	}

	const query = `INSERT INTO cases (` + caseColumns + `)
	VALUES (:id, :case_code, :title_primary, :title_secondary, :description_primary, :description_secondary,
	:violation_types, :status, :priority, :country_primary, :country_secondary, :region_primary, :region_secondary,
	:longitude, :latitude, :date_occurred, :date_reported, :evidence, :source_report_id, :created_by, :created_at, :updated_at)`
	if _, err := tx.NamedExecContext(ctx, query, c); err != nil {
		return fmt.Errorf("insert case: %w", err)
	}
	return nil
}

func nextCaseSequence(ctx context.Context, tx *sqlx.Tx, year int) (int, error) {
	const query = `INSERT INTO case_counters (year, last_value) VALUES ($1, 1)
	ON CONFLICT (year) DO UPDATE SET last_value = case_counters.last_value + 1
	RETURNING last_value`
	var seq int
	if err := tx.GetContext(ctx, &seq, query, year); err != nil {
		return 0, fmt.Errorf("allocate case code: %w", err)
	}
	return seq, nil
}

// GetByID fetches a case; sql.ErrNoRows when absent.
func (r *CaseRepository) GetByID(ctx context.Context, id string) (*models.Case, error) {
	var c models.Case
	if err := r.db.GetContext(ctx, &c, `SELECT `+caseColumns+` FROM cases WHERE id = $1`, id); err != nil {
		return nil, err
	}
	c.FlagAnomalies()
	return &c, nil
}

// List returns one page of cases matching the filter, most recently occurred first.
func (r *CaseRepository) List(ctx context.Context, filter models.CaseFilter) ([]models.Case, int, error) {
	where := sq.And{}
	if filter.Status != nil {
		where = append(where, sq.Eq{"status": *filter.Status})
	}
	if filter.Country != "" {
		where = append(where, sq.Expr("(LOWER(country_primary) = LOWER(?) OR LOWER(country_secondary) = LOWER(?))",
			filter.Country, filter.Country))
	}
	if filter.ViolationType != "" {
		where = append(where, sq.Expr(`EXISTS (SELECT 1 FROM jsonb_array_elements(violation_types) AS v
			WHERE v->>'code' = ? OR v->>'primary' = ? OR v->>'secondary' = ?)`,
			filter.ViolationType, filter.ViolationType, filter.ViolationType))
	}
	if filter.OccurredFrom != nil {
		where = append(where, sq.GtOrEq{"date_occurred": *filter.OccurredFrom})
	}
	if filter.OccurredTo != nil {
		where = append(where, sq.LtOrEq{"date_occurred": *filter.OccurredTo})
	}

	total, err := countBuilt(ctx, r.db, psql.Select("COUNT(*)").From("cases").Where(where))
	if err != nil {
		return nil, 0, fmt.Errorf("count cases: %w", err)
	}

	_, size, offset := normalizePage(filter.Page, filter.PageSize)
	builder := psql.Select(caseColumns).From("cases").Where(where).
		OrderBy("date_occurred DESC NULLS LAST", "created_at DESC").Limit(uint64(size)).Offset(offset)

	var cases []models.Case
	if err := selectBuilt(ctx, r.db, &cases, builder); err != nil {
		return nil, 0, fmt.Errorf("list cases: %w", err)
	}
	for i := range cases {
		cases[i].FlagAnomalies()
	}
	return cases, total, nil
}

// Update merges the non-nil patch fields and returns the stored case.
// Archived cases are never touched; sql.ErrNoRows when absent or archived.
func (r *CaseRepository) Update(ctx context.Context, id string, patch models.CasePatch, at time.Time) (*models.Case, error) {
	set := patchColumns(patch)
	set["updated_at"] = at

	query, args, err := psql.Update("cases").SetMap(set).
		Where(sq.Eq{"id": id}).
		Where(sq.NotEq{"status": models.CaseStatusArchived}).
		Suffix("RETURNING " + caseColumns).ToSql()
	if err != nil {
		return nil, fmt.Errorf("build case update: %w", err)
	}
	var c models.Case
	if err := r.db.GetContext(ctx, &c, query, args...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("update case: %w", err)
	}
	c.FlagAnomalies()
	return &c, nil
}

// Archive flips the case to archived regardless of its current status; sql.ErrNoRows when absent.
func (r *CaseRepository) Archive(ctx context.Context, id string, at time.Time) (*models.Case, error) {
	query := `UPDATE cases SET status = $2, updated_at = $3 WHERE id = $1 RETURNING ` + caseColumns
	var c models.Case
	if err := r.db.GetContext(ctx, &c, query, id, models.CaseStatusArchived, at); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("archive case: %w", err)
	}
	c.FlagAnomalies()
	return &c, nil
}

// ListAll streams every case matching the filter without pagination, for exports.
func (r *CaseRepository) ListAll(ctx context.Context, filter models.CaseFilter, limit int) ([]models.Case, error) {
	filter.Page, filter.PageSize = 1, maxPageSize
	var all []models.Case
	for len(all) < limit {
		page, _, err := r.List(ctx, filter)
		if err != nil {
			return nil, err
		}
		all = append(all, page...)
		if len(page) < maxPageSize {
			break
		}
		filter.Page++
	}
	if len(all) > limit {
		all = all[:limit]
	}
	return all, nil
}

func patchColumns(p models.CasePatch) map[string]interface{} {
	set := map[string]interface{}{}
	for col, v := range map[string]*string{
		"title_primary":         p.TitlePrimary,
		"title_secondary":       p.TitleSecondary,
		"description_primary":   p.DescriptionPrimary,
		"description_secondary": p.DescriptionSecondary,
		"country_primary":       p.CountryPrimary,
		"country_secondary":     p.CountrySecondary,
		"region_primary":        p.RegionPrimary,
		"region_secondary":      p.RegionSecondary,
	} {
		if v != nil {
			set[col] = *v
		}
	}
	if p.ViolationTypes != nil {
		set["violation_types"] = *p.ViolationTypes
	}
	if p.Status != nil {
		set["status"] = *p.Status
	}
	if p.Priority != nil {
		set["priority"] = *p.Priority
	}
	if p.Longitude != nil {
		set["longitude"] = *p.Longitude
	}
	if p.Latitude != nil {
		set["latitude"] = *p.Latitude
	}
	if p.DateOccurred != nil {
		set["date_occurred"] = *p.DateOccurred
	}
	if p.DateReported != nil {
		set["date_reported"] = *p.DateReported
	}
	return set
}

func (r *CaseRepository) withTx(ctx context.Context, fn func(tx *sqlx.Tx) error) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin case transaction: %w", err)
	}
	if err := fn(tx); err != nil {
		_ = tx.Rollback()
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit case transaction: %w", err)
	}
	return nil
}
