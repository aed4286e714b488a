package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/noah-isme/hrm-case-api/internal/models"
)

const evidenceColumns = `id, report_id, filename, stored_reference, content_type, size_bytes, captured_at, uploaded_at`

// EvidenceRepository persists evidence metadata.
type EvidenceRepository struct {
	db *sqlx.DB
}

// NewEvidenceRepository constructs the repository.
func NewEvidenceRepository(db *sqlx.DB) *EvidenceRepository {
	return &EvidenceRepository{db: db}
}

// Create inserts an evidence row.
func (r *EvidenceRepository) Create(ctx context.Context, evidence *models.Evidence) error {
	const query = `INSERT INTO evidence (` + evidenceColumns + `)
	VALUES (:id, :report_id, :filename, :stored_reference, :content_type, :size_bytes, :captured_at, :uploaded_at)`
	if _, err := r.db.NamedExecContext(ctx, query, evidence); err != nil {
		return fmt.Errorf("create evidence: %w", err)
	}
	return nil
}

// GetByID fetches evidence metadata; sql.ErrNoRows when absent.
func (r *EvidenceRepository) GetByID(ctx context.Context, id string) (*models.Evidence, error) {
	var evidence models.Evidence
	if err := r.db.GetContext(ctx, &evidence, `SELECT `+evidenceColumns+` FROM evidence WHERE id = $1`, id); err != nil {
		return nil, err
	}
	return &evidence, nil
}

// ListByIDs returns the requested evidence in the order of ids, skipping unknown ids.
func (r *EvidenceRepository) ListByIDs(ctx context.Context, ids []string) ([]models.Evidence, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	query := `SELECT ` + evidenceColumns + ` FROM evidence WHERE id = ANY($1)`
	var rows []models.Evidence
	if err := r.db.SelectContext(ctx, &rows, query, pq.StringArray(ids)); err != nil {
		return nil, fmt.Errorf("list evidence: %w", err)
	}
	byID := make(map[string]models.Evidence, len(rows))
	for _, row := range rows {
		byID[row.ID] = row
	}
	ordered := make([]models.Evidence, 0, len(rows))
	for _, id := range ids {
		if row, ok := byID[id]; ok {
			ordered = append(ordered, row)
		}
	}
	return ordered, nil
}

// ListByReport returns all evidence owned by a report in upload order.
func (r *EvidenceRepository) ListByReport(ctx context.Context, reportID string) ([]models.Evidence, error) {
	query := `SELECT ` + evidenceColumns + ` FROM evidence WHERE report_id = $1 ORDER BY uploaded_at, id`
	var rows []models.Evidence
	if err := r.db.SelectContext(ctx, &rows, query, reportID); err != nil {
		return nil, fmt.Errorf("list report evidence: %w", err)
	}
	return rows, nil
}
