package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/noah-isme/hrm-case-api/internal/models"
)

const violationTypeColumns = `id, code, name_primary, name_secondary, pending, suggested_by, created_at, updated_at`

// ViolationTypeRepository persists the violation catalog.
type ViolationTypeRepository struct {
	db *sqlx.DB
}

// NewViolationTypeRepository constructs the repository.
func NewViolationTypeRepository(db *sqlx.DB) *ViolationTypeRepository {
	return &ViolationTypeRepository{db: db}
}

// List returns catalog entries ordered by primary name; pending suggestions only when asked.
func (r *ViolationTypeRepository) List(ctx context.Context, includePending bool) ([]models.ViolationType, error) {
	query := `SELECT ` + violationTypeColumns + ` FROM violation_types`
	if !includePending {
		query += ` WHERE pending = FALSE`
	}
	query += ` ORDER BY pending DESC, name_primary`
	var types []models.ViolationType
	if err := r.db.SelectContext(ctx, &types, query); err != nil {
		return nil, fmt.Errorf("list violation types: %w", err)
	}
	return types, nil
}

// FindByTerms returns approved entries whose code or either name equals one of terms.
func (r *ViolationTypeRepository) FindByTerms(ctx context.Context, terms []string) ([]models.ViolationType, error) {
	if len(terms) == 0 {
		return nil, nil
	}
	query := `SELECT ` + violationTypeColumns + ` FROM violation_types
	WHERE pending = FALSE AND (code = ANY($1) OR name_primary = ANY($1) OR name_secondary = ANY($1))`
	var types []models.ViolationType
	if err := r.db.SelectContext(ctx, &types, query, pq.StringArray(terms)); err != nil {
		return nil, fmt.Errorf("find violation types: %w", err)
	}
	return types, nil
}

// Create inserts a catalog entry; code uniqueness is enforced by the table.
func (r *ViolationTypeRepository) Create(ctx context.Context, vt *models.ViolationType) error {
	const query = `INSERT INTO violation_types (` + violationTypeColumns + `)
	VALUES (:id, :code, :name_primary, :name_secondary, :pending, :suggested_by, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, vt); err != nil {
		return fmt.Errorf("create violation type: %w", err)
	}
	return nil
}

// Approve publishes a pending suggestion; sql.ErrNoRows when no pending entry matched.
func (r *ViolationTypeRepository) Approve(ctx context.Context, id string, at time.Time) error {
	result, err := r.db.ExecContext(ctx, `UPDATE violation_types SET pending = FALSE, updated_at = $2 WHERE id = $1 AND pending = TRUE`, id, at)
	if err != nil {
		return fmt.Errorf("approve violation type: %w", err)
	}
	return expectAffected(result, "approve violation type")
}

// Reject discards a pending suggestion; sql.ErrNoRows when no pending entry matched.
func (r *ViolationTypeRepository) Reject(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM violation_types WHERE id = $1 AND pending = TRUE`, id)
	if err != nil {
		return fmt.Errorf("reject violation type: %w", err)
	}
	return expectAffected(result, "reject violation type")
}
