package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/hrm-case-api/internal/models"
)

// StatusHistoryRepository appends and reads status change records.
type StatusHistoryRepository struct {
	db *sqlx.DB
}

// NewStatusHistoryRepository constructs the repository.
func NewStatusHistoryRepository(db *sqlx.DB) *StatusHistoryRepository {
	return &StatusHistoryRepository{db: db}
}

// Append inserts one entry. Duplicate ids are ignored so retried appends stay single.
func (r *StatusHistoryRepository) Append(ctx context.Context, entry *models.StatusHistoryEntry) error {
	const query = `INSERT INTO status_history (id, subject_id, subject_type, new_status, comment, changed_by, changed_at)
	VALUES (:id, :subject_id, :subject_type, :new_status, :comment, :changed_by, :changed_at)
	ON CONFLICT (id) DO NOTHING`
	if _, err := r.db.NamedExecContext(ctx, query, entry); err != nil {
		return fmt.Errorf("append status history: %w", err)
	}
	return nil
}

// ListBySubject returns entries for one report or case, oldest first.
func (r *StatusHistoryRepository) ListBySubject(ctx context.Context, subjectType models.SubjectType, subjectID string) ([]models.StatusHistoryEntry, error) {
	const query = `SELECT id, subject_id, subject_type, new_status, comment, changed_by, changed_at
	FROM status_history WHERE subject_type = $1 AND subject_id = $2 ORDER BY changed_at, id`
	var entries []models.StatusHistoryEntry
	if err := r.db.SelectContext(ctx, &entries, query, subjectType, subjectID); err != nil {
		return nil, fmt.Errorf("list status history: %w", err)
	}
	return entries, nil
}
