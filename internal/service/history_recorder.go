package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/noah-isme/hrm-case-api/internal/models"
	"github.com/noah-isme/hrm-case-api/pkg/jobs"
)

// JobHistoryAppend is the retry job kind for failed history appends.
const JobHistoryAppend = "status_history.append"

type statusHistoryStore interface {
	Append(ctx context.Context, entry *models.StatusHistoryEntry) error
	ListBySubject(ctx context.Context, subjectType models.SubjectType, subjectID string) ([]models.StatusHistoryEntry, error)
}

// jobQueue is the subset of jobs.Queue used by services for deferred work.
type jobQueue interface {
	Register(kind string, handler jobs.Handler)
	Enqueue(job jobs.Job) error
}

// HistoryRecorder appends status history after a primary update has committed.
// An append failure never fails the caller; the entry is handed to the retry queue instead.
type HistoryRecorder struct {
	store   statusHistoryStore
	queue   jobQueue
	logger  *zap.Logger
	timeout time.Duration
}

// NewHistoryRecorder wires the recorder and registers its retry handler when a queue is given.
func NewHistoryRecorder(store statusHistoryStore, queue jobQueue, logger *zap.Logger) *HistoryRecorder {
	if logger == nil {
		logger = zap.NewNop()
	}
	r := &HistoryRecorder{store: store, queue: queue, logger: logger, timeout: 5 * time.Second}
	if queue != nil {
		queue.Register(JobHistoryAppend, r.retryAppend)
	}
	return r
}

// Record appends one entry. The entry id is assigned here and reused on retry so the append stays idempotent.
func (r *HistoryRecorder) Record(ctx context.Context, subjectType models.SubjectType, subjectID, newStatus string, comment *string, changedBy string, at time.Time) {
	entry := models.StatusHistoryEntry{
		ID:          uuid.NewString(),
		SubjectID:   subjectID,
		SubjectType: subjectType,
		NewStatus:   newStatus,
		Comment:     comment,
		ChangedBy:   changedBy,
		ChangedAt:   at,
	}
	appendCtx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()
	err := r.store.Append(appendCtx, &entry)
	if err == nil {
		return
	}

	fields := []zap.Field{
		zap.String("subject_type", string(subjectType)),
		zap.String("subject_id", subjectID),
		zap.String("new_status", newStatus),
		zap.Error(err),
	}
	r.logger.Warn("status history append failed", fields...)
	if r.queue == nil {
		return
	}
	if qErr := r.queue.Enqueue(jobs.Job{ID: entry.ID, Kind: JobHistoryAppend, Payload: entry}); qErr != nil {
		r.logger.Error("status history entry lost", append(fields, zap.NamedError("enqueue_error", qErr))...)
	}
}

// List returns the history of one subject, oldest first.
func (r *HistoryRecorder) List(ctx context.Context, subjectType models.SubjectType, subjectID string) ([]models.StatusHistoryEntry, error) {
	return r.store.ListBySubject(ctx, subjectType, subjectID)
}

func (r *HistoryRecorder) retryAppend(ctx context.Context, job jobs.Job) error {
	entry, ok := job.Payload.(models.StatusHistoryEntry)
	if !ok {
		return fmt.Errorf("unexpected history payload %T", job.Payload)
	}
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()
	return r.store.Append(ctx, &entry)
}
