package models

import "time"

// SubjectType identifies what a history entry is about.
type SubjectType string

const (
	SubjectReport SubjectType = "report"
	SubjectCase   SubjectType = "case"
)

// StatusHistoryEntry is an append-only record of one status change.
type StatusHistoryEntry struct {
	ID          string      `db:"id" json:"id"`
	SubjectID   string      `db:"subject_id" json:"subject_id"`
	SubjectType SubjectType `db:"subject_type" json:"subject_type"`
	NewStatus   string      `db:"new_status" json:"new_status"`
	Comment     *string     `db:"comment" json:"comment,omitempty"`
	ChangedBy   string      `db:"changed_by" json:"changed_by"`
	ChangedAt   time.Time   `db:"changed_at" json:"changed_at"`
}
