package repository

import (
	"context"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/hrm-case-api/internal/models"
)

var evidenceRowColumns = []string{"id", "report_id", "filename", "stored_reference", "content_type", "size_bytes", "captured_at", "uploaded_at"}

func TestEvidenceRepositoryCreate(t *testing.T) {
	db, mock := newRepoMock(t)
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO evidence")).WillReturnResult(sqlmock.NewResult(0, 1))

	err := NewEvidenceRepository(db).Create(context.Background(), &models.Evidence{
		ID: "ev-1", ReportID: "rep-1", Filename: "photo.jpg", StoredReference: "evidence/2024/05/x.jpg",
		ContentType: "image/jpeg", SizeBytes: 10, UploadedAt: time.Now(),
	})
	require.NoError(t, err)
}

func TestEvidenceRepositoryListByIDsKeepsOrder(t *testing.T) {
	db, mock := newRepoMock(t)
	now := time.Now()
	rows := sqlmock.NewRows(evidenceRowColumns).
		AddRow("ev-2", "rep-1", "b.pdf", "evidence/b.pdf", "application/pdf", 20, nil, now).
		AddRow("ev-1", "rep-1", "a.jpg", "evidence/a.jpg", "image/jpeg", 10, nil, now)
	mock.ExpectQuery(regexp.QuoteMeta("FROM evidence WHERE id = ANY($1)")).WillReturnRows(rows)

	list, err := NewEvidenceRepository(db).ListByIDs(context.Background(), []string{"ev-1", "ev-missing", "ev-2"})
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "ev-1", list[0].ID)
	assert.Equal(t, "ev-2", list[1].ID)

	empty, err := NewEvidenceRepository(db).ListByIDs(context.Background(), nil)
	require.NoError(t, err)
	assert.Empty(t, empty)
}

func TestEvidenceRepositoryGetByID(t *testing.T) {
	db, mock := newRepoMock(t)
	mock.ExpectQuery(regexp.QuoteMeta("FROM evidence WHERE id = $1")).WithArgs("ev-1").
		WillReturnRows(sqlmock.NewRows(evidenceRowColumns).AddRow("ev-1", "rep-1", "a.jpg", "evidence/a.jpg", "image/jpeg", 10, nil, time.Now()))

	ev, err := NewEvidenceRepository(db).GetByID(context.Background(), "ev-1")
	require.NoError(t, err)
	assert.Equal(t, "evidence/a.jpg", ev.StoredReference)
}
