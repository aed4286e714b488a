package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/url"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/noah-isme/hrm-case-api/internal/models"
	appErrors "github.com/noah-isme/hrm-case-api/pkg/errors"
	"github.com/noah-isme/hrm-case-api/pkg/jobs"
	"github.com/noah-isme/hrm-case-api/pkg/storage"
)

// JobEvidenceCleanup removes blobs whose metadata row could not be written.
const JobEvidenceCleanup = "evidence.cleanup"

// BlobStore persists evidence bytes; implemented by storage.LocalStorage and storage.S3Storage.
type BlobStore interface {
	Put(ctx context.Context, key string, r io.Reader, size int64, contentType string) (string, error)
	Open(ctx context.Context, key string) (io.ReadCloser, error)
	Delete(ctx context.Context, key string) error
}

type evidenceStore interface {
	Create(ctx context.Context, evidence *models.Evidence) error
	GetByID(ctx context.Context, id string) (*models.Evidence, error)
	ListByReport(ctx context.Context, reportID string) ([]models.Evidence, error)
}

// EvidenceUpload is one file received with a submission.
type EvidenceUpload struct {
	Filename    string
	ContentType string
	Size        int64
	CapturedAt  *time.Time
	Content     io.Reader
}

// EvidenceConfig tunes evidence storage and download links.
type EvidenceConfig struct {
	APIPrefix string
	Timeout   time.Duration
}

// EvidenceService stores evidence blobs and their metadata and issues download links.
type EvidenceService struct {
	blobs  BlobStore
	repo   evidenceStore
	signer *storage.SignedURLSigner
	queue  jobQueue
	logger *zap.Logger
	cfg    EvidenceConfig
	now    func() time.Time
}

// NewEvidenceService constructs the service; queue may be nil.
func NewEvidenceService(blobs BlobStore, repo evidenceStore, signer *storage.SignedURLSigner, queue jobQueue, logger *zap.Logger, cfg EvidenceConfig) *EvidenceService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	s := &EvidenceService{blobs: blobs, repo: repo, signer: signer, queue: queue, logger: logger, cfg: cfg, now: time.Now}
	if queue != nil {
		queue.Register(JobEvidenceCleanup, s.cleanupBlob)
	}
	return s
}

// Store writes the file under evidence/YYYY/MM/<uuid><ext> and records its metadata.
// Any failure is a STORAGE_ERROR; files stored earlier in the same submission are kept.
func (s *EvidenceService) Store(ctx context.Context, reportID string, upload EvidenceUpload) (*models.Evidence, error) {
	now := s.now().UTC()
	id := uuid.NewString()
	key := fmt.Sprintf("evidence/%04d/%02d/%s%s", now.Year(), int(now.Month()), id, evidenceExtension(upload.Filename, upload.ContentType))

	putCtx, cancel := context.WithTimeout(ctx, s.cfg.Timeout)
	ref, err := s.blobs.Put(putCtx, key, upload.Content, upload.Size, upload.ContentType)
	cancel()
	if err != nil {
		return nil, storageError(err, upload.Filename)
	}

	evidence := &models.Evidence{
		ID:              id,
		ReportID:        reportID,
		Filename:        filepath.Base(upload.Filename),
		StoredReference: ref,
		ContentType:     upload.ContentType,
		SizeBytes:       upload.Size,
		CapturedAt:      upload.CapturedAt,
		UploadedAt:      now,
	}
	if err := s.repo.Create(ctx, evidence); err != nil {
		s.discardBlob(ref)
		return nil, storageError(err, upload.Filename)
	}
	return evidence, nil
}

// Link issues a signed, time-limited download URL for one evidence file.
func (s *EvidenceService) Link(ctx context.Context, evidenceID string, actor *models.JWTClaims) (*models.EvidenceLink, error) {
	if err := Authorize(actor, CapDownloadEvidence); err != nil {
		return nil, err
	}
	evidence, err := s.repo.GetByID(ctx, evidenceID)
	if err != nil {
		return nil, evidenceLookupError(err)
	}
	token, grant, err := s.signer.Sign(evidence.ID, evidence.StoredReference)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to sign evidence link")
	}
	return &models.EvidenceLink{
		EvidenceID: evidence.ID,
		URL:        strings.TrimRight(s.cfg.APIPrefix, "/") + "/evidence/download?token=" + url.QueryEscape(token),
		ExpiresAt:  grant.ExpiresAt,
	}, nil
}

// Download resolves a signed token to the evidence metadata and an open reader the caller must close.
func (s *EvidenceService) Download(ctx context.Context, token string) (*models.Evidence, io.ReadCloser, error) {
	grant, err := s.signer.Verify(token)
	switch {
	case errors.Is(err, storage.ErrTokenExpired):
		return nil, nil, appErrors.Clone(appErrors.ErrForbidden, "download link expired")
	case err != nil:
		return nil, nil, appErrors.Clone(appErrors.ErrUnauthorized, "invalid download link")
	}

	evidence, err := s.repo.GetByID(ctx, grant.EvidenceID)
	if err != nil {
		return nil, nil, evidenceLookupError(err)
	}
	if evidence.StoredReference != grant.StorageKey {
		return nil, nil, appErrors.Clone(appErrors.ErrUnauthorized, "invalid download link")
	}

	reader, err := s.blobs.Open(ctx, evidence.StoredReference)
	if err != nil {
		return nil, nil, storageError(err, evidence.Filename)
	}
	return evidence, reader, nil
}

// ListByReport returns metadata of all evidence stored for a report.
func (s *EvidenceService) ListByReport(ctx context.Context, reportID string) ([]models.Evidence, error) {
	items, err := s.repo.ListByReport(ctx, reportID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list evidence")
	}
	return items, nil
}

func (s *EvidenceService) discardBlob(ref string) {
	ctx, cancel := context.WithTimeout(context.Background(), s.cfg.Timeout)
	defer cancel()
	err := s.blobs.Delete(ctx, ref)
	if err == nil {
		return
	}
	s.logger.Warn("orphaned evidence blob", zap.String("key", ref), zap.Error(err))
	if s.queue != nil {
		if qErr := s.queue.Enqueue(jobs.Job{ID: ref, Kind: JobEvidenceCleanup, Payload: ref}); qErr != nil {
			s.logger.Error("evidence cleanup not scheduled", zap.String("key", ref), zap.Error(qErr))
		}
	}
}

func (s *EvidenceService) cleanupBlob(ctx context.Context, job jobs.Job) error {
	ref, ok := job.Payload.(string)
	if !ok {
		return fmt.Errorf("unexpected cleanup payload %T", job.Payload)
	}
	ctx, cancel := context.WithTimeout(ctx, s.cfg.Timeout)
	defer cancel()
	return s.blobs.Delete(ctx, ref)
}

var extPattern = regexp.MustCompile(`^\.[a-z0-9]{1,8}$`)

// evidenceExtension keeps a short alphanumeric suffix of the client filename, else derives one from the content type.
func evidenceExtension(filename, contentType string) string {
	ext := strings.ToLower(filepath.Ext(filename))
	if extPattern.MatchString(ext) {
		return ext
	}
	if exts, err := mime.ExtensionsByType(contentType); err == nil && len(exts) > 0 {
		return exts[0]
	}
	return ""
}

func storageError(err error, filename string) *appErrors.Error {
	return appErrors.Wrap(err, appErrors.ErrStorage.Code, appErrors.ErrStorage.Status, "failed to store evidence "+filepath.Base(filename))
}

func evidenceLookupError(err error) error {
	if errors.Is(err, sql.ErrNoRows) {
		return appErrors.Clone(appErrors.ErrNotFound, "evidence not found")
	}
	return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load evidence")
}
