package service

import (
	"context"
	"fmt"
	"mime"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/leebenson/conform"
	"github.com/lib/pq"
	"go.uber.org/zap"

	"github.com/noah-isme/hrm-case-api/internal/dto"
	"github.com/noah-isme/hrm-case-api/internal/models"
	appErrors "github.com/noah-isme/hrm-case-api/pkg/errors"
	"github.com/noah-isme/hrm-case-api/pkg/geocode"
)

type intakeReportStore interface {
	Create(ctx context.Context, report *models.IncidentReport) error
	AttachEvidence(ctx context.Context, id string, refs []string, at time.Time) error
}

type locationResolver interface {
	Lookup(ctx context.Context, text string) (*geocode.Result, error)
}

type evidenceStorer interface {
	Store(ctx context.Context, reportID string, upload EvidenceUpload) (*models.Evidence, error)
}

// IntakeConfig governs what submissions are accepted.
type IntakeConfig struct {
	AllowAnonymous bool
	MaxFileSize    int64
	AllowedMIMEs   []string
	GeocodeTimeout time.Duration
}

// IntakeService accepts incident reports with their evidence.
type IntakeService struct {
	reports   intakeReportStore
	evidence  evidenceStorer
	geocoder  locationResolver
	validator *validator.Validate
	metrics   *MetricsService
	logger    *zap.Logger
	cfg       IntakeConfig
	allowed   map[string]struct{}
	now       func() time.Time
}

// NewIntakeService constructs the intake service; geocoder may be nil to disable lookups.
func NewIntakeService(reports intakeReportStore, evidence evidenceStorer, geocoder locationResolver, validate *validator.Validate, metrics *MetricsService, logger *zap.Logger, cfg IntakeConfig) *IntakeService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.GeocodeTimeout <= 0 {
		cfg.GeocodeTimeout = 10 * time.Second
	}
	allowed := make(map[string]struct{}, len(cfg.AllowedMIMEs))
	for _, m := range cfg.AllowedMIMEs {
		allowed[strings.ToLower(strings.TrimSpace(m))] = struct{}{}
	}
	return &IntakeService{
		reports:   reports,
		evidence:  evidence,
		geocoder:  geocoder,
		validator: validate,
		metrics:   metrics,
		logger:    logger,
		cfg:       cfg,
		allowed:   allowed,
		now:       time.Now,
	}
}

// Submit validates and stores a report as new and pending, then stores its evidence.
// When some files fail the persisted report is returned together with a STORAGE_ERROR.
func (s *IntakeService) Submit(ctx context.Context, req dto.SubmitReportRequest, files []EvidenceUpload, actor *models.JWTClaims) (*models.IncidentReport, error) {
	createdBy, err := s.submitter(actor)
	if err != nil {
		return nil, err
	}
	if err := conform.Strings(&req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid report payload")
	}
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid report payload")
	}
	if err := s.checkFiles(files); err != nil {
		return nil, err
	}

	now := s.now().UTC()
	report := &models.IncidentReport{
		ID:              uuid.NewString(),
		ReporterType:    req.ReporterType,
		Anonymous:       req.Anonymous || req.ReporterType == models.ReporterAnonymous,
		IncidentDate:    models.ParseOptionalDate(req.IncidentDate),
		ViolationTypes:  pq.StringArray(normalizeTerms(req.ViolationTypes)),
		Description:     req.Description,
		CreatedBy:       createdBy,
		Status:          models.ReportStatusNew,
		PendingApproval: true,
		EvidenceRefs:    pq.StringArray{},
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	if report.Anonymous {
		report.CreatedBy = models.AnonymousSubmitter
		if req.Pseudonym != "" {
			pseudonym := req.Pseudonym
			report.Pseudonym = &pseudonym
		}
	} else if len(req.ContactInfo) > 0 {
		report.ContactInfo = models.ContactInfo(req.ContactInfo)
	}
	s.locate(ctx, report, req.LocationText)

	if err := report.Validate(); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "report failed integrity check")
	}
	if err := s.reports.Create(ctx, report); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create report")
	}
	s.metrics.ReportSubmitted(report.ReporterType, report.Anonymous)

	refs, failed := s.storeEvidence(ctx, report.ID, files)
	if len(refs) > 0 {
		if err := s.reports.AttachEvidence(ctx, report.ID, refs, s.now().UTC()); err != nil {
			s.logger.Error("evidence stored but not linked", zap.String("report_id", report.ID), zap.Strings("evidence_ids", refs), zap.Error(err))
			return report, appErrors.Wrap(err, appErrors.ErrStorage.Code, appErrors.ErrStorage.Status, "evidence stored but could not be linked to the report")
		}
		report.EvidenceRefs = pq.StringArray(refs)
	}
	if len(failed) > 0 {
		s.metrics.EvidenceFailed(len(failed))
		return report, appErrors.Clone(appErrors.ErrStorage,
			fmt.Sprintf("%d of %d evidence files failed to store: %s", len(failed), len(files), strings.Join(failed, ", ")))
	}
	return report, nil
}

func (s *IntakeService) submitter(actor *models.JWTClaims) (string, error) {
	if actor == nil {
		if !s.cfg.AllowAnonymous {
			return "", appErrors.Clone(appErrors.ErrUnauthorized, "authentication required to submit reports")
		}
		return models.AnonymousSubmitter, nil
	}
	if err := Authorize(actor, CapSubmitReport); err != nil {
		return "", err
	}
	return actor.UserID, nil
}

func (s *IntakeService) checkFiles(files []EvidenceUpload) error {
	if len(files) > models.MaxEvidencePerReport {
		return appErrors.Clone(appErrors.ErrValidation,
			fmt.Sprintf("at most %d evidence files per report, got %d", models.MaxEvidencePerReport, len(files)))
	}
	for i := range files {
		f := &files[i]
		if f.Size <= 0 {
			return appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("evidence file %q is empty", f.Filename))
		}
		if s.cfg.MaxFileSize > 0 && f.Size > s.cfg.MaxFileSize {
			return appErrors.Clone(appErrors.ErrValidation,
				fmt.Sprintf("evidence file %q exceeds %d bytes", f.Filename, s.cfg.MaxFileSize))
		}
		mediaType, _, err := mime.ParseMediaType(f.ContentType)
		if err != nil {
			return appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("evidence file %q has no valid content type", f.Filename))
		}
		if len(s.allowed) > 0 {
			if _, ok := s.allowed[mediaType]; !ok {
				return appErrors.Clone(appErrors.ErrValidation,
					fmt.Sprintf("evidence file %q has unsupported type %s", f.Filename, mediaType))
			}
		}
		f.ContentType = mediaType
	}
	return nil
}

// locate fills country and coordinates; lookup failures fall back to the raw text.
func (s *IntakeService) locate(ctx context.Context, report *models.IncidentReport, text string) {
	report.Country = text
	if text == "" || s.geocoder == nil {
		return
	}
	ctx, cancel := context.WithTimeout(ctx, s.cfg.GeocodeTimeout)
	defer cancel()
	result, err := s.geocoder.Lookup(ctx, text)
	if err != nil || result == nil {
		if err != nil {
			s.logger.Warn("geocoding failed, keeping raw location", zap.String("location", text), zap.Error(err))
		}
		report.CountryCode = geocode.CountryCode(text)
		s.metrics.GeocodeFallback()
		return
	}
	if result.Country != "" {
		report.Country = result.Country
	}
	report.CountryCode = result.CountryCode
	lon, lat := result.Longitude, result.Latitude
	report.Longitude, report.Latitude = &lon, &lat
}

func (s *IntakeService) storeEvidence(ctx context.Context, reportID string, files []EvidenceUpload) ([]string, []string) {
	var refs, failed []string
	for _, f := range files {
		ev, err := s.evidence.Store(ctx, reportID, f)
		if err != nil {
			s.logger.Warn("evidence file not stored", zap.String("report_id", reportID), zap.String("filename", f.Filename), zap.Error(err))
			failed = append(failed, f.Filename)
			continue
		}
		refs = append(refs, ev.ID)
	}
	return refs, failed
}

// normalizeTerms trims, drops empties and de-duplicates while keeping order.
func normalizeTerms(terms []string) []string {
	out := make([]string, 0, len(terms))
	seen := make(map[string]struct{}, len(terms))
	for _, t := range terms {
		t = strings.TrimSpace(t)
		if t == "" {
			continue
		}
		key := strings.ToLower(t)
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, t)
	}
	return out
}
