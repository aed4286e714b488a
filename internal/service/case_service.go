package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/leebenson/conform"
	"go.uber.org/zap"

	"github.com/noah-isme/hrm-case-api/internal/dto"
	"github.com/noah-isme/hrm-case-api/internal/models"
	"github.com/noah-isme/hrm-case-api/internal/repository"
	appErrors "github.com/noah-isme/hrm-case-api/pkg/errors"
)

const (
	caseOriginDirect    = "direct"
	caseOriginPromotion = "promotion"
)

type caseStore interface {
	Create(ctx context.Context, c *models.Case) error
	PromoteFromReport(ctx context.Context, c *models.Case, reportID string) error
	GetByID(ctx context.Context, id string) (*models.Case, error)
	List(ctx context.Context, filter models.CaseFilter) ([]models.Case, int, error)
	Update(ctx context.Context, id string, patch models.CasePatch, at time.Time) (*models.Case, error)
	Archive(ctx context.Context, id string, at time.Time) (*models.Case, error)
}

type caseReportStore interface {
	GetByID(ctx context.Context, id string) (*models.IncidentReport, error)
	ArchiveApproved(ctx context.Context, id string, at time.Time) error
}

type caseEvidenceStore interface {
	ListByIDs(ctx context.Context, ids []string) ([]models.Evidence, error)
}

type labelResolver interface {
	Resolve(ctx context.Context, terms []string) (models.ViolationLabels, error)
}

// CaseService registers cases directly or by promoting approved reports.
type CaseService struct {
	cases     caseStore
	reports   caseReportStore
	evidence  caseEvidenceStore
	labels    labelResolver
	history   historyRecorder
	cache     *CacheService
	metrics   *MetricsService
	validator *validator.Validate
	logger    *zap.Logger
	now       func() time.Time
}

// NewCaseService constructs a case service.
func NewCaseService(cases caseStore, reports caseReportStore, evidence caseEvidenceStore, labels labelResolver, history historyRecorder, cache *CacheService, metrics *MetricsService, validate *validator.Validate, logger *zap.Logger) *CaseService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CaseService{
		cases:     cases,
		reports:   reports,
		evidence:  evidence,
		labels:    labels,
		history:   history,
		cache:     cache,
		metrics:   metrics,
		validator: validate,
		logger:    logger,
		now:       time.Now,
	}
}

// CreateDirect registers a case that has no source report.
func (s *CaseService) CreateDirect(ctx context.Context, req dto.CreateCaseRequest, actor *models.JWTClaims) (*models.Case, error) {
	if err := Authorize(actor, CapManageCases); err != nil {
		return nil, err
	}
	if err := s.validate(&req); err != nil {
		return nil, err
	}
	occurred, err := parseDateParam("date_occurred", req.DateOccurred)
	if err != nil {
		return nil, err
	}
	reported, err := parseDateParam("date_reported", req.DateReported)
	if err != nil {
		return nil, err
	}
	if (req.Longitude == nil) != (req.Latitude == nil) {
		return nil, appErrors.Clone(appErrors.ErrValidation, "longitude and latitude must be given together")
	}
	labels, err := s.labels.Resolve(ctx, req.ViolationTypes)
	if err != nil {
		return nil, err
	}

	now := s.now().UTC()
	c := &models.Case{
		ID:                   uuid.NewString(),
		TitlePrimary:         req.TitlePrimary,
		TitleSecondary:       req.TitleSecondary,
		DescriptionPrimary:   req.DescriptionPrimary,
		DescriptionSecondary: req.DescriptionSecondary,
		ViolationTypes:       labels,
		Status:               models.CaseStatusNew,
		Priority:             priorityOrDefault(req.Priority),
		CountryPrimary:       req.CountryPrimary,
		CountrySecondary:     req.CountrySecondary,
		RegionPrimary:        req.RegionPrimary,
		RegionSecondary:      req.RegionSecondary,
		Longitude:            req.Longitude,
		Latitude:             req.Latitude,
		DateOccurred:         occurred,
		DateReported:         models.NewDate(now),
		Evidence:             models.EvidenceDescriptors{},
		CreatedBy:            actor.UserID,
		CreatedAt:            now,
		UpdatedAt:            now,
	}
	if reported != nil {
		c.DateReported = *reported
	}
	c.FlagAnomalies()

	if err := s.cases.Create(ctx, c); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create case")
	}
	s.afterCreate(ctx, c, caseOriginDirect, nil)
	return c, nil
}

// PromoteFromReport turns an approved report into a case. A report is promoted at most once.
func (s *CaseService) PromoteFromReport(ctx context.Context, reportID string, req dto.PromoteCaseRequest, actor *models.JWTClaims) (*models.Case, error) {
	if err := Authorize(actor, CapManageCases); err != nil {
		return nil, err
	}
	if err := s.validate(&req); err != nil {
		return nil, err
	}

	report, err := s.reports.GetByID(ctx, reportID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "report not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load report")
	}
	if report.Status != models.ReportStatusApproved {
		return nil, appErrors.Clone(appErrors.ErrInvalidTransition, "only approved reports can be promoted; report is "+string(report.Status))
	}
	if report.CaseID != nil {
		return nil, appErrors.Clone(appErrors.ErrInvalidTransition, "report already promoted to case "+*report.CaseID)
	}

	labels, err := s.labels.Resolve(ctx, report.ViolationTypes)
	if err != nil {
		return nil, err
	}
	descriptors, err := s.evidenceDescriptors(ctx, report.EvidenceRefs)
	if err != nil {
		return nil, err
	}

	now := s.now().UTC()
	c := &models.Case{
		ID:                 uuid.NewString(),
		TitlePrimary:       req.TitlePrimary,
		TitleSecondary:     req.TitleSecondary,
		DescriptionPrimary: report.Description,
		ViolationTypes:     labels,
		Status:             models.CaseStatusNew,
		Priority:           priorityOrDefault(req.Priority),
		CountryPrimary:     report.Country,
		CountrySecondary:   req.CountrySecondary,
		RegionPrimary:      req.RegionPrimary,
		RegionSecondary:    req.RegionSecondary,
		Longitude:          report.Longitude,
		Latitude:           report.Latitude,
		DateOccurred:       report.IncidentDate,
		DateReported:       models.NewDate(report.CreatedAt),
		Evidence:           descriptors,
		CreatedBy:          actor.UserID,
		CreatedAt:          now,
		UpdatedAt:          now,
	}
	if c.TitlePrimary == "" {
		c.TitlePrimary = promotedTitle(labels, report.Country)
	}
	c.FlagAnomalies()

	if err := s.cases.PromoteFromReport(ctx, c, reportID); err != nil {
		if errors.Is(err, repository.ErrReportNotPromotable) {
			return nil, appErrors.Clone(appErrors.ErrInvalidTransition, "report was promoted concurrently or is no longer approved")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to promote report")
	}
	note := "promoted from report " + reportID
	s.afterCreate(ctx, c, caseOriginPromotion, &note)
	return c, nil
}

// Update applies a shallow patch. History is written only when the status changes.
// Archived cases are frozen; a status move must be allowed by CaseStatus.CanTransition.
func (s *CaseService) Update(ctx context.Context, id string, req dto.UpdateCaseRequest, actor *models.JWTClaims) (*models.Case, error) {
	if err := Authorize(actor, CapManageCases); err != nil {
		return nil, err
	}
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid case update")
	}
	patch, err := s.buildPatch(ctx, req)
	if err != nil {
		return nil, err
	}
	if patch.IsEmpty() {
		return nil, appErrors.Clone(appErrors.ErrValidation, "no fields to update")
	}

	current, err := s.cases.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "case not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load case")
	}
	if current.Status == models.CaseStatusArchived {
		return nil, appErrors.Clone(appErrors.ErrInvalidTransition, "archived cases cannot be modified")
	}
	if patch.Status != nil && !current.Status.CanTransition(*patch.Status) {
		return nil, appErrors.Clone(appErrors.ErrInvalidTransition,
			fmt.Sprintf("case cannot move from %s to %s", current.Status, *patch.Status))
	}

	now := s.now().UTC()
	c, err := s.cases.Update(ctx, id, patch, now)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrInvalidTransition, "case was archived or removed during the update")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update case")
	}
	if patch.Status != nil && *patch.Status != current.Status {
		s.history.Record(ctx, models.SubjectCase, id, string(*patch.Status), nil, actor.UserID, now)
	}
	s.cache.Invalidate(ctx, analyticsCachePattern)
	return c, nil
}

// Archive sets the case to archived. Repeating it is allowed and logged each time.
// The source report, if any, moves from approved to archived.
func (s *CaseService) Archive(ctx context.Context, id string, actor *models.JWTClaims) (*models.Case, error) {
	if err := Authorize(actor, CapManageCases); err != nil {
		return nil, err
	}
	now := s.now().UTC()
	c, err := s.cases.Archive(ctx, id, now)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "case not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to archive case")
	}
	s.history.Record(ctx, models.SubjectCase, id, string(models.CaseStatusArchived), nil, actor.UserID, now)

	if c.SourceReportID != nil {
		reportID := *c.SourceReportID
		switch err := s.reports.ArchiveApproved(ctx, reportID, now); {
		case err == nil:
			s.history.Record(ctx, models.SubjectReport, reportID, string(models.ReportStatusArchived), nil, actor.UserID, now)
		case errors.Is(err, sql.ErrNoRows):
		default:
			s.logger.Warn("source report not archived", zap.String("case_id", id), zap.String("report_id", reportID), zap.Error(err))
		}
	}
	s.cache.Invalidate(ctx, analyticsCachePattern)
	return c, nil
}

// List returns one page of cases.
func (s *CaseService) List(ctx context.Context, q dto.CaseQuery, actor *models.JWTClaims) (*dto.CaseList, error) {
	if err := Authorize(actor, CapViewCases); err != nil {
		return nil, err
	}
	filter, err := caseFilter(q)
	if err != nil {
		return nil, err
	}
	cases, total, err := s.cases.List(ctx, filter)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list cases")
	}
	if cases == nil {
		cases = []models.Case{}
	}
	return &dto.CaseList{Items: cases, Pagination: pagination(q.Page, q.PageSize, total)}, nil
}

// Get returns one case.
func (s *CaseService) Get(ctx context.Context, id string, actor *models.JWTClaims) (*models.Case, error) {
	if err := Authorize(actor, CapViewCases); err != nil {
		return nil, err
	}
	c, err := s.cases.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "case not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load case")
	}
	return c, nil
}

// History returns the status changes of one case.
func (s *CaseService) History(ctx context.Context, id string, actor *models.JWTClaims) ([]models.StatusHistoryEntry, error) {
	if _, err := s.Get(ctx, id, actor); err != nil {
		return nil, err
	}
	entries, err := s.history.List(ctx, models.SubjectCase, id)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load case history")
	}
	if entries == nil {
		entries = []models.StatusHistoryEntry{}
	}
	return entries, nil
}

func (s *CaseService) afterCreate(ctx context.Context, c *models.Case, origin string, note *string) {
	s.history.Record(ctx, models.SubjectCase, c.ID, string(c.Status), note, c.CreatedBy, c.CreatedAt)
	s.metrics.CaseCreated(origin)
	s.cache.Invalidate(ctx, analyticsCachePattern)
	s.logger.Info("case registered", zap.String("case_id", c.ID), zap.String("case_code", c.CaseCode), zap.String("origin", origin))
}

func (s *CaseService) validate(req interface{}) error {
	if err := conform.Strings(req); err != nil {
		return appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid case payload")
	}
	if err := s.validator.Struct(req); err != nil {
		return appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid case payload")
	}
	return nil
}

func (s *CaseService) buildPatch(ctx context.Context, req dto.UpdateCaseRequest) (models.CasePatch, error) {
	patch := models.CasePatch{
		TitlePrimary:         req.TitlePrimary,
		TitleSecondary:       req.TitleSecondary,
		DescriptionPrimary:   req.DescriptionPrimary,
		DescriptionSecondary: req.DescriptionSecondary,
		Status:               req.Status,
		Priority:             req.Priority,
		CountryPrimary:       req.CountryPrimary,
		CountrySecondary:     req.CountrySecondary,
		RegionPrimary:        req.RegionPrimary,
		RegionSecondary:      req.RegionSecondary,
		Longitude:            req.Longitude,
		Latitude:             req.Latitude,
	}
	if (req.Longitude == nil) != (req.Latitude == nil) {
		return patch, appErrors.Clone(appErrors.ErrValidation, "longitude and latitude must be given together")
	}
	if req.DateOccurred != nil {
		d, err := parseDateParam("date_occurred", *req.DateOccurred)
		if err != nil {
			return patch, err
		}
		if d == nil {
			return patch, appErrors.Clone(appErrors.ErrValidation, "date_occurred cannot be cleared")
		}
		patch.DateOccurred = d
	}
	if req.ViolationTypes != nil {
		labels, err := s.labels.Resolve(ctx, req.ViolationTypes)
		if err != nil {
			return patch, err
		}
		patch.ViolationTypes = &labels
	}
	return patch, nil
}

func (s *CaseService) evidenceDescriptors(ctx context.Context, refs []string) (models.EvidenceDescriptors, error) {
	descriptors := models.EvidenceDescriptors{}
	if len(refs) == 0 {
		return descriptors, nil
	}
	items, err := s.evidence.ListByIDs(ctx, refs)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load report evidence")
	}
	for _, ev := range items {
		descriptors = append(descriptors, models.EvidenceDescriptor{
			EvidenceID:  ev.ID,
			Filename:    ev.Filename,
			ContentType: ev.ContentType,
			CapturedAt:  ev.CapturedAt,
			UploadedAt:  ev.UploadedAt,
		})
	}
	return descriptors, nil
}

func caseFilter(q dto.CaseQuery) (models.CaseFilter, error) {
	if err := conform.Strings(&q); err != nil {
		return models.CaseFilter{}, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid case query")
	}
	filter := models.CaseFilter{Country: q.Country, ViolationType: q.ViolationType, Page: q.Page, PageSize: q.PageSize}
	if q.Status != "" {
		status := models.CaseStatus(q.Status)
		switch status {
		case models.CaseStatusNew, models.CaseStatusUnderInvestigation, models.CaseStatusResolved, models.CaseStatusArchived:
			filter.Status = &status
		default:
			return filter, appErrors.Clone(appErrors.ErrValidation, "unknown case status "+q.Status)
		}
	}
	from, err := parseDateParam("occurred_from", q.OccurredFrom)
	if err != nil {
		return filter, err
	}
	to, err := parseDateParam("occurred_to", q.OccurredTo)
	if err != nil {
		return filter, err
	}
	if err := checkDateRange(from, to); err != nil {
		return filter, err
	}
	filter.OccurredFrom, filter.OccurredTo = from, to
	return filter, nil
}

func priorityOrDefault(p models.CasePriority) models.CasePriority {
	if p == "" {
		return models.CasePriorityMedium
	}
	return p
}

func promotedTitle(labels models.ViolationLabels, country string) string {
	subject := "Reported incident"
	if len(labels) > 0 {
		subject = labels[0].Primary
	}
	if country == "" {
		return subject
	}
	return fmt.Sprintf("%s in %s", subject, country)
}
