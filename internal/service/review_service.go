package service

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/leebenson/conform"
	"go.uber.org/zap"

	"github.com/noah-isme/hrm-case-api/internal/dto"
	"github.com/noah-isme/hrm-case-api/internal/models"
	"github.com/noah-isme/hrm-case-api/internal/repository"
	appErrors "github.com/noah-isme/hrm-case-api/pkg/errors"
)

type reviewReportStore interface {
	GetByID(ctx context.Context, id string) (*models.IncidentReport, error)
	List(ctx context.Context, filter models.ReportFilter) ([]models.IncidentReport, int, error)
	Decide(ctx context.Context, decision repository.ReportDecision) error
	StartReview(ctx context.Context, id string, at time.Time) error
}

type historyRecorder interface {
	Record(ctx context.Context, subjectType models.SubjectType, subjectID, newStatus string, comment *string, changedBy string, at time.Time)
	List(ctx context.Context, subjectType models.SubjectType, subjectID string) ([]models.StatusHistoryEntry, error)
}

// ReviewService moves reports through the admin review workflow.
type ReviewService struct {
	reports   reviewReportStore
	history   historyRecorder
	cache     *CacheService
	metrics   *MetricsService
	validator *validator.Validate
	logger    *zap.Logger
	now       func() time.Time
}

// NewReviewService constructs a review service.
func NewReviewService(reports reviewReportStore, history historyRecorder, cache *CacheService, metrics *MetricsService, validate *validator.Validate, logger *zap.Logger) *ReviewService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ReviewService{reports: reports, history: history, cache: cache, metrics: metrics, validator: validate, logger: logger, now: time.Now}
}

// Decide approves or rejects a pending report. Concurrent decisions on one report succeed at most once.
func (s *ReviewService) Decide(ctx context.Context, reportID string, req dto.DecideReportRequest, actor *models.JWTClaims) (*models.IncidentReport, error) {
	if err := Authorize(actor, CapReviewReports); err != nil {
		return nil, err
	}
	if err := conform.Strings(&req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid decision payload")
	}
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "decision must be approved or rejected")
	}

	report, err := s.load(ctx, reportID)
	if err != nil {
		return nil, err
	}
	if !report.Status.IsPending() {
		return nil, appErrors.Clone(appErrors.ErrInvalidTransition, "report "+reportID+" is already "+string(report.Status))
	}

	var comment *string
	if req.Decision == models.ReportStatusRejected && req.Comment != "" {
		c := req.Comment
		comment = &c
	}
	now := s.now().UTC()
	err = s.reports.Decide(ctx, repository.ReportDecision{ID: reportID, Status: req.Decision, Comment: comment, DecidedAt: now})
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrInvalidTransition, "report "+reportID+" was decided concurrently")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to record decision")
	}

	report.Status = req.Decision
	report.PendingApproval = false
	report.RejectionComment = comment
	report.UpdatedAt = now

	var historyComment *string
	if req.Comment != "" {
		historyComment = &req.Comment
	}
	s.history.Record(ctx, models.SubjectReport, reportID, string(req.Decision), historyComment, actor.UserID, now)
	s.metrics.ReportDecided(req.Decision)
	if req.Decision == models.ReportStatusApproved {
		s.cache.Invalidate(ctx, analyticsCachePattern)
	}
	s.logger.Info("report decided", zap.String("report_id", reportID), zap.String("decision", string(req.Decision)), zap.String("admin_id", actor.UserID))
	return report, nil
}

// StartReview marks a new report as under review.
func (s *ReviewService) StartReview(ctx context.Context, reportID string, actor *models.JWTClaims) (*models.IncidentReport, error) {
	if err := Authorize(actor, CapReviewReports); err != nil {
		return nil, err
	}
	report, err := s.load(ctx, reportID)
	if err != nil {
		return nil, err
	}
	if !report.Status.CanTransition(models.ReportStatusUnderReview) {
		return nil, appErrors.Clone(appErrors.ErrInvalidTransition, "report "+reportID+" is "+string(report.Status)+", not new")
	}
	now := s.now().UTC()
	if err := s.reports.StartReview(ctx, reportID, now); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrInvalidTransition, "report "+reportID+" is no longer new")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to start review")
	}
	report.Status = models.ReportStatusUnderReview
	report.UpdatedAt = now
	s.history.Record(ctx, models.SubjectReport, reportID, string(report.Status), nil, actor.UserID, now)
	return report, nil
}

// List returns reports visible to the actor. Only admins may list pending reports; others get contact info redacted.
func (s *ReviewService) List(ctx context.Context, q dto.ReportQuery, actor *models.JWTClaims) (*dto.ReportList, error) {
	if err := Authorize(actor, CapListReports); err != nil {
		return nil, err
	}
	admin := isAdmin(actor)
	if q.PendingOnly && !admin {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "only admins may list pending reports")
	}
	if err := conform.Strings(&q); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid report query")
	}

	filter := models.ReportFilter{Country: q.Country, Page: q.Page, PageSize: q.PageSize}
	if q.Status != "" {
		status := models.ReportStatus(q.Status)
		if !validReportStatus(status) {
			return nil, appErrors.Clone(appErrors.ErrValidation, "unknown report status "+q.Status)
		}
		filter.Status = &status
	}
	switch {
	case q.PendingOnly:
		pending := true
		filter.PendingApproval = &pending
	case !admin:
		pending := false
		filter.PendingApproval = &pending
	}

	from, err := parseDateParam("created_from", q.CreatedFrom)
	if err != nil {
		return nil, err
	}
	to, err := parseDateParam("created_to", q.CreatedTo)
	if err != nil {
		return nil, err
	}
	if err := checkDateRange(from, to); err != nil {
		return nil, err
	}
	if from != nil {
		start := from.Time
		filter.CreatedFrom = &start
	}
	if to != nil {
		end := endOfDay(*to)
		filter.CreatedTo = &end
	}

	reports, total, err := s.reports.List(ctx, filter)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list reports")
	}
	if !admin {
		for i := range reports {
			if reports[i].CreatedBy != actor.UserID {
				reports[i] = reports[i].Redacted()
			}
		}
	}
	if reports == nil {
		reports = []models.IncidentReport{}
	}
	return &dto.ReportList{Items: reports, Pagination: pagination(q.Page, q.PageSize, total)}, nil
}

// Get returns one report. Non-admins see decided reports and their own submissions.
func (s *ReviewService) Get(ctx context.Context, reportID string, actor *models.JWTClaims) (*models.IncidentReport, error) {
	if err := Authorize(actor, CapListReports); err != nil {
		return nil, err
	}
	report, err := s.load(ctx, reportID)
	if err != nil {
		return nil, err
	}
	if isAdmin(actor) || report.CreatedBy == actor.UserID {
		return report, nil
	}
	if report.PendingApproval {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "report not found")
	}
	redacted := report.Redacted()
	return &redacted, nil
}

// History returns the status changes of one report.
func (s *ReviewService) History(ctx context.Context, reportID string, actor *models.JWTClaims) ([]models.StatusHistoryEntry, error) {
	if err := Authorize(actor, CapReviewReports); err != nil {
		return nil, err
	}
	if _, err := s.load(ctx, reportID); err != nil {
		return nil, err
	}
	entries, err := s.history.List(ctx, models.SubjectReport, reportID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load report history")
	}
	if entries == nil {
		entries = []models.StatusHistoryEntry{}
	}
	return entries, nil
}

func (s *ReviewService) load(ctx context.Context, reportID string) (*models.IncidentReport, error) {
	report, err := s.reports.GetByID(ctx, reportID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "report not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load report")
	}
	return report, nil
}

func validReportStatus(status models.ReportStatus) bool {
	switch status {
	case models.ReportStatusNew, models.ReportStatusUnderReview, models.ReportStatusApproved,
		models.ReportStatusRejected, models.ReportStatusArchived:
		return true
	}
	return false
}
