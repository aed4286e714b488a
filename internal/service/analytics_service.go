package service

import (
	"context"
	"sort"
	"strings"
	"time"

	"github.com/leebenson/conform"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/noah-isme/hrm-case-api/internal/dto"
	"github.com/noah-isme/hrm-case-api/internal/models"
	appErrors "github.com/noah-isme/hrm-case-api/pkg/errors"
)

// analyticsCachePattern matches every cached analytics payload.
const analyticsCachePattern = "analytics:*"

// AnalyticsRepository describes the aggregate queries required by AnalyticsService.
type AnalyticsRepository interface {
	CaseViolationCounts(ctx context.Context, filter models.AnalyticsFilter) ([]models.ViolationCount, error)
	ReportViolationCounts(ctx context.Context, filter models.AnalyticsFilter) ([]models.ViolationCount, error)
	CaseTimeline(ctx context.Context, interval models.TimelineInterval, filter models.AnalyticsFilter) ([]models.TimelinePoint, error)
	ReportTimeline(ctx context.Context, interval models.TimelineInterval, filter models.AnalyticsFilter) ([]models.TimelinePoint, error)
	CaseGeoPoints(ctx context.Context, filter models.AnalyticsFilter) ([]models.GeoPoint, error)
	ReportGeoPoints(ctx context.Context, filter models.AnalyticsFilter) ([]models.GeoPoint, error)
}

// AnalyticsService merges case and published report aggregates with cache integration.
type AnalyticsService struct {
	repo    AnalyticsRepository
	cache   *CacheService
	metrics *MetricsService
	logger  *zap.Logger
}

// NewAnalyticsService constructs an analytics service.
func NewAnalyticsService(repo AnalyticsRepository, cache *CacheService, metrics *MetricsService, logger *zap.Logger) *AnalyticsService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AnalyticsService{repo: repo, cache: cache, metrics: metrics, logger: logger}
}

// Violations counts incidents per violation type. The boolean indicates whether data originated from cache.
func (s *AnalyticsService) Violations(ctx context.Context, q dto.AnalyticsQuery, actor *models.JWTClaims) ([]models.ViolationCount, bool, error) {
	filter, err := s.prepare(actor, &q)
	if err != nil {
		return nil, false, err
	}
	cacheKey := makeAnalyticsCacheKey("violations", filterKeyParts(filter)...)
	var cached []models.ViolationCount
	if s.cache.Get(ctx, cacheKey, &cached) {
		return cached, true, nil
	}

	var fromCases, fromReports []models.ViolationCount
	err = s.both(ctx, "analytics_violations",
		func(ctx context.Context) (err error) {
			fromCases, err = s.repo.CaseViolationCounts(ctx, filter)
			return err
		},
		func(ctx context.Context) (err error) {
			fromReports, err = s.repo.ReportViolationCounts(ctx, filter)
			return err
		},
	)
	if err != nil {
		return nil, false, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to count violations")
	}

	merged := mergeViolationCounts(fromCases, fromReports)
	s.cache.Set(ctx, cacheKey, merged, 0)
	return merged, false, nil
}

// Timeline buckets incidents by day, week, month or year. Month is the default interval.
func (s *AnalyticsService) Timeline(ctx context.Context, q dto.AnalyticsQuery, actor *models.JWTClaims) ([]models.TimelinePoint, bool, error) {
	filter, err := s.prepare(actor, &q)
	if err != nil {
		return nil, false, err
	}
	interval := models.TimelineInterval(strings.ToLower(q.Interval))
	if interval == "" {
		interval = models.IntervalMonth
	}
	if !interval.Valid() {
		return nil, false, appErrors.Clone(appErrors.ErrValidation, "interval must be one of day, week, month, year")
	}
	cacheKey := makeAnalyticsCacheKey("timeline", append([]string{string(interval)}, filterKeyParts(filter)...)...)
	var cached []models.TimelinePoint
	if s.cache.Get(ctx, cacheKey, &cached) {
		return cached, true, nil
	}

	var fromCases, fromReports []models.TimelinePoint
	err = s.both(ctx, "analytics_timeline",
		func(ctx context.Context) (err error) {
			fromCases, err = s.repo.CaseTimeline(ctx, interval, filter)
			return err
		},
		func(ctx context.Context) (err error) {
			fromReports, err = s.repo.ReportTimeline(ctx, interval, filter)
			return err
		},
	)
	if err != nil {
		return nil, false, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to build timeline")
	}

	merged := mergeTimeline(fromCases, fromReports)
	s.cache.Set(ctx, cacheKey, merged, 0)
	return merged, false, nil
}

// GeoData returns located cases and published reports for map rendering.
func (s *AnalyticsService) GeoData(ctx context.Context, q dto.AnalyticsQuery, actor *models.JWTClaims) ([]models.GeoPoint, bool, error) {
	filter, err := s.prepare(actor, &q)
	if err != nil {
		return nil, false, err
	}
	cacheKey := makeAnalyticsCacheKey("geodata", filterKeyParts(filter)...)
	var cached []models.GeoPoint
	if s.cache.Get(ctx, cacheKey, &cached) {
		return cached, true, nil
	}

	var fromCases, fromReports []models.GeoPoint
	err = s.both(ctx, "analytics_geodata",
		func(ctx context.Context) (err error) {
			fromCases, err = s.repo.CaseGeoPoints(ctx, filter)
			return err
		},
		func(ctx context.Context) (err error) {
			fromReports, err = s.repo.ReportGeoPoints(ctx, filter)
			return err
		},
	)
	if err != nil {
		return nil, false, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load geodata")
	}

	points := make([]models.GeoPoint, 0, len(fromCases)+len(fromReports))
	points = append(points, fromCases...)
	points = append(points, fromReports...)
	s.cache.Set(ctx, cacheKey, points, 0)
	return points, false, nil
}

// SystemMetrics returns system instrumentation snapshot. Admin only.
func (s *AnalyticsService) SystemMetrics(actor *models.JWTClaims) (models.AnalyticsSystemMetrics, error) {
	if err := Authorize(actor, CapViewAnalytics); err != nil {
		return models.AnalyticsSystemMetrics{}, err
	}
	if !isAdmin(actor) {
		return models.AnalyticsSystemMetrics{}, appErrors.Clone(appErrors.ErrForbidden, "system metrics are restricted to admins")
	}
	return s.metrics.Snapshot(), nil
}

func (s *AnalyticsService) prepare(actor *models.JWTClaims, q *dto.AnalyticsQuery) (models.AnalyticsFilter, error) {
	if err := Authorize(actor, CapViewAnalytics); err != nil {
		return models.AnalyticsFilter{}, err
	}
	if err := conform.Strings(q); err != nil {
		return models.AnalyticsFilter{}, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid analytics query")
	}
	from, err := parseDateParam("from", q.From)
	if err != nil {
		return models.AnalyticsFilter{}, err
	}
	to, err := parseDateParam("to", q.To)
	if err != nil {
		return models.AnalyticsFilter{}, err
	}
	if err := checkDateRange(from, to); err != nil {
		return models.AnalyticsFilter{}, err
	}
	return models.AnalyticsFilter{Country: q.Country, From: from, To: to}, nil
}

// both runs the case and report halves of an aggregate concurrently.
func (s *AnalyticsService) both(ctx context.Context, label string, cases, reports func(context.Context) error) error {
	start := time.Now()
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return cases(gctx) })
	g.Go(func() error { return reports(gctx) })
	err := g.Wait()
	s.metrics.ObserveDBQuery(label, time.Since(start))
	if err != nil {
		s.logger.Error("analytics query failed", zap.String("query", label), zap.Error(err))
	}
	return err
}

func mergeViolationCounts(sets ...[]models.ViolationCount) []models.ViolationCount {
	totals := make(map[string]int)
	for _, set := range sets {
		for _, c := range set {
			totals[c.ViolationType] += c.Count
		}
	}
	merged := make([]models.ViolationCount, 0, len(totals))
	for name, count := range totals {
		merged = append(merged, models.ViolationCount{ViolationType: name, Count: count})
	}
	sort.Slice(merged, func(i, j int) bool {
		if merged[i].Count != merged[j].Count {
			return merged[i].Count > merged[j].Count
		}
		return merged[i].ViolationType < merged[j].ViolationType
	})
	return merged
}

func mergeTimeline(sets ...[]models.TimelinePoint) []models.TimelinePoint {
	totals := make(map[time.Time]int)
	for _, set := range sets {
		for _, p := range set {
			totals[p.Period.UTC()] += p.Count
		}
	}
	merged := make([]models.TimelinePoint, 0, len(totals))
	for period, count := range totals {
		merged = append(merged, models.TimelinePoint{Period: period, Count: count})
	}
	sort.Slice(merged, func(i, j int) bool { return merged[i].Period.Before(merged[j].Period) })
	return merged
}

func filterKeyParts(f models.AnalyticsFilter) []string {
	return []string{"country=" + strings.ToLower(f.Country), "from=" + formatDate(f.From), "to=" + formatDate(f.To)}
}

func makeAnalyticsCacheKey(kind string, parts ...string) string {
	var builder strings.Builder
	builder.Grow((len(parts) + 1) * 16)
	builder.WriteString("analytics:")
	builder.WriteString(kind)
	for _, part := range parts {
		builder.WriteByte(':')
		builder.WriteString(strings.ReplaceAll(part, ":", "|"))
	}
	return builder.String()
}

func formatDate(d *models.Date) string {
	if d == nil {
		return ""
	}
	return d.String()
}
