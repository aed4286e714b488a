package service

import (
	"context"
	"encoding/json"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/noah-isme/hrm-case-api/internal/dto"
	"github.com/noah-isme/hrm-case-api/internal/models"
	appErrors "github.com/noah-isme/hrm-case-api/pkg/errors"
)

type mockAnalyticsRepo struct {
	mu           sync.Mutex
	caseCounts   []models.ViolationCount
	reportCounts []models.ViolationCount
	caseTimeline []models.TimelinePoint
	reportPoints []models.TimelinePoint
	caseGeo      []models.GeoPoint
	reportGeo    []models.GeoPoint
	reportErr    error
	calls        int
	lastFilter   models.AnalyticsFilter
	lastInterval models.TimelineInterval
}

func (m *mockAnalyticsRepo) record(filter models.AnalyticsFilter) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++
	m.lastFilter = filter
}

func (m *mockAnalyticsRepo) CaseViolationCounts(ctx context.Context, filter models.AnalyticsFilter) ([]models.ViolationCount, error) {
	m.record(filter)
	return m.caseCounts, nil
}

func (m *mockAnalyticsRepo) ReportViolationCounts(ctx context.Context, filter models.AnalyticsFilter) ([]models.ViolationCount, error) {
	m.record(filter)
	if m.reportErr != nil {
		return nil, m.reportErr
	}
	return m.reportCounts, nil
}

func (m *mockAnalyticsRepo) CaseTimeline(ctx context.Context, interval models.TimelineInterval, filter models.AnalyticsFilter) ([]models.TimelinePoint, error) {
	m.record(filter)
	m.mu.Lock()
	m.lastInterval = interval
	m.mu.Unlock()
	return m.caseTimeline, nil
}

func (m *mockAnalyticsRepo) ReportTimeline(ctx context.Context, interval models.TimelineInterval, filter models.AnalyticsFilter) ([]models.TimelinePoint, error) {
	m.record(filter)
	return m.reportPoints, nil
}

func (m *mockAnalyticsRepo) CaseGeoPoints(ctx context.Context, filter models.AnalyticsFilter) ([]models.GeoPoint, error) {
	m.record(filter)
	return m.caseGeo, nil
}

func (m *mockAnalyticsRepo) ReportGeoPoints(ctx context.Context, filter models.AnalyticsFilter) ([]models.GeoPoint, error) {
	m.record(filter)
	return m.reportGeo, nil
}

type stubCacheRepo struct {
	mu      sync.Mutex
	store   map[string][]byte
	deleted []string
}

func (s *stubCacheRepo) Get(_ context.Context, key string, dest interface{}) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	payload, ok := s.store[key]
	if !ok {
		return appErrors.ErrCacheMiss
	}
	return json.Unmarshal(payload, dest)
}

func (s *stubCacheRepo) Set(_ context.Context, key string, value interface{}, _ time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.store == nil {
		s.store = make(map[string][]byte)
	}
	payload, err := json.Marshal(value)
	if err != nil {
		return err
	}
	s.store[key] = payload
	return nil
}

func (s *stubCacheRepo) DeleteByPattern(_ context.Context, pattern string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	prefix := strings.TrimSuffix(pattern, "*")
	for key := range s.store {
		if strings.HasPrefix(key, prefix) {
			delete(s.store, key)
		}
	}
	s.deleted = append(s.deleted, pattern)
	return nil
}

func month(y int, m time.Month) time.Time {
	return time.Date(y, m, 1, 0, 0, 0, 0, time.UTC)
}

func TestAnalyticsViolationsMergeAndCache(t *testing.T) {
	repo := &mockAnalyticsRepo{
		caseCounts:   []models.ViolationCount{{ViolationType: "Torture", Count: 2}, {ViolationType: "Arbitrary Arrest", Count: 1}},
		reportCounts: []models.ViolationCount{{ViolationType: "Arbitrary Arrest", Count: 3}, {ViolationType: "Night Raids", Count: 2}},
	}
	cacheSvc := NewCacheService(&stubCacheRepo{}, nil, time.Minute, zap.NewNop(), true)
	svc := NewAnalyticsService(repo, cacheSvc, nil, zap.NewNop())
	ctx := context.Background()
	q := dto.AnalyticsQuery{Country: " Lebanon ", From: "2024-01-01"}

	counts, hit, err := svc.Violations(ctx, q, citizen)
	require.NoError(t, err)
	assert.False(t, hit)
	assert.Equal(t, []models.ViolationCount{
		{ViolationType: "Arbitrary Arrest", Count: 4},
		{ViolationType: "Night Raids", Count: 2},
		{ViolationType: "Torture", Count: 2},
	}, counts)
	assert.Equal(t, "Lebanon", repo.lastFilter.Country)
	require.NotNil(t, repo.lastFilter.From)
	assert.Equal(t, "2024-01-01", repo.lastFilter.From.String())
	assert.Equal(t, 2, repo.calls)

	cached, hit, err := svc.Violations(ctx, q, citizen)
	require.NoError(t, err)
	assert.True(t, hit)
	assert.Equal(t, counts, cached)
	assert.Equal(t, 2, repo.calls)

	cacheSvc.Invalidate(ctx, analyticsCachePattern)
	_, hit, err = svc.Violations(ctx, q, citizen)
	require.NoError(t, err)
	assert.False(t, hit)
	assert.Equal(t, 4, repo.calls)
}

func TestAnalyticsTimelineMergesBuckets(t *testing.T) {
	repo := &mockAnalyticsRepo{
		caseTimeline: []models.TimelinePoint{{Period: month(2024, 3), Count: 1}, {Period: month(2024, 1), Count: 2}},
		reportPoints: []models.TimelinePoint{{Period: month(2024, 3), Count: 4}},
	}
	svc := NewAnalyticsService(repo, nil, nil, nil)

	points, hit, err := svc.Timeline(context.Background(), dto.AnalyticsQuery{}, citizen)
	require.NoError(t, err)
	assert.False(t, hit)
	assert.Equal(t, models.IntervalMonth, repo.lastInterval)
	assert.Equal(t, []models.TimelinePoint{{Period: month(2024, 1), Count: 2}, {Period: month(2024, 3), Count: 5}}, points)

	_, _, err = svc.Timeline(context.Background(), dto.AnalyticsQuery{Interval: "WEEK"}, citizen)
	require.NoError(t, err)
	assert.Equal(t, models.IntervalWeek, repo.lastInterval)

	_, _, err = svc.Timeline(context.Background(), dto.AnalyticsQuery{Interval: "quarter"}, citizen)
	assert.True(t, appErrors.Is(err, appErrors.ErrValidation))
}

func TestAnalyticsGeoDataCombinesSources(t *testing.T) {
	repo := &mockAnalyticsRepo{
		caseGeo:   []models.GeoPoint{{ID: "case-1", SubjectType: models.SubjectCase, Longitude: 35.5, Latitude: 33.9}},
		reportGeo: []models.GeoPoint{{ID: "rep-1", SubjectType: models.SubjectReport, Longitude: 35.9, Latitude: 31.9}},
	}
	svc := NewAnalyticsService(repo, nil, nil, nil)

	points, _, err := svc.GeoData(context.Background(), dto.AnalyticsQuery{}, admin)
	require.NoError(t, err)
	require.Len(t, points, 2)
	assert.Equal(t, "case-1", points[0].ID)
	assert.Equal(t, "rep-1", points[1].ID)
}

func TestAnalyticsErrorsAndGuards(t *testing.T) {
	repo := &mockAnalyticsRepo{reportErr: assert.AnError}
	svc := NewAnalyticsService(repo, nil, nil, nil)
	ctx := context.Background()

	_, _, err := svc.Violations(ctx, dto.AnalyticsQuery{}, citizen)
	require.Error(t, err)
	assert.True(t, appErrors.Is(err, appErrors.ErrInternal))
	assert.ErrorIs(t, err, assert.AnError)

	_, _, err = svc.Violations(ctx, dto.AnalyticsQuery{}, nil)
	assert.True(t, appErrors.Is(err, appErrors.ErrUnauthorized))

	_, _, err = svc.GeoData(ctx, dto.AnalyticsQuery{From: "2024-05-01", To: "2024-04-01"}, citizen)
	assert.True(t, appErrors.Is(err, appErrors.ErrValidation))

	_, _, err = svc.GeoData(ctx, dto.AnalyticsQuery{From: "May 2024"}, citizen)
	assert.True(t, appErrors.Is(err, appErrors.ErrValidation))
}

func TestAnalyticsSystemMetricsAdminOnly(t *testing.T) {
	metrics := NewMetricsService()
	metrics.ReportSubmitted("witness", false)
	svc := NewAnalyticsService(&mockAnalyticsRepo{}, nil, metrics, nil)

	snapshot, err := svc.SystemMetrics(admin)
	require.NoError(t, err)
	assert.Equal(t, uint64(1), snapshot.ReportsSubmitted)

	_, err = svc.SystemMetrics(citizen)
	assert.True(t, appErrors.Is(err, appErrors.ErrForbidden))
}

func TestMakeAnalyticsCacheKey(t *testing.T) {
	key := makeAnalyticsCacheKey("violations", filterKeyParts(models.AnalyticsFilter{Country: "Lebanon"})...)
	assert.Equal(t, "analytics:violations:country=lebanon:from=:to=", key)
	assert.True(t, strings.HasPrefix(makeAnalyticsCacheKey("x", "a:b"), "analytics:x:a|b"))
}
