package handler

import (
	"context"
	"errors"
	"io"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/hrm-case-api/internal/dto"
	"github.com/noah-isme/hrm-case-api/internal/models"
	"github.com/noah-isme/hrm-case-api/internal/service"
	appErrors "github.com/noah-isme/hrm-case-api/pkg/errors"
)

type caseServiceStub struct {
	found   *models.Case
	err     error
	gotID   string
	gotCase dto.CreateCaseRequest
}

func (s *caseServiceStub) CreateDirect(ctx context.Context, req dto.CreateCaseRequest, actor *models.JWTClaims) (*models.Case, error) {
	s.gotCase = req
	return s.found, s.err
}

func (s *caseServiceStub) Update(ctx context.Context, id string, req dto.UpdateCaseRequest, actor *models.JWTClaims) (*models.Case, error) {
	s.gotID = id
	return s.found, s.err
}

func (s *caseServiceStub) Archive(ctx context.Context, id string, actor *models.JWTClaims) (*models.Case, error) {
	s.gotID = id
	return s.found, s.err
}

func (s *caseServiceStub) List(ctx context.Context, q dto.CaseQuery, actor *models.JWTClaims) (*dto.CaseList, error) {
	return &dto.CaseList{Items: []models.Case{}}, s.err
}

func (s *caseServiceStub) Get(ctx context.Context, id string, actor *models.JWTClaims) (*models.Case, error) {
	s.gotID = id
	return s.found, s.err
}

func (s *caseServiceStub) History(ctx context.Context, id string, actor *models.JWTClaims) ([]models.StatusHistoryEntry, error) {
	return []models.StatusHistoryEntry{}, s.err
}

type exporterStub struct {
	gotFormat string
	gotQuery  dto.CaseQuery
	err       error
}

func (s *exporterStub) ExportCases(ctx context.Context, format string, q dto.CaseQuery, actor *models.JWTClaims) (*service.ExportFile, error) {
	s.gotFormat, s.gotQuery = format, q
	if s.err != nil {
		return nil, s.err
	}
	return &service.ExportFile{Filename: "cases_20240602_103000.csv", ContentType: "text/csv; charset=utf-8", Content: []byte("Case\nHRM-2024-0001\n"), Rows: 1}, nil
}

func TestCaseHandlerCreateAndErrors(t *testing.T) {
	svc := &caseServiceStub{found: &models.Case{ID: "case-1"}}
	h := NewCaseHandler(svc, &exporterStub{})

	c, w := newGinContext(http.MethodPost, "/cases", []byte(`{"title_primary":"Raid","country_primary":"Jordan"}`))
	h.Create(c)
	require.Equal(t, http.StatusCreated, w.Code)
	assert.Equal(t, "Raid", svc.gotCase.TitlePrimary)

	svc.err = appErrors.Clone(appErrors.ErrNotFound, "case not found")
	c, w = newGinContext(http.MethodPost, "/cases/missing/archive", nil)
	c.Params = gin.Params{{Key: "id", Value: "missing"}}
	h.Archive(c)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "missing", svc.gotID)
}

func TestCaseHandlerExport(t *testing.T) {
	exporter := &exporterStub{}
	h := NewCaseHandler(&caseServiceStub{}, exporter)

	c, w := newGinContext(http.MethodGet, "/cases/export?format=csv&country=Lebanon", nil)
	h.Export(c)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "csv", exporter.gotFormat)
	assert.Equal(t, "Lebanon", exporter.gotQuery.Country)
	assert.Contains(t, w.Header().Get("Content-Disposition"), "cases_20240602_103000.csv")
	assert.Equal(t, "1", w.Header().Get("X-Total-Count"))
	assert.True(t, strings.HasPrefix(w.Body.String(), "Case"))

	exporter.err = appErrors.Clone(appErrors.ErrForbidden, "no")
	c, w = newGinContext(http.MethodGet, "/cases/export", nil)
	h.Export(c)
	assert.Equal(t, http.StatusForbidden, w.Code)
}

type evidenceStub struct {
	link *models.EvidenceLink
	err  error
}

func (s *evidenceStub) Link(ctx context.Context, id string, actor *models.JWTClaims) (*models.EvidenceLink, error) {
	return s.link, s.err
}

func (s *evidenceStub) Download(ctx context.Context, token string) (*models.Evidence, io.ReadCloser, error) {
	if s.err != nil {
		return nil, nil, s.err
	}
	if token != "good" {
		return nil, nil, appErrors.Clone(appErrors.ErrUnauthorized, "invalid download token")
	}
	return &models.Evidence{ID: "ev-1", Filename: "photo.jpg", ContentType: "image/jpeg", SizeBytes: 4}, io.NopCloser(strings.NewReader("jpeg")), nil
}

func TestEvidenceHandlerDownload(t *testing.T) {
	h := NewEvidenceHandler(&evidenceStub{})

	c, w := newGinContext(http.MethodGet, "/evidence/download?token=good", nil)
	h.Download(c)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "jpeg", w.Body.String())
	assert.Equal(t, "image/jpeg", w.Header().Get("Content-Type"))
	assert.Contains(t, w.Header().Get("Content-Disposition"), `"photo.jpg"`)

	c, w = newGinContext(http.MethodGet, "/evidence/download?token=bad", nil)
	h.Download(c)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestEvidenceHandlerLink(t *testing.T) {
	expires := time.Date(2024, 3, 9, 12, 15, 0, 0, time.UTC)
	h := NewEvidenceHandler(&evidenceStub{link: &models.EvidenceLink{EvidenceID: "ev-1", URL: "/api/v1/evidence/download?token=t", ExpiresAt: expires}})

	c, w := newGinContext(http.MethodGet, "/evidence/ev-1/link", nil)
	c.Params = gin.Params{{Key: "id", Value: "ev-1"}}
	h.Link(c)
	require.Equal(t, http.StatusOK, w.Code)
	body := decodeEnvelope(t, w)
	assert.Equal(t, "/api/v1/evidence/download?token=t", body["data"].(map[string]interface{})["url"])
}

type analyticsStub struct {
	hit bool
	err error
}

func (s analyticsStub) Violations(ctx context.Context, q dto.AnalyticsQuery, actor *models.JWTClaims) ([]models.ViolationCount, bool, error) {
	return []models.ViolationCount{{ViolationType: "Torture", Count: 3}}, s.hit, s.err
}

func (s analyticsStub) Timeline(ctx context.Context, q dto.AnalyticsQuery, actor *models.JWTClaims) ([]models.TimelinePoint, bool, error) {
	return nil, s.hit, s.err
}

func (s analyticsStub) GeoData(ctx context.Context, q dto.AnalyticsQuery, actor *models.JWTClaims) ([]models.GeoPoint, bool, error) {
	return nil, s.hit, s.err
}

func (s analyticsStub) SystemMetrics(actor *models.JWTClaims) (models.AnalyticsSystemMetrics, error) {
	return models.AnalyticsSystemMetrics{}, s.err
}

func TestAnalyticsHandlerReportsCacheHit(t *testing.T) {
	h := NewAnalyticsHandler(analyticsStub{hit: true})

	c, w := newGinContext(http.MethodGet, "/analytics/violations?country=Lebanon", nil)
	h.Violations(c)
	require.Equal(t, http.StatusOK, w.Code)
	body := decodeEnvelope(t, w)
	assert.Equal(t, true, body["meta"].(map[string]interface{})["cache_hit"])

	h = NewAnalyticsHandler(analyticsStub{err: appErrors.Clone(appErrors.ErrValidation, "interval must be one of day, week, month, year")})
	c, w = newGinContext(http.MethodGet, "/analytics/timeline?interval=quarter", nil)
	h.Timeline(c)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestMetricsHandlerReady(t *testing.T) {
	ok := func(ctx context.Context) error { return nil }
	down := func(ctx context.Context) error { return errors.New("connection refused") }

	h := NewMetricsHandler(nil, map[string]ReadinessCheck{"postgres": ok, "redis": ok}, nil)
	c, w := newGinContext(http.MethodGet, "/ready", nil)
	h.Ready(c)
	assert.Equal(t, http.StatusOK, w.Code)

	h = NewMetricsHandler(nil, map[string]ReadinessCheck{"postgres": ok, "redis": down}, nil)
	c, w = newGinContext(http.MethodGet, "/ready", nil)
	h.Ready(c)
	require.Equal(t, http.StatusServiceUnavailable, w.Code)
	body := decodeEnvelope(t, w)
	assert.Equal(t, "unavailable", body["checks"].(map[string]interface{})["redis"])
}
