package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/hrm-case-api/internal/dto"
	"github.com/noah-isme/hrm-case-api/internal/models"
	appErrors "github.com/noah-isme/hrm-case-api/pkg/errors"
	"github.com/noah-isme/hrm-case-api/pkg/geocode"
)

type memoryReportStore struct {
	mu        sync.Mutex
	reports   map[string]*models.IncidentReport
	createErr error
	attachErr error
}

func newMemoryReportStore() *memoryReportStore {
	return &memoryReportStore{reports: map[string]*models.IncidentReport{}}
}

func (m *memoryReportStore) Create(ctx context.Context, report *models.IncidentReport) error {
	if m.createErr != nil {
		return m.createErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	copied := *report
	m.reports[report.ID] = &copied
	return nil
}

func (m *memoryReportStore) AttachEvidence(ctx context.Context, id string, refs []string, at time.Time) error {
	if m.attachErr != nil {
		return m.attachErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	report := m.reports[id]
	report.EvidenceRefs = append(report.EvidenceRefs, refs...)
	report.UpdatedAt = at
	return nil
}

func (m *memoryReportStore) stored(id string) *models.IncidentReport {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.reports[id]
}

type stubEvidenceStorer struct {
	failOn map[string]bool
	stored []string
}

func (s *stubEvidenceStorer) Store(ctx context.Context, reportID string, upload EvidenceUpload) (*models.Evidence, error) {
	if s.failOn[upload.Filename] {
		return nil, appErrors.Clone(appErrors.ErrStorage, "disk full")
	}
	id := fmt.Sprintf("ev-%d", len(s.stored)+1)
	s.stored = append(s.stored, upload.Filename)
	return &models.Evidence{ID: id, ReportID: reportID, Filename: upload.Filename}, nil
}

type stubGeocoder struct {
	result *geocode.Result
	err    error
	calls  int
}

func (g *stubGeocoder) Lookup(ctx context.Context, text string) (*geocode.Result, error) {
	g.calls++
	return g.result, g.err
}

func upload(name string) EvidenceUpload {
	return EvidenceUpload{Filename: name, ContentType: "image/jpeg", Size: 4, Content: strings.NewReader("data")}
}

func newIntakeFixture(geo *stubGeocoder) (*IntakeService, *memoryReportStore, *stubEvidenceStorer) {
	store := newMemoryReportStore()
	evidence := &stubEvidenceStorer{failOn: map[string]bool{}}
	var resolver locationResolver
	if geo != nil {
		resolver = geo
	}
	svc := NewIntakeService(store, evidence, resolver, nil, NewMetricsService(), nil, IntakeConfig{
		AllowAnonymous: true,
		MaxFileSize:    1024,
		AllowedMIMEs:   []string{"image/jpeg", "application/pdf"},
	})
	return svc, store, evidence
}

var citizen = &models.JWTClaims{UserID: "user-7", Role: models.RoleCitizen}

func validSubmission() dto.SubmitReportRequest {
	return dto.SubmitReportRequest{
		ReporterType:   models.ReporterWitness,
		ContactInfo:    map[string]string{"email": "w@example.org"},
		IncidentDate:   "2024-03-12",
		LocationText:   "Tripoli",
		ViolationTypes: []string{" Arbitrary Arrest ", "arbitrary arrest", ""},
		Description:    "  Raid on a family home.  ",
	}
}

func TestIntakeSubmitGeocodedReport(t *testing.T) {
	lon, lat := 35.83, 34.43
	geo := &stubGeocoder{result: &geocode.Result{Country: "Lebanon", CountryCode: "LB", Longitude: lon, Latitude: lat}}
	svc, store, _ := newIntakeFixture(geo)

	report, err := svc.Submit(context.Background(), validSubmission(), []EvidenceUpload{upload("a.jpg"), upload("b.jpg")}, citizen)
	require.NoError(t, err)

	assert.Equal(t, models.ReportStatusNew, report.Status)
	assert.True(t, report.PendingApproval)
	assert.Equal(t, "Lebanon", report.Country)
	assert.Equal(t, "LB", report.CountryCode)
	require.True(t, report.HasCoordinates())
	assert.Equal(t, lon, *report.Longitude)
	assert.Equal(t, "2024-03-12", report.IncidentDate.String())
	assert.Equal(t, []string{"Arbitrary Arrest"}, []string(report.ViolationTypes))
	assert.Equal(t, "Raid on a family home.", report.Description)
	assert.Equal(t, "user-7", report.CreatedBy)
	assert.Nil(t, report.Pseudonym)
	assert.Equal(t, []string{"ev-1", "ev-2"}, []string(report.EvidenceRefs))

	stored := store.stored(report.ID)
	require.NotNil(t, stored)
	assert.NoError(t, stored.Validate())
	assert.Len(t, stored.EvidenceRefs, 2)
	assert.Equal(t, "w@example.org", stored.ContactInfo["email"])
}

func TestIntakeSubmitAnonymousDropsContactInfo(t *testing.T) {
	svc, store, _ := newIntakeFixture(nil)
	req := validSubmission()
	req.Anonymous = true
	req.Pseudonym = "Witness A"
	req.IncidentDate = "12/03/2024"

	report, err := svc.Submit(context.Background(), req, nil, nil)
	require.NoError(t, err)
	assert.Nil(t, report.ContactInfo)
	require.NotNil(t, report.Pseudonym)
	assert.Equal(t, "Witness A", *report.Pseudonym)
	assert.Nil(t, report.IncidentDate)
	assert.Equal(t, models.AnonymousSubmitter, report.CreatedBy)
	assert.Empty(t, report.EvidenceRefs)
	assert.NoError(t, store.stored(report.ID).Validate())
}

func TestIntakeSubmitAnonymousHidesSignedInUser(t *testing.T) {
	svc, store, _ := newIntakeFixture(nil)
	req := validSubmission()
	req.Anonymous = true

	report, err := svc.Submit(context.Background(), req, nil, citizen)
	require.NoError(t, err)
	assert.Equal(t, models.AnonymousSubmitter, report.CreatedBy)

	stored := store.stored(report.ID)
	require.NotNil(t, stored)
	assert.Equal(t, models.AnonymousSubmitter, stored.CreatedBy)
	assert.Nil(t, stored.ContactInfo)
	assert.NoError(t, stored.Validate())
}

func TestIntakeSubmitGeocodeFallback(t *testing.T) {
	geo := &stubGeocoder{err: errors.New("timeout")}
	svc, _, _ := newIntakeFixture(geo)
	req := validSubmission()
	req.LocationText = "Jordan"

	report, err := svc.Submit(context.Background(), req, nil, citizen)
	require.NoError(t, err)
	assert.Equal(t, "Jordan", report.Country)
	assert.Equal(t, "JO", report.CountryCode)
	assert.False(t, report.HasCoordinates())
	assert.Equal(t, uint64(1), svc.metrics.Snapshot().GeocodeFallbacks)

	geo.err = nil
	req.LocationText = "Nowhere Village"
	report, err = svc.Submit(context.Background(), req, nil, citizen)
	require.NoError(t, err)
	assert.Equal(t, "Nowhere Village", report.Country)
	assert.Empty(t, report.CountryCode)
}

func TestIntakeSubmitRejectsInvalidInput(t *testing.T) {
	svc, store, _ := newIntakeFixture(nil)

	six := make([]EvidenceUpload, 6)
	for i := range six {
		six[i] = upload(fmt.Sprintf("f%d.jpg", i))
	}
	_, err := svc.Submit(context.Background(), validSubmission(), six, citizen)
	assert.True(t, appErrors.Is(err, appErrors.ErrValidation))

	big := upload("big.jpg")
	big.Size = 2048
	_, err = svc.Submit(context.Background(), validSubmission(), []EvidenceUpload{big}, citizen)
	assert.True(t, appErrors.Is(err, appErrors.ErrValidation))

	exe := upload("tool.exe")
	exe.ContentType = "application/x-msdownload"
	_, err = svc.Submit(context.Background(), validSubmission(), []EvidenceUpload{exe}, citizen)
	assert.True(t, appErrors.Is(err, appErrors.ErrValidation))

	bad := validSubmission()
	bad.ReporterType = "bystander"
	_, err = svc.Submit(context.Background(), bad, nil, citizen)
	assert.True(t, appErrors.Is(err, appErrors.ErrValidation))

	assert.Empty(t, store.reports)
}

func TestIntakeSubmitAnonymousDisabled(t *testing.T) {
	svc, _, _ := newIntakeFixture(nil)
	svc.cfg.AllowAnonymous = false

	_, err := svc.Submit(context.Background(), validSubmission(), nil, nil)
	assert.True(t, appErrors.Is(err, appErrors.ErrUnauthorized))
}

func TestIntakeSubmitPartialEvidenceFailure(t *testing.T) {
	svc, store, evidence := newIntakeFixture(nil)
	evidence.failOn["broken.jpg"] = true

	report, err := svc.Submit(context.Background(), validSubmission(), []EvidenceUpload{upload("ok.jpg"), upload("broken.jpg")}, citizen)
	require.Error(t, err)
	assert.True(t, appErrors.Is(err, appErrors.ErrStorage))
	assert.Contains(t, err.Error(), "broken.jpg")
	require.NotNil(t, report)
	assert.Equal(t, []string{"ev-1"}, []string(report.EvidenceRefs))
	assert.Equal(t, []string{"ev-1"}, []string(store.stored(report.ID).EvidenceRefs))
}
