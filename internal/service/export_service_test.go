package service

import (
	"bytes"
	"context"
	"encoding/csv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/hrm-case-api/internal/dto"
	"github.com/noah-isme/hrm-case-api/internal/models"
	appErrors "github.com/noah-isme/hrm-case-api/pkg/errors"
)

type exportSourceStub struct {
	cases      []models.Case
	lastFilter models.CaseFilter
	lastLimit  int
	err        error
}

func (s *exportSourceStub) ListAll(ctx context.Context, filter models.CaseFilter, limit int) ([]models.Case, error) {
	s.lastFilter, s.lastLimit = filter, limit
	if s.err != nil {
		return nil, s.err
	}
	return s.cases, nil
}

func exportFixture() (*ExportService, *exportSourceStub) {
	occurred := models.NewDate(time.Date(2024, 5, 20, 0, 0, 0, 0, time.UTC))
	source := "rep-1"
	stub := &exportSourceStub{cases: []models.Case{
		{
			CaseCode:       "HRM-2024-0001",
			TitlePrimary:   "Arbitrary Arrest in Lebanon",
			Status:         models.CaseStatusNew,
			Priority:       models.CasePriorityHigh,
			CountryPrimary: "Lebanon",
			ViolationTypes: models.ViolationLabels{{Code: "arbitrary_arrest", Primary: "Arbitrary Arrest"}, {Code: "torture", Primary: "Torture"}},
			DateOccurred:   &occurred,
			DateReported:   models.NewDate(time.Date(2024, 5, 21, 0, 0, 0, 0, time.UTC)),
			Evidence:       models.EvidenceDescriptors{{EvidenceID: "ev-1"}},
			SourceReportID: &source,
		},
		{
			CaseCode:       "HRM-2024-0002",
			TitlePrimary:   "Raid",
			Status:         models.CaseStatusResolved,
			Priority:       models.CasePriorityLow,
			CountryPrimary: "Jordan",
			DateReported:   models.NewDate(time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)),
		},
	}}
	svc := NewExportService(stub, nil, nil, 0)
	svc.now = func() time.Time { return time.Date(2024, 6, 2, 10, 30, 0, 0, time.UTC) }
	return svc, stub
}

var institution = &models.JWTClaims{UserID: "inst-1", Role: models.RoleInstitution}

func TestExportCasesCSV(t *testing.T) {
	svc, stub := exportFixture()

	file, err := svc.ExportCases(context.Background(), "CSV", dto.CaseQuery{Country: "Lebanon"}, institution)
	require.NoError(t, err)
	assert.Equal(t, "cases_20240602_103000.csv", file.Filename)
	assert.Contains(t, file.ContentType, "text/csv")
	assert.Equal(t, 2, file.Rows)
	assert.Equal(t, "Lebanon", stub.lastFilter.Country)
	assert.Equal(t, defaultExportLimit, stub.lastLimit)

	records, err := csv.NewReader(bytes.NewReader(bytes.TrimPrefix(file.Content, []byte("\xEF\xBB\xBF")))).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 3)
	assert.Equal(t, "Case", records[0][0])
	assert.Equal(t, []string{
		"HRM-2024-0001", "Arbitrary Arrest in Lebanon", "new", "high", "Lebanon", "",
		"Arbitrary Arrest; Torture", "2024-05-20", "2024-05-21", "1", "rep-1",
	}, records[1])
	assert.Equal(t, "", records[2][7])
}

func TestExportCasesPDF(t *testing.T) {
	svc, _ := exportFixture()

	file, err := svc.ExportCases(context.Background(), "pdf", dto.CaseQuery{}, admin)
	require.NoError(t, err)
	assert.Equal(t, "application/pdf", file.ContentType)
	assert.True(t, bytes.HasPrefix(file.Content, []byte("%PDF")))
}

func TestExportCasesGuards(t *testing.T) {
	svc, stub := exportFixture()
	ctx := context.Background()

	_, err := svc.ExportCases(ctx, "csv", dto.CaseQuery{}, citizen)
	assert.True(t, appErrors.Is(err, appErrors.ErrForbidden))

	_, err = svc.ExportCases(ctx, "xlsx", dto.CaseQuery{}, admin)
	assert.True(t, appErrors.Is(err, appErrors.ErrValidation))

	_, err = svc.ExportCases(ctx, "csv", dto.CaseQuery{OccurredFrom: "yesterday"}, admin)
	assert.True(t, appErrors.Is(err, appErrors.ErrValidation))

	stub.err = assert.AnError
	_, err = svc.ExportCases(ctx, "", dto.CaseQuery{}, admin)
	assert.True(t, appErrors.Is(err, appErrors.ErrInternal))
}
