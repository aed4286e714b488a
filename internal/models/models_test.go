package models

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReportStatusTransitions(t *testing.T) {
	assert.True(t, ReportStatusNew.IsPending())
	assert.True(t, ReportStatusUnderReview.IsPending())
	assert.False(t, ReportStatusApproved.IsPending())

	assert.True(t, ReportStatusNew.CanTransition(ReportStatusUnderReview))
	assert.True(t, ReportStatusUnderReview.CanTransition(ReportStatusRejected))
	assert.True(t, ReportStatusApproved.CanTransition(ReportStatusArchived))
	assert.False(t, ReportStatusRejected.CanTransition(ReportStatusApproved))
	assert.False(t, ReportStatusArchived.CanTransition(ReportStatusApproved))
	assert.False(t, ReportStatusApproved.CanTransition(ReportStatusRejected))
}

func TestIncidentReportValidate(t *testing.T) {
	pseudonym := "sparrow"
	comment := "insufficient evidence"

	valid := IncidentReport{ID: "r1", Status: ReportStatusNew, PendingApproval: true, Anonymous: true, Pseudonym: &pseudonym}
	require.NoError(t, valid.Validate())

	cases := map[string]IncidentReport{
		"pending mismatch":  {ID: "r", Status: ReportStatusApproved, PendingApproval: true},
		"anonymous contact": {ID: "r", Status: ReportStatusNew, PendingApproval: true, Anonymous: true, ContactInfo: ContactInfo{"email": "a@b.com"}},
		"anonymous owner":   {ID: "r", Status: ReportStatusNew, PendingApproval: true, Anonymous: true, CreatedBy: "user-7"},
		"named pseudonym":   {ID: "r", Status: ReportStatusNew, PendingApproval: true, Pseudonym: &pseudonym},
		"too much evidence": {ID: "r", Status: ReportStatusNew, PendingApproval: true, EvidenceRefs: []string{"1", "2", "3", "4", "5", "6"}},
		"approval comment":  {ID: "r", Status: ReportStatusApproved, RejectionComment: &comment},
	}
	for name, report := range cases {
		t.Run(name, func(t *testing.T) {
			assert.Error(t, report.Validate())
		})
	}
}

func TestIncidentReportRedacted(t *testing.T) {
	report := IncidentReport{ContactInfo: ContactInfo{"email": "a@b.com"}, CreatedBy: "user-7"}
	redacted := report.Redacted()
	assert.Nil(t, redacted.ContactInfo)
	assert.Equal(t, AnonymousSubmitter, redacted.CreatedBy)
	assert.NotNil(t, report.ContactInfo)
	assert.Equal(t, "user-7", report.CreatedBy)
}

func TestDateJSONAndScan(t *testing.T) {
	d, err := ParseDate("2024-03-09")
	require.NoError(t, err)

	out, err := json.Marshal(d)
	require.NoError(t, err)
	assert.Equal(t, `"2024-03-09"`, string(out))

	var back Date
	require.NoError(t, json.Unmarshal(out, &back))
	assert.True(t, back.Equal(d.Time))
	assert.Error(t, json.Unmarshal([]byte(`"09/03/2024"`), &back))

	var scanned Date
	require.NoError(t, scanned.Scan(time.Date(2024, 3, 9, 15, 0, 0, 0, time.UTC)))
	assert.Equal(t, "2024-03-09", scanned.String())
	require.NoError(t, scanned.Scan([]byte("2024-03-10T00:00:00Z")))
	assert.Equal(t, "2024-03-10", scanned.String())

	assert.Nil(t, ParseOptionalDate(""))
	assert.Nil(t, ParseOptionalDate("not a date"))
	assert.Equal(t, "2024-01-31", ParseOptionalDate("2024-01-31").String())
}

func TestContactInfoValue(t *testing.T) {
	var none ContactInfo
	v, err := none.Value()
	require.NoError(t, err)
	assert.Nil(t, v)

	v, err = ContactInfo{"email": "a@b.com"}.Value()
	require.NoError(t, err)
	assert.JSONEq(t, `{"email":"a@b.com"}`, string(v.([]byte)))

	var scanned ContactInfo
	require.NoError(t, scanned.Scan([]byte(`{"phone":"123"}`)))
	assert.Equal(t, "123", scanned["phone"])
	require.NoError(t, scanned.Scan(nil))
}

func TestViolationLabels(t *testing.T) {
	labels := ViolationLabels{{Code: "arbitrary_arrest", Primary: "Arbitrary Arrest", Secondary: "اعتقال تعسفي"}}
	assert.True(t, labels.Contains("Arbitrary Arrest"))
	assert.True(t, labels.Contains("اعتقال تعسفي"))
	assert.True(t, labels.Contains("arbitrary_arrest"))
	assert.False(t, labels.Contains("arbitrary arrest"))
	assert.False(t, labels.Contains(""))

	var empty ViolationLabels
	v, err := empty.Value()
	require.NoError(t, err)
	assert.Equal(t, "[]", string(v.([]byte)))
}

func TestCaseAnomalyAndCode(t *testing.T) {
	occurred, _ := ParseDate("2024-05-10")
	reported, _ := ParseDate("2024-05-01")
	c := Case{DateOccurred: &occurred, DateReported: reported, CountryPrimary: "Palestine", CountrySecondary: "فلسطين"}
	c.FlagAnomalies()
	assert.True(t, c.DateAnomaly)

	c.DateReported, _ = ParseDate("2024-05-10")
	c.FlagAnomalies()
	assert.False(t, c.DateAnomaly)

	assert.True(t, c.MatchesCountry("palestine"))
	assert.True(t, c.MatchesCountry("فلسطين"))

	assert.Equal(t, "HRM-2024-0007", FormatCaseCode(2024, 7))
	assert.True(t, ValidCaseCode("HRM-2024-12345"))
	assert.False(t, ValidCaseCode("HRM-24-1"))
	assert.True(t, CasePatch{}.IsEmpty())
}

func TestCaseStatusTransitions(t *testing.T) {
	allowed := [][2]CaseStatus{
		{CaseStatusNew, CaseStatusNew},
		{CaseStatusNew, CaseStatusUnderInvestigation},
		{CaseStatusNew, CaseStatusResolved},
		{CaseStatusUnderInvestigation, CaseStatusResolved},
		{CaseStatusResolved, CaseStatusUnderInvestigation},
		{CaseStatusResolved, CaseStatusArchived},
	}
	for _, pair := range allowed {
		assert.True(t, pair[0].CanTransition(pair[1]), "%s -> %s", pair[0], pair[1])
	}

	denied := [][2]CaseStatus{
		{CaseStatusArchived, CaseStatusNew},
		{CaseStatusArchived, CaseStatusArchived},
		{CaseStatusArchived, CaseStatusUnderInvestigation},
		{CaseStatusUnderInvestigation, CaseStatusNew},
		{CaseStatusResolved, CaseStatusNew},
		{CaseStatusNew, CaseStatus("closed")},
	}
	for _, pair := range denied {
		assert.False(t, pair[0].CanTransition(pair[1]), "%s -> %s", pair[0], pair[1])
	}
}
