package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/hrm-case-api/internal/dto"
	"github.com/noah-isme/hrm-case-api/internal/middleware"
	"github.com/noah-isme/hrm-case-api/internal/models"
	"github.com/noah-isme/hrm-case-api/internal/service"
	appErrors "github.com/noah-isme/hrm-case-api/pkg/errors"
)

type intakeStub struct {
	gotReq   dto.SubmitReportRequest
	gotFiles []service.EvidenceUpload
	gotBody  []string
	gotActor *models.JWTClaims
	report   *models.IncidentReport
	err      error
}

func (s *intakeStub) Submit(ctx context.Context, req dto.SubmitReportRequest, files []service.EvidenceUpload, actor *models.JWTClaims) (*models.IncidentReport, error) {
	s.gotReq, s.gotFiles, s.gotActor = req, files, actor
	for _, f := range files {
		body, _ := io.ReadAll(f.Content)
		s.gotBody = append(s.gotBody, string(body))
	}
	return s.report, s.err
}

type reviewStub struct {
	report *models.IncidentReport
	list   *dto.ReportList
	err    error
	gotReq dto.DecideReportRequest
	gotID  string
}

func (s *reviewStub) Decide(ctx context.Context, id string, req dto.DecideReportRequest, actor *models.JWTClaims) (*models.IncidentReport, error) {
	s.gotID, s.gotReq = id, req
	return s.report, s.err
}

func (s *reviewStub) StartReview(ctx context.Context, id string, actor *models.JWTClaims) (*models.IncidentReport, error) {
	s.gotID = id
	return s.report, s.err
}

func (s *reviewStub) List(ctx context.Context, q dto.ReportQuery, actor *models.JWTClaims) (*dto.ReportList, error) {
	return s.list, s.err
}

func (s *reviewStub) Get(ctx context.Context, id string, actor *models.JWTClaims) (*models.IncidentReport, error) {
	s.gotID = id
	return s.report, s.err
}

func (s *reviewStub) History(ctx context.Context, id string, actor *models.JWTClaims) ([]models.StatusHistoryEntry, error) {
	return nil, s.err
}

type promoterStub struct {
	created *models.Case
	gotReq  dto.PromoteCaseRequest
	err     error
}

func (s *promoterStub) PromoteFromReport(ctx context.Context, id string, req dto.PromoteCaseRequest, actor *models.JWTClaims) (*models.Case, error) {
	s.gotReq = req
	return s.created, s.err
}

var adminClaims = &models.JWTClaims{UserID: "admin-1", Role: models.RoleAdmin}

func newGinContext(method, path string, body []byte) (*gin.Context, *httptest.ResponseRecorder) {
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	req, _ := http.NewRequest(method, path, bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	c.Request = req
	return c, w
}

type formFile struct {
	name        string
	contentType string
	body        string
}

func multipartRequest(t *testing.T, fields map[string][]string, files []formFile) *http.Request {
	t.Helper()
	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)
	for key, values := range fields {
		for _, v := range values {
			require.NoError(t, writer.WriteField(key, v))
		}
	}
	for _, f := range files {
		header := make(textproto.MIMEHeader)
		header.Set("Content-Disposition", `form-data; name="evidence"; filename="`+f.name+`"`)
		header.Set("Content-Type", f.contentType)
		part, err := writer.CreatePart(header)
		require.NoError(t, err)
		_, err = part.Write([]byte(f.body))
		require.NoError(t, err)
	}
	require.NoError(t, writer.Close())
	req := httptest.NewRequest(http.MethodPost, "/reports", &buf)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	return req
}

func decodeEnvelope(t *testing.T, w *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	return body
}

func TestReportHandlerSubmitMultipart(t *testing.T) {
	intake := &intakeStub{report: &models.IncidentReport{ID: "rep-1", Status: models.ReportStatusNew}}
	h := NewReportHandler(intake, &reviewStub{}, &promoterStub{}, nil)

	c, w := newGinContext(http.MethodPost, "/reports", nil)
	c.Request = multipartRequest(t, map[string][]string{
		"reporter_type":   {"witness"},
		"description":     {"Three men detained"},
		"location":        {"Beirut"},
		"violation_types": {"torture", "arbitrary_arrest"},
		"contact_info":    {`{"email":"w@example.org"}`},
		"captured_at":     {"2024-05-20T10:00:00Z"},
	}, []formFile{
		{name: "photo.jpg", contentType: "image/jpeg", body: "jpeg-bytes"},
		{name: "statement.pdf", contentType: "application/pdf", body: "%PDF-1.4"},
	})
	c.Set(middleware.ContextUserKey, &models.JWTClaims{UserID: "user-7", Role: models.RoleCitizen})

	h.Submit(c)

	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	assert.Equal(t, models.ReporterWitness, intake.gotReq.ReporterType)
	assert.Equal(t, "Beirut", intake.gotReq.LocationText)
	assert.Equal(t, []string{"torture", "arbitrary_arrest"}, intake.gotReq.ViolationTypes)
	assert.Equal(t, "w@example.org", intake.gotReq.ContactInfo["email"])
	require.Len(t, intake.gotFiles, 2)
	assert.Equal(t, "image/jpeg", intake.gotFiles[0].ContentType)
	assert.Equal(t, int64(len("jpeg-bytes")), intake.gotFiles[0].Size)
	require.NotNil(t, intake.gotFiles[0].CapturedAt)
	assert.Nil(t, intake.gotFiles[1].CapturedAt)
	assert.Equal(t, []string{"jpeg-bytes", "%PDF-1.4"}, intake.gotBody)
	assert.Equal(t, "user-7", intake.gotActor.UserID)
}

func TestReportHandlerSubmitPartialFailure(t *testing.T) {
	intake := &intakeStub{
		report: &models.IncidentReport{ID: "rep-2"},
		err:    appErrors.Clone(appErrors.ErrStorage, "1 of 1 evidence files failed to store: a.jpg"),
	}
	h := NewReportHandler(intake, &reviewStub{}, &promoterStub{}, nil)

	c, w := newGinContext(http.MethodPost, "/reports", nil)
	c.Request = multipartRequest(t, map[string][]string{
		"reporter_type": {"anonymous"},
		"description":   {"raid"},
	}, []formFile{{name: "a.jpg", contentType: "image/jpeg", body: "x"}})

	h.Submit(c)

	require.Equal(t, http.StatusMultiStatus, w.Code)
	body := decodeEnvelope(t, w)
	assert.Equal(t, "rep-2", body["data"].(map[string]interface{})["id"])
	assert.Equal(t, "STORAGE_ERROR", body["error"].(map[string]interface{})["code"])
	assert.Nil(t, intake.gotActor)
}

func TestReportHandlerSubmitRejectsBadContactInfo(t *testing.T) {
	intake := &intakeStub{}
	h := NewReportHandler(intake, &reviewStub{}, &promoterStub{}, nil)

	c, w := newGinContext(http.MethodPost, "/reports", nil)
	c.Request = multipartRequest(t, map[string][]string{
		"reporter_type": {"victim"},
		"description":   {"raid"},
		"contact_info":  {"phone=123"},
	}, nil)

	h.Submit(c)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestReportHandlerSubmitJSON(t *testing.T) {
	intake := &intakeStub{report: &models.IncidentReport{ID: "rep-3"}}
	h := NewReportHandler(intake, &reviewStub{}, &promoterStub{}, nil)

	payload, _ := json.Marshal(map[string]interface{}{
		"reporter_type": "victim",
		"description":   "detained",
		"contact_info":  map[string]string{"phone": "+000"},
	})
	c, w := newGinContext(http.MethodPost, "/reports", payload)

	h.Submit(c)
	require.Equal(t, http.StatusCreated, w.Code)
	assert.Equal(t, "+000", intake.gotReq.ContactInfo["phone"])
	assert.Empty(t, intake.gotFiles)
}

func TestReportHandlerDecide(t *testing.T) {
	review := &reviewStub{report: &models.IncidentReport{ID: "rep-1", Status: models.ReportStatusApproved}}
	h := NewReportHandler(&intakeStub{}, review, &promoterStub{}, nil)

	payload, _ := json.Marshal(dto.DecideReportRequest{Decision: models.ReportStatusApproved})
	c, w := newGinContext(http.MethodPut, "/reports/rep-1/decision", payload)
	c.Params = gin.Params{{Key: "id", Value: "rep-1"}}
	c.Set(middleware.ContextUserKey, adminClaims)

	h.Decide(c)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "rep-1", review.gotID)
	assert.Equal(t, models.ReportStatusApproved, review.gotReq.Decision)

	review.err = appErrors.Clone(appErrors.ErrInvalidTransition, "report already decided")
	c, w = newGinContext(http.MethodPut, "/reports/rep-1/decision", payload)
	c.Params = gin.Params{{Key: "id", Value: "rep-1"}}
	h.Decide(c)
	assert.Equal(t, http.StatusConflict, w.Code)

	c, w = newGinContext(http.MethodPut, "/reports/rep-1/decision", []byte("{"))
	h.Decide(c)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestReportHandlerListAndPromote(t *testing.T) {
	review := &reviewStub{list: &dto.ReportList{
		Items:      []models.IncidentReport{{ID: "rep-1"}},
		Pagination: models.Pagination{Page: 1, PageSize: 20, TotalCount: 1},
	}}
	promoter := &promoterStub{created: &models.Case{ID: "case-1", CaseCode: "HRM-2024-0001"}}
	h := NewReportHandler(&intakeStub{}, review, promoter, nil)

	c, w := newGinContext(http.MethodGet, "/reports?pending_only=true", nil)
	h.List(c)
	require.Equal(t, http.StatusOK, w.Code)
	body := decodeEnvelope(t, w)
	assert.Len(t, body["data"], 1)
	assert.NotNil(t, body["pagination"])

	c, w = newGinContext(http.MethodPost, "/reports/rep-1/promote", nil)
	c.Params = gin.Params{{Key: "id", Value: "rep-1"}}
	h.Promote(c)
	require.Equal(t, http.StatusCreated, w.Code)

	payload, _ := json.Marshal(dto.PromoteCaseRequest{TitlePrimary: "Checkpoint arrests"})
	c, w = newGinContext(http.MethodPost, "/reports/rep-1/promote", payload)
	h.Promote(c)
	require.Equal(t, http.StatusCreated, w.Code)
	assert.Equal(t, "Checkpoint arrests", promoter.gotReq.TitlePrimary)
}
