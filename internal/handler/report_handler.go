package handler

import (
	"context"
	"encoding/json"
	"errors"
	"mime/multipart"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/noah-isme/hrm-case-api/internal/dto"
	"github.com/noah-isme/hrm-case-api/internal/models"
	"github.com/noah-isme/hrm-case-api/internal/service"
	appErrors "github.com/noah-isme/hrm-case-api/pkg/errors"
	"github.com/noah-isme/hrm-case-api/pkg/response"
)

const evidenceFormField = "evidence"

type intakeService interface {
	Submit(ctx context.Context, req dto.SubmitReportRequest, files []service.EvidenceUpload, actor *models.JWTClaims) (*models.IncidentReport, error)
}

type reviewService interface {
	Decide(ctx context.Context, reportID string, req dto.DecideReportRequest, actor *models.JWTClaims) (*models.IncidentReport, error)
	StartReview(ctx context.Context, reportID string, actor *models.JWTClaims) (*models.IncidentReport, error)
	List(ctx context.Context, q dto.ReportQuery, actor *models.JWTClaims) (*dto.ReportList, error)
	Get(ctx context.Context, reportID string, actor *models.JWTClaims) (*models.IncidentReport, error)
	History(ctx context.Context, reportID string, actor *models.JWTClaims) ([]models.StatusHistoryEntry, error)
}

type casePromoter interface {
	PromoteFromReport(ctx context.Context, reportID string, req dto.PromoteCaseRequest, actor *models.JWTClaims) (*models.Case, error)
}

// ReportHandler exposes incident report intake and review endpoints.
type ReportHandler struct {
	intake intakeService
	review reviewService
	cases  casePromoter
	logger *zap.Logger
}

// NewReportHandler constructs a report handler.
func NewReportHandler(intake intakeService, review reviewService, cases casePromoter, logger *zap.Logger) *ReportHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ReportHandler{intake: intake, review: review, cases: cases, logger: logger}
}

// Submit godoc
// @Summary Submit an incident report
// @Description Accepts report fields plus up to five evidence files. Returns 207 when the report was stored but some evidence was not.
// @Tags Reports
// @Accept multipart/form-data
// @Produce json
// @Param reporter_type formData string true "victim, witness, organization or anonymous"
// @Param anonymous formData bool false "Submit anonymously"
// @Param pseudonym formData string false "Pseudonym for anonymous reports"
// @Param contact_info formData string false "JSON object of contact details"
// @Param incident_date formData string false "YYYY-MM-DD"
// @Param location formData string false "Free-text location"
// @Param violation_types formData []string false "Violation type terms"
// @Param description formData string true "Incident description"
// @Param evidence formData file false "Evidence files"
// @Success 201 {object} response.Envelope
// @Success 207 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 401 {object} response.Envelope
// @Failure 429 {object} response.Envelope
// @Router /reports [post]
func (h *ReportHandler) Submit(c *gin.Context) {
	req, files, err := bindSubmission(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	uploads, closeAll, err := openUploads(c, files)
	if err != nil {
		response.Error(c, err)
		return
	}
	defer closeAll()

	report, err := h.intake.Submit(c.Request.Context(), req, uploads, claimsFromContext(c))
	switch {
	case err != nil && report != nil:
		h.logger.Warn("report stored with evidence failures", zap.String("report_id", report.ID), zap.Error(err))
		response.Partial(c, report, err)
	case err != nil:
		response.Error(c, err)
	default:
		response.Created(c, report)
	}
}

// List godoc
// @Summary List incident reports
// @Tags Reports
// @Produce json
// @Security BearerAuth
// @Param status query string false "Status filter"
// @Param pending_only query bool false "Only reports awaiting a decision (admin)"
// @Param country query string false "Country"
// @Param created_from query string false "YYYY-MM-DD"
// @Param created_to query string false "YYYY-MM-DD"
// @Param page query int false "Page"
// @Param page_size query int false "Page size"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Router /reports [get]
func (h *ReportHandler) List(c *gin.Context) {
	var q dto.ReportQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid query parameters"))
		return
	}
	list, err := h.review.List(c.Request.Context(), q, claimsFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, list.Items, &list.Pagination)
}

// Get godoc
// @Summary Get an incident report
// @Tags Reports
// @Produce json
// @Security BearerAuth
// @Param id path string true "Report ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /reports/{id} [get]
func (h *ReportHandler) Get(c *gin.Context) {
	report, err := h.review.Get(c.Request.Context(), c.Param("id"), claimsFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, report, nil)
}

// History godoc
// @Summary Report status history
// @Tags Reports
// @Produce json
// @Security BearerAuth
// @Param id path string true "Report ID"
// @Success 200 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /reports/{id}/history [get]
func (h *ReportHandler) History(c *gin.Context) {
	entries, err := h.review.History(c.Request.Context(), c.Param("id"), claimsFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, entries, nil)
}

// StartReview godoc
// @Summary Mark a new report as under review
// @Tags Reports
// @Produce json
// @Security BearerAuth
// @Param id path string true "Report ID"
// @Success 200 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /reports/{id}/review [post]
func (h *ReportHandler) StartReview(c *gin.Context) {
	report, err := h.review.StartReview(c.Request.Context(), c.Param("id"), claimsFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, report, nil)
}

// Decide godoc
// @Summary Approve or reject a pending report
// @Tags Reports
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Report ID"
// @Param payload body dto.DecideReportRequest true "Decision"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /reports/{id}/decision [put]
func (h *ReportHandler) Decide(c *gin.Context) {
	var req dto.DecideReportRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid decision payload"))
		return
	}
	report, err := h.review.Decide(c.Request.Context(), c.Param("id"), req, claimsFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, report, nil)
}

// Promote godoc
// @Summary Promote an approved report to a case
// @Tags Reports
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Report ID"
// @Param payload body dto.PromoteCaseRequest false "Case overrides"
// @Success 201 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /reports/{id}/promote [post]
func (h *ReportHandler) Promote(c *gin.Context) {
	var req dto.PromoteCaseRequest
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid promote payload"))
			return
		}
	}
	created, err := h.cases.PromoteFromReport(c.Request.Context(), c.Param("id"), req, claimsFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, created)
}

// bindSubmission reads a submission from multipart form data, or from a JSON body when no files are sent.
func bindSubmission(c *gin.Context) (dto.SubmitReportRequest, []*multipart.FileHeader, error) {
	var req dto.SubmitReportRequest
	if strings.HasPrefix(c.ContentType(), "application/json") {
		if err := c.ShouldBindJSON(&req); err != nil {
			return req, nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid report payload")
		}
		return req, nil, nil
	}

	if err := c.ShouldBind(&req); err != nil {
		return req, nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid report form")
	}
	if raw := strings.TrimSpace(c.PostForm("contact_info")); raw != "" {
		if err := json.Unmarshal([]byte(raw), &req.ContactInfo); err != nil {
			return req, nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "contact_info must be a JSON object of strings")
		}
	}
	form, err := c.MultipartForm()
	if err != nil {
		if errors.Is(err, http.ErrNotMultipart) {
			return req, nil, nil
		}
		return req, nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid multipart body")
	}
	return req, form.File[evidenceFormField], nil
}

// openUploads opens every file part. captured_at values, when sent, pair with files by position.
func openUploads(c *gin.Context, files []*multipart.FileHeader) ([]service.EvidenceUpload, func(), error) {
	captured := c.PostFormArray("captured_at")
	uploads := make([]service.EvidenceUpload, 0, len(files))
	var opened []multipart.File
	closeAll := func() {
		for _, f := range opened {
			_ = f.Close()
		}
	}
	for i, fh := range files {
		f, err := fh.Open()
		if err != nil {
			closeAll()
			return nil, func() {}, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "unreadable evidence file "+fh.Filename)
		}
		opened = append(opened, f)
		upload := service.EvidenceUpload{
			Filename:    fh.Filename,
			ContentType: fh.Header.Get("Content-Type"),
			Size:        fh.Size,
			Content:     f,
		}
		if i < len(captured) && captured[i] != "" {
			at, err := time.Parse(time.RFC3339, captured[i])
			if err != nil {
				closeAll()
				return nil, func() {}, appErrors.Clone(appErrors.ErrValidation, "captured_at must be RFC 3339")
			}
			upload.CapturedAt = &at
		}
		uploads = append(uploads, upload)
	}
	return uploads, closeAll, nil
}
