package handler

import (
	"context"
	"fmt"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/hrm-case-api/internal/dto"
	"github.com/noah-isme/hrm-case-api/internal/models"
	"github.com/noah-isme/hrm-case-api/internal/service"
	appErrors "github.com/noah-isme/hrm-case-api/pkg/errors"
	"github.com/noah-isme/hrm-case-api/pkg/response"
)

type caseService interface {
	CreateDirect(ctx context.Context, req dto.CreateCaseRequest, actor *models.JWTClaims) (*models.Case, error)
	Update(ctx context.Context, id string, req dto.UpdateCaseRequest, actor *models.JWTClaims) (*models.Case, error)
	Archive(ctx context.Context, id string, actor *models.JWTClaims) (*models.Case, error)
	List(ctx context.Context, q dto.CaseQuery, actor *models.JWTClaims) (*dto.CaseList, error)
	Get(ctx context.Context, id string, actor *models.JWTClaims) (*models.Case, error)
	History(ctx context.Context, id string, actor *models.JWTClaims) ([]models.StatusHistoryEntry, error)
}

type caseExporter interface {
	ExportCases(ctx context.Context, format string, q dto.CaseQuery, actor *models.JWTClaims) (*service.ExportFile, error)
}

// CaseHandler exposes the case registry.
type CaseHandler struct {
	cases    caseService
	exporter caseExporter
}

// NewCaseHandler constructs a case handler.
func NewCaseHandler(cases caseService, exporter caseExporter) *CaseHandler {
	return &CaseHandler{cases: cases, exporter: exporter}
}

// Create godoc
// @Summary Register a case directly
// @Tags Cases
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param payload body dto.CreateCaseRequest true "Case"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Router /cases [post]
func (h *CaseHandler) Create(c *gin.Context) {
	var req dto.CreateCaseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid case payload"))
		return
	}
	created, err := h.cases.CreateDirect(c.Request.Context(), req, claimsFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, created)
}

// List godoc
// @Summary List cases
// @Tags Cases
// @Produce json
// @Security BearerAuth
// @Param status query string false "Status"
// @Param country query string false "Country (either language)"
// @Param violation_type query string false "Violation code or label"
// @Param occurred_from query string false "YYYY-MM-DD"
// @Param occurred_to query string false "YYYY-MM-DD"
// @Param page query int false "Page"
// @Param page_size query int false "Page size"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /cases [get]
func (h *CaseHandler) List(c *gin.Context) {
	var q dto.CaseQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid query parameters"))
		return
	}
	list, err := h.cases.List(c.Request.Context(), q, claimsFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, list.Items, &list.Pagination)
}

// Get godoc
// @Summary Get a case
// @Tags Cases
// @Produce json
// @Security BearerAuth
// @Param id path string true "Case ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /cases/{id} [get]
func (h *CaseHandler) Get(c *gin.Context) {
	found, err := h.cases.Get(c.Request.Context(), c.Param("id"), claimsFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, found, nil)
}

// Update godoc
// @Summary Patch a case
// @Tags Cases
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Case ID"
// @Param payload body dto.UpdateCaseRequest true "Fields to change"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /cases/{id} [patch]
func (h *CaseHandler) Update(c *gin.Context) {
	var req dto.UpdateCaseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid case update"))
		return
	}
	updated, err := h.cases.Update(c.Request.Context(), c.Param("id"), req, claimsFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, updated, nil)
}

// Archive godoc
// @Summary Archive a case
// @Tags Cases
// @Produce json
// @Security BearerAuth
// @Param id path string true "Case ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /cases/{id}/archive [post]
func (h *CaseHandler) Archive(c *gin.Context) {
	archived, err := h.cases.Archive(c.Request.Context(), c.Param("id"), claimsFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, archived, nil)
}

// History godoc
// @Summary Case status history
// @Tags Cases
// @Produce json
// @Security BearerAuth
// @Param id path string true "Case ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /cases/{id}/history [get]
func (h *CaseHandler) History(c *gin.Context) {
	entries, err := h.cases.History(c.Request.Context(), c.Param("id"), claimsFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, entries, nil)
}

// Export godoc
// @Summary Export cases as CSV or PDF
// @Tags Cases
// @Produce text/csv
// @Produce application/pdf
// @Security BearerAuth
// @Param format query string false "csv (default) or pdf"
// @Param status query string false "Status"
// @Param country query string false "Country"
// @Param violation_type query string false "Violation code or label"
// @Param occurred_from query string false "YYYY-MM-DD"
// @Param occurred_to query string false "YYYY-MM-DD"
// @Success 200 {file} file
// @Failure 400 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Router /cases/export [get]
func (h *CaseHandler) Export(c *gin.Context) {
	var q dto.CaseQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid query parameters"))
		return
	}
	file, err := h.exporter.ExportCases(c.Request.Context(), c.Query("format"), q, claimsFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", file.Filename))
	c.Header("X-Total-Count", strconv.Itoa(file.Rows))
	c.Data(http.StatusOK, file.ContentType, file.Content)
}
