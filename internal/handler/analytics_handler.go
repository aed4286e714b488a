package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/hrm-case-api/internal/dto"
	"github.com/noah-isme/hrm-case-api/internal/models"
	appErrors "github.com/noah-isme/hrm-case-api/pkg/errors"
	"github.com/noah-isme/hrm-case-api/pkg/response"
)

type analyticsService interface {
	Violations(ctx context.Context, q dto.AnalyticsQuery, actor *models.JWTClaims) ([]models.ViolationCount, bool, error)
	Timeline(ctx context.Context, q dto.AnalyticsQuery, actor *models.JWTClaims) ([]models.TimelinePoint, bool, error)
	GeoData(ctx context.Context, q dto.AnalyticsQuery, actor *models.JWTClaims) ([]models.GeoPoint, bool, error)
	SystemMetrics(actor *models.JWTClaims) (models.AnalyticsSystemMetrics, error)
}

// AnalyticsHandler exposes read-only aggregates over cases and published reports.
type AnalyticsHandler struct {
	service analyticsService
}

// NewAnalyticsHandler constructs the handler.
func NewAnalyticsHandler(svc analyticsService) *AnalyticsHandler {
	return &AnalyticsHandler{service: svc}
}

// Violations godoc
// @Summary Incident counts per violation type
// @Tags Analytics
// @Produce json
// @Security BearerAuth
// @Param country query string false "Country"
// @Param from query string false "YYYY-MM-DD"
// @Param to query string false "YYYY-MM-DD"
// @Success 200 {object} response.Envelope
// @Router /analytics/violations [get]
func (h *AnalyticsHandler) Violations(c *gin.Context) {
	q, ok := bindAnalyticsQuery(c)
	if !ok {
		return
	}
	data, hit, err := h.service.Violations(c.Request.Context(), q, claimsFromContext(c))
	respondAnalytics(c, data, hit, err)
}

// Timeline godoc
// @Summary Incident counts over time
// @Tags Analytics
// @Produce json
// @Security BearerAuth
// @Param interval query string false "day, week, month (default) or year"
// @Param country query string false "Country"
// @Param from query string false "YYYY-MM-DD"
// @Param to query string false "YYYY-MM-DD"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /analytics/timeline [get]
func (h *AnalyticsHandler) Timeline(c *gin.Context) {
	q, ok := bindAnalyticsQuery(c)
	if !ok {
		return
	}
	data, hit, err := h.service.Timeline(c.Request.Context(), q, claimsFromContext(c))
	respondAnalytics(c, data, hit, err)
}

// GeoData godoc
// @Summary Located incidents for map rendering
// @Tags Analytics
// @Produce json
// @Security BearerAuth
// @Param country query string false "Country"
// @Param from query string false "YYYY-MM-DD"
// @Param to query string false "YYYY-MM-DD"
// @Success 200 {object} response.Envelope
// @Router /analytics/geodata [get]
func (h *AnalyticsHandler) GeoData(c *gin.Context) {
	q, ok := bindAnalyticsQuery(c)
	if !ok {
		return
	}
	data, hit, err := h.service.GeoData(c.Request.Context(), q, claimsFromContext(c))
	respondAnalytics(c, data, hit, err)
}

// System godoc
// @Summary System instrumentation snapshot
// @Tags Analytics
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Router /analytics/system [get]
func (h *AnalyticsHandler) System(c *gin.Context) {
	snapshot, err := h.service.SystemMetrics(claimsFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, snapshot, nil)
}

func bindAnalyticsQuery(c *gin.Context) (dto.AnalyticsQuery, bool) {
	var q dto.AnalyticsQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid query parameters"))
		return q, false
	}
	return q, true
}

func respondAnalytics(c *gin.Context, data interface{}, hit bool, err error) {
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, data, nil, map[string]interface{}{"cache_hit": hit})
}
