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

type violationTypeService interface {
	List(ctx context.Context, actor *models.JWTClaims) ([]models.ViolationType, error)
	Suggest(ctx context.Context, req dto.SuggestViolationTypeRequest, actor *models.JWTClaims) (*models.ViolationType, error)
	Review(ctx context.Context, id string, approve bool, actor *models.JWTClaims) error
}

// ViolationTypeHandler exposes the violation type catalog.
type ViolationTypeHandler struct {
	service violationTypeService
}

// NewViolationTypeHandler constructs the handler.
func NewViolationTypeHandler(svc violationTypeService) *ViolationTypeHandler {
	return &ViolationTypeHandler{service: svc}
}

// List godoc
// @Summary List violation types
// @Description Approved entries for everyone; admins also see pending suggestions
// @Tags ViolationTypes
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Envelope
// @Router /violation-types [get]
func (h *ViolationTypeHandler) List(c *gin.Context) {
	types, err := h.service.List(c.Request.Context(), claimsFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, types, nil)
}

// Suggest godoc
// @Summary Suggest a violation type
// @Tags ViolationTypes
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param payload body dto.SuggestViolationTypeRequest true "Labels"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /violation-types [post]
func (h *ViolationTypeHandler) Suggest(c *gin.Context) {
	var req dto.SuggestViolationTypeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid suggestion"))
		return
	}
	created, err := h.service.Suggest(c.Request.Context(), req, claimsFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, created)
}

// Review godoc
// @Summary Approve or reject a suggested violation type
// @Tags ViolationTypes
// @Accept json
// @Security BearerAuth
// @Param id path string true "Violation type ID"
// @Param payload body dto.ReviewViolationTypeRequest true "Decision"
// @Success 204
// @Failure 400 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /violation-types/{id}/review [put]
func (h *ViolationTypeHandler) Review(c *gin.Context) {
	var req dto.ReviewViolationTypeRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.Approve == nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "approve must be true or false"))
		return
	}
	if err := h.service.Review(c.Request.Context(), c.Param("id"), *req.Approve, claimsFromContext(c)); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}
