package handler

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/hrm-case-api/internal/models"
	"github.com/noah-isme/hrm-case-api/pkg/response"
)

type evidenceService interface {
	Link(ctx context.Context, evidenceID string, actor *models.JWTClaims) (*models.EvidenceLink, error)
	Download(ctx context.Context, token string) (*models.Evidence, io.ReadCloser, error)
}

// EvidenceHandler issues and redeems signed evidence download links.
type EvidenceHandler struct {
	evidence evidenceService
}

// NewEvidenceHandler constructs an evidence handler.
func NewEvidenceHandler(svc evidenceService) *EvidenceHandler {
	return &EvidenceHandler{evidence: svc}
}

// Link godoc
// @Summary Issue a signed download link for evidence
// @Tags Evidence
// @Produce json
// @Security BearerAuth
// @Param id path string true "Evidence ID"
// @Success 200 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /evidence/{id}/link [get]
func (h *EvidenceHandler) Link(c *gin.Context) {
	link, err := h.evidence.Link(c.Request.Context(), c.Param("id"), claimsFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, link, nil)
}

// Download godoc
// @Summary Download evidence with a signed token
// @Tags Evidence
// @Produce octet-stream
// @Param token query string true "Signed token"
// @Success 200 {file} file
// @Failure 401 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Router /evidence/download [get]
func (h *EvidenceHandler) Download(c *gin.Context) {
	evidence, content, err := h.evidence.Download(c.Request.Context(), c.Query("token"))
	if err != nil {
		response.Error(c, err)
		return
	}
	defer content.Close()

	headers := map[string]string{
		"Content-Disposition": fmt.Sprintf("attachment; filename=%q", evidence.Filename),
		"Cache-Control":       "private, no-store",
	}
	size := evidence.SizeBytes
	if size <= 0 {
		size = -1
	} else {
		headers["X-Evidence-Size"] = strconv.FormatInt(size, 10)
	}
	c.DataFromReader(http.StatusOK, size, evidence.ContentType, content, headers)
}
