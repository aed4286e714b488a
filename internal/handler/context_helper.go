package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/noah-isme/hrm-case-api/internal/middleware"
	"github.com/noah-isme/hrm-case-api/internal/models"
)

func claimsFromContext(c *gin.Context) *models.JWTClaims {
	return middleware.CurrentUser(c)
}
