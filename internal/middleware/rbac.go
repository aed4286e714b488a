package middleware

import (
	"github.com/gin-gonic/gin"

	"github.com/noah-isme/hrm-case-api/internal/service"
	appErrors "github.com/noah-isme/hrm-case-api/pkg/errors"
	"github.com/noah-isme/hrm-case-api/pkg/response"
)

// RequireCapability rejects callers whose role lacks the capability before the handler runs.
// Must be mounted after JWT.
func RequireCapability(capability service.Capability) gin.HandlerFunc {
	return func(c *gin.Context) {
		claims := CurrentUser(c)
		if claims == nil {
			response.Error(c, appErrors.ErrUnauthorized)
			c.Abort()
			return
		}
		if !service.HasCapability(claims.Role, capability) {
			response.Error(c, appErrors.Clone(appErrors.ErrForbidden, "role "+string(claims.Role)+" may not "+string(capability)))
			c.Abort()
			return
		}
		c.Next()
	}
}
