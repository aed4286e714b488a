package middleware

import (
	"fmt"
	"strconv"
	"time"

	ratelimit "github.com/JGLTechnologies/gin-rate-limit"
	"github.com/gin-gonic/gin"

	appErrors "github.com/noah-isme/hrm-case-api/pkg/errors"
	"github.com/noah-isme/hrm-case-api/pkg/response"
)

// SubmitRateLimit throttles report submission per caller. Authenticated callers are keyed
// by user id, everyone else by client IP. A non-positive limit disables throttling.
func SubmitRateLimit(limit int, window time.Duration) gin.HandlerFunc {
	if limit <= 0 {
		return func(c *gin.Context) { c.Next() }
	}
	if window <= 0 {
		window = time.Minute
	}
	store := ratelimit.InMemoryStore(&ratelimit.InMemoryOptions{
		Rate:  window,
		Limit: uint(limit),
	})
	return ratelimit.RateLimiter(store, &ratelimit.Options{
		ErrorHandler: rateLimitExceeded,
		KeyFunc:      submitterKey,
	})
}

func submitterKey(c *gin.Context) string {
	if claims := CurrentUser(c); claims != nil {
		return "user:" + claims.UserID
	}
	return "ip:" + c.ClientIP()
}

func rateLimitExceeded(c *gin.Context, info ratelimit.Info) {
	retry := time.Until(info.ResetTime).Round(time.Second)
	if retry < time.Second {
		retry = time.Second
	}
	c.Header("Retry-After", strconv.Itoa(int(retry.Seconds())))
	response.Error(c, appErrors.Clone(appErrors.ErrRateLimited, fmt.Sprintf("too many submissions, retry in %s", retry)))
	c.Abort()
}
