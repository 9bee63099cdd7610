package middleware

import (
	"fmt"
	"math"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/yungbote/advisor-backend/internal/http/response"
	"github.com/yungbote/advisor-backend/internal/platform/apierr"
	"github.com/yungbote/advisor-backend/internal/platform/ctxutil"
	"github.com/yungbote/advisor-backend/internal/platform/logger"
	"github.com/yungbote/advisor-backend/internal/platform/ratelimit"
)

type RateLimitCounter interface {
	IncRateLimited(scope string)
}

// RateLimit throttles authenticated users per scope. It must run after
// RequireAuth. Limiter failures let the request through.
func RateLimit(log *logger.Logger, limiter ratelimit.Limiter, scope string, metrics RateLimitCounter) gin.HandlerFunc {
	if limiter == nil {
		return func(c *gin.Context) { c.Next() }
	}
	log = log.With("middleware", "RateLimit", "scope", scope)
	return func(c *gin.Context) {
		userID := ctxutil.UserID(c.Request.Context())
		if userID == uuid.Nil {
			c.Next()
			return
		}
		d, err := limiter.Allow(c.Request.Context(), scopeKey(scope, userID))
		if err != nil {
			log.Warn("rate limiter unavailable", "error", err)
			c.Next()
			return
		}
		if d.Allowed {
			c.Header("X-RateLimit-Remaining", strconv.Itoa(d.Remaining))
			c.Next()
			return
		}
		retry := int(math.Ceil(d.RetryAfter.Seconds()))
		if retry < 1 {
			retry = 1
		}
		if metrics != nil {
			metrics.IncRateLimited(scope)
		}
		c.Header("Retry-After", strconv.Itoa(retry))
		ae := apierr.Newf(http.StatusTooManyRequests, apierr.CodeRateLimited, "Too many messages. Try again in %d seconds.", retry).
			WithDetails(map[string]any{"retry_after": retry})
		response.RespondAPIError(c, log, ae)
		c.Abort()
	}
}

func scopeKey(scope string, userID uuid.UUID) string {
	return fmt.Sprintf("%s:%s", scope, userID)
}
