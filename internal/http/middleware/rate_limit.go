package middleware

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/phambaophuc/rewind-photos/internal/metrics"
	"github.com/phambaophuc/rewind-photos/internal/models"
	"github.com/phambaophuc/rewind-photos/internal/services/ratelimit"
	"go.uber.org/zap"
)

// RateLimit throttles per authenticated user, falling back to client IP.
// Limiter errors let the request through.
func RateLimit(limiter ratelimit.RateLimiter, m *metrics.Metrics, logger *zap.Logger) gin.HandlerFunc {
	return func(ctx *gin.Context) {
		if limiter == nil {
			ctx.Next()
			return
		}

		subject := "ip:" + ctx.ClientIP()
		if user, ok := CurrentUser(ctx); ok {
			subject = "user:" + user.ID
		}

		decision, err := limiter.Allow(ctx.Request.Context(), subject)
		if err != nil {
			logger.Warn("Rate limiter check failed", zap.String("subject", subject), zap.Error(err))
			ctx.Next()
			return
		}

		ctx.Header("X-RateLimit-Limit", strconv.FormatInt(decision.Limit, 10))
		ctx.Header("X-RateLimit-Remaining", strconv.FormatInt(decision.Remaining, 10))
		if decision.Allowed {
			ctx.Next()
			return
		}

		retryAfter := max(int(decision.RetryAfter.Round(time.Second).Seconds()), 1)
		ctx.Header("Retry-After", strconv.Itoa(retryAfter))
		if m != nil {
			m.RateLimitRejected.WithLabelValues(routeLabel(ctx)).Inc()
		}
		ctx.AbortWithStatusJSON(http.StatusTooManyRequests, models.ErrorResponse{
			Error:   "Too many requests",
			Message: "Upload limit reached, please try again later",
		})
	}
}
