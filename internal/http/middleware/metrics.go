package middleware

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/phambaophuc/rewind-photos/internal/metrics"
)

func Metrics(m *metrics.Metrics) gin.HandlerFunc {
	return func(ctx *gin.Context) {
		start := time.Now()
		ctx.Next()

		route := routeLabel(ctx)
		status := strconv.Itoa(ctx.Writer.Status())
		m.RequestTotal.WithLabelValues(ctx.Request.Method, route, status).Inc()
		m.RequestDuration.WithLabelValues(ctx.Request.Method, route, status).Observe(time.Since(start).Seconds())
	}
}

// routeLabel keeps label cardinality bounded: unmatched paths share one label.
func routeLabel(ctx *gin.Context) string {
	if route := ctx.FullPath(); route != "" {
		return route
	}
	return "unmatched"
}
