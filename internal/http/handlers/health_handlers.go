package handlers

import (
	"context"
	"net/http"
	"runtime"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/phambaophuc/rewind-photos/internal/config"
	"github.com/phambaophuc/rewind-photos/internal/models"
	"github.com/phambaophuc/rewind-photos/internal/services/worker"
)

const (
	statusHealthy       = "healthy"
	statusNotConfigured = "not configured"
	checkTimeout        = 3 * time.Second
	serviceName         = "Rewind Photos API"
	serviceVersion      = "1.0.0"
)

// DependencyCheck reports "healthy" or "unhealthy: <reason>".
type DependencyCheck func(ctx context.Context) string

// CheckFunc adapts an error-returning probe.
func CheckFunc(probe func(ctx context.Context) error) DependencyCheck {
	return func(ctx context.Context) string {
		if err := probe(ctx); err != nil {
			return "unhealthy: " + err.Error()
		}
		return statusHealthy
	}
}

// NotConfigured is the check for an optional dependency that is switched off.
func NotConfigured(context.Context) string {
	return statusNotConfigured
}

type HealthHandler struct {
	config    *config.Config
	codec     string
	startedAt time.Time
	pool      *worker.Pool
	names     []string
	checks    map[string]DependencyCheck
	backlog   func() (int, error)
}

func NewHealthHandler(config *config.Config, codec string, pool *worker.Pool) *HealthHandler {
	return &HealthHandler{
		config:    config,
		codec:     codec,
		startedAt: time.Now(),
		pool:      pool,
		checks:    make(map[string]DependencyCheck),
	}
}

// AddCheck registers a dependency shown by the detailed health endpoint.
func (h *HealthHandler) AddCheck(name string, check DependencyCheck) {
	if _, ok := h.checks[name]; !ok {
		h.names = append(h.names, name)
	}
	h.checks[name] = check
}

// SetEventBacklog reports queued events on the detailed health endpoint.
func (h *HealthHandler) SetEventBacklog(backlog func() (int, error)) {
	h.backlog = backlog
}

// Root handles GET /.
func (h *HealthHandler) Root(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"name":    serviceName,
		"version": serviceVersion,
		"status":  "operational",
		"endpoints": gin.H{
			"health":     "/health",
			"photos":     "/api/photos",
			"monitoring": "/api/monitoring",
		},
	})
}

// Health handles GET /health. It is a liveness probe and never touches
// dependencies.
func (h *HealthHandler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, h.basic())
}

// Detailed handles GET /health/detailed.
func (h *HealthHandler) Detailed(c *gin.Context) {
	services := make(map[string]string, len(h.names))
	for _, name := range h.names {
		ctx, cancel := context.WithTimeout(c.Request.Context(), checkTimeout)
		services[name] = h.checks[name](ctx)
		cancel()
	}

	overall := calculateOverallHealth(services)
	resp := models.DetailedHealthCheck{
		HealthCheck: h.basic(),
		GoVersion:   runtime.Version(),
		Goroutines:  runtime.NumGoroutine(),
		Codec:       h.codec,
		Environment: h.config.Server.Environment,
		Services:    services,
	}
	resp.Status = overall
	if h.pool != nil {
		resp.WorkerPool = h.pool.Stats()
	}
	if h.backlog != nil {
		if n, err := h.backlog(); err == nil {
			resp.EventBacklog = &n
		}
	}

	statusCode := http.StatusOK
	if overall != statusHealthy {
		statusCode = http.StatusServiceUnavailable
	}
	c.JSON(statusCode, resp)
}

// MonitoringTest handles GET /api/monitoring/test.
func (h *HealthHandler) MonitoringTest(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"message":              "Monitoring routes working!",
		"alert_p95_threshold":  h.config.Monitoring.AlertP95MS,
		"alert_auth_fail_rate": h.config.Monitoring.AlertAuthFailRate,
		"metrics":              "/api/monitoring/metrics",
	})
}

func (h *HealthHandler) basic() models.HealthCheck {
	var m runtime.MemStats
	runtime.ReadMemStats(&m)

	return models.HealthCheck{
		Status:    statusHealthy,
		Timestamp: time.Now().UTC(),
		Uptime:    time.Since(h.startedAt).Seconds(),
		Memory: models.MemoryStats{
			Alloc:      bToMb(m.Alloc),
			TotalAlloc: bToMb(m.TotalAlloc),
			Sys:        bToMb(m.Sys),
			HeapInuse:  bToMb(m.HeapInuse),
		},
	}
}

func calculateOverallHealth(services map[string]string) string {
	for _, status := range services {
		if status != statusHealthy && status != statusNotConfigured {
			return "unhealthy"
		}
	}
	return statusHealthy
}

func bToMb(b uint64) uint64 {
	return b / 1024 / 1024
}
