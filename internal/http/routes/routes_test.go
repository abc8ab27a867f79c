package routes

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/gin-gonic/gin"
	"github.com/phambaophuc/rewind-photos/internal/config"
	"github.com/phambaophuc/rewind-photos/internal/http/handlers"
	"github.com/phambaophuc/rewind-photos/internal/http/middleware"
	"github.com/phambaophuc/rewind-photos/internal/metrics"
	"github.com/phambaophuc/rewind-photos/internal/models"
	"github.com/phambaophuc/rewind-photos/internal/services/auth"
	"github.com/phambaophuc/rewind-photos/internal/services/ratelimit"
	"github.com/phambaophuc/rewind-photos/internal/services/style"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type stubProcessor struct{}

func (stubProcessor) ProcessPhotoForUpload(context.Context, []byte, style.Style) (*models.ProcessedResult, error) {
	return nil, errors.New("not used")
}

func (stubProcessor) Config() config.ProcessingConfig {
	return config.ProcessingConfig{}.Normalize()
}

func (stubProcessor) Codec() (string, bool) { return "stub", false }

type stubStore struct{}

func (stubStore) Upload(context.Context, []byte, string, string) (string, error) { return "", nil }
func (stubStore) Delete(context.Context, string) error                          { return nil }
func (stubStore) HealthCheck(context.Context) error                             { return nil }
func (stubStore) Name() string                                                  { return "stub" }

type stubVerifier struct{}

func (stubVerifier) Verify(_ context.Context, token string) (*auth.User, error) {
	if token == "good-token" {
		return &auth.User{ID: "user-1"}, nil
	}
	return nil, auth.ErrUnauthorized
}

type stubLimiter struct {
	decision ratelimit.Decision
	err      error
	subjects []string
}

func (l *stubLimiter) Allow(_ context.Context, subject string) (ratelimit.Decision, error) {
	l.subjects = append(l.subjects, subject)
	return l.decision, l.err
}

func newTestEngine(t *testing.T, limiter ratelimit.RateLimiter) *gin.Engine {
	t.Helper()
	cfg := &config.Config{
		Tracing:    config.TracingConfig{ServiceName: "rewind-photos-test"},
		Monitoring: config.MonitoringConfig{AlertP95MS: 2500, AlertAuthFailRate: 0.1},
	}
	m := metrics.New()
	photoHandler := handlers.NewPhotoHandler(stubProcessor{}, stubStore{}, nil, nil, m, zap.NewNop(), cfg)
	healthHandler := handlers.NewHealthHandler(cfg, "stdlib", nil)

	router := NewRouter(photoHandler, healthHandler, stubVerifier{}, limiter, m, zap.NewNop(), cfg)
	return router.SetupRoutes()
}

func serve(engine *gin.Engine, method, path, token string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	engine.ServeHTTP(rec, req)
	return rec
}

func TestNotFound(t *testing.T) {
	engine := newTestEngine(t, nil)

	rec := serve(engine, http.MethodGet, "/api/nope", "")
	require.Equal(t, http.StatusNotFound, rec.Code)

	var resp models.ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, models.ErrorResponse{Error: "Not Found", Message: "Cannot GET /api/nope"}, resp)
}

func TestCommonHeaders(t *testing.T) {
	engine := newTestEngine(t, nil)

	rec := serve(engine, http.MethodGet, "/health", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
	assert.Equal(t, "nosniff", rec.Header().Get("X-Content-Type-Options"))
	assert.Len(t, rec.Header().Get(middleware.RequestIDHeader), 36)

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set(middleware.RequestIDHeader, "trace-me")
	rec = httptest.NewRecorder()
	engine.ServeHTTP(rec, req)
	assert.Equal(t, "trace-me", rec.Header().Get(middleware.RequestIDHeader))
}

func TestCORSPreflight(t *testing.T) {
	engine := newTestEngine(t, nil)

	rec := serve(engine, http.MethodOptions, "/api/photos/upload", "")
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Contains(t, rec.Header().Get("Access-Control-Allow-Headers"), "Authorization")
}

func TestUploadRequiresAuth(t *testing.T) {
	limiter := &stubLimiter{decision: ratelimit.Decision{Allowed: true}}
	engine := newTestEngine(t, limiter)

	rec := serve(engine, http.MethodPost, "/api/photos/upload", "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Empty(t, limiter.subjects)
}

func TestUploadRateLimited(t *testing.T) {
	limiter := &stubLimiter{decision: ratelimit.Decision{Allowed: false, Limit: 5, RetryAfter: 1500 * time.Millisecond}}
	engine := newTestEngine(t, limiter)

	rec := serve(engine, http.MethodPost, "/api/photos/upload", "good-token")
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, "2", rec.Header().Get("Retry-After"))
	assert.Equal(t, "0", rec.Header().Get("X-RateLimit-Remaining"))
	assert.Equal(t, []string{"user:user-1"}, limiter.subjects)

	metricsRec := serve(engine, http.MethodGet, "/api/monitoring/metrics", "")
	require.Equal(t, http.StatusOK, metricsRec.Code)
	assert.Contains(t, metricsRec.Body.String(), `rewind_rate_limit_rejections_total{route="/api/photos/upload"} 1`)
	assert.Contains(t, metricsRec.Body.String(), `rewind_http_requests_total{method="POST",route="/api/photos/upload",status="429"} 1`)
}

func TestUploadRateLimiterFailsOpen(t *testing.T) {
	limiter := &stubLimiter{err: errors.New("redis down")}
	engine := newTestEngine(t, limiter)

	// reaches the handler, which rejects the empty body
	rec := serve(engine, http.MethodPost, "/api/photos/upload", "good-token")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestUploadRateLimitWithRedis(t *testing.T) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	defer mr.Close()

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer client.Close()

	limiter, err := ratelimit.NewRedisTokenBucket(client, config.RateLimitConfig{Requests: 1, Window: time.Minute}, "")
	require.NoError(t, err)
	engine := newTestEngine(t, limiter)

	first := serve(engine, http.MethodPost, "/api/photos/upload", "good-token")
	assert.Equal(t, http.StatusBadRequest, first.Code)

	second := serve(engine, http.MethodPost, "/api/photos/upload", "good-token")
	assert.Equal(t, http.StatusTooManyRequests, second.Code)
	assert.NotEmpty(t, second.Header().Get("Retry-After"))
}

func TestPanicRecovered(t *testing.T) {
	engine := newTestEngine(t, nil)
	engine.GET("/boom", func(*gin.Context) { panic("boom") })

	rec := serve(engine, http.MethodGet, "/boom", "")
	require.Equal(t, http.StatusInternalServerError, rec.Code)

	var resp models.ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "Internal server error", resp.Error)
	assert.Empty(t, resp.Stack)
}

func TestMonitoringRoutes(t *testing.T) {
	engine := newTestEngine(t, nil)

	rec := serve(engine, http.MethodGet, "/api/monitoring/test", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "alert_p95_threshold")

	rec = serve(engine, http.MethodGet, "/api/photos/test", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"max_file_size":"10MB"`)
}
