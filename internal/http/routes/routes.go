package routes

import (
	"github.com/gin-gonic/gin"
	"github.com/phambaophuc/rewind-photos/internal/config"
	"github.com/phambaophuc/rewind-photos/internal/http/handlers"
	"github.com/phambaophuc/rewind-photos/internal/http/middleware"
	"github.com/phambaophuc/rewind-photos/internal/metrics"
	"github.com/phambaophuc/rewind-photos/internal/services/auth"
	"github.com/phambaophuc/rewind-photos/internal/services/ratelimit"
	"go.uber.org/zap"
)

type Router struct {
	photoHandler  *handlers.PhotoHandler
	healthHandler *handlers.HealthHandler
	verifier      auth.TokenVerifier
	limiter       ratelimit.RateLimiter
	metrics       *metrics.Metrics
	logger        *zap.Logger
	config        *config.Config
}

// NewRouter builds the router. limiter may be nil to disable rate limiting.
func NewRouter(
	photoHandler *handlers.PhotoHandler,
	healthHandler *handlers.HealthHandler,
	verifier auth.TokenVerifier,
	limiter ratelimit.RateLimiter,
	m *metrics.Metrics,
	logger *zap.Logger,
	config *config.Config,
) *Router {
	return &Router{
		photoHandler:  photoHandler,
		healthHandler: healthHandler,
		verifier:      verifier,
		limiter:       limiter,
		metrics:       m,
		logger:        logger,
		config:        config,
	}
}

func (r *Router) SetupRoutes() *gin.Engine {
	router := gin.New()

	router.Use(middleware.RequestID())
	router.Use(middleware.Logger(r.logger))
	router.Use(middleware.ErrorHandler(r.logger, r.config.Server.IsDevelopment()))
	router.Use(middleware.Tracing(r.config.Tracing.ServiceName))
	router.Use(middleware.Metrics(r.metrics))
	router.Use(middleware.CORS())
	router.Use(middleware.SecurityHeaders())

	router.NoRoute(middleware.NotFound())

	router.GET("/", r.healthHandler.Root)
	router.GET("/health", r.healthHandler.Health)
	router.GET("/health/detailed", r.healthHandler.Detailed)

	api := router.Group("/api")
	{
		photos := api.Group("/photos")
		{
			photos.GET("/test", r.photoHandler.TestConfig)
			photos.POST("/upload",
				middleware.Authenticate(r.verifier, r.metrics, r.logger),
				middleware.RateLimit(r.limiter, r.metrics, r.logger),
				r.photoHandler.Upload,
			)
		}

		monitoring := api.Group("/monitoring")
		{
			monitoring.GET("/metrics", gin.WrapH(r.metrics.Handler()))
			monitoring.GET("/test", r.healthHandler.MonitoringTest)
		}
	}

	return router
}
