package main

import (
	"context"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/phambaophuc/rewind-photos/internal/config"
	"github.com/phambaophuc/rewind-photos/internal/http/handlers"
	"github.com/phambaophuc/rewind-photos/internal/http/routes"
	"github.com/phambaophuc/rewind-photos/internal/metrics"
	"github.com/phambaophuc/rewind-photos/internal/services/auth"
	"github.com/phambaophuc/rewind-photos/internal/services/database"
	"github.com/phambaophuc/rewind-photos/internal/services/photo"
	"github.com/phambaophuc/rewind-photos/internal/services/processor"
	"github.com/phambaophuc/rewind-photos/internal/services/queue"
	"github.com/phambaophuc/rewind-photos/internal/services/ratelimit"
	"github.com/phambaophuc/rewind-photos/internal/services/storage"
	"github.com/phambaophuc/rewind-photos/internal/services/worker"
	"github.com/phambaophuc/rewind-photos/internal/telemetry"
	"go.uber.org/zap"
)

func main() {
	// Initialize logger
	logger, err := zap.NewProduction()
	if err != nil {
		log.Fatal("Failed to initialize logger:", err)
	}
	defer logger.Sync()

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("Failed to load configuration", zap.Error(err))
	}
	if cfg.Server.IsDevelopment() {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	shutdownTracing, err := telemetry.SetupTracing(ctx, cfg.Tracing, logger)
	if err != nil {
		logger.Fatal("Failed to initialize tracing", zap.Error(err))
	}

	// Initialize services
	if err := processor.Startup(); err != nil {
		logger.Fatal("Failed to start image codec", zap.Error(err))
	}
	defer processor.Shutdown()

	imageProcessor := processor.NewImageProcessor()
	pool := worker.NewPool(cfg.Processing.Workers, logger)
	defer pool.Close()
	photoService := photo.NewService(imageProcessor, pool, cfg.Processing, logger)

	store, err := storage.NewObjectStore(ctx, cfg, logger)
	if err != nil {
		logger.Fatal("Failed to initialize storage service", zap.Error(err))
	}

	m := metrics.New()
	health := handlers.NewHealthHandler(cfg, imageProcessor.CodecName(), pool)
	health.AddCheck("storage", func(ctx context.Context) string { return storage.Status(ctx, store) })

	var repo handlers.PhotoRepository
	if cfg.Database.URL != "" {
		dbPool, err := database.NewPool(ctx, cfg.Database.URL)
		if err != nil {
			logger.Fatal("Failed to connect to database", zap.Error(err))
		}
		defer dbPool.Close()

		photos := database.NewPhotoRepository(dbPool)
		repo = photos
		health.AddCheck("database", handlers.CheckFunc(photos.HealthCheck))
	} else {
		logger.Warn("DATABASE_URL not set, uploads will fail at the metadata step")
		health.AddCheck("database", handlers.NotConfigured)
	}

	if cfg.Supabase.JWTSecret == "" {
		logger.Warn("SUPABASE_JWT_SECRET not set, every authenticated request will be rejected")
	}
	verifier := auth.NewJWTVerifier(cfg.Supabase.JWTSecret, cfg.Supabase.Audience)

	var limiter ratelimit.RateLimiter
	redisClient := ratelimit.NewRedisClient(cfg.Redis)
	defer redisClient.Close()
	bucket, err := ratelimit.NewRedisTokenBucket(redisClient, cfg.RateLimit, "")
	if err != nil {
		logger.Warn("Rate limiting disabled", zap.Error(err))
		health.AddCheck("redis", handlers.NotConfigured)
	} else {
		limiter = bucket
		health.AddCheck("redis", handlers.CheckFunc(func(ctx context.Context) error {
			return redisClient.Ping(ctx).Err()
		}))
	}

	var events queue.EventPublisher
	queueService, err := queue.NewQueueService(cfg.RabbitMQ.URL, cfg.RabbitMQ.Queue, logger)
	if err != nil {
		logger.Warn("Failed to initialize queue service", zap.Error(err))
		// Continue without photo events
		health.AddCheck("rabbitmq", handlers.NotConfigured)
	} else {
		defer queueService.Close()
		events = queueService
		health.AddCheck("rabbitmq", func(context.Context) string { return queueService.HealthCheck() })
		health.SetEventBacklog(func() (int, error) {
			stats, err := queueService.Backlog()
			return stats.Messages, err
		})
	}

	// Initialize handlers
	photoHandler := handlers.NewPhotoHandler(photoService, store, repo, events, m, logger, cfg)
	router := routes.NewRouter(photoHandler, health, verifier, limiter, m, logger, cfg)

	// Create HTTP server
	server := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		Handler:      router.SetupRoutes(),
	}

	// Start server
	go func() {
		logger.Info("Starting server",
			zap.String("addr", server.Addr),
			zap.String("environment", cfg.Server.Environment),
			zap.String("codec", imageProcessor.CodecName()),
			zap.String("storage", store.Name()),
			zap.Int("workers", cfg.Processing.Workers))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("Server failed to start", zap.Error(err))
		}
	}()

	// Wait for interrupt signal to gracefully shutdown
	<-ctx.Done()
	stop()

	logger.Info("Shutting down server...")

	// Graceful shutdown
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("Server forced to shutdown", zap.Error(err))
	}
	if err := shutdownTracing(shutdownCtx); err != nil {
		logger.Error("Failed to flush traces", zap.Error(err))
	}

	logger.Info("Server exited")
}
