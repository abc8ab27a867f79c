package handlers

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/phambaophuc/rewind-photos/internal/config"
	"github.com/phambaophuc/rewind-photos/internal/http/middleware"
	"github.com/phambaophuc/rewind-photos/internal/metrics"
	"github.com/phambaophuc/rewind-photos/internal/models"
	"github.com/phambaophuc/rewind-photos/internal/services/database"
	"github.com/phambaophuc/rewind-photos/internal/services/queue"
	"github.com/phambaophuc/rewind-photos/internal/services/storage"
	"github.com/phambaophuc/rewind-photos/internal/services/style"
	"github.com/phambaophuc/rewind-photos/pkg/utils"
	"go.uber.org/zap"
)

const (
	photoFieldKey  = "photo"
	publishTimeout = 3 * time.Second
)

// PhotoProcessor turns raw upload bytes into the stored image pair.
type PhotoProcessor interface {
	ProcessPhotoForUpload(ctx context.Context, raw []byte, st style.Style) (*models.ProcessedResult, error)
	Config() config.ProcessingConfig
	Codec() (name string, progressive bool)
}

type PhotoRepository interface {
	Insert(ctx context.Context, p models.NewPhoto) (*models.Photo, error)
}

type PhotoHandler struct {
	photos  PhotoProcessor
	store   storage.ObjectStore
	repo    PhotoRepository
	events  queue.EventPublisher
	metrics *metrics.Metrics
	logger  *zap.Logger
	config  *config.Config
	now     func() time.Time
}

// NewPhotoHandler wires the upload flow. repo and events may be nil: without
// a repository every upload fails after processing, without a publisher no
// events are sent.
func NewPhotoHandler(
	photos PhotoProcessor,
	store storage.ObjectStore,
	repo PhotoRepository,
	events queue.EventPublisher,
	m *metrics.Metrics,
	logger *zap.Logger,
	config *config.Config,
) *PhotoHandler {
	if repo == nil {
		repo = unavailableRepository{}
	}
	if m == nil {
		m = metrics.New()
	}

	return &PhotoHandler{
		photos:  photos,
		store:   store,
		repo:    repo,
		events:  events,
		metrics: m,
		logger:  logger,
		config:  config,
		now:     time.Now,
	}
}

type unavailableRepository struct{}

func (unavailableRepository) Insert(context.Context, models.NewPhoto) (*models.Photo, error) {
	return nil, fmt.Errorf("%w: database is not configured", database.ErrDatabase)
}

// Upload handles POST /api/photos/upload.
func (h *PhotoHandler) Upload(c *gin.Context) {
	user, ok := middleware.CurrentUser(c)
	if !ok {
		h.respondError(c, http.StatusUnauthorized, "Unauthorized", "Missing or invalid Authorization header")
		return
	}

	cfg := h.photos.Config()
	form, err := readUploadForm(c.Request, cfg.MaxImageSizeBytes(), cfg.MaxImageSizeMB)
	if err != nil {
		h.rejectUpload(c, err)
		return
	}

	meta, err := form.metadata(h.now())
	if err != nil {
		h.rejectUpload(c, err)
		return
	}

	ctx := c.Request.Context()
	st := style.Parse(form.photoStyle)
	log := h.logger.With(
		zap.String("user_id", user.ID),
		zap.String("photo_style", st.String()),
		zap.Int("original_size", len(form.data)),
	)
	log.Info("Processing photo upload",
		zap.String("requested_style", form.photoStyle),
		zap.String("filename", form.filename),
		zap.String("content_type", form.contentType))

	start := time.Now()
	processed, err := h.photos.ProcessPhotoForUpload(ctx, form.data, st)
	h.metrics.ProcessingDuration.WithLabelValues(st.String()).Observe(time.Since(start).Seconds())
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			h.metrics.Uploads.WithLabelValues(metrics.UploadTimeout).Inc()
			log.Error("Photo processing timed out", zap.Error(err))
			h.respondServerError(c, http.StatusGatewayTimeout, "Processing timeout",
				fmt.Sprintf("Photo processing exceeded %s", cfg.Timeout), err)
			return
		}
		h.metrics.Uploads.WithLabelValues(metrics.UploadProcessFailed).Inc()
		log.Error("Photo processing failed", zap.Error(err))
		h.respondServerError(c, http.StatusInternalServerError, "Upload failed", "Failed to process and upload photo", err)
		return
	}

	mainKey, thumbKey := utils.UploadKeys(user.ID, h.now())
	urls, err := storage.UploadMultiple(ctx, h.store, []storage.Object{
		{Path: mainKey, Data: processed.MainImage, ContentType: storage.ContentTypeJPEG},
		{Path: thumbKey, Data: processed.Thumbnail, ContentType: storage.ContentTypeJPEG},
	}, h.logger)
	if err != nil {
		h.metrics.Uploads.WithLabelValues(metrics.UploadStorageFailed).Inc()
		log.Error("Photo upload to storage failed", zap.Error(err))
		h.respondServerError(c, http.StatusInternalServerError, "Upload failed", "Failed to process and upload photo", err)
		return
	}

	meta.UserID = user.ID
	meta.ImageURL = urls[0]
	meta.ThumbnailURL = urls[1]
	meta.PhotoStyle = st.String()

	photo, err := h.repo.Insert(ctx, meta)
	if err != nil {
		h.metrics.Uploads.WithLabelValues(metrics.UploadDatabaseFailed).Inc()
		log.Error("Saving photo metadata failed, removing uploaded objects", zap.Error(err))
		storage.DeleteAll(context.WithoutCancel(ctx), h.store, []string{mainKey, thumbKey}, h.logger)
		h.respondServerError(c, http.StatusInternalServerError, "Upload failed", "Failed to process and upload photo", err)
		return
	}

	h.publishCreated(ctx, photo)

	h.metrics.Uploads.WithLabelValues(metrics.UploadSuccess).Inc()
	h.metrics.RecordSavings(processed.Metadata.OriginalSizeBytes, processed.Metadata.CompressedSizeBytes)
	log.Info("Photo uploaded",
		zap.String("photo_id", photo.ID),
		zap.Int("compressed_size", processed.Metadata.CompressedSizeBytes),
		zap.Float64("compression_ratio", processed.Metadata.CompressionRatioPercent),
		zap.Duration("elapsed", time.Since(start)))

	c.JSON(http.StatusCreated, models.UploadResponse{
		Success: true,
		Photo: models.PhotoSummary{
			ID:           photo.ID,
			ImageURL:     photo.ImageURL,
			ThumbnailURL: photo.ThumbnailURL,
			Caption:      photo.Caption,
			PhotoStyle:   photo.PhotoStyle,
			CreatedAt:    photo.CreatedAt,
		},
		Processing: models.ProcessingStats{
			OriginalSize:   utils.FormatKB(len(form.data)),
			CompressedSize: utils.FormatKB(processed.Metadata.CompressedSizeBytes),
			Savings:        utils.FormatPercent(processed.Metadata.CompressionRatioPercent),
			ThumbnailSize:  utils.FormatKB(processed.Metadata.ThumbnailSizeBytes),
		},
	})
}

// publishCreated is best effort: the photo is already persisted.
func (h *PhotoHandler) publishCreated(ctx context.Context, photo *models.Photo) {
	if h.events == nil {
		return
	}

	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), publishTimeout)
	defer cancel()

	if err := h.events.PublishPhotoCreated(ctx, models.NewPhotoCreatedEvent(photo)); err != nil {
		h.metrics.EventsPublished.WithLabelValues(models.EventPhotoCreated, "error").Inc()
		h.logger.Warn("Failed to publish photo event",
			zap.String("photo_id", photo.ID),
			zap.Error(err))
		return
	}
	h.metrics.EventsPublished.WithLabelValues(models.EventPhotoCreated, "ok").Inc()
}

// TestConfig handles GET /api/photos/test.
func (h *PhotoHandler) TestConfig(c *gin.Context) {
	cfg := h.photos.Config()
	codec, progressive := h.photos.Codec()

	c.JSON(http.StatusOK, gin.H{
		"message": "Photo upload endpoint ready",
		"config": gin.H{
			"compression_quality": cfg.CompressionQuality,
			"max_width":           cfg.MaxWidth,
			"max_height":          cfg.MaxHeight,
			"thumbnail_width":     cfg.ThumbnailWidth,
			"thumbnail_quality":   cfg.ThumbnailQuality,
			"max_file_size":       fmt.Sprintf("%dMB", cfg.MaxImageSizeMB),
			"processing_timeout":  cfg.Timeout.String(),
			"workers":             cfg.Workers,
			"max_input_pixels":    cfg.MaxPixels,
			"codec":               codec,
			"progressive_jpeg":    progressive,
		},
		"supabase_configured": h.config.Supabase.Configured(),
		"storage_backend":     h.store.Name(),
		"styles":              style.All(),
		"allowed_types":       utils.AllowedImageTypes(),
		"endpoints": gin.H{
			"upload": "POST /api/photos/upload (requires auth + file)",
		},
	})
}
