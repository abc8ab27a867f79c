// Package photo turns one uploaded image into the stored main image and
// thumbnail pair.
package photo

import (
	"context"
	"fmt"
	"time"

	"github.com/phambaophuc/rewind-photos/internal/config"
	"github.com/phambaophuc/rewind-photos/internal/models"
	"github.com/phambaophuc/rewind-photos/internal/services/processor"
	"github.com/phambaophuc/rewind-photos/internal/services/style"
	"github.com/phambaophuc/rewind-photos/internal/services/worker"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// ImageProcessor is the codec adapter as seen by the orchestrator.
type ImageProcessor interface {
	Process(ctx context.Context, raw []byte, sizing processor.Sizing, st style.Style) (*processor.Encoded, error)
	Inspect(raw []byte) (processor.SourceInfo, error)
}

type Service struct {
	processor ImageProcessor
	pool      *worker.Pool
	cfg       config.ProcessingConfig
	logger    *zap.Logger
	tracer    trace.Tracer
}

func NewService(proc ImageProcessor, pool *worker.Pool, cfg config.ProcessingConfig, logger *zap.Logger) *Service {
	return &Service{
		processor: proc,
		pool:      pool,
		cfg:       cfg.Normalize(),
		logger:    logger,
		tracer:    otel.Tracer("rewind-photos/photo"),
	}
}

// Config returns the processing settings in effect.
func (s *Service) Config() config.ProcessingConfig {
	return s.cfg
}

// Codec names the image codec in use and whether it writes progressive JPEG.
func (s *Service) Codec() (name string, progressive bool) {
	if c, ok := s.processor.(interface {
		CodecName() string
		Progressive() bool
	}); ok {
		return c.CodecName(), c.Progressive()
	}
	return "unknown", false
}

// MainSizing is the bounding box and quality for the full-size image.
func (s *Service) MainSizing() processor.Sizing {
	return processor.Sizing{Width: s.cfg.MaxWidth, Height: s.cfg.MaxHeight, Quality: s.cfg.CompressionQuality}
}

// ThumbnailSizing bounds only the width.
func (s *Service) ThumbnailSizing() processor.Sizing {
	return processor.Sizing{Width: s.cfg.ThumbnailWidth, Quality: s.cfg.ThumbnailQuality}
}

// ProcessPhotoForUpload produces the main image and thumbnail for raw with
// the given style. It runs on the worker pool and gives up after the
// configured processing timeout.
func (s *Service) ProcessPhotoForUpload(ctx context.Context, raw []byte, st style.Style) (*models.ProcessedResult, error) {
	ctx, span := s.tracer.Start(ctx, "photo.process_for_upload")
	defer span.End()
	span.SetAttributes(
		attribute.String("photo.style", st.String()),
		attribute.Int("photo.original_bytes", len(raw)),
	)

	ctx, cancel := context.WithTimeout(ctx, s.cfg.Timeout)
	defer cancel()

	start := time.Now()
	var result *models.ProcessedResult
	err := s.pool.Submit(ctx, func(ctx context.Context) error {
		r, err := s.process(ctx, raw, st)
		if err != nil {
			return err
		}
		result = r
		return nil
	})
	if err != nil {
		span.RecordError(err)
		s.logger.Error("Image processing failed",
			zap.String("style", st.String()),
			zap.Int("original_size", len(raw)),
			zap.Duration("elapsed", time.Since(start)),
			zap.Error(err))
		return nil, fmt.Errorf("failed to process image: %w", err)
	}

	s.logger.Info("Image processed",
		zap.String("style", st.String()),
		zap.Int("original_size", result.Metadata.OriginalSizeBytes),
		zap.Int("compressed_size", result.Metadata.CompressedSizeBytes),
		zap.Int("thumbnail_size", result.Metadata.ThumbnailSizeBytes),
		zap.Float64("compression_ratio", result.Metadata.CompressionRatioPercent),
		zap.Duration("elapsed", time.Since(start)))

	return result, nil
}

func (s *Service) process(ctx context.Context, raw []byte, st style.Style) (*models.ProcessedResult, error) {
	info, err := s.processor.Inspect(raw)
	if err != nil {
		return nil, err
	}
	if err := processor.CheckPixelLimit(info, s.cfg.MaxPixels); err != nil {
		return nil, err
	}

	var main, thumb *processor.Encoded
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		out, err := s.processor.Process(gctx, raw, s.MainSizing(), st)
		main = out
		return err
	})
	g.Go(func() error {
		out, err := s.processor.Process(gctx, raw, s.ThumbnailSizing(), st)
		thumb = out
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	return &models.ProcessedResult{
		MainImage: main.Data,
		Thumbnail: thumb.Data,
		Metadata: models.ProcessingMetadata{
			Width:                   main.Width,
			Height:                  main.Height,
			Format:                  main.Format,
			OriginalSizeBytes:       len(raw),
			CompressedSizeBytes:     len(main.Data),
			ThumbnailSizeBytes:      len(thumb.Data),
			CompressionRatioPercent: CompressionRatio(len(raw), len(main.Data)),
			StyleApplied:            st.String(),
			SourceWidth:             info.Width,
			SourceHeight:            info.Height,
		},
	}, nil
}

// CompressionRatio is the percentage saved going from original to compressed
// bytes. It is negative when the output grew.
func CompressionRatio(original, compressed int) float64 {
	if original <= 0 {
		return 0
	}
	return (1 - float64(compressed)/float64(original)) * 100
}
