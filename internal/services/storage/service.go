package storage

import (
	"context"
	"errors"
	"fmt"

	"github.com/phambaophuc/rewind-photos/internal/config"
	"go.uber.org/zap"
)

var ErrStorage = errors.New("storage error")

const (
	ContentTypeJPEG = "image/jpeg"
	cacheControl    = "3600"
)

// ObjectStore keeps uploaded images and hands back their public URLs.
type ObjectStore interface {
	Upload(ctx context.Context, data []byte, path, contentType string) (string, error)
	Delete(ctx context.Context, path string) error
	HealthCheck(ctx context.Context) error
	Name() string
}

// NewObjectStore builds the backend chosen by STORAGE_BACKEND.
func NewObjectStore(ctx context.Context, cfg *config.Config, logger *zap.Logger) (ObjectStore, error) {
	switch cfg.Storage.Backend {
	case "", "supabase":
		if !cfg.Supabase.Configured() {
			logger.Warn("Supabase storage is not configured; uploads will fail")
		}
		return NewSupabaseStore(cfg.Supabase, cfg.Storage.Bucket, logger), nil
	case "minio":
		store, err := NewMinioStore(cfg.Minio, cfg.Storage.Bucket, logger)
		if err != nil {
			return nil, err
		}
		if err := store.EnsureBucket(ctx); err != nil {
			logger.Warn("Failed to ensure MinIO bucket", zap.Error(err))
		}
		return store, nil
	default:
		return nil, fmt.Errorf("unsupported storage backend: %s", cfg.Storage.Backend)
	}
}

func storageErr(op, path string, err error) error {
	return fmt.Errorf("%w: %s %s: %w", ErrStorage, op, path, err)
}
