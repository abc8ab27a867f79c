package storage

import (
	"bytes"
	"context"
	"fmt"
	"sync"

	"github.com/phambaophuc/rewind-photos/internal/config"
	storage_go "github.com/supabase-community/storage-go"
	"go.uber.org/zap"
)

// SupabaseStore writes to a public Supabase Storage bucket.
//
// storage-go stores per-upload headers (content type, cache control, upsert)
// on the client's shared transport, so uploads go through their own client
// under a mutex and JSON calls (list, remove) use a second, untouched client.
type SupabaseStore struct {
	uploadMu sync.Mutex
	uploader *storage_go.Client
	api      *storage_go.Client
	bucket   string
	logger   *zap.Logger
}

func NewSupabaseStore(cfg config.SupabaseConfig, bucket string, logger *zap.Logger) *SupabaseStore {
	endpoint := cfg.URL + "/storage/v1"
	return &SupabaseStore{
		uploader: storage_go.NewClient(endpoint, cfg.ServiceKey, nil),
		api:      storage_go.NewClient(endpoint, cfg.ServiceKey, nil),
		bucket:   bucket,
		logger:   logger,
	}
}

func (s *SupabaseStore) Name() string {
	return "supabase"
}

// Upload stores data at path without overwriting and returns its public URL.
func (s *SupabaseStore) Upload(ctx context.Context, data []byte, path, contentType string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", storageErr("upload", path, err)
	}

	cache := cacheControl
	upsert := false
	opts := storage_go.FileOptions{
		CacheControl: &cache,
		ContentType:  &contentType,
		Upsert:       &upsert,
	}

	s.uploadMu.Lock()
	_, err := s.uploader.UploadFile(s.bucket, path, bytes.NewReader(data), opts)
	s.uploadMu.Unlock()
	if err != nil {
		return "", storageErr("upload", path, fmt.Errorf("failed to upload to supabase: %w", err))
	}

	publicURL := s.api.GetPublicUrl(s.bucket, path)
	s.logger.Debug("Uploaded object",
		zap.String("bucket", s.bucket),
		zap.String("path", path),
		zap.Int("size", len(data)))

	return publicURL.SignedURL, nil
}

// Delete removes file from Supabase Storage
func (s *SupabaseStore) Delete(ctx context.Context, path string) error {
	if err := ctx.Err(); err != nil {
		return storageErr("delete", path, err)
	}
	if _, err := s.api.RemoveFile(s.bucket, []string{path}); err != nil {
		return storageErr("delete", path, err)
	}
	return nil
}

// HealthCheck lists one object to prove the bucket is reachable.
func (s *SupabaseStore) HealthCheck(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	_, err := s.api.ListFiles(s.bucket, "", storage_go.FileSearchOptions{Limit: 1})
	if err != nil {
		return fmt.Errorf("supabase storage unreachable: %w", err)
	}
	return nil
}
