package storage

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"github.com/phambaophuc/rewind-photos/internal/config"
	"go.uber.org/zap"
)

// MinioStore targets any S3-compatible endpoint, typically MinIO in local
// development.
type MinioStore struct {
	client    *minio.Client
	bucket    string
	publicURL string
	logger    *zap.Logger
}

func NewMinioStore(cfg config.MinioConfig, bucket string, logger *zap.Logger) (*MinioStore, error) {
	if strings.TrimSpace(bucket) == "" {
		return nil, fmt.Errorf("bucket is required")
	}

	mc, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("create minio client: %w", err)
	}

	publicURL := cfg.PublicURL
	if publicURL == "" {
		scheme := "http"
		if cfg.UseSSL {
			scheme = "https"
		}
		publicURL = fmt.Sprintf("%s://%s", scheme, cfg.Endpoint)
	}

	return &MinioStore{
		client:    mc,
		bucket:    bucket,
		publicURL: strings.TrimSuffix(publicURL, "/"),
		logger:    logger,
	}, nil
}

func (s *MinioStore) Name() string {
	return "minio"
}

func (s *MinioStore) EnsureBucket(ctx context.Context) error {
	exists, err := s.client.BucketExists(ctx, s.bucket)
	if err != nil {
		return fmt.Errorf("check bucket existence: %w", err)
	}
	if exists {
		return nil
	}

	if err := s.client.MakeBucket(ctx, s.bucket, minio.MakeBucketOptions{}); err != nil {
		exists, checkErr := s.client.BucketExists(ctx, s.bucket)
		if checkErr == nil && exists {
			return nil
		}
		return fmt.Errorf("create bucket %s: %w", s.bucket, err)
	}
	return nil
}

func (s *MinioStore) Upload(ctx context.Context, data []byte, path, contentType string) (string, error) {
	_, err := s.client.PutObject(
		ctx,
		s.bucket,
		path,
		bytes.NewReader(data),
		int64(len(data)),
		minio.PutObjectOptions{
			ContentType:  contentType,
			CacheControl: "max-age=" + cacheControl,
		},
	)
	if err != nil {
		return "", storageErr("upload", path, fmt.Errorf("put object: %w", err))
	}
	return s.ObjectURL(path), nil
}

// ObjectURL is the public, path-style URL of an object.
func (s *MinioStore) ObjectURL(path string) string {
	return fmt.Sprintf("%s/%s/%s", s.publicURL, s.bucket, path)
}

func (s *MinioStore) Delete(ctx context.Context, path string) error {
	if err := s.client.RemoveObject(ctx, s.bucket, path, minio.RemoveObjectOptions{}); err != nil {
		return storageErr("delete", path, err)
	}
	return nil
}

func (s *MinioStore) HealthCheck(ctx context.Context) error {
	exists, err := s.client.BucketExists(ctx, s.bucket)
	if err != nil {
		return fmt.Errorf("minio unreachable: %w", err)
	}
	if !exists {
		return fmt.Errorf("bucket %s does not exist", s.bucket)
	}
	return nil
}
