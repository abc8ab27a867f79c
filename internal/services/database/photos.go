package database

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/phambaophuc/rewind-photos/internal/models"
)

var ErrDatabase = errors.New("database error")

// PgxIface is the subset of *pgxpool.Pool the repository needs.
type PgxIface interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Ping(ctx context.Context) error
	Close()
}

// NewPool opens and pings a connection pool for dsn.
func NewPool(ctx context.Context, dsn string) (*pgxpool.Pool, error) {
	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("parse database url: %w", err)
	}
	cfg.MaxConns = 10
	cfg.MaxConnIdleTime = 5 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("create pool: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := pool.Ping(pingCtx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	return pool, nil
}

type PhotoRepository struct {
	pool PgxIface
}

func NewPhotoRepository(pool PgxIface) *PhotoRepository {
	return &PhotoRepository{pool: pool}
}

const insertPhotoSQL = `INSERT INTO photos
	(user_id, image_url, thumbnail_url, caption, prompt_time, photo_style, latitude, longitude)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
RETURNING id::text, user_id::text, image_url, thumbnail_url, caption, prompt_time, photo_style, latitude, longitude, created_at`

// Insert writes one photo row and returns it as stored.
func (r *PhotoRepository) Insert(ctx context.Context, p models.NewPhoto) (*models.Photo, error) {
	if p.PromptTime.IsZero() {
		p.PromptTime = time.Now().UTC()
	}
	if p.PhotoStyle == "" {
		p.PhotoStyle = "polaroid"
	}

	var photo models.Photo
	err := r.pool.QueryRow(ctx, insertPhotoSQL,
		p.UserID,
		p.ImageURL,
		p.ThumbnailURL,
		p.Caption,
		p.PromptTime,
		p.PhotoStyle,
		p.Latitude,
		p.Longitude,
	).Scan(
		&photo.ID,
		&photo.UserID,
		&photo.ImageURL,
		&photo.ThumbnailURL,
		&photo.Caption,
		&photo.PromptTime,
		&photo.PhotoStyle,
		&photo.Latitude,
		&photo.Longitude,
		&photo.CreatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("%w: insert photo: %w", ErrDatabase, err)
	}
	return &photo, nil
}

func (r *PhotoRepository) HealthCheck(ctx context.Context) error {
	if err := r.pool.Ping(ctx); err != nil {
		return fmt.Errorf("%w: ping: %w", ErrDatabase, err)
	}
	return nil
}
