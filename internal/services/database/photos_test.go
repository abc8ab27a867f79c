package database

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/pashagolub/pgxmock/v3"
	"github.com/phambaophuc/rewind-photos/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var photoColumns = []string{
	"id", "user_id", "image_url", "thumbnail_url", "caption",
	"prompt_time", "photo_style", "latitude", "longitude", "created_at",
}

func TestInsertPhoto(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewPhotoRepository(mock)

	caption := "sunset"
	lat, lng := 10.762622, 106.660172
	promptTime := time.Date(2024, 5, 1, 9, 30, 0, 0, time.UTC)
	createdAt := time.Date(2024, 5, 1, 9, 31, 0, 0, time.UTC)

	in := models.NewPhoto{
		UserID:       "7c9e6679-7425-40de-944b-e07fc1f90ae7",
		ImageURL:     "https://cdn.example/photos/a.jpg",
		ThumbnailURL: "https://cdn.example/thumbnails/a_thumb.jpg",
		Caption:      &caption,
		PromptTime:   promptTime,
		PhotoStyle:   "film",
		Latitude:     &lat,
		Longitude:    &lng,
	}

	mock.ExpectQuery(`(?is)INSERT INTO photos.*RETURNING id::text`).
		WithArgs(in.UserID, in.ImageURL, in.ThumbnailURL, in.Caption, promptTime, "film", in.Latitude, in.Longitude).
		WillReturnRows(pgxmock.NewRows(photoColumns).AddRow(
			"0b8f1d2e-1111-4c4c-9a9a-123456789abc", in.UserID, in.ImageURL, in.ThumbnailURL, &caption,
			promptTime, "film", &lat, &lng, createdAt,
		))

	photo, err := repo.Insert(context.Background(), in)
	require.NoError(t, err)

	assert.Equal(t, "0b8f1d2e-1111-4c4c-9a9a-123456789abc", photo.ID)
	assert.Equal(t, in.UserID, photo.UserID)
	require.NotNil(t, photo.Caption)
	assert.Equal(t, "sunset", *photo.Caption)
	assert.Equal(t, "film", photo.PhotoStyle)
	require.NotNil(t, photo.Latitude)
	assert.InDelta(t, lat, *photo.Latitude, 1e-9)
	assert.Equal(t, createdAt, photo.CreatedAt)

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestInsertPhotoDefaults(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewPhotoRepository(mock)
	createdAt := time.Now().UTC()

	mock.ExpectQuery(`(?is)INSERT INTO photos`).
		WithArgs("user-1", "u", "t", pgxmock.AnyArg(), pgxmock.AnyArg(), "polaroid", pgxmock.AnyArg(), pgxmock.AnyArg()).
		WillReturnRows(pgxmock.NewRows(photoColumns).AddRow(
			"id-1", "user-1", "u", "t", nil, createdAt, "polaroid", nil, nil, createdAt,
		))

	photo, err := repo.Insert(context.Background(), models.NewPhoto{UserID: "user-1", ImageURL: "u", ThumbnailURL: "t"})
	require.NoError(t, err)
	assert.Nil(t, photo.Caption)
	assert.Nil(t, photo.Latitude)
	assert.Nil(t, photo.Longitude)
	assert.Equal(t, "polaroid", photo.PhotoStyle)

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestInsertPhotoError(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewPhotoRepository(mock)

	mock.ExpectQuery(`(?is)INSERT INTO photos`).
		WithArgs(pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(),
			pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg()).
		WillReturnError(errors.New("violates foreign key constraint"))

	_, err = repo.Insert(context.Background(), models.NewPhoto{UserID: "user-1", ImageURL: "u", ThumbnailURL: "t"})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrDatabase)
	assert.Contains(t, err.Error(), "foreign key")

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestHealthCheck(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewPhotoRepository(mock)

	mock.ExpectPing()
	assert.NoError(t, repo.HealthCheck(context.Background()))

	mock.ExpectPing().WillReturnError(errors.New("connection refused"))
	assert.ErrorIs(t, repo.HealthCheck(context.Background()), ErrDatabase)

	require.NoError(t, mock.ExpectationsWereMet())
}
