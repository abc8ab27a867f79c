package models

import "time"

// Photo is a row of the photos table.
type Photo struct {
	ID           string    `json:"id"`
	UserID       string    `json:"user_id"`
	ImageURL     string    `json:"image_url"`
	ThumbnailURL string    `json:"thumbnail_url"`
	Caption      *string   `json:"caption"`
	PromptTime   time.Time `json:"prompt_time"`
	PhotoStyle   string    `json:"photo_style"`
	Latitude     *float64  `json:"latitude"`
	Longitude    *float64  `json:"longitude"`
	CreatedAt    time.Time `json:"created_at"`
}

// NewPhoto holds the columns written on insert; id and created_at come from
// the database.
type NewPhoto struct {
	UserID       string
	ImageURL     string
	ThumbnailURL string
	Caption      *string
	PromptTime   time.Time
	PhotoStyle   string
	Latitude     *float64
	Longitude    *float64
}

// PhotoEvent is published once a photo has been stored and recorded.
type PhotoEvent struct {
	Type         string    `json:"type"`
	PhotoID      string    `json:"photo_id"`
	UserID       string    `json:"user_id"`
	ImageURL     string    `json:"image_url"`
	ThumbnailURL string    `json:"thumbnail_url"`
	PhotoStyle   string    `json:"photo_style"`
	CreatedAt    time.Time `json:"created_at"`
}

const EventPhotoCreated = "photo.created"

func NewPhotoCreatedEvent(p *Photo) PhotoEvent {
	return PhotoEvent{
		Type:         EventPhotoCreated,
		PhotoID:      p.ID,
		UserID:       p.UserID,
		ImageURL:     p.ImageURL,
		ThumbnailURL: p.ThumbnailURL,
		PhotoStyle:   p.PhotoStyle,
		CreatedAt:    p.CreatedAt,
	}
}
