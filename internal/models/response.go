package models

import "time"

type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
	Stack   string `json:"stack,omitempty"`
}

type UploadResponse struct {
	Success    bool            `json:"success"`
	Photo      PhotoSummary    `json:"photo"`
	Processing ProcessingStats `json:"processing"`
}

type PhotoSummary struct {
	ID           string    `json:"id"`
	ImageURL     string    `json:"imageUrl"`
	ThumbnailURL string    `json:"thumbnailUrl"`
	Caption      *string   `json:"caption"`
	PhotoStyle   string    `json:"photoStyle"`
	CreatedAt    time.Time `json:"createdAt"`
}

// ProcessingStats values are preformatted, e.g. "245KB" and "63.4%".
type ProcessingStats struct {
	OriginalSize   string `json:"originalSize"`
	CompressedSize string `json:"compressedSize"`
	Savings        string `json:"savings"`
	ThumbnailSize  string `json:"thumbnailSize"`
}
