package utils

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestIsValidImageType(t *testing.T) {
	tests := []struct {
		contentType string
		want        bool
	}{
		{"image/jpeg", true},
		{"image/jpg", true},
		{"IMAGE/PNG", true},
		{"image/webp", true},
		{"image/heif", true},
		{"image/heic", true},
		{"image/jpeg; charset=binary", true},
		{"image/gif", false},
		{"image/tiff", false},
		{"text/plain", false},
		{"", false},
	}

	for _, tt := range tests {
		t.Run(tt.contentType, func(t *testing.T) {
			assert.Equal(t, tt.want, IsValidImageType(tt.contentType))
		})
	}
}

func TestFormatKB(t *testing.T) {
	assert.Equal(t, "0KB", FormatKB(0))
	assert.Equal(t, "1KB", FormatKB(1024))
	assert.Equal(t, "2KB", FormatKB(1536))
	assert.Equal(t, "245KB", FormatKB(245*1024+100))
}

func TestFormatPercent(t *testing.T) {
	assert.Equal(t, "63.4%", FormatPercent(63.4123))
	assert.Equal(t, "0.0%", FormatPercent(0))
	assert.Equal(t, "-12.5%", FormatPercent(-12.5))
}

func TestUploadKeys(t *testing.T) {
	at := time.UnixMilli(1700000000123)

	main, thumb := UploadKeys("user-1", at)
	assert.Equal(t, "photos/user-1_1700000000123.jpg", main)
	assert.Equal(t, "thumbnails/user-1_1700000000123_thumb.jpg", thumb)
}
