package utils

import (
	"fmt"
	"math"
	"mime"
	"strings"
	"time"
)

var allowedImageTypes = []string{
	"image/jpeg",
	"image/jpg",
	"image/png",
	"image/webp",
	"image/heif",
	"image/heic",
}

// AllowedImageTypes returns the MIME types accepted for upload.
func AllowedImageTypes() []string {
	out := make([]string, len(allowedImageTypes))
	copy(out, allowedImageTypes)
	return out
}

// IsValidImageType checks if content type is one of the accepted upload types
func IsValidImageType(contentType string) bool {
	mediaType, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		mediaType = contentType
	}
	mediaType = strings.ToLower(strings.TrimSpace(mediaType))

	for _, validType := range allowedImageTypes {
		if mediaType == validType {
			return true
		}
	}
	return false
}

// FormatKB renders a byte count as whole kilobytes, e.g. "245KB".
func FormatKB(size int) string {
	return fmt.Sprintf("%dKB", int(math.Round(float64(size)/1024)))
}

// FormatPercent renders a percentage with one decimal, e.g. "63.4%".
func FormatPercent(percent float64) string {
	return fmt.Sprintf("%.1f%%", percent)
}

// GenerateStorageKey builds "<folder>/<userID>_<unixMillis>[_suffix].jpg".
func GenerateStorageKey(folder, userID string, at time.Time, suffix string) string {
	name := fmt.Sprintf("%s_%d", userID, at.UnixMilli())
	if suffix != "" {
		name += "_" + suffix
	}
	return fmt.Sprintf("%s/%s.jpg", folder, name)
}

// UploadKeys returns the main and thumbnail object paths for one upload.
// Both share a timestamp so they can be correlated in the bucket.
func UploadKeys(userID string, at time.Time) (string, string) {
	return GenerateStorageKey("photos", userID, at, ""),
		GenerateStorageKey("thumbnails", userID, at, "thumb")
}
