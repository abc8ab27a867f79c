package handlers

import (
	"errors"
	"fmt"
	"io"
	"math"
	"mime/multipart"
	"net/http"
	"runtime/debug"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/phambaophuc/rewind-photos/internal/metrics"
	"github.com/phambaophuc/rewind-photos/internal/models"
	"github.com/phambaophuc/rewind-photos/pkg/utils"
	"go.uber.org/zap"
)

const maxFieldBytes = 64 << 10

// ValidationError is a client mistake, answered with 400.
type ValidationError struct {
	Title   string
	Message string
}

func (e *ValidationError) Error() string {
	return e.Title + ": " + e.Message
}

func invalid(title, message string) *ValidationError {
	return &ValidationError{Title: title, Message: message}
}

// === REQUEST PARSING ===

type uploadForm struct {
	data        []byte
	filename    string
	contentType string
	caption     string
	photoStyle  string
	promptTime  string
	latitude    string
	longitude   string
}

// readUploadForm streams the multipart body. The file part's MIME type is
// checked before any of its bytes are read, and at most maxBytes+1 bytes are
// buffered.
func readUploadForm(r *http.Request, maxBytes int64, maxMB int) (*uploadForm, error) {
	reader, err := r.MultipartReader()
	if err != nil {
		return nil, invalid("No file uploaded", "Please provide a photo file")
	}

	form := &uploadForm{}
	seenFile := false
	for {
		part, err := reader.NextPart()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, invalid("Upload error", err.Error())
		}

		if part.FileName() == "" {
			if err := form.setField(part); err != nil {
				part.Close()
				return nil, err
			}
			part.Close()
			continue
		}

		err = form.setFile(part, seenFile, maxBytes, maxMB)
		part.Close()
		if err != nil {
			return nil, err
		}
		seenFile = true
	}

	if !seenFile {
		return nil, invalid("No file uploaded", "Please provide a photo file")
	}
	return form, nil
}

func (f *uploadForm) setFile(part *multipart.Part, seenFile bool, maxBytes int64, maxMB int) error {
	if part.FormName() != photoFieldKey {
		return invalid("Upload error", fmt.Sprintf("Unexpected field: %s", part.FormName()))
	}
	if seenFile {
		return invalid("Too many files", "Only one file allowed per upload")
	}

	contentType := part.Header.Get("Content-Type")
	if !utils.IsValidImageType(contentType) {
		return invalid("Invalid file", "Invalid file type. Only JPEG, PNG, WebP, and HEIF images are allowed.")
	}

	data, err := io.ReadAll(io.LimitReader(part, maxBytes+1))
	if err != nil {
		return invalid("Upload error", err.Error())
	}
	if int64(len(data)) > maxBytes {
		return invalid("File too large", fmt.Sprintf("Maximum file size: %dMB", maxMB))
	}

	f.data = data
	f.filename = part.FileName()
	f.contentType = contentType
	return nil
}

func (f *uploadForm) setField(part *multipart.Part) error {
	value, err := io.ReadAll(io.LimitReader(part, maxFieldBytes+1))
	if err != nil {
		return invalid("Upload error", err.Error())
	}
	if len(value) > maxFieldBytes {
		return invalid("Upload error", fmt.Sprintf("Field value too long: %s", part.FormName()))
	}

	v := strings.TrimSpace(string(value))
	switch part.FormName() {
	case "caption":
		f.caption = v
	case "photoStyle":
		f.photoStyle = v
	case "promptTime":
		f.promptTime = v
	case "latitude":
		f.latitude = v
	case "longitude":
		f.longitude = v
	}
	return nil
}

// metadata validates the optional text fields.
func (f *uploadForm) metadata(now time.Time) (models.NewPhoto, error) {
	p := models.NewPhoto{PromptTime: now.UTC()}

	if f.caption != "" {
		caption := f.caption
		p.Caption = &caption
	}

	if f.promptTime != "" {
		t, err := time.Parse(time.RFC3339Nano, f.promptTime)
		if err != nil {
			return p, invalid("Invalid field", "promptTime must be an ISO-8601 timestamp")
		}
		p.PromptTime = t.UTC()
	}

	var err error
	if p.Latitude, err = parseCoordinate(f.latitude, "latitude", 90); err != nil {
		return p, err
	}
	if p.Longitude, err = parseCoordinate(f.longitude, "longitude", 180); err != nil {
		return p, err
	}
	return p, nil
}

func parseCoordinate(value, fieldName string, limit float64) (*float64, error) {
	if value == "" {
		return nil, nil
	}

	num, err := strconv.ParseFloat(value, 64)
	if err != nil || math.IsNaN(num) || math.IsInf(num, 0) {
		return nil, invalid("Invalid field", fmt.Sprintf("%s must be a decimal number", fieldName))
	}
	if math.Abs(num) > limit {
		return nil, invalid("Invalid field", fmt.Sprintf("%s must be between -%g and %g", fieldName, limit, limit))
	}
	return &num, nil
}

// === RESPONSE HANDLING ===

func (h *PhotoHandler) rejectUpload(c *gin.Context, err error) {
	var verr *ValidationError
	if !errors.As(err, &verr) {
		verr = invalid("Upload error", err.Error())
	}
	h.metrics.Uploads.WithLabelValues(metrics.UploadRejected).Inc()
	h.logger.Info("Upload rejected",
		zap.String("reason", verr.Title),
		zap.String("detail", verr.Message))
	h.respondError(c, http.StatusBadRequest, verr.Title, verr.Message)
}

func (h *PhotoHandler) respondError(c *gin.Context, statusCode int, title, message string) {
	c.AbortWithStatusJSON(statusCode, models.ErrorResponse{
		Error:   title,
		Message: message,
	})
}

// respondServerError hides err from the client outside development mode.
func (h *PhotoHandler) respondServerError(c *gin.Context, statusCode int, title, message string, err error) {
	_ = c.Error(err)
	resp := models.ErrorResponse{Error: title, Message: message}
	if h.config.Server.IsDevelopment() {
		resp.Stack = err.Error() + "\n" + string(debug.Stack())
	}
	c.AbortWithStatusJSON(statusCode, resp)
}
