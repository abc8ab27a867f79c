package processor

import (
	"errors"
	"fmt"
)

var (
	ErrEmptyInput        = errors.New("empty image data")
	ErrUnsupportedFormat = errors.New("unsupported image format")
	ErrPixelLimit        = errors.New("input image exceeds pixel limit")
)

// ImageProcessingError wraps any failure of a processing step. Op names the
// step that failed: decode, orient, resize, style, encode or inspect.
type ImageProcessingError struct {
	Op  string
	Err error
}

func (e *ImageProcessingError) Error() string {
	return fmt.Sprintf("image processing failed at %s: %v", e.Op, e.Err)
}

func (e *ImageProcessingError) Unwrap() error {
	return e.Err
}

func wrapErr(op string, err error) error {
	if err == nil {
		return nil
	}
	var ipe *ImageProcessingError
	if errors.As(err, &ipe) {
		return err
	}
	return &ImageProcessingError{Op: op, Err: err}
}
