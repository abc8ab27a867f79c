package processor

import (
	"context"
	"fmt"

	"github.com/phambaophuc/rewind-photos/internal/services/style"
)

// Sizing bounds one output. A Height of 0 leaves the height unconstrained.
type Sizing struct {
	Width   int
	Height  int
	Quality int
}

// Encoded is a finished output image.
type Encoded struct {
	Data   []byte
	Width  int
	Height int
	Format string
}

// SourceInfo describes an upload without decoding its pixels. Width and
// Height are already corrected for EXIF orientation.
type SourceInfo struct {
	Width       int
	Height      int
	Format      string
	Orientation int
}

// Codec turns raw upload bytes into a styled, resized JPEG.
type Codec interface {
	Transform(ctx context.Context, raw []byte, sizing Sizing, adjustments []style.Adjustment) (*Encoded, error)
	Inspect(raw []byte) (SourceInfo, error)
	Name() string
	// Progressive reports whether encoded JPEGs are progressive.
	Progressive() bool
}

type ImageProcessor struct {
	codec Codec
}

// NewImageProcessor returns a processor backed by the codec selected at build
// time: libvips with the govips tag, pure Go otherwise.
func NewImageProcessor() *ImageProcessor {
	return &ImageProcessor{codec: newCodec()}
}

func NewImageProcessorWithCodec(codec Codec) *ImageProcessor {
	return &ImageProcessor{codec: codec}
}

// Process decodes, orients, resizes, styles and encodes raw. The same input,
// sizing and style always produce the same bytes.
func (p *ImageProcessor) Process(ctx context.Context, raw []byte, sizing Sizing, st style.Style) (*Encoded, error) {
	if err := ctx.Err(); err != nil {
		return nil, wrapErr("decode", err)
	}

	out, err := p.codec.Transform(ctx, raw, sizing, st.Adjustments())
	if err != nil {
		return nil, wrapErr("transform", err)
	}
	return out, nil
}

func (p *ImageProcessor) Inspect(raw []byte) (SourceInfo, error) {
	info, err := p.codec.Inspect(raw)
	if err != nil {
		return SourceInfo{}, wrapErr("inspect", err)
	}
	return info, nil
}

// CodecName reports which codec backs the processor.
func (p *ImageProcessor) CodecName() string {
	return p.codec.Name()
}

func (p *ImageProcessor) Progressive() bool {
	return p.codec.Progressive()
}

// CheckPixelLimit rejects sources whose decoded size would exceed limit
// pixels. A limit <= 0 disables the check.
func CheckPixelLimit(info SourceInfo, limit int) error {
	if limit <= 0 {
		return nil
	}
	if pixels := int64(info.Width) * int64(info.Height); pixels > int64(limit) {
		return &ImageProcessingError{
			Op:  "inspect",
			Err: fmt.Errorf("%w: %dx%d is more than %d pixels", ErrPixelLimit, info.Width, info.Height, limit),
		}
	}
	return nil
}
