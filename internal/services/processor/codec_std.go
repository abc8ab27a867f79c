package processor

import (
	"context"

	"github.com/phambaophuc/rewind-photos/internal/services/style"
)

// stdCodec is the pure Go codec. It writes baseline JPEG and cannot read HEIF.
type stdCodec struct{}

func (stdCodec) Name() string {
	return "stdlib"
}

func (stdCodec) Progressive() bool {
	return false
}

func (stdCodec) Transform(ctx context.Context, raw []byte, sizing Sizing, adjustments []style.Adjustment) (*Encoded, error) {
	decoded, err := decodeImage(raw)
	if err != nil {
		return nil, wrapErr("decode", err)
	}

	steps := []struct {
		op  string
		run func(*DecodedImage)
	}{
		{"orient", func(d *DecodedImage) { d.Pixels = autoOrient(d.Pixels, d.Orientation) }},
		{"resize", func(d *DecodedImage) { d.Pixels = resizeImage(d.Pixels, sizing) }},
		{"style", func(d *DecodedImage) { d.Pixels = style.ApplyNRGBA(d.Pixels, adjustments) }},
	}
	for _, step := range steps {
		if err := ctx.Err(); err != nil {
			return nil, wrapErr(step.op, err)
		}
		step.run(decoded)
	}

	if err := ctx.Err(); err != nil {
		return nil, wrapErr("encode", err)
	}
	data, err := encodeJPEG(decoded.Pixels, sizing.Quality)
	if err != nil {
		return nil, wrapErr("encode", err)
	}

	b := decoded.Pixels.Bounds()
	return &Encoded{
		Data:   data,
		Width:  b.Dx(),
		Height: b.Dy(),
		Format: formatJPEG,
	}, nil
}

func (stdCodec) Inspect(raw []byte) (SourceInfo, error) {
	info, err := decodeConfig(raw)
	if err != nil {
		return SourceInfo{}, err
	}
	info.Width, info.Height = orientedSize(info.Width, info.Height, info.Orientation)
	return info, nil
}
