//go:build govips && cgo

package processor

import (
	"context"
	"fmt"

	"github.com/davidbyttow/govips/v2/vips"
	"github.com/phambaophuc/rewind-photos/internal/services/style"
)

// govipsCodec uses libvips. Unlike stdCodec it decodes HEIF/HEIC and emits
// progressive, Huffman-optimised JPEG.
type govipsCodec struct{}

func (govipsCodec) Name() string {
	return "libvips"
}

func (govipsCodec) Progressive() bool {
	return true
}

func (govipsCodec) Transform(ctx context.Context, raw []byte, sizing Sizing, adjustments []style.Adjustment) (*Encoded, error) {
	if len(raw) == 0 {
		return nil, wrapErr("decode", ErrEmptyInput)
	}

	img, err := vips.NewImageFromBuffer(raw)
	if err != nil {
		return nil, wrapErr("decode", fmt.Errorf("decode source image: %w", err))
	}
	defer img.Close()

	steps := []struct {
		op  string
		run func(*vips.ImageRef) error
	}{
		{"orient", func(i *vips.ImageRef) error { return i.AutoRotate() }},
		{"resize", func(i *vips.ImageRef) error { return govipsResize(i, sizing) }},
		{"style", func(i *vips.ImageRef) error { return govipsApply(i, adjustments) }},
	}
	for _, step := range steps {
		if err := ctx.Err(); err != nil {
			return nil, wrapErr(step.op, err)
		}
		if err := step.run(img); err != nil {
			return nil, wrapErr(step.op, err)
		}
	}

	if err := ctx.Err(); err != nil {
		return nil, wrapErr("encode", err)
	}

	params := vips.NewJpegExportParams()
	params.Quality = sizing.Quality
	params.Interlace = true
	params.OptimizeCoding = true
	params.StripMetadata = true

	data, _, err := img.ExportJpeg(params)
	if err != nil {
		return nil, wrapErr("encode", fmt.Errorf("encode jpeg: %w", err))
	}

	return &Encoded{
		Data:   data,
		Width:  img.Width(),
		Height: img.Height(),
		Format: formatJPEG,
	}, nil
}

func (govipsCodec) Inspect(raw []byte) (SourceInfo, error) {
	if len(raw) == 0 {
		return SourceInfo{}, ErrEmptyInput
	}

	img, err := vips.NewImageFromBuffer(raw)
	if err != nil {
		return SourceInfo{}, fmt.Errorf("decode source header: %w", err)
	}
	defer img.Close()

	orientation := img.Orientation()
	w, h := orientedSize(img.Width(), img.Height(), orientation)
	return SourceInfo{
		Width:       w,
		Height:      h,
		Format:      vips.ImageTypes[img.Format()],
		Orientation: orientation,
	}, nil
}

func govipsResize(img *vips.ImageRef, sizing Sizing) error {
	w, h := fitInside(img.Width(), img.Height(), sizing.Width, sizing.Height)
	if w == img.Width() && h == img.Height() {
		return nil
	}

	hScale := float64(w) / float64(img.Width())
	vScale := float64(h) / float64(img.Height())
	if err := img.ResizeWithVScale(hScale, vScale, vips.KernelLanczos3); err != nil {
		return fmt.Errorf("resize image: %w", err)
	}
	return nil
}

func govipsApply(img *vips.ImageRef, adjustments []style.Adjustment) error {
	for _, adj := range adjustments {
		var err error
		switch adj.Kind {
		case style.KindGrayscale:
			if err = img.ToColorSpace(vips.InterpretationBW); err == nil {
				err = img.ToColorSpace(vips.InterpretationSRGB)
			}
		case style.KindModulate:
			err = img.Modulate(adj.Brightness, adj.Saturation, 0)
		case style.KindLinear:
			err = img.Linear1(adj.Gain, adj.Bias)
		case style.KindTint:
			if err = img.ToColorSpace(vips.InterpretationBW); err == nil {
				err = img.ToColorSpace(vips.InterpretationSRGB)
			}
			if err == nil {
				err = img.Linear(
					[]float64{float64(adj.Tint.R) / 255, float64(adj.Tint.G) / 255, float64(adj.Tint.B) / 255},
					[]float64{0, 0, 0},
				)
			}
		}
		if err != nil {
			return fmt.Errorf("apply %s: %w", adj.Kind, err)
		}
	}
	return nil
}
