package processor

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"

	"github.com/disintegration/imaging"
	"github.com/rwcarlsen/goexif/exif"
	_ "golang.org/x/image/webp"
)

// DecodedImage is a source image after decoding. It belongs to a single
// Process call and is never shared.
type DecodedImage struct {
	Pixels      *image.NRGBA
	Width       int
	Height      int
	Format      string
	Orientation int
}

func decodeImage(raw []byte) (*DecodedImage, error) {
	if len(raw) == 0 {
		return nil, ErrEmptyInput
	}

	src, format, err := image.Decode(bytes.NewReader(raw))
	if err != nil {
		if errors.Is(err, image.ErrFormat) && isHEIF(raw) {
			return nil, fmt.Errorf("%w: heif", ErrUnsupportedFormat)
		}
		return nil, fmt.Errorf("decode source image: %w", err)
	}

	pixels := imaging.Clone(src)
	b := pixels.Bounds()

	return &DecodedImage{
		Pixels:      pixels,
		Width:       b.Dx(),
		Height:      b.Dy(),
		Format:      format,
		Orientation: readOrientation(raw),
	}, nil
}

func decodeConfig(raw []byte) (SourceInfo, error) {
	if len(raw) == 0 {
		return SourceInfo{}, ErrEmptyInput
	}

	cfg, format, err := image.DecodeConfig(bytes.NewReader(raw))
	if err != nil {
		if errors.Is(err, image.ErrFormat) && isHEIF(raw) {
			return SourceInfo{}, fmt.Errorf("%w: heif", ErrUnsupportedFormat)
		}
		return SourceInfo{}, fmt.Errorf("decode source header: %w", err)
	}

	return SourceInfo{
		Width:       cfg.Width,
		Height:      cfg.Height,
		Format:      format,
		Orientation: readOrientation(raw),
	}, nil
}

// readOrientation returns the EXIF orientation tag, or 1 when the image has
// no usable EXIF block.
func readOrientation(raw []byte) int {
	// Decode can return a usable *Exif alongside a non-critical error.
	x, _ := exif.Decode(bytes.NewReader(raw))
	if x == nil {
		return 1
	}

	tag, err := x.Get(exif.Orientation)
	if err != nil {
		return 1
	}

	v, err := tag.Int(0)
	if err != nil || v < 1 || v > 8 {
		return 1
	}
	return v
}

// isHEIF sniffs the ISO-BMFF ftyp box used by HEIF/HEIC files.
func isHEIF(raw []byte) bool {
	if len(raw) < 12 || string(raw[4:8]) != "ftyp" {
		return false
	}
	switch string(raw[8:12]) {
	case "heic", "heix", "hevc", "hevx", "heim", "heis", "mif1", "msf1":
		return true
	}
	return false
}
