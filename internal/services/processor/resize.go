package processor

import (
	"image"
	"math"

	"github.com/disintegration/imaging"
)

// fitInside scales width x height down to fit within maxWidth x maxHeight
// keeping the aspect ratio. It never enlarges. A bound <= 0 is unconstrained.
func fitInside(width, height, maxWidth, maxHeight int) (int, int) {
	scale := 1.0
	if maxWidth > 0 && width > maxWidth {
		scale = math.Min(scale, float64(maxWidth)/float64(width))
	}
	if maxHeight > 0 && height > maxHeight {
		scale = math.Min(scale, float64(maxHeight)/float64(height))
	}
	if scale >= 1 {
		return width, height
	}

	w := clampDim(int(math.Round(float64(width)*scale)), maxWidth)
	h := clampDim(int(math.Round(float64(height)*scale)), maxHeight)
	return w, h
}

func clampDim(v, bound int) int {
	if bound > 0 && v > bound {
		v = bound
	}
	if v < 1 {
		v = 1
	}
	return v
}

func resizeImage(img *image.NRGBA, sizing Sizing) *image.NRGBA {
	b := img.Bounds()
	w, h := fitInside(b.Dx(), b.Dy(), sizing.Width, sizing.Height)
	if w == b.Dx() && h == b.Dy() {
		return img
	}
	return imaging.Resize(img, w, h, imaging.Lanczos)
}
