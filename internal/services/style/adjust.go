package style

import (
	"fmt"
	"image"
	"image/color"

	"github.com/disintegration/imaging"
)

// Kind identifies a pixel adjustment.
type Kind int

const (
	KindGrayscale Kind = iota
	KindModulate
	KindLinear
	KindTint
)

func (k Kind) String() string {
	switch k {
	case KindGrayscale:
		return "grayscale"
	case KindModulate:
		return "modulate"
	case KindLinear:
		return "linear"
	case KindTint:
		return "tint"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// Adjustment is one step of a style. Only the fields relevant to Kind are set.
type Adjustment struct {
	Kind       Kind
	Brightness float64
	Saturation float64
	Gain       float64
	Bias       float64
	Tint       color.NRGBA
}

func Grayscale() Adjustment {
	return Adjustment{Kind: KindGrayscale}
}

// Modulate scales brightness and saturation; 1 leaves a channel unchanged.
func Modulate(brightness, saturation float64) Adjustment {
	return Adjustment{Kind: KindModulate, Brightness: brightness, Saturation: saturation}
}

// Linear maps every colour channel v to gain*v + bias.
func Linear(gain, bias float64) Adjustment {
	return Adjustment{Kind: KindLinear, Gain: gain, Bias: bias}
}

// Contrast is a Linear step pivoting on mid-gray, so 128 maps to itself.
func Contrast(gain float64) Adjustment {
	return Linear(gain, -(128*gain)+128)
}

// Tint recolours the image towards rgb while keeping its luminance.
func Tint(r, g, b uint8) Adjustment {
	return Adjustment{Kind: KindTint, Tint: color.NRGBA{R: r, G: g, B: b, A: 255}}
}

// ApplyNRGBA runs adjustments in order over img. With no adjustments img is
// returned as-is, so a pass-through style never touches pixels.
func ApplyNRGBA(img *image.NRGBA, adjustments []Adjustment) *image.NRGBA {
	if len(adjustments) == 0 {
		return img
	}

	return imaging.AdjustFunc(img, func(c color.NRGBA) color.NRGBA {
		px := rgb{channel(c.R), channel(c.G), channel(c.B)}
		for _, adj := range adjustments {
			px = adj.apply(px)
		}
		return color.NRGBA{R: px.r.uint8(), G: px.g.uint8(), B: px.b.uint8(), A: c.A}
	})
}

type channel float64

func (v channel) uint8() uint8 {
	return uint8(clamp(float64(v)) + 0.5)
}

type rgb struct {
	r, g, b channel
}

func (p rgb) luma() float64 {
	return 0.299*float64(p.r) + 0.587*float64(p.g) + 0.114*float64(p.b)
}

func (p rgb) mapEach(fn func(float64) float64) rgb {
	return rgb{
		r: channel(clamp(fn(float64(p.r)))),
		g: channel(clamp(fn(float64(p.g)))),
		b: channel(clamp(fn(float64(p.b)))),
	}
}

func (a Adjustment) apply(p rgb) rgb {
	switch a.Kind {
	case KindGrayscale:
		y := clamp(p.luma())
		return rgb{channel(y), channel(y), channel(y)}
	case KindModulate:
		p = p.mapEach(func(v float64) float64 { return v * a.Brightness })
		y := p.luma()
		return p.mapEach(func(v float64) float64 { return y + (v-y)*a.Saturation })
	case KindLinear:
		return p.mapEach(func(v float64) float64 { return a.Gain*v + a.Bias })
	case KindTint:
		y := p.luma()
		return rgb{
			r: channel(clamp(y * float64(a.Tint.R) / 255)),
			g: channel(clamp(y * float64(a.Tint.G) / 255)),
			b: channel(clamp(y * float64(a.Tint.B) / 255)),
		}
	default:
		return p
	}
}

func clamp(v float64) float64 {
	switch {
	case v < 0:
		return 0
	case v > 255:
		return 255
	default:
		return v
	}
}
