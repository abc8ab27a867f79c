// Package style maps the camera looks offered by the app to ordered lists of
// pixel adjustments and applies them to decoded images.
package style

import (
	"strings"
)

// Style is a named visual treatment chosen by the client.
type Style string

const (
	Polaroid   Style = "polaroid"
	Film       Style = "film"
	Vintage    Style = "vintage"
	Sepia      Style = "sepia"
	Legacy     Style = "legacy"
	StickyNote Style = "sticky-note"
	Camcorder  Style = "camcorder"
)

// Default is used whenever the client omits a style or sends one we don't know.
const Default = Polaroid

var known = map[Style]struct{}{
	Polaroid:   {},
	Film:       {},
	Vintage:    {},
	Sepia:      {},
	Legacy:     {},
	StickyNote: {},
	Camcorder:  {},
}

// Parse never fails: empty or unrecognised values resolve to Default.
func Parse(value string) Style {
	s := Style(strings.ToLower(strings.TrimSpace(value)))
	if _, ok := known[s]; ok {
		return s
	}
	return Default
}

// All lists every recognised style.
func All() []Style {
	return []Style{Polaroid, Film, Vintage, Sepia, Legacy, StickyNote, Camcorder}
}

func (s Style) String() string {
	return string(s)
}

// Adjustments returns the ordered transform list for s.
// Vintage, sepia and legacy share the polaroid look; camcorder is a pass-through.
func (s Style) Adjustments() []Adjustment {
	switch Parse(string(s)) {
	case Film:
		return []Adjustment{
			Grayscale(),
			Modulate(1.03, 1),
			Contrast(1.08),
		}
	case StickyNote:
		return []Adjustment{
			Tint(255, 255, 200),
			Modulate(1.1, 0.7),
		}
	case Camcorder:
		return nil
	default:
		return []Adjustment{
			Modulate(1.02, 1.1),
			Contrast(1.1),
		}
	}
}
