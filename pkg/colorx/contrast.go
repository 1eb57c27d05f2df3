// Package colorx derives and aligns palettes: dominant-color extraction,
// WCAG contrast math, hue harmonization of product shots toward a brand
// color, and a content-addressed cache of harmonized files.
package colorx

import (
	"math"

	"github.com/lucasb-eyer/go-colorful"
)

// MinTextContrast is the WCAG AA ratio below which the rendering pipeline
// substitutes pure black or white for a text fill.
const MinTextContrast = 4.5

// RelativeLuminance returns the WCAG relative luminance of c in [0,1].
func RelativeLuminance(c colorful.Color) float64 {
	lin := func(v float64) float64 {
		if v <= 0.03928 {
			return v / 12.92
		}
		return math.Pow((v+0.055)/1.055, 2.4)
	}
	return 0.2126*lin(c.R) + 0.7152*lin(c.G) + 0.0722*lin(c.B)
}

// ContrastRatio returns the WCAG contrast ratio between two colors,
// in [1, 21].
func ContrastRatio(a, b colorful.Color) float64 {
	la := RelativeLuminance(a)
	lb := RelativeLuminance(b)
	if la < lb {
		la, lb = lb, la
	}
	return (la + 0.05) / (lb + 0.05)
}

// BestTextColor returns pure black or white, whichever reads better
// against bg.
func BestTextColor(bg colorful.Color) colorful.Color {
	black := colorful.Color{}
	white := colorful.Color{R: 1, G: 1, B: 1}
	if ContrastRatio(bg, black) >= ContrastRatio(bg, white) {
		return black
	}
	return white
}

// ParseHex parses a #rgb or #rrggbb string.
func ParseHex(hex string) (colorful.Color, error) {
	if len(hex) == 4 && hex[0] == '#' {
		hex = "#" + string([]byte{hex[1], hex[1], hex[2], hex[2], hex[3], hex[3]})
	}
	return colorful.Hex(hex)
}
