// Package textshape cleans, summarizes, and line-wraps banner titles so
// they fit a template's character budget without mid-word breaks in the
// wrong place.
package textshape

import (
	"strings"

	"github.com/mattn/go-runewidth"
)

// RuneDisplayWidth returns display-width units for one rune: CJK and other
// full-width glyphs count 1, everything else 0.5.
func RuneDisplayWidth(r rune) float64 {
	if runewidth.RuneWidth(r) >= 2 {
		return 1.0
	}
	return 0.5
}

// DisplayWidth returns the display width of s in units where one CJK glyph
// is 1 and one Latin glyph is 0.5. Newlines are ignored.
func DisplayWidth(s string) float64 {
	var w float64
	for _, r := range s {
		if r == '\n' {
			continue
		}
		w += RuneDisplayWidth(r)
	}
	return w
}

// MaxLineWidth returns the display width of the widest line in s.
func MaxLineWidth(s string) float64 {
	var max float64
	for _, line := range strings.Split(s, "\n") {
		if w := DisplayWidth(line); w > max {
			max = w
		}
	}
	return max
}
