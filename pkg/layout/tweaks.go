// Package layout post-processes template output: tenant tweak scaling and
// the heuristic auto-layout adapter. Both mutate layers in place and never
// fail a render.
package layout

import (
	"math"

	"github.com/promoforge-inc/promoforge-engine/pkg/models"
)

// ResolveTweaks merges the wildcard entry with the template-specific entry
// (specific wins per field).
func ResolveTweaks(set map[string]models.Tweaks, templateID string) models.Tweaks {
	tw := set["*"]
	if specific, ok := set[templateID]; ok {
		tw = tw.Merge(specific)
	}
	return tw
}

// FindTitleIndex locates the title layer: explicit match by text first,
// else the text layer with the largest font size. Returns -1 when the
// template has no text layer.
func FindTitleIndex(layers []models.Layer, title string) int {
	best := -1
	for i := range layers {
		if layers[i].Kind != models.KindText {
			continue
		}
		if title != "" && layers[i].Text == title {
			return i
		}
		if best == -1 || layers[i].FontSize > layers[best].FontSize {
			best = i
		}
	}
	return best
}

// ApplyTweaks scales layers by the tenant's per-template overrides:
// title/price font sizes, badge and image boxes, and the vertical spacing
// of layers below the title. Scaled sizes are rounded down.
func ApplyTweaks(layers []models.Layer, tw models.Tweaks, title string) {
	if tw.IsZero() {
		return
	}
	titleIdx := FindTitleIndex(layers, title)

	for i := range layers {
		l := &layers[i]
		switch l.Kind {
		case models.KindText:
			if i == titleIdx {
				l.FontSize = scaleFont(l.FontSize, tw.TitleScale)
			} else {
				l.FontSize = scaleFont(l.FontSize, tw.PriceScale)
			}
		case models.KindBadge:
			if tw.BadgeScale > 0 {
				scaleBox(l, tw.BadgeScale)
			}
		case models.KindImage:
			if tw.ImageScale > 0 {
				scaleBox(l, tw.ImageScale)
			}
		}
	}

	if tw.SpacingScale > 0 && titleIdx >= 0 {
		anchor := layers[titleIdx].Y
		for i := range layers {
			l := &layers[i]
			if i == titleIdx || (l.Kind != models.KindText && l.Kind != models.KindBadge) {
				continue
			}
			if l.Y > anchor {
				l.Y = anchor + int(math.Floor(float64(l.Y-anchor)*tw.SpacingScale))
			}
		}
	}
}

func scaleFont(size, scale float64) float64 {
	if scale <= 0 {
		return size
	}
	return math.Floor(size * scale)
}

// scaleBox resizes a layer's box around its center.
func scaleBox(l *models.Layer, scale float64) {
	cx := l.X + l.W/2
	cy := l.Y + l.H/2
	l.W = int(math.Floor(float64(l.W) * scale))
	l.H = int(math.Floor(float64(l.H) * scale))
	l.X = cx - l.W/2
	l.Y = cy - l.H/2
}

// ClampToCanvas keeps every layer inside safeMargin of the canvas edges.
func ClampToCanvas(layers []models.Layer, safeMargin, canvasW, canvasH int) {
	for i := range layers {
		l := &layers[i]
		if l.Kind == models.KindRect {
			continue // background rects may bleed to the edge
		}
		maxX := canvasW - safeMargin
		maxY := canvasH - safeMargin
		if l.X < safeMargin {
			l.X = safeMargin
		}
		if l.Y < safeMargin {
			l.Y = safeMargin
		}
		if l.W > 0 && l.X+l.W > maxX {
			l.X = maxX - l.W
			if l.X < safeMargin {
				l.X = safeMargin
				l.W = maxX - safeMargin
			}
		}
		if l.H > 0 && l.Y+l.H > maxY {
			l.Y = maxY - l.H
			if l.Y < safeMargin {
				l.Y = safeMargin
				l.H = maxY - safeMargin
			}
		}
	}
}
