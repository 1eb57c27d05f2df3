package layout

import (
	"math"
	"strings"

	"github.com/disintegration/imaging"
	"go.uber.org/zap"

	"github.com/promoforge-inc/promoforge-engine/pkg/models"
)

// Thresholds hold the auto-layout heuristics' magic numbers so they can be
// tuned without touching control flow.
type Thresholds struct {
	// MultiLineShrink shrinks a wrapped title's font.
	MultiLineShrink float64
	// PushDownFactor moves price/badge layers down by this fraction of the
	// shrunken title font size.
	PushDownFactor float64
	// ShortTitleLen and ShortGrow enlarge very short titles.
	ShortTitleLen int
	ShortGrow     float64
	// Aspect-ratio bounds and resize factors for the first image layer.
	PortraitRatio   float64
	LandscapeRatio  float64
	PortraitHGrow   float64
	PortraitWShrink float64
	LandscapeShrink float64
}

// DefaultThresholds returns the tuned production values.
func DefaultThresholds() Thresholds {
	return Thresholds{
		MultiLineShrink: 0.92,
		PushDownFactor:  0.28,
		ShortTitleLen:   10,
		ShortGrow:       1.06,
		PortraitRatio:   0.9,
		LandscapeRatio:  1.3,
		PortraitHGrow:   1.08,
		PortraitWShrink: 0.95,
		LandscapeShrink: 0.92,
	}
}

// Adjuster is the heuristic auto-layout post-processor. It is not a layout
// solver: it nudges geometry from text length and image aspect ratio and
// must never fail the overall render.
type Adjuster struct {
	th     Thresholds
	logger *zap.Logger
}

// NewAdjuster returns an adjuster with the given thresholds.
func NewAdjuster(th Thresholds, logger *zap.Logger) *Adjuster {
	return &Adjuster{th: th, logger: logger}
}

// AutoAdjust nudges layers in place. Title handling: a title that wraps to
// two or more lines is shrunk and the layers below it pushed down; a very
// short title is enlarged. Image handling: the first loadable image layer
// is resized toward the canvas-friendly aspect range with its center
// preserved. Image load failures are swallowed.
func (a *Adjuster) AutoAdjust(layers []models.Layer, title string, safeMargin, canvasW, canvasH int) {
	a.adjustTitle(layers, title, safeMargin, canvasH)
	a.adjustImage(layers)
	ClampToCanvas(layers, safeMargin, canvasW, canvasH)
}

func (a *Adjuster) adjustTitle(layers []models.Layer, title string, safeMargin, canvasH int) {
	idx := FindTitleIndex(layers, title)
	if idx < 0 {
		return
	}
	t := &layers[idx]

	lines := strings.Count(t.Text, "\n") + 1
	visible := len([]rune(strings.Join(strings.Fields(t.Text), "")))

	switch {
	case lines >= 2:
		t.FontSize = math.Floor(t.FontSize * a.th.MultiLineShrink)
		push := int(t.FontSize * a.th.PushDownFactor)
		for i := range layers {
			l := &layers[i]
			if i == idx || (l.Kind != models.KindText && l.Kind != models.KindBadge) {
				continue
			}
			if l.Y > t.Y {
				l.Y += push
				if limit := canvasH - safeMargin; l.Y > limit {
					l.Y = limit
				}
			}
		}
	case visible <= a.th.ShortTitleLen:
		t.FontSize = math.Floor(t.FontSize * a.th.ShortGrow)
	}
}

func (a *Adjuster) adjustImage(layers []models.Layer) {
	for i := range layers {
		l := &layers[i]
		if l.Kind != models.KindImage || l.Src == "" {
			continue
		}
		img, err := imaging.Open(l.Src)
		if err != nil {
			// An unreadable source is not the "first loadable" image; keep
			// looking. The pipeline decides whether to skip the layer.
			a.logger.Debug("Auto-layout could not read image, skipping aspect nudge",
				zap.String("src", l.Src), zap.Error(err))
			continue
		}
		b := img.Bounds()
		if b.Dy() == 0 {
			continue
		}
		ratio := float64(b.Dx()) / float64(b.Dy())

		cx := l.X + l.W/2
		cy := l.Y + l.H/2
		switch {
		case ratio < a.th.PortraitRatio:
			l.H = int(math.Floor(float64(l.H) * a.th.PortraitHGrow))
			l.W = int(math.Floor(float64(l.W) * a.th.PortraitWShrink))
		case ratio > a.th.LandscapeRatio:
			l.H = int(math.Floor(float64(l.H) * a.th.LandscapeShrink))
		}
		l.X = cx - l.W/2
		l.Y = cy - l.H/2
		return // first loadable image only
	}
}
