package colorx

import (
	"image"
	"math"

	"github.com/disintegration/imaging"
	"github.com/lucasb-eyer/go-colorful"

	"github.com/promoforge-inc/promoforge-engine/pkg/models"
)

// MaxHueShiftDegrees caps how far brand-align may rotate an image's hue.
const MaxHueShiftDegrees = 24.0

// Harmonize transforms img according to mode at the given strength
// (clamped to [0,1]). brand-align rotates the image's dominant hue toward
// the brand hue by at most ±24° and nudges saturation; pop raises
// saturation and brightness uniformly; soft desaturates slightly.
func Harmonize(img image.Image, brand colorful.Color, mode models.ColorFitMode, strength float64) image.Image {
	strength = math.Max(0, math.Min(1, strength))
	switch mode {
	case models.ColorFitBrandAlign:
		return brandAlign(img, brand, strength)
	case models.ColorFitPop:
		out := imaging.AdjustSaturation(img, 20*strength)
		return imaging.AdjustBrightness(out, 6*strength)
	case models.ColorFitSoft:
		return imaging.AdjustSaturation(img, -25*strength)
	default:
		return img
	}
}

func brandAlign(img image.Image, brand colorful.Color, strength float64) image.Image {
	dominant := ExtractPalette(img, 1)
	if len(dominant) == 0 {
		return img
	}
	brandHue, _, _ := brand.Hsl()
	domHue, _, _ := dominant[0].Hsl()

	shift := hueDelta(domHue, brandHue)
	if shift > MaxHueShiftDegrees {
		shift = MaxHueShiftDegrees
	}
	if shift < -MaxHueShiftDegrees {
		shift = -MaxHueShiftDegrees
	}
	shift *= strength

	src := imaging.Clone(img)
	bounds := src.Bounds()
	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			px := src.NRGBAAt(x, y)
			if px.A == 0 {
				continue
			}
			c := colorful.Color{R: float64(px.R) / 255, G: float64(px.G) / 255, B: float64(px.B) / 255}
			h, s, l := c.Hsl()
			h += shift
			for h < 0 {
				h += 360
			}
			for h >= 360 {
				h -= 360
			}
			// Small saturation nudge toward the brand's vividness.
			s = math.Min(1, s*(1+0.08*strength))
			nc := colorful.Hsl(h, s, l).Clamped()
			px.R = uint8(nc.R*255 + 0.5)
			px.G = uint8(nc.G*255 + 0.5)
			px.B = uint8(nc.B*255 + 0.5)
			src.SetNRGBA(x, y, px)
		}
	}
	return src
}

// hueDelta returns the signed shortest rotation from a to b in degrees.
func hueDelta(a, b float64) float64 {
	d := math.Mod(b-a+540, 360) - 180
	return d
}
