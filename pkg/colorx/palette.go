package colorx

import (
	"image"
	"sort"

	"github.com/disintegration/imaging"
	"github.com/lucasb-eyer/go-colorful"

	"github.com/promoforge-inc/promoforge-engine/pkg/models"
)

// extractSide is the downscale size used before quantization; dominant
// colors survive the shrink and the histogram stays small.
const extractSide = 64

// ExtractPalette returns up to n dominant colors of img, most dominant
// first. Near-duplicate buckets are merged so the result spreads across
// the image's actual hues.
func ExtractPalette(img image.Image, n int) []colorful.Color {
	if n <= 0 {
		return nil
	}
	small := imaging.Resize(img, extractSide, extractSide, imaging.Box)

	// Quantize to 4 bits per channel.
	type bucket struct {
		key   uint16
		count int
		r     float64
		g     float64
		b     float64
	}
	hist := make(map[uint16]*bucket)
	bounds := small.Bounds()
	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			c := small.NRGBAAt(x, y)
			if c.A < 128 {
				continue
			}
			key := uint16(c.R>>4)<<8 | uint16(c.G>>4)<<4 | uint16(c.B>>4)
			bk, ok := hist[key]
			if !ok {
				bk = &bucket{key: key}
				hist[key] = bk
			}
			bk.count++
			bk.r += float64(c.R) / 255
			bk.g += float64(c.G) / 255
			bk.b += float64(c.B) / 255
		}
	}

	buckets := make([]*bucket, 0, len(hist))
	for _, bk := range hist {
		buckets = append(buckets, bk)
	}
	sort.Slice(buckets, func(i, j int) bool {
		if buckets[i].count != buckets[j].count {
			return buckets[i].count > buckets[j].count
		}
		return buckets[i].key < buckets[j].key
	})

	var out []colorful.Color
	for _, bk := range buckets {
		c := colorful.Color{
			R: bk.r / float64(bk.count),
			G: bk.g / float64(bk.count),
			B: bk.b / float64(bk.count),
		}
		if tooClose(out, c) {
			continue
		}
		out = append(out, c)
		if len(out) == n {
			break
		}
	}
	return out
}

func tooClose(existing []colorful.Color, c colorful.Color) bool {
	for _, e := range existing {
		if e.DistanceLab(c) < 0.12 {
			return true
		}
	}
	return false
}

// Strategy selects how PickHarmoniousColors derives a palette.
type Strategy string

const (
	StrategyBrandMix      Strategy = "brand-mix"
	StrategyAnalogous     Strategy = "analogous"
	StrategyComplementary Strategy = "complementary"
	StrategySoft          Strategy = "soft"
)

// PickHarmoniousColors derives a full palette from an image's dominant
// colors and the brand color. Text is always whichever of pure black or
// white has higher contrast against the chosen primary.
func PickHarmoniousColors(img image.Image, brand colorful.Color, strategy Strategy) models.Palette {
	dominant := ExtractPalette(img, 3)
	base := brand
	if len(dominant) > 0 {
		base = dominant[0]
	}

	var primary, secondary, accent colorful.Color
	switch strategy {
	case StrategyAnalogous:
		primary = base
		secondary = rotateHue(base, 30)
		accent = rotateHue(base, -30)
	case StrategyComplementary:
		primary = base
		secondary = desaturate(base, 0.5)
		accent = rotateHue(base, 180)
	case StrategySoft:
		primary = desaturate(base, 0.4)
		secondary = desaturate(base, 0.7)
		accent = desaturate(rotateHue(base, 150), 0.3)
	default: // StrategyBrandMix
		primary = blend(brand, base, 0.35)
		secondary = desaturate(primary, 0.75)
		accent = rotateHue(brand, 160)
		if len(dominant) > 1 {
			accent = blend(accent, dominant[1], 0.3)
		}
	}

	return models.Palette{
		Primary:   primary.Clamped().Hex(),
		Secondary: secondary.Clamped().Hex(),
		Accent:    accent.Clamped().Hex(),
		Text:      BestTextColor(primary.Clamped()).Hex(),
	}
}

func rotateHue(c colorful.Color, degrees float64) colorful.Color {
	h, s, l := c.Hsl()
	h += degrees
	for h < 0 {
		h += 360
	}
	for h >= 360 {
		h -= 360
	}
	return colorful.Hsl(h, s, l)
}

// desaturate scales saturation by factor (0 = gray, 1 = unchanged).
func desaturate(c colorful.Color, factor float64) colorful.Color {
	h, s, l := c.Hsl()
	return colorful.Hsl(h, s*factor, l)
}

func blend(a, b colorful.Color, t float64) colorful.Color {
	return a.BlendLab(b, t)
}
