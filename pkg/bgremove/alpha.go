package bgremove

import (
	"image"
	"math"
)

// Alpha refinement thresholds. Variance above highVariance in a pixel's
// 3×3 neighborhood suggests a plausible hair/fiber edge; alpha below
// noiseAlpha in an equally transparent neighborhood is cutout noise.
const (
	highVariance = 3600.0 // ≈ stddev 60 on the 0–255 alpha scale
	noiseAlpha   = 48
	lowMeanAlpha = 64
	boostFactor  = 1.35
)

// RefineAlpha inspects every partially-transparent pixel's 3×3
// neighborhood: high local alpha variance is boosted toward opaque
// (preserves hair and fiber edges), low noisy alpha in low-alpha
// surroundings is zeroed, and all other semi-transparent edge pixels are
// smoothed toward the neighborhood average. Fully opaque and fully
// transparent pixels are left untouched.
func RefineAlpha(img *image.NRGBA) *image.NRGBA {
	bounds := img.Bounds()
	out := image.NewNRGBA(bounds)
	copy(out.Pix, img.Pix)

	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			a := img.NRGBAAt(x, y).A
			if a == 0 || a == 255 {
				continue
			}
			mean, variance := neighborhoodAlpha(img, x, y)

			px := out.NRGBAAt(x, y)
			switch {
			case variance >= highVariance:
				px.A = clampAlpha(float64(a) * boostFactor)
			case a <= noiseAlpha && mean <= lowMeanAlpha:
				px.A = 0
			default:
				px.A = clampAlpha((float64(a) + mean) / 2)
			}
			out.SetNRGBA(x, y, px)
		}
	}
	return out
}

// neighborhoodAlpha returns mean and variance of alpha over the 3×3
// window centered at (x, y), clipped at the image edge.
func neighborhoodAlpha(img *image.NRGBA, x, y int) (mean, variance float64) {
	bounds := img.Bounds()
	var sum, sumSq float64
	var n int
	for dy := -1; dy <= 1; dy++ {
		for dx := -1; dx <= 1; dx++ {
			nx, ny := x+dx, y+dy
			if nx < bounds.Min.X || nx >= bounds.Max.X || ny < bounds.Min.Y || ny >= bounds.Max.Y {
				continue
			}
			a := float64(img.NRGBAAt(nx, ny).A)
			sum += a
			sumSq += a * a
			n++
		}
	}
	mean = sum / float64(n)
	variance = sumSq/float64(n) - mean*mean
	return mean, variance
}

func clampAlpha(v float64) uint8 {
	return uint8(math.Max(0, math.Min(255, v)))
}
