package bgremove

import (
	"image"
	"image/color"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func uniformAlpha(w, h int, a uint8) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.SetNRGBA(x, y, color.NRGBA{R: 100, G: 100, B: 100, A: a})
		}
	}
	return img
}

func TestRefineAlphaLeavesOpaqueAndTransparentAlone(t *testing.T) {
	img := uniformAlpha(5, 5, 255)
	img.SetNRGBA(0, 0, color.NRGBA{A: 0})

	out := RefineAlpha(img)

	assert.Equal(t, uint8(0), out.NRGBAAt(0, 0).A)
	assert.Equal(t, uint8(255), out.NRGBAAt(2, 2).A)
}

func TestRefineAlphaZeroesNoiseInTransparentSurroundings(t *testing.T) {
	// A faint speck stranded in transparency is cutout noise.
	img := uniformAlpha(5, 5, 0)
	img.SetNRGBA(2, 2, color.NRGBA{R: 100, A: 30})

	out := RefineAlpha(img)

	assert.Equal(t, uint8(0), out.NRGBAAt(2, 2).A)
}

func TestRefineAlphaBoostsHighVarianceEdges(t *testing.T) {
	// Alternating opaque and transparent neighbors make a high-variance
	// neighborhood, the signature of a hair or fiber edge.
	img := uniformAlpha(3, 3, 0)
	img.SetNRGBA(0, 0, color.NRGBA{A: 255})
	img.SetNRGBA(2, 0, color.NRGBA{A: 255})
	img.SetNRGBA(0, 2, color.NRGBA{A: 255})
	img.SetNRGBA(2, 2, color.NRGBA{A: 255})
	img.SetNRGBA(1, 1, color.NRGBA{R: 100, A: 120})

	out := RefineAlpha(img)

	got := out.NRGBAAt(1, 1).A
	require.Greater(t, got, uint8(120), "edge pixel should be boosted")
	assert.Equal(t, uint8(162), got) // 120 * 1.35
}

func TestRefineAlphaSmoothsOrdinaryEdges(t *testing.T) {
	// A mild gradient pixel is averaged with its neighborhood.
	img := uniformAlpha(3, 3, 200)
	img.SetNRGBA(1, 1, color.NRGBA{R: 100, G: 100, B: 100, A: 100})

	out := RefineAlpha(img)

	// Neighborhood mean is (8*200+100)/9 ≈ 188; smoothed toward it.
	got := out.NRGBAAt(1, 1).A
	assert.Greater(t, got, uint8(100))
	assert.Less(t, got, uint8(200))
}

func TestRefineAlphaDoesNotMutateInput(t *testing.T) {
	img := uniformAlpha(3, 3, 128)
	_ = RefineAlpha(img)
	assert.Equal(t, uint8(128), img.NRGBAAt(1, 1).A)
}
