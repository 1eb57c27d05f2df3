package render

import (
	"context"
	"image/color"
	"path/filepath"
	"testing"

	"github.com/disintegration/imaging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/promoforge-inc/promoforge-engine/pkg/models"
)

var (
	white = color.NRGBA{R: 255, G: 255, B: 255, A: 255}
	red   = color.NRGBA{R: 255, A: 255}
)

func TestFitImageContainNeverUpscalesOrCrops(t *testing.T) {
	// 50x100 already fits the 200x100 box: returned as-is.
	img := imaging.New(50, 100, red)

	fitted := fitImage(img, 200, 100, models.FitContain)

	assert.Equal(t, 50, fitted.Bounds().Dx())
	assert.Equal(t, 100, fitted.Bounds().Dy())
}

func TestFitImageContainScalesDownPreservingAspect(t *testing.T) {
	img := imaging.New(400, 100, red)

	fitted := fitImage(img, 200, 100, models.FitContain)

	// 4:1 aspect preserved, width bound, no cropping.
	assert.Equal(t, 200, fitted.Bounds().Dx())
	assert.Equal(t, 50, fitted.Bounds().Dy())
}

func TestFitImageCoverFillsExactBox(t *testing.T) {
	img := imaging.New(50, 100, red)

	fitted := fitImage(img, 200, 100, models.FitCover)

	assert.Equal(t, 200, fitted.Bounds().Dx())
	assert.Equal(t, 100, fitted.Bounds().Dy())
}

func TestDrawImageLayerContainLetterboxes(t *testing.T) {
	p := testPipeline(t, t.TempDir())

	src := filepath.Join(t.TempDir(), "red.png")
	require.NoError(t, imaging.Save(imaging.New(50, 100, red), src))

	canvas := imaging.New(200, 100, white)
	layer := models.Image(src, 0, 0, 200, 100, models.FitContain)
	p.drawImageLayer(context.Background(), canvas, &layer, models.DefaultProfile("t1", "Acme"))

	// The 50x100 source is pasted centered at x=75; the letterbox bands on
	// either side stay untouched.
	assert.Equal(t, red, canvas.NRGBAAt(100, 50))
	assert.Equal(t, white, canvas.NRGBAAt(10, 50))
	assert.Equal(t, white, canvas.NRGBAAt(190, 50))
}

func TestDrawImageLayerCoverLeavesNoBlankSpace(t *testing.T) {
	p := testPipeline(t, t.TempDir())

	src := filepath.Join(t.TempDir(), "red.png")
	require.NoError(t, imaging.Save(imaging.New(50, 100, red), src))

	canvas := imaging.New(200, 100, white)
	layer := models.Image(src, 0, 0, 200, 100, models.FitCover)
	p.drawImageLayer(context.Background(), canvas, &layer, models.DefaultProfile("t1", "Acme"))

	// Cropped fill covers the whole box, corners included.
	assert.Equal(t, red, canvas.NRGBAAt(0, 0))
	assert.Equal(t, red, canvas.NRGBAAt(199, 99))
	assert.Equal(t, red, canvas.NRGBAAt(100, 50))
}
