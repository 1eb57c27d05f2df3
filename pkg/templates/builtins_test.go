package templates

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/promoforge-inc/promoforge-engine/pkg/models"
)

func testRequest() *models.BannerRequest {
	return &models.BannerRequest{
		TenantID:   "t1",
		MarketID:   "rakuten",
		Title:      "ふんわりバスタオル",
		Price:      "¥1,980",
		Discount:   "30%OFF",
		Badge:      "限定",
		Period:     "8/1-8/31",
		ImagePath:  "product.png",
		Width:      800,
		Height:     400,
	}
}

func countKind(layers []models.Layer, kind models.LayerKind) int {
	n := 0
	for _, l := range layers {
		if l.Kind == kind {
			n++
		}
	}
	return n
}

func TestBuiltinsProduceLayers(t *testing.T) {
	r := NewBuiltinRegistry()
	profile := models.DefaultProfile("t1", "Acme")

	for _, id := range r.IDs() {
		t.Run(id, func(t *testing.T) {
			fn, err := r.Resolve(id)
			require.NoError(t, err)

			layers := fn(testRequest(), profile)
			require.NotEmpty(t, layers)
			assert.GreaterOrEqual(t, countKind(layers, models.KindRect), 1, "every template paints a background")
			assert.GreaterOrEqual(t, countKind(layers, models.KindText), 1)
		})
	}
}

func TestHeroTemplateHonorsVisibilityFlags(t *testing.T) {
	fn, err := NewBuiltinRegistry().Resolve(HeroLeft)
	require.NoError(t, err)

	profile := models.DefaultProfile("t1", "Acme")
	withAll := fn(testRequest(), profile)

	profile.ShowPrice = false
	profile.ShowBadge = false
	withoutPriceBadge := fn(testRequest(), profile)

	assert.Equal(t, countKind(withAll, models.KindText)-1, countKind(withoutPriceBadge, models.KindText))
	assert.Equal(t, 0, countKind(withoutPriceBadge, models.KindBadge))
	assert.Equal(t, 1, countKind(withAll, models.KindBadge))
}

func TestTemplatesSkipImageLayerWithoutSource(t *testing.T) {
	r := NewBuiltinRegistry()
	profile := models.DefaultProfile("t1", "Acme")
	req := testRequest()
	req.ImagePath = ""

	for _, id := range r.IDs() {
		fn, err := r.Resolve(id)
		require.NoError(t, err)
		layers := fn(req, profile)
		assert.Zero(t, countKind(layers, models.KindImage), "template %s", id)
	}
}

func TestTitleSizeTracksHeightAndFontScale(t *testing.T) {
	fn, err := NewBuiltinRegistry().Resolve(HeroLeft)
	require.NoError(t, err)

	profile := models.DefaultProfile("t1", "Acme")
	req := testRequest()

	small := fn(req, profile)
	profile.FontScale = 1.3
	big := fn(req, profile)

	titleOf := func(layers []models.Layer) models.Layer {
		for _, l := range layers {
			if l.Kind == models.KindText && l.Text == req.Title {
				return l
			}
		}
		t.Fatal("title layer not found")
		return models.Layer{}
	}
	assert.Equal(t, 44.0, titleOf(small).FontSize)   // floor(400 * 0.11)
	assert.Equal(t, 57.0, titleOf(big).FontSize)     // floor(44 * 1.3)
}

func TestSplitDiagonalRequestsBackgroundRemoval(t *testing.T) {
	fn, err := NewBuiltinRegistry().Resolve(SplitDiagonal)
	require.NoError(t, err)

	layers := fn(testRequest(), models.DefaultProfile("t1", "Acme"))
	for _, l := range layers {
		if l.Kind == models.KindImage {
			assert.True(t, l.RemoveBg)
			return
		}
	}
	t.Fatal("no image layer produced")
}
