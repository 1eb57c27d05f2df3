package templates

import (
	"math"
	"strings"

	"github.com/promoforge-inc/promoforge-engine/pkg/models"
)

// Built-in template ids.
const (
	HeroLeft      = "hero-left"
	HeroRight     = "hero-right"
	SplitDiagonal = "split-diagonal"
	BadgeBurst    = "badge-burst"
	TextOnly      = "text-only"
	SeasonalSale  = "seasonal-sale"
)

func registerBuiltins(r *Registry) {
	r.Register(HeroLeft, heroTemplate(false))
	r.Register(HeroRight, heroTemplate(true))
	r.Register(SplitDiagonal, splitDiagonal)
	r.Register(BadgeBurst, badgeBurst)
	r.Register(TextOnly, textOnly)
	r.Register(SeasonalSale, seasonalSale)
}

// densityGap is the vertical breathing room between stacked text layers.
func densityGap(d models.Density, base float64) int {
	switch d {
	case models.DensityCompact:
		return int(base * 0.6)
	case models.DensityAiry:
		return int(base * 1.6)
	default:
		return int(base)
	}
}

func titleSize(req *models.BannerRequest, p *models.BrandProfile) float64 {
	return math.Floor(float64(req.Height) * 0.11 * p.FontScale)
}

// heroTemplate is the classic product-beside-copy layout; mirrored puts
// the image on the right.
func heroTemplate(mirrored bool) TemplateFunc {
	return func(req *models.BannerRequest, p *models.BrandProfile) []models.Layer {
		w, h := req.Width, req.Height
		m := p.SafeMargin
		ts := titleSize(req, p)
		gap := densityGap(p.Density, ts*0.5)

		imgW := int(float64(w) * 0.42)
		textX := m
		imgX := w - m - imgW
		if mirrored {
			textX = imgW + m*2
			imgX = m
		}
		textW := w - imgW - m*3

		layers := []models.Layer{
			models.Rect(0, 0, w, h, models.PaletteRef("secondary")),
		}
		if req.ImagePath != "" {
			img := models.Image(req.ImagePath, imgX, m, imgW, h-m*2, fitOrDefault(req.Fit))
			img.Shadow = models.ShadowSoft
			img.ColorFit = models.ColorFitBrandAlign
			layers = append(layers, img)
		}

		y := int(float64(h) * 0.22)
		layers = append(layers, models.Text(req.Title, textX, y, textW, models.WeightBold, ts, models.PaletteRef("text")))
		y += int(ts)*2 + gap

		if req.Period != "" {
			ps := math.Floor(ts * 0.4)
			layers = append(layers, models.Text(req.Period, textX, y, textW, models.WeightNormal, ps, models.PaletteRef("text")))
			y += int(ps) + gap
		}
		if req.Price != "" && p.ShowPrice {
			ps := math.Floor(ts * 0.75)
			layers = append(layers, models.Text(req.Price, textX, y, textW, models.WeightBold, ps, models.PaletteRef("accent")))
			y += int(ps) + gap
		}
		layers = appendBadge(layers, req, p, textX, y, ts)
		return layers
	}
}

// splitDiagonal fakes a diagonal split with stacked offset rects behind a
// full-height product shot.
func splitDiagonal(req *models.BannerRequest, p *models.BrandProfile) []models.Layer {
	w, h := req.Width, req.Height
	m := p.SafeMargin
	ts := titleSize(req, p)
	gap := densityGap(p.Density, ts*0.5)

	steps := 8
	layers := []models.Layer{
		models.Rect(0, 0, w, h, models.PaletteRef("primary")),
	}
	stepW := w / (steps * 2)
	for i := 0; i < steps; i++ {
		x := w/2 - stepW*i
		layers = append(layers, models.Rect(x, h*i/steps, w-x, h/steps+1, models.PaletteRef("secondary")))
	}

	if req.ImagePath != "" {
		img := models.Image(req.ImagePath, w/2+m, m, w/2-m*2, h-m*2, fitOrDefault(req.Fit))
		img.RemoveBg = true
		layers = append(layers, img)
	}

	y := int(float64(h) * 0.18)
	layers = append(layers, models.Text(req.Title, m, y, w/2-m*2, models.WeightBold, ts, models.PaletteRef("text")))
	y += int(ts)*2 + gap
	if req.Discount != "" && p.ShowDiscount {
		ds := math.Floor(ts * 1.2)
		layers = append(layers, models.Text(req.Discount, m, y, w/2-m*2, models.WeightBold, ds, models.PaletteRef("accent")))
		y += int(ds) + gap
	}
	layers = appendBadge(layers, req, p, m, y, ts)
	return layers
}

// badgeBurst leads with the badge and discount; image is secondary.
func badgeBurst(req *models.BannerRequest, p *models.BrandProfile) []models.Layer {
	w, h := req.Width, req.Height
	m := p.SafeMargin
	ts := titleSize(req, p)
	gap := densityGap(p.Density, ts*0.5)

	layers := []models.Layer{
		models.Rect(0, 0, w, h, models.PaletteRef("accent")),
		models.Rect(m/2, m/2, w-m, h-m, models.PaletteRef("secondary")),
	}

	badgeText := req.Badge
	if badgeText == "" {
		badgeText = req.Discount
	}
	if badgeText != "" && p.ShowBadge {
		bw := int(float64(w) * 0.3)
		bh := int(ts * 1.8)
		b := models.Badge(badgeText, w/2-bw/2, m, bw, bh, models.PaletteRef("accent"), models.LiteralColor("#ffffff"))
		layers = append(layers, b)
	}

	y := int(float64(h) * 0.35)
	layers = append(layers, models.Text(req.Title, m*2, y, w-m*4, models.WeightBold, ts, models.PaletteRef("text")))
	y += int(ts)*2 + gap
	if req.Price != "" && p.ShowPrice {
		ps := math.Floor(ts * 0.8)
		layers = append(layers, models.Text(req.Price, m*2, y, w-m*4, models.WeightBold, ps, models.PaletteRef("primary")))
	}
	if req.ImagePath != "" {
		imgW := int(float64(w) * 0.25)
		img := models.Image(req.ImagePath, w-m-imgW, h-m-imgW, imgW, imgW, models.FitContain)
		img.Radius = imgW / 8
		layers = append(layers, img)
	}
	return layers
}

// textOnly renders copy on a flat brand field; the fallback when no
// product shot exists.
func textOnly(req *models.BannerRequest, p *models.BrandProfile) []models.Layer {
	w, h := req.Width, req.Height
	m := p.SafeMargin
	ts := titleSize(req, p) * 1.2
	gap := densityGap(p.Density, ts*0.5)

	layers := []models.Layer{
		models.Rect(0, 0, w, h, models.PaletteRef("primary")),
	}
	y := int(float64(h) * 0.3)
	layers = append(layers, models.Text(req.Title, m, y, w-m*2, models.WeightBold, ts, models.PaletteRef("text")))
	y += int(ts)*2 + gap
	if len(req.Variants) > 0 {
		vs := math.Floor(ts * 0.35)
		layers = append(layers, models.Text(strings.Join(req.Variants, " / "), m, y, w-m*2, models.WeightNormal, vs, models.PaletteRef("text")))
		y += int(vs) + gap
	}
	if req.Period != "" {
		ps := math.Floor(ts * 0.35)
		layers = append(layers, models.Text(req.Period, m, y, w-m*2, models.WeightNormal, ps, models.PaletteRef("text")))
	}
	return layers
}

// seasonalSale is a discount-forward layout with a period banner strip.
func seasonalSale(req *models.BannerRequest, p *models.BrandProfile) []models.Layer {
	w, h := req.Width, req.Height
	m := p.SafeMargin
	ts := titleSize(req, p)
	gap := densityGap(p.Density, ts*0.5)

	stripH := int(float64(h) * 0.16)
	layers := []models.Layer{
		models.Rect(0, 0, w, h, models.PaletteRef("secondary")),
		models.Rect(0, 0, w, stripH, models.PaletteRef("accent")),
	}
	if req.Period != "" {
		ps := math.Floor(float64(stripH) * 0.45)
		layers = append(layers, models.Text(req.Period, m, stripH/4, w-m*2, models.WeightBold, ps, models.LiteralColor("#ffffff")))
	}

	y := stripH + gap*2
	layers = append(layers, models.Text(req.Title, m, y, w-m*2, models.WeightBold, ts, models.PaletteRef("text")))
	y += int(ts)*2 + gap
	if req.Discount != "" && p.ShowDiscount {
		ds := math.Floor(ts * 1.4)
		layers = append(layers, models.Text(req.Discount, m, y, w-m*2, models.WeightBold, ds, models.PaletteRef("accent")))
		y += int(ds) + gap
	}
	if req.ImagePath != "" {
		imgW := int(float64(w) * 0.3)
		img := models.Image(req.ImagePath, w-m-imgW, h-m-int(float64(imgW)*1.1), imgW, int(float64(imgW)*1.1), fitOrDefault(req.Fit))
		img.ColorFit = models.ColorFitPop
		layers = append(layers, img)
	}
	layers = appendBadge(layers, req, p, m, y, ts)
	return layers
}

func appendBadge(layers []models.Layer, req *models.BannerRequest, p *models.BrandProfile, x, y int, ts float64) []models.Layer {
	if req.Badge == "" || !p.ShowBadge {
		return layers
	}
	bw := len([]rune(req.Badge))*int(ts*0.6) + int(ts)
	bh := int(ts * 1.4)
	return append(layers, models.Badge(req.Badge, x, y, bw, bh, models.PaletteRef("accent"), models.LiteralColor("#ffffff")))
}

func fitOrDefault(fit models.FitMode) models.FitMode {
	if fit == "" {
		return models.FitContain
	}
	return fit
}
