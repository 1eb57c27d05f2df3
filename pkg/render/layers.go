package render

import (
	"context"
	"image"
	"image/color"

	"github.com/disintegration/imaging"
	"github.com/lucasb-eyer/go-colorful"
	"go.uber.org/zap"

	"github.com/promoforge-inc/promoforge-engine/pkg/colorx"
	"github.com/promoforge-inc/promoforge-engine/pkg/models"
)

// drawOrder is fixed: backgrounds first, then product shots, then copy.
var drawOrder = []models.LayerKind{models.KindRect, models.KindImage, models.KindText, models.KindBadge}

func (p *Pipeline) draw(ctx context.Context, layers []models.Layer, req *models.BannerRequest, profile *models.BrandProfile, margin int) *image.NRGBA {
	canvas := imaging.New(req.Width, req.Height, color.NRGBA{R: 255, G: 255, B: 255, A: 255})
	bg := backgroundColor(layers, profile, req.Width, req.Height)

	for _, kind := range drawOrder {
		for i := range layers {
			l := &layers[i]
			if l.Kind != kind {
				continue
			}
			switch kind {
			case models.KindRect:
				p.drawRectLayer(canvas, l, profile)
			case models.KindImage:
				p.drawImageLayer(ctx, canvas, l, profile)
			case models.KindText:
				p.drawTextLayer(canvas, l, profile, bg, req.Height, margin)
			case models.KindBadge:
				p.drawBadgeLayer(canvas, l, profile)
			}
		}
	}
	return canvas
}

func (p *Pipeline) drawRectLayer(canvas *image.NRGBA, l *models.Layer, profile *models.BrandProfile) {
	c, err := colorx.ParseHex(l.Fill.Resolve(profile.Colors))
	if err != nil {
		p.logger.Warn("Unresolvable rect fill, skipping layer", zap.Error(err))
		return
	}
	fillRect(canvas, l.X, l.Y, l.W, l.H, toNRGBA(c))
}

// drawImageLayer loads, prepares, and pastes one product image. A missing
// or unreadable source degrades this layer only: it is skipped and the
// render continues.
func (p *Pipeline) drawImageLayer(ctx context.Context, canvas *image.NRGBA, l *models.Layer, profile *models.BrandProfile) {
	src := l.Src
	if src == "" {
		return
	}

	if l.RemoveBg && p.remover != nil {
		result := p.remover.Remove(ctx, src)
		src = result.Path
	}
	if l.ColorFit != models.ColorFitNone && p.cache != nil {
		strength := 0.8 * (profile.SaturationScale / models.SaturationScaleMax)
		src = p.cache.HarmonizeFile(src, profile.Colors.Primary, l.ColorFit, strength)
	}

	img, err := imaging.Open(src)
	if err != nil {
		p.logger.Warn("Skipping unreadable image layer",
			zap.String("src", src), zap.Error(err))
		return
	}

	if profile.SaturationScale != 1.0 {
		img = imaging.AdjustSaturation(img, (profile.SaturationScale-1.0)*50)
	}

	fitted := fitImage(img, l.W, l.H, l.Fit)
	// Center inside the layer box (contain letterboxes, cover fills it).
	fb := fitted.Bounds()
	x := l.X + (l.W-fb.Dx())/2
	y := l.Y + (l.H-fb.Dy())/2

	drawShadow(canvas, x, y, fb.Dx(), fb.Dy(), l.Radius, l.Shadow)
	drawRounded(canvas, fitted, x, y, l.Radius)

	if l.Outline {
		if c, err := colorx.ParseHex(profile.Colors.Resolve("accent")); err == nil {
			drawOutline(canvas, x, y, fb.Dx(), fb.Dy(), toNRGBA(c))
		}
	}
}

// drawTextLayer draws a text block, substituting pure black or white when
// the resolved fill reads poorly against the background.
func (p *Pipeline) drawTextLayer(canvas *image.NRGBA, l *models.Layer, profile *models.BrandProfile, bg colorful.Color, canvasH, margin int) {
	fill, err := colorx.ParseHex(l.Fill.Resolve(profile.Colors))
	if err != nil {
		p.logger.Warn("Unresolvable text fill, skipping layer", zap.Error(err))
		return
	}
	if colorx.ContrastRatio(fill, bg) < colorx.MinTextContrast {
		fill = colorx.BestTextColor(bg)
	}

	face := p.fonts.Face(profile.FontFile, profile.FontFamily, l.FontSize)
	d := &textDrawer{canvas: canvas, face: face, col: toNRGBA(fill), bold: l.FontWeight == models.WeightBold}
	d.drawText(l.Text, l.X, l.Y, canvasH-margin)
}

func (p *Pipeline) drawBadgeLayer(canvas *image.NRGBA, l *models.Layer, profile *models.BrandProfile) {
	fill, err := colorx.ParseHex(l.Fill.Resolve(profile.Colors))
	if err != nil {
		p.logger.Warn("Unresolvable badge fill, skipping layer", zap.Error(err))
		return
	}
	textFill, err := colorx.ParseHex(l.TextFill.Resolve(profile.Colors))
	if err != nil || colorx.ContrastRatio(textFill, fill) < colorx.MinTextContrast {
		textFill = colorx.BestTextColor(fill)
	}

	radius := l.H / 2
	badge := imaging.New(l.W, l.H, toNRGBA(fill))
	drawRounded(canvas, badge, l.X, l.Y, radius)

	size := float64(l.H) * 0.5
	face := p.fonts.Face(profile.FontFile, profile.FontFamily, size)
	d := &textDrawer{canvas: canvas, face: face, col: toNRGBA(textFill), bold: true}
	tw := d.width(l.Text)
	tx := l.X + (l.W-tw)/2
	ty := l.Y + (l.H-d.lineHeight())/2
	d.drawText(l.Text, tx, ty, l.Y+l.H)
}
