package render

import (
	"image"
	"image/color"
	"image/draw"
	"strings"

	"github.com/disintegration/imaging"
	"github.com/lucasb-eyer/go-colorful"
	"golang.org/x/image/font"
	"golang.org/x/image/math/fixed"

	"github.com/promoforge-inc/promoforge-engine/pkg/models"
)

func toNRGBA(c colorful.Color) color.NRGBA {
	r, g, b := c.Clamped().RGB255()
	return color.NRGBA{R: r, G: g, B: b, A: 255}
}

func fillRect(canvas *image.NRGBA, x, y, w, h int, col color.NRGBA) {
	r := image.Rect(x, y, x+w, y+h).Intersect(canvas.Bounds())
	draw.Draw(canvas, r, &image.Uniform{col}, image.Point{}, draw.Over)
}

// roundedRectMask builds an alpha mask for a w×h rounded rectangle.
func roundedRectMask(w, h, radius int) *image.Alpha {
	mask := image.NewAlpha(image.Rect(0, 0, w, h))
	if radius <= 0 {
		draw.Draw(mask, mask.Bounds(), image.NewUniform(color.Alpha{255}), image.Point{}, draw.Src)
		return mask
	}
	if max := min(w, h) / 2; radius > max {
		radius = max
	}
	r2 := radius * radius
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			var dx, dy int
			switch {
			case x < radius && y < radius:
				dx, dy = radius-1-x, radius-1-y
			case x >= w-radius && y < radius:
				dx, dy = x-(w-radius), radius-1-y
			case x < radius && y >= h-radius:
				dx, dy = radius-1-x, y-(h-radius)
			case x >= w-radius && y >= h-radius:
				dx, dy = x-(w-radius), y-(h-radius)
			default:
				mask.SetAlpha(x, y, color.Alpha{255})
				continue
			}
			if dx*dx+dy*dy <= r2 {
				mask.SetAlpha(x, y, color.Alpha{255})
			}
		}
	}
	return mask
}

// drawRounded paints src onto canvas at (x, y) through a rounded-corner
// mask.
func drawRounded(canvas *image.NRGBA, src image.Image, x, y, radius int) {
	b := src.Bounds()
	mask := roundedRectMask(b.Dx(), b.Dy(), radius)
	draw.DrawMask(canvas, image.Rect(x, y, x+b.Dx(), y+b.Dy()), src, b.Min, mask, image.Point{}, draw.Over)
}

// fitImage sizes img for its target box. contain letterboxes (no crop,
// aspect preserved, centered by the caller); cover fills the whole box and
// crops the overflow.
func fitImage(img image.Image, w, h int, fit models.FitMode) image.Image {
	if fit == models.FitCover {
		return imaging.Fill(img, w, h, imaging.Center, imaging.Lanczos)
	}
	return imaging.Fit(img, w, h, imaging.Lanczos)
}

// drawShadow paints a soft offset silhouette under an image box.
func drawShadow(canvas *image.NRGBA, x, y, w, h, radius int, mode models.ShadowMode) {
	if mode == models.ShadowNone {
		return
	}
	offset := 6
	alpha := uint8(70)
	if mode == models.ShadowSoft {
		offset = 4
		alpha = 40
	}
	mask := roundedRectMask(w, h, radius)
	shade := image.NewUniform(color.NRGBA{A: alpha})
	draw.DrawMask(canvas,
		image.Rect(x+offset, y+offset, x+offset+w, y+offset+h),
		shade, image.Point{}, mask, image.Point{}, draw.Over)
}

// drawOutline strokes a 2px border around a box.
func drawOutline(canvas *image.NRGBA, x, y, w, h int, col color.NRGBA) {
	const t = 2
	fillRect(canvas, x, y, w, t, col)
	fillRect(canvas, x, y+h-t, w, t, col)
	fillRect(canvas, x, y, t, h, col)
	fillRect(canvas, x+w-t, y, t, h, col)
}

// textDrawer wraps font.Drawer with the double-strike bold approximation
// used when no dedicated bold face is available.
type textDrawer struct {
	canvas *image.NRGBA
	face   font.Face
	col    color.NRGBA
	bold   bool
}

func (d *textDrawer) width(s string) int {
	drawer := &font.Drawer{Face: d.face}
	return drawer.MeasureString(s).Ceil()
}

func (d *textDrawer) lineHeight() int {
	m := d.face.Metrics()
	return (m.Ascent + m.Descent).Ceil()
}

// drawLine draws one line with its baseline at y and returns the advance.
func (d *textDrawer) drawLine(s string, x, y int) {
	drawer := &font.Drawer{
		Dst:  d.canvas,
		Src:  image.NewUniform(d.col),
		Face: d.face,
		Dot:  fixed.P(x, y),
	}
	drawer.DrawString(s)
	if d.bold {
		drawer.Dot = fixed.P(x+1, y)
		drawer.DrawString(s)
	}
}

// drawText renders a multi-line text block starting at (x, y) as the top
// of the first line. Drawing stops once the next baseline would fall past
// maxY. Returns the y just below the last drawn line.
func (d *textDrawer) drawText(text string, x, y, maxY int) int {
	lh := d.lineHeight()
	ascent := d.face.Metrics().Ascent.Ceil()
	cursor := y
	for _, line := range strings.Split(text, "\n") {
		baseline := cursor + ascent
		if baseline > maxY {
			break
		}
		d.drawLine(line, x, baseline)
		cursor += lh
	}
	return cursor
}
