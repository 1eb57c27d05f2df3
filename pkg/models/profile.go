package models

import (
	"fmt"
	"regexp"
	"time"

	"github.com/lucasb-eyer/go-colorful"

	"github.com/promoforge-inc/promoforge-engine/pkg/apperrors"
)

// Tone steers template copy and color choices for a brand.
type Tone string

const (
	ToneEnergetic   Tone = "energetic"
	ToneElegant     Tone = "elegant"
	ToneTrustworthy Tone = "trustworthy"
	TonePlayful     Tone = "playful"
)

// Density controls how tightly templates pack their layers.
type Density string

const (
	DensityCompact Density = "compact"
	DensityNormal  Density = "normal"
	DensityAiry    Density = "airy"
)

// Clamp ranges for the learned scalar multipliers.
const (
	FontScaleMin       = 0.7
	FontScaleMax       = 1.5
	SaturationScaleMin = 0.5
	SaturationScaleMax = 1.5
)

// MinPrimaryBrightness is the perceived-brightness floor for the primary
// color. Primaries darker than this are lightened by LightenDelta so text
// contrast substitution does not collapse everything to white-on-black.
const (
	MinPrimaryBrightness = 30.0
	LightenDelta         = 40.0
)

var hexColorPattern = regexp.MustCompile(`^#(?:[0-9a-fA-F]{3}|[0-9a-fA-F]{6})$`)

// Palette is a brand's color set. Only Primary is required; the Resolve
// fallback chain covers the rest.
type Palette struct {
	Primary   string `json:"primary"`
	Secondary string `json:"secondary,omitempty"`
	Accent    string `json:"accent,omitempty"`
	Text      string `json:"text,omitempty"`
}

// Resolve maps a fill token to a hex color. Missing optional slots fall
// back along secondary→primary, accent→secondary→primary, text→contrast
// against primary.
func (p Palette) Resolve(token string) string {
	switch token {
	case "secondary":
		if p.Secondary != "" {
			return p.Secondary
		}
		return p.Primary
	case "accent":
		if p.Accent != "" {
			return p.Accent
		}
		return p.Resolve("secondary")
	case "text":
		if p.Text != "" {
			return p.Text
		}
		return contrastTextHex(p.Primary)
	default:
		return p.Primary
	}
}

// BrandProfile is the per-tenant brand record. Created once per tenant,
// mutated only by explicit feedback-tag commands, persisted as one document.
type BrandProfile struct {
	TenantID  string  `json:"tenant_id"`
	BrandName string  `json:"brand_name"`
	Colors    Palette `json:"colors"`

	FontFamily string `json:"font_family,omitempty"`
	FontFile   string `json:"font_file,omitempty"`

	Tone       Tone    `json:"tone"`
	Density    Density `json:"density"`
	SafeMargin int     `json:"safe_margin"`

	// Learned scalar multipliers, adjusted by feedback tags.
	FontScale       float64 `json:"font_scale"`
	SaturationScale float64 `json:"saturation_scale"`

	ShowPrice    bool `json:"show_price"`
	ShowDiscount bool `json:"show_discount"`
	ShowBadge    bool `json:"show_badge"`

	// Per-template tweak overrides, keyed by template id or "*".
	Tweaks map[string]Tweaks `json:"tweaks,omitempty"`

	Version   int64     `json:"-"`
	CreatedAt time.Time `json:"created_at,omitempty"`
	UpdatedAt time.Time `json:"updated_at,omitempty"`
}

// DefaultProfile returns a usable profile for a tenant that has never been
// onboarded with a logo.
func DefaultProfile(tenantID, brandName string) *BrandProfile {
	return &BrandProfile{
		TenantID:  tenantID,
		BrandName: brandName,
		Colors: Palette{
			Primary:   "#2a5caa",
			Secondary: "#f5f5f5",
			Accent:    "#e8442e",
		},
		Tone:            ToneTrustworthy,
		Density:         DensityNormal,
		SafeMargin:      24,
		FontScale:       1.0,
		SaturationScale: 1.0,
		ShowPrice:       true,
		ShowDiscount:    true,
		ShowBadge:       true,
	}
}

// Validate rejects profiles that cannot be rendered: a missing or malformed
// primary color, or malformed optional colors. Wraps apperrors.ErrInvalidProfile.
func (p *BrandProfile) Validate() error {
	if p.TenantID == "" {
		return fmt.Errorf("%w: tenant id is required", apperrors.ErrInvalidProfile)
	}
	if !hexColorPattern.MatchString(p.Colors.Primary) {
		return fmt.Errorf("%w: primary color %q is not a hex color", apperrors.ErrInvalidProfile, p.Colors.Primary)
	}
	for _, c := range []string{p.Colors.Secondary, p.Colors.Accent, p.Colors.Text} {
		if c != "" && !hexColorPattern.MatchString(c) {
			return fmt.Errorf("%w: color %q is not a hex color", apperrors.ErrInvalidProfile, c)
		}
	}
	return nil
}

// Normalize clamps the learned scalars into their allowed ranges and
// lightens a too-dark primary so the contrast rule has room to work.
func (p *BrandProfile) Normalize() {
	p.FontScale = clampFloat(p.FontScale, FontScaleMin, FontScaleMax)
	p.SaturationScale = clampFloat(p.SaturationScale, SaturationScaleMin, SaturationScaleMax)
	if p.SafeMargin < 0 {
		p.SafeMargin = 0
	}
	if c, err := colorful.Hex(normalizeHex(p.Colors.Primary)); err == nil {
		if perceivedBrightness(c) < MinPrimaryBrightness {
			p.Colors.Primary = lighten(c, LightenDelta).Hex()
		}
	}
}

// ApplyFeedbackTag mutates the profile in response to one reviewer tag.
// Unknown tags are ignored and reported so callers can surface typos.
func (p *BrandProfile) ApplyFeedbackTag(tag string) bool {
	switch tag {
	case "text-bigger":
		p.FontScale = clampFloat(p.FontScale+0.1, FontScaleMin, FontScaleMax)
	case "text-smaller":
		p.FontScale = clampFloat(p.FontScale-0.1, FontScaleMin, FontScaleMax)
	case "more-vivid":
		p.SaturationScale = clampFloat(p.SaturationScale+0.1, SaturationScaleMin, SaturationScaleMax)
	case "more-muted":
		p.SaturationScale = clampFloat(p.SaturationScale-0.1, SaturationScaleMin, SaturationScaleMax)
	case "hide-price":
		p.ShowPrice = false
	case "show-price":
		p.ShowPrice = true
	case "hide-badge":
		p.ShowBadge = false
	case "show-badge":
		p.ShowBadge = true
	case "hide-discount":
		p.ShowDiscount = false
	case "show-discount":
		p.ShowDiscount = true
	default:
		return false
	}
	return true
}

func clampFloat(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// normalizeHex expands #abc to #aabbcc; go-colorful only parses long form
// for 3-digit inputs since v1.2 via Hex, but keep this explicit.
func normalizeHex(hex string) string {
	if len(hex) == 4 && hex[0] == '#' {
		return "#" + string([]byte{hex[1], hex[1], hex[2], hex[2], hex[3], hex[3]})
	}
	return hex
}

// perceivedBrightness returns the ITU-R BT.601 luma on a 0..255 scale.
func perceivedBrightness(c colorful.Color) float64 {
	return (0.299*c.R + 0.587*c.G + 0.114*c.B) * 255
}

func lighten(c colorful.Color, delta float64) colorful.Color {
	d := delta / 255
	return colorful.Color{
		R: clampFloat(c.R+d, 0, 1),
		G: clampFloat(c.G+d, 0, 1),
		B: clampFloat(c.B+d, 0, 1),
	}
}

func contrastTextHex(primaryHex string) string {
	c, err := colorful.Hex(normalizeHex(primaryHex))
	if err != nil {
		return "#000000"
	}
	if perceivedBrightness(c) < 128 {
		return "#ffffff"
	}
	return "#000000"
}
