package models

// Tweaks are tenant-set scale overrides applied after template evaluation
// and before auto-layout. A zero field means "leave unchanged"; the map key
// in BrandProfile.Tweaks is a template id or "*" for all templates.
type Tweaks struct {
	TitleScale   float64 `json:"title_scale,omitempty"`
	PriceScale   float64 `json:"price_scale,omitempty"`
	BadgeScale   float64 `json:"badge_scale,omitempty"`
	ImageScale   float64 `json:"image_scale,omitempty"`
	SpacingScale float64 `json:"spacing_scale,omitempty"`

	// SafeMargin, when set, overrides the profile's safe margin in pixels.
	SafeMargin *int `json:"safe_margin,omitempty"`
}

// Merge overlays o on top of t; set fields in o win.
func (t Tweaks) Merge(o Tweaks) Tweaks {
	if o.TitleScale != 0 {
		t.TitleScale = o.TitleScale
	}
	if o.PriceScale != 0 {
		t.PriceScale = o.PriceScale
	}
	if o.BadgeScale != 0 {
		t.BadgeScale = o.BadgeScale
	}
	if o.ImageScale != 0 {
		t.ImageScale = o.ImageScale
	}
	if o.SpacingScale != 0 {
		t.SpacingScale = o.SpacingScale
	}
	if o.SafeMargin != nil {
		t.SafeMargin = o.SafeMargin
	}
	return t
}

// IsZero reports whether no override is set.
func (t Tweaks) IsZero() bool {
	return t.TitleScale == 0 && t.PriceScale == 0 && t.BadgeScale == 0 &&
		t.ImageScale == 0 && t.SpacingScale == 0 && t.SafeMargin == nil
}
