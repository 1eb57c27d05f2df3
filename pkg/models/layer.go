package models

// LayerKind discriminates the drawable layer variants.
type LayerKind string

const (
	KindRect  LayerKind = "rect"
	KindText  LayerKind = "text"
	KindBadge LayerKind = "badge"
	KindImage LayerKind = "image"
)

// FitMode controls how an image layer fills its box.
type FitMode string

const (
	FitContain FitMode = "contain"
	FitCover   FitMode = "cover"
)

// ShadowMode selects the drop shadow drawn behind an image layer.
type ShadowMode string

const (
	ShadowNone ShadowMode = ""
	ShadowDrop ShadowMode = "drop"
	ShadowSoft ShadowMode = "soft"
)

// ColorFitMode selects the harmonization applied to an image layer.
type ColorFitMode string

const (
	ColorFitNone       ColorFitMode = ""
	ColorFitBrandAlign ColorFitMode = "brand-align"
	ColorFitPop        ColorFitMode = "pop"
	ColorFitSoft       ColorFitMode = "soft"
)

// FontWeight is limited to the two weights templates actually use.
type FontWeight string

const (
	WeightNormal FontWeight = "normal"
	WeightBold   FontWeight = "bold"
)

// Fill is a color reference resolved against the brand palette at draw
// time. Exactly one of Token or Literal is set; the token indirection is
// what lets one template serve many brands.
type Fill struct {
	Token   string `json:"token,omitempty"`
	Literal string `json:"literal,omitempty"`
}

// PaletteRef references a named slot of the brand palette.
func PaletteRef(token string) Fill { return Fill{Token: token} }

// LiteralColor carries a fixed hex color that ignores the palette.
func LiteralColor(hex string) Fill { return Fill{Literal: hex} }

// Resolve returns the hex color this fill denotes for the given palette.
func (f Fill) Resolve(p Palette) string {
	if f.Literal != "" {
		return f.Literal
	}
	return p.Resolve(f.Token)
}

// IsZero reports whether the fill was left unset by the template.
func (f Fill) IsZero() bool { return f.Token == "" && f.Literal == "" }

// Layer is one drawable primitive. Templates produce layers, tenant tweaks
// and the auto-layout adapter mutate them in place, and the rendering
// pipeline consumes them read-only in rect→image→text→badge order.
type Layer struct {
	Kind LayerKind `json:"kind"`

	X int `json:"x"`
	Y int `json:"y"`
	W int `json:"w,omitempty"`
	H int `json:"h,omitempty"`

	// Text and badge fields.
	Text       string     `json:"text,omitempty"`
	MaxWidth   int        `json:"max_width,omitempty"`
	FontWeight FontWeight `json:"font_weight,omitempty"`
	FontSize   float64    `json:"font_size,omitempty"`
	TextFill   Fill       `json:"text_fill,omitempty"`

	Fill Fill `json:"fill,omitempty"`

	// Image fields.
	Src      string       `json:"src,omitempty"`
	Fit      FitMode      `json:"fit,omitempty"`
	Radius   int          `json:"radius,omitempty"`
	RemoveBg bool         `json:"remove_bg,omitempty"`
	Shadow   ShadowMode   `json:"shadow,omitempty"`
	ColorFit ColorFitMode `json:"color_fit,omitempty"`
	Outline  bool         `json:"outline,omitempty"`
}

// Rect builds a filled rectangle layer.
func Rect(x, y, w, h int, fill Fill) Layer {
	return Layer{Kind: KindRect, X: x, Y: y, W: w, H: h, Fill: fill}
}

// Text builds a text layer.
func Text(text string, x, y, maxWidth int, weight FontWeight, size float64, fill Fill) Layer {
	return Layer{Kind: KindText, Text: text, X: x, Y: y, MaxWidth: maxWidth, FontWeight: weight, FontSize: size, Fill: fill}
}

// Badge builds a rounded badge layer with centered text.
func Badge(text string, x, y, w, h int, fill, textFill Fill) Layer {
	return Layer{Kind: KindBadge, Text: text, X: x, Y: y, W: w, H: h, Fill: fill, TextFill: textFill}
}

// Image builds an image layer.
func Image(src string, x, y, w, h int, fit FitMode) Layer {
	return Layer{Kind: KindImage, Src: src, X: x, Y: y, W: w, H: h, Fit: fit}
}
