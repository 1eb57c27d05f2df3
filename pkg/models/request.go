package models

import "time"

// BannerRequest is one generation call. Transient: only its rendering side
// effects and the metadata sidecar are persisted.
type BannerRequest struct {
	TenantID   string `json:"tenant_id"`
	MarketID   string `json:"market_id"`
	TemplateID string `json:"template_id"`

	Title    string   `json:"title"`
	Price    string   `json:"price,omitempty"`
	Discount string   `json:"discount,omitempty"`
	Badge    string   `json:"badge,omitempty"`
	Period   string   `json:"period,omitempty"`
	Variants []string `json:"variants,omitempty"`

	ImagePath string  `json:"image_path,omitempty"`
	Fit       FitMode `json:"fit,omitempty"`

	Width  int `json:"width"`
	Height int `json:"height"`

	// OutputPath overrides the deterministic output location.
	OutputPath string `json:"output_path,omitempty"`

	// Notes is free text stamped into the sidecar, not onto the image.
	Notes string `json:"notes,omitempty"`

	// Evidence backs ranking/No.1 claims in the title, if any.
	Evidence string `json:"evidence,omitempty"`

	Rights *ImageRights `json:"rights,omitempty"`

	// Meta, when non-nil, requests a JSON sidecar next to the output file.
	Meta map[string]any `json:"meta,omitempty"`
}

// LicenseClass buckets image licensing terms for the rights check.
type LicenseClass string

const (
	LicenseOwned      LicenseClass = "owned"
	LicenseRoyaltyFee LicenseClass = "royalty-free"
	LicenseEditorial  LicenseClass = "editorial"
	LicenseUnknown    LicenseClass = "unknown"
)

// ImageRights is optional licensing metadata for an uploaded image. The
// rights check annotates output with warnings; it never blocks rendering.
type ImageRights struct {
	SourceURL      string       `json:"source_url,omitempty"`
	Owner          string       `json:"owner,omitempty"`
	License        LicenseClass `json:"license,omitempty"`
	Expiry         *time.Time   `json:"expiry,omitempty"`
	AllowedMarkets []string     `json:"allowed_markets,omitempty"`
}

// ComplianceResult is the advisory outcome of a compliance check. Purely
// derived, never persisted.
type ComplianceResult struct {
	Title    string   `json:"title"`
	Notes    []string `json:"notes"`
	Warnings []string `json:"warnings"`
}
