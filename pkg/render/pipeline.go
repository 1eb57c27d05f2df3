// Package render draws adapted layers onto a raster surface and writes
// the output file plus the optional metadata sidecar. It composes the
// template registry, tenant tweaks, the auto-layout adapter, background
// removal, and color harmonization; of all those, only an unknown template
// or an invalid profile is fatal.
package render

import (
	"context"
	"encoding/json"
	"fmt"
	"image"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/disintegration/imaging"
	"github.com/lucasb-eyer/go-colorful"
	"go.uber.org/zap"

	"github.com/promoforge-inc/promoforge-engine/pkg/bgremove"
	"github.com/promoforge-inc/promoforge-engine/pkg/colorx"
	"github.com/promoforge-inc/promoforge-engine/pkg/config"
	"github.com/promoforge-inc/promoforge-engine/pkg/layout"
	"github.com/promoforge-inc/promoforge-engine/pkg/models"
	"github.com/promoforge-inc/promoforge-engine/pkg/templates"
)

// Output describes one completed render.
type Output struct {
	Path        string `json:"path"`
	SidecarPath string `json:"sidecar_path,omitempty"`
	TemplateID  string `json:"template_id"`
}

// Pipeline is the rendering orchestrator. Synchronous and safe for
// concurrent use across distinct output paths.
type Pipeline struct {
	cfg      config.RenderConfig
	registry *templates.Registry
	adjuster *layout.Adjuster
	remover  bgremove.Remover
	cache    *colorx.Cache
	fonts    *FontCatalog
	logger   *zap.Logger
}

// NewPipeline wires a pipeline from its collaborators.
func NewPipeline(
	cfg config.RenderConfig,
	registry *templates.Registry,
	adjuster *layout.Adjuster,
	remover bgremove.Remover,
	cache *colorx.Cache,
	logger *zap.Logger,
) *Pipeline {
	return &Pipeline{
		cfg:      cfg,
		registry: registry,
		adjuster: adjuster,
		remover:  remover,
		cache:    cache,
		fonts:    NewFontCatalog(cfg.FontPaths, logger),
		logger:   logger,
	}
}

// Generate renders one banner. Fatal only for an unknown template id or an
// invalid profile; a missing source image degrades that single layer.
func (p *Pipeline) Generate(ctx context.Context, req *models.BannerRequest, profile *models.BrandProfile) (*Output, error) {
	if err := profile.Validate(); err != nil {
		return nil, err
	}
	profile.Normalize()

	tmpl, err := p.registry.Resolve(req.TemplateID)
	if err != nil {
		return nil, err
	}

	if req.Width <= 0 || req.Height <= 0 {
		return nil, fmt.Errorf("invalid output size %dx%d", req.Width, req.Height)
	}

	layers := tmpl(req, profile)

	margin := profile.SafeMargin
	tw := layout.ResolveTweaks(profile.Tweaks, req.TemplateID)
	if tw.SafeMargin != nil {
		margin = *tw.SafeMargin
	}
	layout.ApplyTweaks(layers, tw, req.Title)
	p.adjuster.AutoAdjust(layers, req.Title, margin, req.Width, req.Height)

	canvas := p.draw(ctx, layers, req, profile, margin)

	outPath := req.OutputPath
	if outPath == "" {
		if err := os.MkdirAll(p.cfg.OutputDir, 0o755); err != nil {
			return nil, fmt.Errorf("failed to create output dir: %w", err)
		}
		outPath = filepath.Join(p.cfg.OutputDir,
			fmt.Sprintf("%s_%s_%d.png", req.TenantID, req.TemplateID, time.Now().UnixNano()))
	}
	if err := p.save(canvas, outPath); err != nil {
		return nil, err
	}

	out := &Output{Path: outPath, TemplateID: req.TemplateID}
	if req.Meta != nil {
		sidecar, err := p.writeSidecar(outPath, req, profile)
		if err != nil {
			// The banner exists; a failed sidecar is a degraded success.
			p.logger.Warn("Failed to write metadata sidecar", zap.String("path", outPath), zap.Error(err))
		} else {
			out.SidecarPath = sidecar
		}
	}
	return out, nil
}

func (p *Pipeline) save(canvas image.Image, path string) error {
	opts := []imaging.EncodeOption{}
	if ext := strings.ToLower(filepath.Ext(path)); ext == ".jpg" || ext == ".jpeg" {
		opts = append(opts, imaging.JPEGQuality(p.cfg.JPEGQuality))
	}
	if err := imaging.Save(canvas, path, opts...); err != nil {
		return fmt.Errorf("failed to save banner to %s: %w", path, err)
	}
	return nil
}

// writeSidecar records the inputs used, the resolved palette, and the
// caller-supplied metadata next to the output file.
func (p *Pipeline) writeSidecar(outPath string, req *models.BannerRequest, profile *models.BrandProfile) (string, error) {
	sidecarPath := strings.TrimSuffix(outPath, filepath.Ext(outPath)) + ".json"
	doc := map[string]any{
		"request":      req,
		"colors":       profile.Colors,
		"generated_at": time.Now().UTC().Format(time.RFC3339),
		"meta":         req.Meta,
	}
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to encode sidecar: %w", err)
	}
	if err := os.WriteFile(sidecarPath, data, 0o644); err != nil {
		return "", fmt.Errorf("failed to write sidecar: %w", err)
	}
	return sidecarPath, nil
}

// backgroundColor is the reference color for the contrast rule: the first
// rect covering the whole canvas, else white.
func backgroundColor(layers []models.Layer, profile *models.BrandProfile, w, h int) colorful.Color {
	for _, l := range layers {
		if l.Kind == models.KindRect && l.X <= 0 && l.Y <= 0 && l.W >= w && l.H >= h {
			if c, err := colorx.ParseHex(l.Fill.Resolve(profile.Colors)); err == nil {
				return c
			}
		}
	}
	return colorful.Color{R: 1, G: 1, B: 1}
}
