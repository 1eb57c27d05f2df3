package services

import (
	"context"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/promoforge-inc/promoforge-engine/pkg/logging"
	"github.com/promoforge-inc/promoforge-engine/pkg/models"
	"github.com/promoforge-inc/promoforge-engine/pkg/render"
	"github.com/promoforge-inc/promoforge-engine/pkg/textshape"
)

// Title shaping bounds. The character budget tracks the banner width so
// wide banners fit longer lines; the clamp keeps narrow banners readable.
const (
	titleMaxLines     = 2
	titleCharsPerUnit = 64
	titleMinChars     = 8
	titleMaxChars     = 20
)

// GenerateResult is one completed banner generation.
type GenerateResult struct {
	Output     *render.Output           `json:"output"`
	Title      string                   `json:"title"`
	Compliance *models.ComplianceResult `json:"compliance"`
}

// BannerService is the generation entrypoint: it runs the title through the
// dictionary, copywriter, and shaper, checks compliance, renders, and feeds
// the shaping outcome back into term learning.
type BannerService interface {
	Generate(ctx context.Context, req *models.BannerRequest) (*GenerateResult, error)
}

type bannerService struct {
	profiles   ProfileService
	terms      TermLearnService
	copywriter CopywriterService
	compliance ComplianceService
	pipeline   *render.Pipeline
	shaper     *textshape.Shaper
	logger     *zap.Logger
}

// NewBannerService creates a new BannerService.
func NewBannerService(
	profiles ProfileService,
	terms TermLearnService,
	copywriter CopywriterService,
	compliance ComplianceService,
	pipeline *render.Pipeline,
	logger *zap.Logger,
) BannerService {
	return &bannerService{
		profiles:   profiles,
		terms:      terms,
		copywriter: copywriter,
		compliance: compliance,
		pipeline:   pipeline,
		shaper:     textshape.NewShaper(textshape.DefaultBreakWeights()),
		logger:     logger,
	}
}

var _ BannerService = (*bannerService)(nil)

func (s *bannerService) Generate(ctx context.Context, req *models.BannerRequest) (*GenerateResult, error) {
	profile, err := s.profiles.GetOrCreate(ctx, req.TenantID, req.TenantID)
	if err != nil {
		return nil, err
	}

	original := req.Title
	title := s.copywriter.Refine(ctx, req.TenantID, original)
	title = s.applyDictionary(ctx, req.TenantID, title)
	title = s.shaper.ShapeTitle(title, titleBudget(req.Width), titleMaxLines)
	req.Title = title

	result := s.compliance.Check(strings.ReplaceAll(title, "\n", ""), req.MarketID, req.Evidence)
	rightsNotes, rightsWarnings := s.compliance.CheckRights(req.Rights, req.MarketID, time.Now().UTC())
	result.Notes = append(result.Notes, rightsNotes...)
	result.Warnings = append(result.Warnings, rightsWarnings...)

	// Findings ride along in the sidecar so reviewers see them next to the
	// image. They never block the render.
	if len(result.Warnings) > 0 || len(result.Notes) > 0 {
		if req.Meta == nil {
			req.Meta = make(map[string]any)
		}
		req.Meta["compliance"] = result
	}
	for _, w := range result.Warnings {
		s.logger.Warn("Compliance warning",
			zap.String("tenant", req.TenantID),
			zap.String("market", req.MarketID),
			zap.String("warning", w))
	}

	out, err := s.pipeline.Generate(ctx, req, profile)
	if err != nil {
		return nil, err
	}

	// Term learning is best effort; a failed write must not fail a render
	// that already produced its file.
	if err := s.terms.RecordShaping(ctx, req.TenantID, original, title); err != nil {
		s.logger.Warn("Failed to record shaping outcome",
			zap.String("tenant", req.TenantID),
			zap.String("title", logging.TruncateString(original, logging.MaxTitleLogLength)),
			zap.Error(err))
	}

	return &GenerateResult{Output: out, Title: title, Compliance: result}, nil
}

// applyDictionary loads the tenant dictionary and rewrites the title with
// it. A failed load skips the rewrite rather than failing the render.
func (s *bannerService) applyDictionary(ctx context.Context, tenantID, title string) string {
	dict, err := s.terms.Dictionary(ctx, tenantID)
	if err != nil {
		s.logger.Warn("Failed to load term dictionary", zap.String("tenant", tenantID), zap.Error(err))
		return title
	}
	return textshape.ApplyDictionary(title, dict)
}

// titleBudget converts banner width to a per-line character budget.
func titleBudget(width int) int {
	chars := width / titleCharsPerUnit
	if chars < titleMinChars {
		return titleMinChars
	}
	if chars > titleMaxChars {
		return titleMaxChars
	}
	return chars
}
