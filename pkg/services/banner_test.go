package services

import (
	"context"
	"encoding/json"
	"os"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/promoforge-inc/promoforge-engine/pkg/bgremove"
	"github.com/promoforge-inc/promoforge-engine/pkg/colorx"
	"github.com/promoforge-inc/promoforge-engine/pkg/config"
	"github.com/promoforge-inc/promoforge-engine/pkg/layout"
	"github.com/promoforge-inc/promoforge-engine/pkg/models"
	"github.com/promoforge-inc/promoforge-engine/pkg/render"
	"github.com/promoforge-inc/promoforge-engine/pkg/templates"
)

type bannerTestEnv struct {
	svc       BannerService
	dictRepo  *memDictRepo
	statsRepo *memTermStatsRepo
	outDir    string
}

func newBannerTestEnv(t *testing.T) *bannerTestEnv {
	t.Helper()
	logger := zap.NewNop()
	outDir := t.TempDir()

	cache, err := colorx.NewCache(t.TempDir(), logger)
	require.NoError(t, err)
	pipeline := render.NewPipeline(
		config.RenderConfig{OutputDir: outDir, JPEGQuality: 90},
		templates.NewBuiltinRegistry(),
		layout.NewAdjuster(layout.DefaultThresholds(), logger),
		bgremove.New(config.RemovalConfig{}, t.TempDir(), logger),
		cache,
		logger,
	)

	profiles := NewProfileService(newMemProfileRepo(), logger)
	dictRepo := newMemDictRepo()
	statsRepo := newMemTermStatsRepo()
	terms := NewTermLearnService(dictRepo, statsRepo, logger)
	copywriter, err := NewCopywriterService(config.CopywriterConfig{TimeoutSeconds: 5}, nil, logger)
	require.NoError(t, err)
	compliance, err := NewComplianceService("", logger)
	require.NoError(t, err)

	return &bannerTestEnv{
		svc:       NewBannerService(profiles, terms, copywriter, compliance, pipeline, logger),
		dictRepo:  dictRepo,
		statsRepo: statsRepo,
		outDir:    outDir,
	}
}

func bannerReq() *models.BannerRequest {
	return &models.BannerRequest{
		TenantID:   "t1",
		MarketID:   "rakuten",
		TemplateID: templates.TextOnly,
		Title:      "【公式】ふんわりバスタオル 送料無料",
		Width:      800,
		Height:     400,
	}
}

func TestGenerateProducesBannerFile(t *testing.T) {
	env := newBannerTestEnv(t)

	result, err := env.svc.Generate(context.Background(), bannerReq())
	require.NoError(t, err)

	require.NotNil(t, result.Output)
	info, err := os.Stat(result.Output.Path)
	require.NoError(t, err)
	assert.Greater(t, info.Size(), int64(0))

	// Marketplace noise is stripped before the title hits the canvas.
	assert.NotContains(t, result.Title, "【公式】")
	assert.NotContains(t, result.Title, "送料無料")
	assert.Contains(t, result.Title, "バスタオル")
}

func TestGenerateRecordsShapingOutcome(t *testing.T) {
	env := newBannerTestEnv(t)

	_, err := env.svc.Generate(context.Background(), bannerReq())
	require.NoError(t, err)

	stats, err := env.statsRepo.Get(context.Background(), "t1")
	require.NoError(t, err)
	require.Contains(t, stats.Tokens, "ふんわりバスタオル")
	assert.Equal(t, 1, stats.Tokens["ふんわりバスタオル"].Count)
}

func TestGenerateAppliesDictionary(t *testing.T) {
	env := newBannerTestEnv(t)
	ctx := context.Background()

	dict := models.NewTermDictionary("t1")
	dict.Replace = map[string]string{"バスタオル": "フェイスタオル"}
	require.NoError(t, env.dictRepo.Save(ctx, dict))

	result, err := env.svc.Generate(ctx, bannerReq())
	require.NoError(t, err)
	assert.Contains(t, result.Title, "フェイスタオル")
}

func TestGenerateComplianceFindingsReachSidecar(t *testing.T) {
	env := newBannerTestEnv(t)

	req := bannerReq()
	req.Title = "絶対お得なタオル"
	result, err := env.svc.Generate(context.Background(), req)
	require.NoError(t, err)

	require.NotEmpty(t, result.Compliance.Warnings)
	assert.Contains(t, result.Compliance.Warnings[0], "絶対")

	require.NotEmpty(t, result.Output.SidecarPath)
	data, err := os.ReadFile(result.Output.SidecarPath)
	require.NoError(t, err)
	var doc map[string]any
	require.NoError(t, json.Unmarshal(data, &doc))
	meta, ok := doc["meta"].(map[string]any)
	require.True(t, ok)
	assert.Contains(t, meta, "compliance")
}

func TestGenerateCleanTitleSkipsSidecar(t *testing.T) {
	env := newBannerTestEnv(t)

	result, err := env.svc.Generate(context.Background(), bannerReq())
	require.NoError(t, err)
	assert.Empty(t, result.Output.SidecarPath)
}

func TestGenerateUnknownTemplate(t *testing.T) {
	env := newBannerTestEnv(t)

	req := bannerReq()
	req.TemplateID = "no-such-template"
	_, err := env.svc.Generate(context.Background(), req)
	require.Error(t, err)
}

func TestGenerateShapesLongTitleWithinBudget(t *testing.T) {
	env := newBannerTestEnv(t)

	req := bannerReq()
	req.Title = "ふんわりやわらかオーガニックコットンバスタオル大判サイズ吸水速乾"
	result, err := env.svc.Generate(context.Background(), req)
	require.NoError(t, err)

	lines := strings.Split(result.Title, "\n")
	assert.LessOrEqual(t, len(lines), titleMaxLines)
}
