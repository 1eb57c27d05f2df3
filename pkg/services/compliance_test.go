package services

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/promoforge-inc/promoforge-engine/pkg/models"
)

func newTestCompliance(t *testing.T) ComplianceService {
	t.Helper()
	svc, err := NewComplianceService("", zap.NewNop())
	require.NoError(t, err)
	return svc
}

func TestCheckCleanTitle(t *testing.T) {
	result := newTestCompliance(t).Check("ふんわりバスタオル ギフトにも", "rakuten", "")

	assert.Empty(t, result.Warnings)
	assert.Empty(t, result.Notes)
	assert.Equal(t, "ふんわりバスタオル ギフトにも", result.Title)
}

func TestCheckFlagsGenericClaims(t *testing.T) {
	result := newTestCompliance(t).Check("業界一の品質、No.1満足度", "rakuten", "")

	// One forbidden superlative plus one evidence-required claim.
	require.Len(t, result.Warnings, 2)
	assert.Contains(t, result.Warnings[0], "業界一")
	assert.Contains(t, result.Warnings[1], "No.1")
	require.Len(t, result.Notes, 2)
	assert.Contains(t, result.Notes[1], "根拠資料")
}

func TestCheckEvidenceTurnsWarningIntoNote(t *testing.T) {
	result := newTestCompliance(t).Check("売上3年連続トップクラス", "generic", "調査会社X 2025年調べ")

	assert.Empty(t, result.Warnings)
	require.Len(t, result.Notes, 1)
	assert.Contains(t, result.Notes[0], "調査会社X 2025年調べ")
}

func TestCheckMarketRulesExtendGeneric(t *testing.T) {
	svc := newTestCompliance(t)

	onRakuten := svc.Check("メーカー希望小売価格の30%割引", "rakuten", "")
	require.Len(t, onRakuten.Warnings, 1)
	assert.Contains(t, onRakuten.Warnings[0], "メーカー希望小売価格")

	// The same title passes outside the market that owns the rule.
	offMarket := svc.Check("メーカー希望小売価格の30%割引", "yahoo-shopping", "")
	assert.Empty(t, offMarket.Warnings)
}

func TestCheckUnknownMarketFallsBackToGeneric(t *testing.T) {
	result := newTestCompliance(t).Check("絶対お得", "no-such-market", "")

	require.Len(t, result.Warnings, 1)
	assert.Contains(t, result.Warnings[0], "絶対")
}

func TestCustomDictionaryMergesOverEmbedded(t *testing.T) {
	dir := t.TempDir()
	custom := `market: rakuten
forbidden:
  - pattern: "在庫限り"
    reason: "scarcity claim needs stock proof"
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "rakuten-extra.yaml"), []byte(custom), 0o644))

	svc, err := NewComplianceService(dir, zap.NewNop())
	require.NoError(t, err)

	result := svc.Check("在庫限り メーカー希望小売価格の30%割引", "rakuten", "")
	require.Len(t, result.Warnings, 2, "embedded and custom rules both apply")
}

func TestMarketsListsDictionaries(t *testing.T) {
	markets := newTestCompliance(t).Markets()

	assert.Contains(t, markets, "generic")
	assert.Contains(t, markets, "rakuten")
	assert.Contains(t, markets, "amazon-jp")
	assert.Contains(t, markets, "yahoo-shopping")
}

func TestCheckRights(t *testing.T) {
	svc := newTestCompliance(t)
	now := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	expired := time.Date(2026, 1, 15, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		name         string
		rights       *models.ImageRights
		wantWarnings int
		wantSub      string
	}{
		{
			name:   "nil rights",
			rights: nil,
		},
		{
			name: "owned image is clean",
			rights: &models.ImageRights{
				License: models.LicenseOwned,
			},
		},
		{
			name: "expired license",
			rights: &models.ImageRights{
				Owner:   "Studio A",
				License: models.LicenseRoyaltyFee,
				Expiry:  &expired,
			},
			wantWarnings: 1,
			wantSub:      "expired on 2026-01-15",
		},
		{
			name: "market not allowed",
			rights: &models.ImageRights{
				Owner:          "Studio A",
				License:        models.LicenseRoyaltyFee,
				AllowedMarkets: []string{"amazon-jp"},
			},
			wantWarnings: 1,
			wantSub:      "allowed markets",
		},
		{
			name: "editorial and unknown owner",
			rights: &models.ImageRights{
				License: models.LicenseEditorial,
			},
			wantWarnings: 2,
			wantSub:      "editorial",
		},
		{
			name: "unknown license",
			rights: &models.ImageRights{
				Owner:   "Studio A",
				License: models.LicenseUnknown,
			},
			wantWarnings: 1,
			wantSub:      "unknown",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, warnings := svc.CheckRights(tt.rights, "rakuten", now)
			assert.Len(t, warnings, tt.wantWarnings)
			if tt.wantSub != "" {
				found := false
				for _, w := range warnings {
					if strings.Contains(w, tt.wantSub) {
						found = true
					}
				}
				assert.True(t, found, "no warning mentions %q in %v", tt.wantSub, warnings)
			}
		})
	}
}

func TestCheckRightsNotes(t *testing.T) {
	svc := newTestCompliance(t)

	notes, warnings := svc.CheckRights(&models.ImageRights{
		SourceURL: "https://images.example.com/towel.png",
		Owner:     "Studio A",
		License:   models.LicenseOwned,
	}, "rakuten", time.Now())

	assert.Empty(t, warnings)
	require.Len(t, notes, 2)
	assert.Contains(t, notes[0], "https://images.example.com/towel.png")
	assert.Contains(t, notes[1], "Studio A")
}

func TestCheckRightsAllowedMarketCaseInsensitive(t *testing.T) {
	svc := newTestCompliance(t)

	_, warnings := svc.CheckRights(&models.ImageRights{
		Owner:          "Studio A",
		License:        models.LicenseRoyaltyFee,
		AllowedMarkets: []string{"Rakuten"},
	}, "rakuten", time.Now())

	assert.Empty(t, warnings)
}
