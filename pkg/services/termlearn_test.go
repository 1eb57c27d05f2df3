package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/promoforge-inc/promoforge-engine/pkg/models"
)

func newTestTermLearn() (TermLearnService, *memDictRepo, *memTermStatsRepo) {
	dicts := newMemDictRepo()
	stats := newMemTermStatsRepo()
	return NewTermLearnService(dicts, stats, zap.NewNop()), dicts, stats
}

func TestRecordShapingCountsTokens(t *testing.T) {
	svc, _, statsRepo := newTestTermLearn()
	ctx := context.Background()

	require.NoError(t, svc.RecordShaping(ctx, "t1", "ふんわり バスタオル ギフト", "ふんわり バスタオル"))

	stats, err := statsRepo.Get(ctx, "t1")
	require.NoError(t, err)

	require.Contains(t, stats.Tokens, "ふんわり")
	assert.Equal(t, 1, stats.Tokens["ふんわり"].Count)
	assert.Equal(t, 0, stats.Tokens["ふんわり"].RemovedCount)

	require.Contains(t, stats.Tokens, "ギフト")
	assert.Equal(t, 1, stats.Tokens["ギフト"].RemovedCount)
}

func TestRecordShapingTracksSurfaceVariants(t *testing.T) {
	svc, _, statsRepo := newTestTermLearn()
	ctx := context.Background()

	// Lowercase normalization folds both spellings onto one token.
	require.NoError(t, svc.RecordShaping(ctx, "t1", "Towel セール", "Towel セール"))
	require.NoError(t, svc.RecordShaping(ctx, "t1", "TOWEL セール", "TOWEL セール"))
	require.NoError(t, svc.RecordShaping(ctx, "t1", "Towel セール", "Towel セール"))

	stats, err := statsRepo.Get(ctx, "t1")
	require.NoError(t, err)

	st := stats.Tokens["towel"]
	require.NotNil(t, st)
	assert.Equal(t, 3, st.Count)
	assert.Equal(t, 2, st.Variants["Towel"])
	assert.Equal(t, 1, st.Variants["TOWEL"])
}

func TestRecordShapingEmptyInputIsNoop(t *testing.T) {
	svc, _, statsRepo := newTestTermLearn()
	ctx := context.Background()

	require.NoError(t, svc.RecordShaping(ctx, "t1", "", "ふんわり"))
	require.NoError(t, svc.RecordShaping(ctx, "t1", "ふんわり", ""))

	stats, err := statsRepo.Get(ctx, "t1")
	require.NoError(t, err)
	assert.Empty(t, stats.Tokens)
}

func TestSuggestSplitsKeepAndDrop(t *testing.T) {
	svc, _, _ := newTestTermLearn()
	ctx := context.Background()

	// "ふんわり" always survives, "ギフト" never does.
	for i := 0; i < 4; i++ {
		require.NoError(t, svc.RecordShaping(ctx, "t1", "ふんわり ギフト", "ふんわり"))
	}

	sugg, err := svc.Suggest(ctx, "t1")
	require.NoError(t, err)

	assert.Equal(t, []string{"ふんわり"}, sugg.Keep)
	assert.Equal(t, []string{"ギフト"}, sugg.Drop)
}

func TestSuggestIgnoresRareTokens(t *testing.T) {
	svc, _, _ := newTestTermLearn()
	ctx := context.Background()

	// Two sightings is below the suggestion floor.
	require.NoError(t, svc.RecordShaping(ctx, "t1", "ふんわり", "ふんわり"))
	require.NoError(t, svc.RecordShaping(ctx, "t1", "ふんわり", "ふんわり"))

	sugg, err := svc.Suggest(ctx, "t1")
	require.NoError(t, err)
	assert.Empty(t, sugg.Keep)
	assert.Empty(t, sugg.Drop)
}

func TestSuggestSkipsDictionaryTokens(t *testing.T) {
	svc, dicts, _ := newTestTermLearn()
	ctx := context.Background()

	dict := models.NewTermDictionary("t1")
	dict.Keep = []string{"ふんわり"}
	dict.Drop = []string{"ギフト"}
	require.NoError(t, dicts.Save(ctx, dict))

	for i := 0; i < 4; i++ {
		require.NoError(t, svc.RecordShaping(ctx, "t1", "ふんわり ギフト", "ふんわり"))
	}

	sugg, err := svc.Suggest(ctx, "t1")
	require.NoError(t, err)
	assert.Empty(t, sugg.Keep)
	assert.Empty(t, sugg.Drop)
}

func TestSuggestUnifiesSpellingVariants(t *testing.T) {
	svc, _, _ := newTestTermLearn()
	ctx := context.Background()

	require.NoError(t, svc.RecordShaping(ctx, "t1", "Towel ふんわり", "Towel ふんわり"))
	require.NoError(t, svc.RecordShaping(ctx, "t1", "Towel ふんわり", "Towel ふんわり"))
	require.NoError(t, svc.RecordShaping(ctx, "t1", "TOWEL ふんわり", "TOWEL ふんわり"))

	sugg, err := svc.Suggest(ctx, "t1")
	require.NoError(t, err)

	// The majority spelling becomes the canonical form.
	assert.Equal(t, map[string]string{"TOWEL": "Towel"}, sugg.Replace)
}

func TestApplyPatchUpdatesDictionary(t *testing.T) {
	svc, _, _ := newTestTermLearn()
	ctx := context.Background()

	patch := &models.TermPatch{
		Keep:    []string{"ふんわり"},
		Drop:    []string{"ギフト"},
		Replace: map[string]string{"TOWEL": "Towel"},
	}
	require.NoError(t, svc.ApplyPatch(ctx, "t1", patch))

	dict, err := svc.Dictionary(ctx, "t1")
	require.NoError(t, err)
	assert.True(t, dict.HasKeep("ふんわり"))
	assert.True(t, dict.HasDrop("ギフト"))
	assert.Equal(t, "Towel", dict.Replace["TOWEL"])
}
