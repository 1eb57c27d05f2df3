package services

import (
	"context"
	"fmt"
	"sort"

	"go.uber.org/zap"

	"github.com/promoforge-inc/promoforge-engine/pkg/models"
	"github.com/promoforge-inc/promoforge-engine/pkg/repositories"
	"github.com/promoforge-inc/promoforge-engine/pkg/textshape"
)

// Suggestion thresholds: a token needs minCount appearances before it is
// suggested at all; the removed-rate bounds split keep from drop.
const (
	suggestMinCount    = 3
	keepMaxRemovedRate = 0.3
	dropMinRemovedRate = 0.7
)

// TermLearnService accumulates how tokens survive shaping and derives
// advisory dictionary patches from the statistics. Suggestions are never
// applied automatically; ApplyPatch is the explicit mutation step.
type TermLearnService interface {
	// RecordShaping tokenizes the original and final titles and updates
	// counts, surface-form variants, and removal counts for every token
	// of the original.
	RecordShaping(ctx context.Context, tenantID, original, final string) error

	// Suggest derives keep/drop/replace candidates from the accumulated
	// stats, excluding tokens already present in the tenant's dictionary.
	Suggest(ctx context.Context, tenantID string) (*models.TermSuggestions, error)

	// ApplyPatch merges an explicitly approved patch into the tenant's
	// dictionary.
	ApplyPatch(ctx context.Context, tenantID string, patch *models.TermPatch) error

	// Dictionary returns the tenant's current dictionary.
	Dictionary(ctx context.Context, tenantID string) (*models.TermDictionary, error)
}

type termLearnService struct {
	dictRepo  repositories.TermDictionaryRepository
	statsRepo repositories.TermStatsRepository
	logger    *zap.Logger
}

// NewTermLearnService creates a new TermLearnService.
func NewTermLearnService(
	dictRepo repositories.TermDictionaryRepository,
	statsRepo repositories.TermStatsRepository,
	logger *zap.Logger,
) TermLearnService {
	return &termLearnService{dictRepo: dictRepo, statsRepo: statsRepo, logger: logger}
}

var _ TermLearnService = (*termLearnService)(nil)

func (s *termLearnService) RecordShaping(ctx context.Context, tenantID, original, final string) error {
	if original == "" || final == "" {
		return nil
	}
	dict, err := s.dictRepo.Get(ctx, tenantID)
	if err != nil {
		return fmt.Errorf("failed to load dictionary: %w", err)
	}
	stats, err := s.statsRepo.Get(ctx, tenantID)
	if err != nil {
		return fmt.Errorf("failed to load term stats: %w", err)
	}

	finalTokens := make(map[string]bool)
	for _, tok := range textshape.Tokenize(final) {
		finalTokens[textshape.NormalizeToken(tok, dict.Normalize)] = true
	}

	for _, surface := range textshape.Tokenize(original) {
		norm := textshape.NormalizeToken(surface, dict.Normalize)
		t := stats.Token(norm)
		t.Count++
		if t.Variants == nil {
			t.Variants = make(map[string]int)
		}
		t.Variants[surface]++
		if !finalTokens[norm] {
			t.RemovedCount++
		}
	}

	return s.statsRepo.Save(ctx, stats)
}

func (s *termLearnService) Suggest(ctx context.Context, tenantID string) (*models.TermSuggestions, error) {
	dict, err := s.dictRepo.Get(ctx, tenantID)
	if err != nil {
		return nil, fmt.Errorf("failed to load dictionary: %w", err)
	}
	stats, err := s.statsRepo.Get(ctx, tenantID)
	if err != nil {
		return nil, fmt.Errorf("failed to load term stats: %w", err)
	}

	sugg := &models.TermSuggestions{Replace: make(map[string]string)}
	tokens := make([]string, 0, len(stats.Tokens))
	for tok := range stats.Tokens {
		tokens = append(tokens, tok)
	}
	sort.Strings(tokens)

	for _, tok := range tokens {
		if s.inDictionary(dict, tok) {
			continue
		}
		st := stats.Tokens[tok]
		if st.Count >= suggestMinCount {
			switch rate := st.RemovedRate(); {
			case rate <= keepMaxRemovedRate:
				sugg.Keep = append(sugg.Keep, tok)
			case rate >= dropMinRemovedRate:
				sugg.Drop = append(sugg.Drop, tok)
			}
		}
		if canonical, ok := dominantVariant(st); ok {
			for surface := range st.Variants {
				if surface != canonical {
					sugg.Replace[surface] = canonical
				}
			}
		}
	}
	return sugg, nil
}

// inDictionary reports whether a normalized token already has a rule.
func (s *termLearnService) inDictionary(dict *models.TermDictionary, token string) bool {
	if dict.HasKeep(token) || containsToken(dict.Drop, token) {
		return true
	}
	for from, to := range dict.Replace {
		if from == token || to == token {
			return true
		}
	}
	return false
}

// dominantVariant picks the canonical surface form when a token has
// multiple spellings: the most frequent one, ties broken lexicographically
// for stable suggestions.
func dominantVariant(st *models.TermStat) (string, bool) {
	if len(st.Variants) < 2 {
		return "", false
	}
	var best string
	bestCount := -1
	surfaces := make([]string, 0, len(st.Variants))
	for s := range st.Variants {
		surfaces = append(surfaces, s)
	}
	sort.Strings(surfaces)
	for _, s := range surfaces {
		if c := st.Variants[s]; c > bestCount {
			best, bestCount = s, c
		}
	}
	return best, true
}

func (s *termLearnService) ApplyPatch(ctx context.Context, tenantID string, patch *models.TermPatch) error {
	dict, err := s.dictRepo.Get(ctx, tenantID)
	if err != nil {
		return fmt.Errorf("failed to load dictionary: %w", err)
	}
	dict.Apply(patch)
	if err := s.dictRepo.Save(ctx, dict); err != nil {
		return fmt.Errorf("failed to save dictionary: %w", err)
	}
	s.logger.Info("Applied term dictionary patch",
		zap.String("tenant", tenantID),
		zap.Int("keep", len(patch.Keep)),
		zap.Int("drop", len(patch.Drop)),
		zap.Int("replace", len(patch.Replace)))
	return nil
}

func (s *termLearnService) Dictionary(ctx context.Context, tenantID string) (*models.TermDictionary, error) {
	return s.dictRepo.Get(ctx, tenantID)
}

func containsToken(ss []string, s string) bool {
	for _, v := range ss {
		if v == s {
			return true
		}
	}
	return false
}
