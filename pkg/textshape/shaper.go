package textshape

import (
	"regexp"
	"strings"
	"unicode"
)

// noisePatterns strip promotional boilerplate that wastes title budget:
// bracketed store slogans, SKU-like codes, and generic hard-sell phrases.
var noisePatterns = []*regexp.Regexp{
	regexp.MustCompile(`【[^】]*】`),
	regexp.MustCompile(`\[[^\]]*\]`),
	regexp.MustCompile(`（[^）]*送料[^）]*）`),
	// SKU-like alphanumeric codes: ABC-1234, XR_200B and similar.
	regexp.MustCompile(`\b[A-Za-z0-9]{2,}[-_][A-Za-z0-9][A-Za-z0-9-_]{1,}\b`),
	regexp.MustCompile(`送料無料[!！]*`),
	regexp.MustCompile(`激安[!！]*`),
	regexp.MustCompile(`今だけ[!！]*`),
	regexp.MustCompile(`ポイント\d+倍`),
	regexp.MustCompile(`(?i)\bSALE\b[!！]*`),
	regexp.MustCompile(`(?i)\bHOT\b[!！]*`),
}

// preferredBreakChars are glyphs a line likes to end on.
const preferredBreakChars = "、，,。/／・ -–—　"

// forbiddenLineStart are glyphs a line must not begin with (closing
// punctuation and trailing marks).
const forbiddenLineStart = "、。，．,.)）]」』%％!！?？ー"

// forbiddenLineEnd are glyphs a line should not end on (opening
// punctuation).
const forbiddenLineEnd = "(（[「『"

// BreakWeights score a candidate break point. Hoisted into a struct so
// tuning does not touch control flow.
type BreakWeights struct {
	PreferredChar     int // break right after a comma-like/space glyph
	AllowedStart      int // next rune is not a forbidden line start
	AllowedEnd        int // current rune is not a forbidden line end
	MiddleZone        int // break falls within 30–70% of the remaining text
	MiddleZoneLo      float64
	MiddleZoneHi      float64
	ContentWordMinLen int
	ContentWordMaxLen int
}

// DefaultBreakWeights returns the tuned production weights.
func DefaultBreakWeights() BreakWeights {
	return BreakWeights{
		PreferredChar:     10,
		AllowedStart:      5,
		AllowedEnd:        3,
		MiddleZone:        2,
		MiddleZoneLo:      0.3,
		MiddleZoneHi:      0.7,
		ContentWordMinLen: 2,
		ContentWordMaxLen: 12,
	}
}

// Shaper shapes titles. Pure and safe for concurrent use.
type Shaper struct {
	weights BreakWeights
}

// NewShaper returns a shaper with the given weights.
func NewShaper(weights BreakWeights) *Shaper {
	return &Shaper{weights: weights}
}

// ShapeTitle cleans raw and fits it into at most maxLines lines of at most
// maxChars display-width units each. Output never exceeds maxLines lines;
// a line exceeds maxChars only when a forced break mid-token was
// unavoidable.
func (s *Shaper) ShapeTitle(raw string, maxChars, maxLines int) string {
	if maxChars <= 0 || maxLines <= 0 {
		return ""
	}

	text := StripNoise(raw)
	if DisplayWidth(text) <= float64(maxChars) {
		return text
	}

	budget := float64(maxChars * maxLines)
	if DisplayWidth(text) > budget {
		text = s.summarize(text, budget)
		if DisplayWidth(text) <= float64(maxChars) {
			return text
		}
	}

	if maxLines == 1 {
		head, _ := cutAtWidth(text, float64(maxChars))
		return head
	}

	var lines []string
	rest := text
	for len(lines) < maxLines && rest != "" {
		if DisplayWidth(rest) <= float64(maxChars) {
			lines = append(lines, rest)
			rest = ""
			break
		}
		line, tail := s.breakLine(rest, float64(maxChars))
		lines = append(lines, line)
		rest = strings.TrimLeft(tail, " 　")
	}
	return strings.Join(lines, "\n")
}

// StripNoise removes promotional boilerplate, SKU codes, and hard-sell
// phrases, collapsing the whitespace left behind.
func StripNoise(raw string) string {
	text := raw
	for _, p := range noisePatterns {
		text = p.ReplaceAllString(text, " ")
	}
	return strings.Join(strings.Fields(text), " ")
}

// summarize extracts content words greedily until the width budget is
// exhausted. Content words are 2–12 runes and not purely numeric.
func (s *Shaper) summarize(text string, budget float64) string {
	var kept []string
	var used float64
	for _, word := range splitWords(text) {
		if !s.isContentWord(word) {
			continue
		}
		w := DisplayWidth(word)
		sep := 0.0
		if len(kept) > 0 {
			sep = 0.5 // joining space
		}
		if used+sep+w > budget {
			break
		}
		kept = append(kept, word)
		used += sep + w
	}
	if len(kept) == 0 {
		head, _ := cutAtWidth(text, budget)
		return head
	}
	return strings.Join(kept, " ")
}

func (s *Shaper) isContentWord(word string) bool {
	n := len([]rune(word))
	if n < s.weights.ContentWordMinLen || n > s.weights.ContentWordMaxLen {
		return false
	}
	for _, r := range word {
		if !unicode.IsDigit(r) {
			return true
		}
	}
	return false
}

// splitWords splits on whitespace and on script boundaries so CJK runs and
// Latin runs are scored separately.
func splitWords(text string) []string {
	var words []string
	var cur []rune
	var curWide bool
	flush := func() {
		if len(cur) > 0 {
			words = append(words, string(cur))
			cur = nil
		}
	}
	for _, r := range text {
		if unicode.IsSpace(r) {
			flush()
			continue
		}
		wide := RuneDisplayWidth(r) >= 1
		if len(cur) > 0 && wide != curWide {
			flush()
		}
		curWide = wide
		cur = append(cur, r)
	}
	flush()
	return words
}

// breakLine finds the best-scoring break within the width limit, or forces
// a break at the limit when no candidate qualifies.
func (s *Shaper) breakLine(text string, maxWidth float64) (line, rest string) {
	runes := []rune(text)

	// limit is the last rune index (exclusive) that still fits.
	limit := 0
	var used float64
	for i, r := range runes {
		w := RuneDisplayWidth(r)
		if used+w > maxWidth {
			break
		}
		used += w
		limit = i + 1
	}
	if limit == 0 {
		limit = 1 // single over-wide rune: forced break
	}
	if limit >= len(runes) {
		return text, ""
	}

	bestIdx, bestScore := -1, -1
	total := len(runes)
	for i := 1; i <= limit; i++ {
		score := s.scoreBreak(runes, i, total)
		if score >= bestScore {
			bestIdx, bestScore = i, score
		}
	}
	if bestIdx < 0 {
		bestIdx = limit
	}
	return string(runes[:bestIdx]), string(runes[bestIdx:])
}

// scoreBreak scores breaking before index i of runes.
func (s *Shaper) scoreBreak(runes []rune, i, total int) int {
	score := 0
	prev := runes[i-1]
	if strings.ContainsRune(preferredBreakChars, prev) {
		score += s.weights.PreferredChar
	}
	if i < len(runes) && !strings.ContainsRune(forbiddenLineStart, runes[i]) {
		score += s.weights.AllowedStart
	}
	if !strings.ContainsRune(forbiddenLineEnd, prev) {
		score += s.weights.AllowedEnd
	}
	pos := float64(i) / float64(total)
	if pos >= s.weights.MiddleZoneLo && pos <= s.weights.MiddleZoneHi {
		score += s.weights.MiddleZone
	}
	return score
}

// cutAtWidth returns the longest prefix of text within maxWidth units.
func cutAtWidth(text string, maxWidth float64) (head, tail string) {
	var used float64
	for i, r := range text {
		w := RuneDisplayWidth(r)
		if used+w > maxWidth {
			return text[:i], text[i:]
		}
		used += w
	}
	return text, ""
}
