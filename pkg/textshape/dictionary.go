package textshape

import (
	"regexp"
	"strings"

	"github.com/jinzhu/inflection"

	"github.com/promoforge-inc/promoforge-engine/pkg/models"
)

// tokenPattern matches CJK runs and alphanumeric runs of at least two
// characters; everything else is treated as separator noise.
var tokenPattern = regexp.MustCompile(`[\p{Han}\p{Hiragana}\p{Katakana}ー]{2,}|[A-Za-z0-9][A-Za-z0-9']+`)

var asciiPattern = regexp.MustCompile(`^[A-Za-z0-9']+$`)

// Tokenize splits a title into candidate vocabulary tokens: coarse
// whitespace/punctuation splitting, then width-aware filtering of CJK and
// alphanumeric runs of two or more characters.
func Tokenize(title string) []string {
	return tokenPattern.FindAllString(title, -1)
}

// NormalizeToken folds a surface form to its dictionary key. ASCII tokens
// are lowercased and singularized per the tenant's flags; CJK tokens pass
// through unchanged.
func NormalizeToken(token string, opts models.NormalizeOptions) string {
	if !asciiPattern.MatchString(token) {
		return token
	}
	t := token
	if opts.Lowercase {
		t = strings.ToLower(t)
	}
	if opts.Singularize {
		t = inflection.Singular(t)
	}
	return t
}

// ApplyDictionary rewrites a title through the tenant's vocabulary rules:
// replace canonicalizes surface forms, drop removes banned tokens, and
// keep protects tokens from drop. Runs before shaping so the shaper's
// budget is spent on surviving words only.
func ApplyDictionary(title string, dict *models.TermDictionary) string {
	if dict == nil {
		return title
	}
	out := title
	for from, to := range dict.Replace {
		out = strings.ReplaceAll(out, from, to)
	}
	for _, banned := range dict.Drop {
		norm := NormalizeToken(banned, dict.Normalize)
		if dict.HasKeep(norm) {
			continue
		}
		out = strings.ReplaceAll(out, banned, " ")
	}
	return strings.Join(strings.Fields(out), " ")
}
