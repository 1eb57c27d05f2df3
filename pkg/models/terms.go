package models

// NormalizeOptions are the tenant's token-normalization flags, shared by
// dictionary application and term-stat accumulation so both sides agree on
// what "the same token" means.
type NormalizeOptions struct {
	// Lowercase folds ASCII tokens before matching.
	Lowercase bool `json:"lowercase"`
	// Singularize reduces ASCII tokens to singular form ("banners"→"banner").
	Singularize bool `json:"singularize"`
}

// TermDictionary is a tenant's vocabulary rule set, applied to titles
// before shaping. Keep overrides Drop; Replace canonicalizes surface forms.
// Mutated only through an explicit apply operation.
type TermDictionary struct {
	TenantID  string            `json:"tenant_id"`
	Keep      []string          `json:"keep,omitempty"`
	Drop      []string          `json:"drop,omitempty"`
	Replace   map[string]string `json:"replace,omitempty"`
	Normalize NormalizeOptions  `json:"normalize"`

	Version int64 `json:"-"`
}

// NewTermDictionary returns an empty dictionary with the default
// normalization flags.
func NewTermDictionary(tenantID string) *TermDictionary {
	return &TermDictionary{
		TenantID:  tenantID,
		Replace:   make(map[string]string),
		Normalize: NormalizeOptions{Lowercase: true, Singularize: true},
	}
}

// HasKeep reports whether the normalized token is protected.
func (d *TermDictionary) HasKeep(token string) bool { return containsString(d.Keep, token) }

// HasDrop reports whether the normalized token is banned. Keep wins.
func (d *TermDictionary) HasDrop(token string) bool {
	return !d.HasKeep(token) && containsString(d.Drop, token)
}

// TermPatch is one explicit mutation of a dictionary. Fields append/merge;
// existing entries are never removed implicitly.
type TermPatch struct {
	Keep    []string          `json:"keep,omitempty"`
	Drop    []string          `json:"drop,omitempty"`
	Replace map[string]string `json:"replace,omitempty"`
}

// Apply merges the patch into the dictionary, deduplicating and honoring
// keep-over-drop precedence (a token patched into keep leaves drop).
func (d *TermDictionary) Apply(patch *TermPatch) {
	for _, t := range patch.Keep {
		if !containsString(d.Keep, t) {
			d.Keep = append(d.Keep, t)
		}
		d.Drop = removeString(d.Drop, t)
	}
	for _, t := range patch.Drop {
		if !containsString(d.Drop, t) && !containsString(d.Keep, t) {
			d.Drop = append(d.Drop, t)
		}
	}
	if len(patch.Replace) > 0 && d.Replace == nil {
		d.Replace = make(map[string]string)
	}
	for from, to := range patch.Replace {
		d.Replace[from] = to
	}
}

// TermStat accumulates how one normalized token fares across generations.
type TermStat struct {
	Count        int            `json:"count"`
	RemovedCount int            `json:"removed_count"`
	Variants     map[string]int `json:"variants,omitempty"`
}

// RemovedRate is the fraction of appearances that did not survive shaping.
func (t *TermStat) RemovedRate() float64 {
	if t.Count == 0 {
		return 0
	}
	return float64(t.RemovedCount) / float64(t.Count)
}

// TermStats is the per-tenant accumulation document, keyed by normalized
// token.
type TermStats struct {
	TenantID string               `json:"tenant_id"`
	Tokens   map[string]*TermStat `json:"tokens"`

	Version int64 `json:"-"`
}

// NewTermStats returns an empty stats document.
func NewTermStats(tenantID string) *TermStats {
	return &TermStats{TenantID: tenantID, Tokens: make(map[string]*TermStat)}
}

// Token returns the stat for a normalized token, creating it on first use.
func (s *TermStats) Token(normalized string) *TermStat {
	if s.Tokens == nil {
		s.Tokens = make(map[string]*TermStat)
	}
	t, ok := s.Tokens[normalized]
	if !ok {
		t = &TermStat{Variants: make(map[string]int)}
		s.Tokens[normalized] = t
	}
	return t
}

// TermSuggestions are advisory dictionary candidates derived from stats.
// Never applied automatically.
type TermSuggestions struct {
	Keep    []string          `json:"keep"`
	Drop    []string          `json:"drop"`
	Replace map[string]string `json:"replace"`
}

func containsString(ss []string, s string) bool {
	for _, v := range ss {
		if v == s {
			return true
		}
	}
	return false
}

func removeString(ss []string, s string) []string {
	out := ss[:0]
	for _, v := range ss {
		if v != s {
			out = append(out, v)
		}
	}
	return out
}
