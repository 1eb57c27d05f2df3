package services

import (
	"embed"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/promoforge-inc/promoforge-engine/pkg/models"
)

//go:embed dictionaries/*.yaml
var embeddedDictionaries embed.FS

// ComplianceService checks titles against market copy rules and image
// rights metadata. Results are advisory: warnings and notes accompany the
// output, they never block it.
type ComplianceService interface {
	// Check matches the title against the market's dictionary (the
	// generic baseline extended by market rules). Claims that legally
	// require evidence raise a warning and a disclosure note when
	// evidence is empty; supplied evidence is embedded in a note instead.
	Check(title, market, evidence string) *models.ComplianceResult

	// CheckRights annotates output with licensing warnings: expired
	// licenses, markets outside the allowed list, unknown ownership.
	CheckRights(rights *models.ImageRights, market string, now time.Time) (notes, warnings []string)

	// Markets lists the known market dictionaries.
	Markets() []string
}

type dictRuleYAML struct {
	Pattern string `yaml:"pattern"`
	Reason  string `yaml:"reason"`
	Claim   string `yaml:"claim"`
}

type dictYAML struct {
	Market           string         `yaml:"market"`
	DisclosureNote   string         `yaml:"disclosure_note"`
	Forbidden        []dictRuleYAML `yaml:"forbidden"`
	EvidenceRequired []dictRuleYAML `yaml:"evidence_required"`
}

type forbiddenRule struct {
	re     *regexp.Regexp
	reason string
}

type evidenceRule struct {
	re    *regexp.Regexp
	claim string
}

type marketDictionary struct {
	forbidden []forbiddenRule
	evidence  []evidenceRule
}

type complianceService struct {
	generic        marketDictionary
	markets        map[string]marketDictionary
	disclosureNote string
	logger         *zap.Logger
}

// NewComplianceService loads the embedded dictionaries plus any custom
// ones found in dictionaryDir (same YAML schema, merged over embedded
// rules for the same market).
func NewComplianceService(dictionaryDir string, logger *zap.Logger) (ComplianceService, error) {
	s := &complianceService{
		markets: make(map[string]marketDictionary),
		logger:  logger,
	}

	entries, err := fs.ReadDir(embeddedDictionaries, "dictionaries")
	if err != nil {
		return nil, fmt.Errorf("failed to list embedded dictionaries: %w", err)
	}
	for _, e := range entries {
		data, err := embeddedDictionaries.ReadFile("dictionaries/" + e.Name())
		if err != nil {
			return nil, fmt.Errorf("failed to read embedded dictionary %s: %w", e.Name(), err)
		}
		if err := s.loadDictionary(data); err != nil {
			return nil, fmt.Errorf("bad embedded dictionary %s: %w", e.Name(), err)
		}
	}

	if dictionaryDir != "" {
		paths, err := filepath.Glob(filepath.Join(dictionaryDir, "*.yaml"))
		if err != nil {
			return nil, fmt.Errorf("failed to scan dictionary dir: %w", err)
		}
		for _, path := range paths {
			data, err := os.ReadFile(path)
			if err != nil {
				return nil, fmt.Errorf("failed to read dictionary %s: %w", path, err)
			}
			if err := s.loadDictionary(data); err != nil {
				return nil, fmt.Errorf("bad dictionary %s: %w", path, err)
			}
			logger.Info("Loaded custom compliance dictionary", zap.String("path", path))
		}
	}

	return s, nil
}

var _ ComplianceService = (*complianceService)(nil)

func (s *complianceService) loadDictionary(data []byte) error {
	var d dictYAML
	if err := yaml.Unmarshal(data, &d); err != nil {
		return err
	}
	if d.Market == "" {
		return fmt.Errorf("dictionary has no market name")
	}

	var dict marketDictionary
	if existing, ok := s.markets[d.Market]; ok {
		dict = existing
	} else if d.Market == "generic" {
		dict = s.generic
	}
	for _, r := range d.Forbidden {
		re, err := regexp.Compile(r.Pattern)
		if err != nil {
			return fmt.Errorf("bad forbidden pattern %q: %w", r.Pattern, err)
		}
		dict.forbidden = append(dict.forbidden, forbiddenRule{re: re, reason: r.Reason})
	}
	for _, r := range d.EvidenceRequired {
		re, err := regexp.Compile(r.Pattern)
		if err != nil {
			return fmt.Errorf("bad evidence pattern %q: %w", r.Pattern, err)
		}
		dict.evidence = append(dict.evidence, evidenceRule{re: re, claim: r.Claim})
	}

	if d.Market == "generic" {
		s.generic = dict
		if d.DisclosureNote != "" {
			s.disclosureNote = d.DisclosureNote
		}
	} else {
		s.markets[d.Market] = dict
	}
	return nil
}

func (s *complianceService) Check(title, market, evidence string) *models.ComplianceResult {
	result := &models.ComplianceResult{
		Title:    title,
		Notes:    []string{},
		Warnings: []string{},
	}

	rules := s.generic
	if ext, ok := s.markets[market]; ok {
		rules = marketDictionary{
			forbidden: append(append([]forbiddenRule{}, s.generic.forbidden...), ext.forbidden...),
			evidence:  append(append([]evidenceRule{}, s.generic.evidence...), ext.evidence...),
		}
	}

	for _, r := range rules.forbidden {
		if m := r.re.FindString(title); m != "" {
			result.Warnings = append(result.Warnings,
				fmt.Sprintf("forbidden claim %q (%s)", m, r.reason))
			result.Notes = append(result.Notes,
				fmt.Sprintf("「%s」は%sに該当するため表現の修正を推奨します", m, r.reason))
		}
	}
	for _, r := range rules.evidence {
		m := r.re.FindString(title)
		if m == "" {
			continue
		}
		if evidence == "" {
			result.Warnings = append(result.Warnings,
				fmt.Sprintf("claim %q (%s) requires supporting evidence", m, r.claim))
			note := strings.ReplaceAll(s.disclosureNote, "{claim}", r.claim)
			result.Notes = append(result.Notes, note)
		} else {
			result.Notes = append(result.Notes,
				fmt.Sprintf("%s 根拠: %s", r.claim, evidence))
		}
	}
	return result
}

func (s *complianceService) CheckRights(rights *models.ImageRights, market string, now time.Time) (notes, warnings []string) {
	if rights == nil {
		return nil, nil
	}
	if rights.Owner == "" && rights.License != models.LicenseOwned {
		warnings = append(warnings, "image rights owner is not recorded")
	}
	if rights.License == models.LicenseUnknown || rights.License == "" {
		warnings = append(warnings, "image license class is unknown")
	}
	if rights.License == models.LicenseEditorial {
		warnings = append(warnings, "editorial license: commercial banner use may not be permitted")
	}
	if rights.Expiry != nil && rights.Expiry.Before(now) {
		warnings = append(warnings, fmt.Sprintf("image license expired on %s", rights.Expiry.Format("2006-01-02")))
	}
	if len(rights.AllowedMarkets) > 0 && !containsFold(rights.AllowedMarkets, market) {
		warnings = append(warnings, fmt.Sprintf("market %q is not in the image's allowed markets", market))
	}
	if rights.SourceURL != "" {
		notes = append(notes, "image source: "+rights.SourceURL)
	}
	if rights.Owner != "" {
		notes = append(notes, "image rights owner: "+rights.Owner)
	}
	return notes, warnings
}

func (s *complianceService) Markets() []string {
	out := []string{"generic"}
	for m := range s.markets {
		out = append(out, m)
	}
	return out
}

func containsFold(ss []string, s string) bool {
	for _, v := range ss {
		if strings.EqualFold(v, s) {
			return true
		}
	}
	return false
}
