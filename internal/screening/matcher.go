package screening

import (
	"context"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/agnivade/levenshtein"
	"go.uber.org/zap"

	"github.com/clearwatch/clearwatch/internal/watchlist"
)

// Normalize lowercases and trims surrounding whitespace. Every comparison in
// the matcher operates on normalized text.
func Normalize(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// Similarity is the share of the target's characters that also occur in the
// candidate, over the longer of the two lengths. Identical strings score 1.0;
// either side empty scores 0.0. It is deliberately order-insensitive and
// cheap; edit distance is recorded separately as match confidence.
func Similarity(target, candidate string) float64 {
	target = Normalize(target)
	candidate = Normalize(candidate)
	if target == "" || candidate == "" {
		return 0
	}
	if target == candidate {
		return 1
	}

	candidateSet := make(map[rune]struct{}, len(candidate))
	for _, r := range candidate {
		candidateSet[r] = struct{}{}
	}
	common := 0
	for _, r := range target {
		if _, ok := candidateSet[r]; ok {
			common++
		}
	}

	longer := utf8.RuneCountInString(target)
	if c := utf8.RuneCountInString(candidate); c > longer {
		longer = c
	}
	return float64(common) / float64(longer)
}

// editConfidence is a normalized Levenshtein similarity, carried on matches
// as supporting detail for analyst review.
func editConfidence(a, b string) float64 {
	a, b = Normalize(a), Normalize(b)
	longer := utf8.RuneCountInString(a)
	if c := utf8.RuneCountInString(b); c > longer {
		longer = c
	}
	if longer == 0 {
		return 0
	}
	d := levenshtein.ComputeDistance(a, b)
	return 1 - float64(d)/float64(longer)
}

// MatcherConfig tunes the fuzzy-match rules.
type MatcherConfig struct {
	// FuzzyFloor is the minimum similarity for any fuzzy match.
	FuzzyFloor float64
	// MediumFloor is the similarity above which a fuzzy match is rated
	// MEDIUM instead of LOW.
	MediumFloor float64
	// MinSubstringTargetLen is the minimum target length, in runes, for the
	// substring condition to apply. Shorter targets match exactly or not at
	// all, so two-letter names cannot light up half a list.
	MinSubstringTargetLen int
	// Denylist is the set of names treated as categorical exact hits
	// regardless of store contents.
	Denylist []string
	// PerSourceTimeout bounds each source query during screening.
	PerSourceTimeout time.Duration
}

// DefaultMatcherConfig returns the standard matching thresholds.
func DefaultMatcherConfig() MatcherConfig {
	return MatcherConfig{
		FuzzyFloor:            0.8,
		MediumFloor:           0.9,
		MinSubstringTargetLen: 4,
		Denylist:              []string{"tornado.cash", "blender.io", "mixer.money"},
		PerSourceTimeout:      5 * time.Second,
	}
}

// Matcher screens targets against watchlist sources using deterministic
// name-match rules.
type Matcher struct {
	store  watchlist.Store
	cfg    MatcherConfig
	logger *zap.Logger
}

// NewMatcher creates a matcher over store with cfg thresholds.
func NewMatcher(store watchlist.Store, cfg MatcherConfig, logger *zap.Logger) *Matcher {
	if cfg.FuzzyFloor == 0 {
		cfg.FuzzyFloor = DefaultMatcherConfig().FuzzyFloor
	}
	if cfg.MediumFloor == 0 {
		cfg.MediumFloor = DefaultMatcherConfig().MediumFloor
	}
	if cfg.MinSubstringTargetLen == 0 {
		cfg.MinSubstringTargetLen = DefaultMatcherConfig().MinSubstringTargetLen
	}
	if cfg.PerSourceTimeout == 0 {
		cfg.PerSourceTimeout = DefaultMatcherConfig().PerSourceTimeout
	}
	return &Matcher{store: store, cfg: cfg, logger: logger}
}

// MatchSource screens the target against a single source. Source failures
// are returned as errors; match evaluation itself cannot fail.
func (m *Matcher) MatchSource(ctx context.Context, target string, source watchlist.Source) ([]SanctionsMatch, error) {
	ctx, cancel := context.WithTimeout(ctx, m.cfg.PerSourceTimeout)
	defer cancel()

	entities, err := m.store.Entities(ctx, source)
	if err != nil {
		return nil, err
	}

	var matches []SanctionsMatch
	for _, e := range entities {
		matches = append(matches, m.matchEntity(target, e)...)
	}
	return matches, nil
}

// matchEntity applies the match rules to one candidate entity. The canonical
// name and every alias are checked independently, each emitting its own
// match:
//
//   - normalized equality with the entity name is an exact match, HIGH, 1.0
//   - normalized equality with an alias is an alias match, HIGH, 1.0
//   - otherwise a fuzzy match requires a substring relation in either
//     direction plus similarity above the fuzzy floor; MEDIUM above the
//     medium floor, LOW otherwise
func (m *Matcher) matchEntity(target string, e watchlist.Entity) []SanctionsMatch {
	nt := Normalize(target)
	if nt == "" {
		return nil
	}

	var matches []SanctionsMatch
	if nt == Normalize(e.Name) {
		matches = append(matches, m.newMatch(target, e, e.Name, MatchExact, 1.0, RiskHigh))
	} else if match, ok := m.fuzzyMatch(target, e, e.Name); ok {
		matches = append(matches, match)
	}

	for _, alias := range e.Aliases {
		if nt == Normalize(alias) {
			match := m.newMatch(target, e, alias, MatchAlias, 1.0, RiskHigh)
			match.Details["matched_alias"] = alias
			matches = append(matches, match)
		} else if match, ok := m.fuzzyMatch(target, e, alias); ok {
			match.Details["matched_alias"] = alias
			matches = append(matches, match)
		}
	}
	return matches
}

// fuzzyMatch applies the substring-plus-similarity rule to one candidate
// string (canonical name or alias).
func (m *Matcher) fuzzyMatch(target string, e watchlist.Entity, candidate string) (SanctionsMatch, bool) {
	nt := Normalize(target)
	nc := Normalize(candidate)
	if utf8.RuneCountInString(nt) < m.cfg.MinSubstringTargetLen {
		return SanctionsMatch{}, false
	}
	if !strings.Contains(nc, nt) && !strings.Contains(nt, nc) {
		return SanctionsMatch{}, false
	}
	sim := Similarity(nt, nc)
	if sim <= m.cfg.FuzzyFloor {
		return SanctionsMatch{}, false
	}
	level := RiskLow
	if sim > m.cfg.MediumFloor {
		level = RiskMedium
	}
	return m.newMatch(target, e, candidate, MatchFuzzy, sim, level), true
}

func (m *Matcher) newMatch(target string, e watchlist.Entity, matched string, mt MatchType, score float64, level RiskLevel) SanctionsMatch {
	return SanctionsMatch{
		EntityName:    matched,
		MatchType:     mt,
		SanctionsList: e.SourceList,
		MatchScore:    score,
		RiskLevel:     level,
		Details: map[string]string{
			"entity_id":       e.ID,
			"entity_name":     e.Name,
			"entity_type":     string(e.EntityType),
			"program":         e.Program,
			"edit_confidence": strconv.FormatFloat(editConfidence(target, matched), 'f', 3, 64),
		},
	}
}

// DenylistMatches checks the target against the categorical crypto denylist.
// A denylisted service name appearing verbatim in the target is always an
// exact HIGH match attributed to the crypto source, independent of store
// contents.
func (m *Matcher) DenylistMatches(target string) []SanctionsMatch {
	nt := Normalize(target)
	if nt == "" {
		return nil
	}
	var matches []SanctionsMatch
	for _, name := range m.cfg.Denylist {
		if strings.Contains(nt, Normalize(name)) {
			matches = append(matches, SanctionsMatch{
				EntityName:    name,
				MatchType:     MatchExact,
				SanctionsList: watchlist.SourceOFACCrypto,
				MatchScore:    1.0,
				RiskLevel:     RiskHigh,
				Details:       map[string]string{"reason": "sanctioned crypto service"},
			})
		}
	}
	return matches
}
