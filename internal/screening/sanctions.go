package screening

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/clearwatch/clearwatch/internal/metrics"
	"github.com/clearwatch/clearwatch/internal/watchlist"
)

// SanctionsScreener runs the matcher against every configured source list
// plus the crypto-denylist pass, and promotes the raw match levels to a
// screening risk level.
type SanctionsScreener struct {
	matcher *Matcher
	sources []watchlist.Source
	logger  *zap.Logger
}

// NewSanctionsScreener screens against the given sources; with none given,
// the default source set is used.
func NewSanctionsScreener(matcher *Matcher, sources []watchlist.Source, logger *zap.Logger) *SanctionsScreener {
	if len(sources) == 0 {
		sources = watchlist.DefaultSources()
	}
	return &SanctionsScreener{matcher: matcher, sources: sources, logger: logger}
}

// Screen checks the target against all sources concurrently. A failing
// source is recorded in ErrorsBySource and does not abort the others;
// Success is false only when every source failed.
func (s *SanctionsScreener) Screen(ctx context.Context, target string, sources ...watchlist.Source) SanctionsResult {
	if len(sources) == 0 {
		sources = s.sources
	}
	result := SanctionsResult{
		Target:         target,
		Timestamp:      time.Now(),
		SourcesChecked: sources,
		ErrorsBySource: make(map[watchlist.Source]string),
	}

	var (
		mu sync.Mutex
		wg sync.WaitGroup
	)
	for _, source := range sources {
		wg.Add(1)
		go func(source watchlist.Source) {
			defer wg.Done()
			matches, err := s.matcher.MatchSource(ctx, target, source)
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				result.ErrorsBySource[source] = err.Error()
				metrics.SourceErrorsTotal.WithLabelValues(string(source)).Inc()
				s.logger.Warn("sanctions source unavailable",
					zap.String("source", string(source)), zap.Error(err))
				return
			}
			result.Matches = append(result.Matches, matches...)
		}(source)
	}
	wg.Wait()

	result.Matches = append(result.Matches, s.matcher.DenylistMatches(target)...)
	result.Success = len(result.ErrorsBySource) < len(sources)
	result.RiskLevel = screeningRiskLevel(result.Matches)

	if len(result.Matches) > 0 {
		metrics.SanctionsMatchesTotal.Add(float64(len(result.Matches)))
		s.logger.Info("sanctions matches found",
			zap.String("target", target),
			zap.Int("matches", len(result.Matches)),
			zap.String("risk_level", string(result.RiskLevel)))
	}
	return result
}

// screeningRiskLevel escalates raw match levels to the screening scale: any
// HIGH match makes the screening CRITICAL, any MEDIUM makes it HIGH, any
// match at all makes it MEDIUM, no matches is LOW.
func screeningRiskLevel(matches []SanctionsMatch) RiskLevel {
	level := RiskLow
	for _, m := range matches {
		switch m.RiskLevel {
		case RiskHigh:
			return RiskCritical
		case RiskMedium:
			level = RiskHigh
		default:
			if level == RiskLow {
				level = RiskMedium
			}
		}
	}
	return level
}
