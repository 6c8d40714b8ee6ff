package screening

import (
	"context"
	"encoding/json"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/clearwatch/clearwatch/internal/cache"
)

// EvidenceProvider supplies enforcement actions attributed to an agency for
// a target. Implementations may call external enforcement databases; the
// bundled provider is a keyword heuristic and deliberately weak.
type EvidenceProvider interface {
	Actions(ctx context.Context, agency, target string) ([]EnforcementAction, error)
}

// CourtRecordSearcher looks up court records naming the target. It may
// legitimately return nothing.
type CourtRecordSearcher interface {
	Search(ctx context.Context, target string) ([]EnforcementAction, error)
}

// KeywordEvidenceProvider flags targets whose names carry crypto/DeFi domain
// terms as candidates for an open investigation. It is a placeholder signal
// generator, not a verdict.
type KeywordEvidenceProvider struct {
	keywords []string
}

// NewKeywordEvidenceProvider returns the default keyword heuristic.
func NewKeywordEvidenceProvider() *KeywordEvidenceProvider {
	return &KeywordEvidenceProvider{
		keywords: []string{"crypto", "defi", "exchange", "token", "mixer"},
	}
}

func (p *KeywordEvidenceProvider) Actions(ctx context.Context, agency, target string) ([]EnforcementAction, error) {
	nt := Normalize(target)
	for _, kw := range p.keywords {
		if strings.Contains(nt, kw) {
			return []EnforcementAction{{
				Agency:      agency,
				ActionType:  "Investigation",
				Date:        time.Now(),
				Description: "Potential regulatory scrutiny of digital-asset activity",
				Severity:    RiskMedium,
			}}, nil
		}
	}
	return nil, nil
}

// NoopCourtSearcher returns no records. It stands in until a docket search
// integration exists.
type NoopCourtSearcher struct{}

func (NoopCourtSearcher) Search(ctx context.Context, target string) ([]EnforcementAction, error) {
	return nil, nil
}

// EnforcementChecker queries each configured agency for actions against a
// target, caching per-agency responses. Agencies are queried concurrently,
// each under its own timeout, so one hung endpoint cannot stall the rest.
type EnforcementChecker struct {
	provider EvidenceProvider
	courts   CourtRecordSearcher
	agencies []string
	cache    *cache.TTLCache
	ttl      time.Duration
	timeout  time.Duration
	logger   *zap.Logger
}

// DefaultAgencies are the enforcement bodies checked when none are
// configured.
func DefaultAgencies() []string {
	return []string{"SEC", "CFTC", "DOJ", "FinCEN"}
}

// NewEnforcementChecker creates a checker over provider. ttl bounds how long
// a per-agency response is reused; timeout bounds each agency lookup.
func NewEnforcementChecker(provider EvidenceProvider, courts CourtRecordSearcher, agencies []string, c *cache.TTLCache, ttl, timeout time.Duration, logger *zap.Logger) *EnforcementChecker {
	if len(agencies) == 0 {
		agencies = DefaultAgencies()
	}
	if courts == nil {
		courts = NoopCourtSearcher{}
	}
	if ttl == 0 {
		ttl = time.Hour
	}
	if timeout == 0 {
		timeout = 5 * time.Second
	}
	return &EnforcementChecker{
		provider: provider,
		courts:   courts,
		agencies: agencies,
		cache:    c,
		ttl:      ttl,
		timeout:  timeout,
		logger:   logger,
	}
}

// Check queries every agency concurrently, plus court records. An agency
// failure or timeout is recorded and does not abort the others; Success is
// false only when every agency failed.
func (c *EnforcementChecker) Check(ctx context.Context, target string) EnforcementResult {
	result := EnforcementResult{
		Target:          target,
		Timestamp:       time.Now(),
		AgenciesChecked: c.agencies,
		ErrorsByAgency:  make(map[string]string),
	}

	var (
		mu sync.Mutex
		wg sync.WaitGroup
	)
	for _, agency := range c.agencies {
		wg.Add(1)
		go func(agency string) {
			defer wg.Done()
			actions, err := c.agencyActions(ctx, agency, target)
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				result.ErrorsByAgency[agency] = err.Error()
				c.logger.Warn("enforcement agency lookup failed",
					zap.String("agency", agency), zap.Error(err))
				return
			}
			result.Actions = append(result.Actions, actions...)
		}(agency)
	}
	wg.Wait()

	if records, err := c.courts.Search(ctx, target); err != nil {
		c.logger.Warn("court record search failed", zap.Error(err))
	} else {
		result.Actions = append(result.Actions, records...)
	}

	result.Success = len(result.ErrorsByAgency) < len(c.agencies)
	result.RiskLevel = enforcementRiskLevel(result.Actions)
	return result
}

func (c *EnforcementChecker) agencyActions(ctx context.Context, agency, target string) ([]EnforcementAction, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	fetch := func(ctx context.Context) ([]byte, error) {
		actions, err := c.provider.Actions(ctx, agency, target)
		if err != nil {
			return nil, err
		}
		return json.Marshal(actions)
	}

	key := "enforcement:" + agency + ":" + Normalize(target)
	raw, err := c.cache.GetOrRefresh(ctx, key, c.ttl, fetch)
	if err != nil {
		return nil, err
	}
	var actions []EnforcementAction
	if err := json.Unmarshal(raw, &actions); err != nil {
		return nil, err
	}
	return actions, nil
}

// enforcementRiskLevel maps action severities to the category risk: HIGH if
// any action is HIGH severity, MEDIUM if any is MEDIUM, else LOW.
func enforcementRiskLevel(actions []EnforcementAction) RiskLevel {
	level := RiskLow
	for _, a := range actions {
		switch a.Severity {
		case RiskHigh, RiskCritical:
			return RiskHigh
		case RiskMedium:
			level = RiskMedium
		}
	}
	return level
}
