package screening

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/clearwatch/clearwatch/internal/watchlist"
)

// RiskLevel is an ordered severity scale. Aggregation across categories takes
// the maximum by precedence, never an average.
type RiskLevel string

const (
	RiskLow      RiskLevel = "LOW"
	RiskMedium   RiskLevel = "MEDIUM"
	RiskHigh     RiskLevel = "HIGH"
	RiskCritical RiskLevel = "CRITICAL"
)

func (r RiskLevel) rank() int {
	switch r {
	case RiskCritical:
		return 3
	case RiskHigh:
		return 2
	case RiskMedium:
		return 1
	default:
		return 0
	}
}

// MaxRiskLevel returns the highest-precedence level among the arguments,
// or LOW when called with none.
func MaxRiskLevel(levels ...RiskLevel) RiskLevel {
	out := RiskLow
	for _, l := range levels {
		if l.rank() > out.rank() {
			out = l
		}
	}
	return out
}

// MatchType describes how a watchlist candidate matched the target.
type MatchType string

const (
	MatchExact MatchType = "exact"
	MatchFuzzy MatchType = "fuzzy"
	MatchAlias MatchType = "alias"
)

// SanctionsMatch is one watchlist hit against the screened target.
type SanctionsMatch struct {
	EntityName    string            `json:"entity_name"`
	MatchType     MatchType         `json:"match_type"`
	SanctionsList watchlist.Source  `json:"sanctions_list"`
	MatchScore    float64           `json:"match_score"`
	RiskLevel     RiskLevel         `json:"risk_level"`
	Details       map[string]string `json:"details,omitempty"`
}

// SanctionsResult is the outcome of screening one target against the
// configured watchlist sources.
type SanctionsResult struct {
	Target         string                      `json:"target"`
	Timestamp      time.Time                   `json:"timestamp"`
	SourcesChecked []watchlist.Source          `json:"sources_checked"`
	Matches        []SanctionsMatch            `json:"matches"`
	RiskLevel      RiskLevel                   `json:"risk_level"`
	Success        bool                        `json:"success"`
	ErrorsBySource map[watchlist.Source]string `json:"errors_by_source,omitempty"`
}

// EnforcementAction is one regulatory or criminal action attributed to an
// agency against the target.
type EnforcementAction struct {
	Agency      string    `json:"agency"`
	ActionType  string    `json:"action_type"`
	Date        time.Time `json:"date,omitempty"`
	Description string    `json:"description"`
	URL         string    `json:"url,omitempty"`
	Severity    RiskLevel `json:"severity"`
}

// EnforcementResult is the outcome of the enforcement history check.
type EnforcementResult struct {
	Target          string              `json:"target"`
	Timestamp       time.Time           `json:"timestamp"`
	AgenciesChecked []string            `json:"agencies_checked"`
	Actions         []EnforcementAction `json:"actions"`
	RiskLevel       RiskLevel           `json:"risk_level"`
	Success         bool                `json:"success"`
	ErrorsByAgency  map[string]string   `json:"errors_by_agency,omitempty"`
}

// JurisdictionFlag marks one country the target touches that falls in a
// scrutinized tier.
type JurisdictionFlag struct {
	CountryCode string `json:"country_code"`
	Tier        string `json:"tier"`
	Reason      string `json:"reason"`
}

// JurisdictionResult is the outcome of the jurisdiction exposure analysis.
type JurisdictionResult struct {
	Target       string             `json:"target"`
	Timestamp    time.Time          `json:"timestamp"`
	Flags        []JurisdictionFlag `json:"flags"`
	Requirements []string           `json:"requirements"`
	RiskLevel    RiskLevel          `json:"risk_level"`
}

// EntityClass is the inferred classification of a screened entity.
type EntityClass string

const (
	ClassDeFiProtocol       EntityClass = "DEFI_PROTOCOL"
	ClassCryptoAsset        EntityClass = "CRYPTO_ASSET"
	ClassCryptoOrganization EntityClass = "CRYPTO_ORGANIZATION"
	ClassUnknown            EntityClass = "UNKNOWN"
)

// RelatedEntity is a known relationship discovered during entity resolution.
type RelatedEntity struct {
	Name         string `json:"name"`
	Relationship string `json:"relationship"`
}

// ResolutionResult is the outcome of entity resolution: classification,
// derived aliases, and the known relationship graph around the target.
type ResolutionResult struct {
	Target      string          `json:"target"`
	Timestamp   time.Time       `json:"timestamp"`
	EntityClass EntityClass     `json:"entity_class"`
	Aliases     []string        `json:"aliases"`
	Related     []RelatedEntity `json:"related"`
	Confidence  float64         `json:"confidence"`
}

// AffiliateResult is the sanctions screening outcome for one affiliated
// party included in a full compliance check.
type AffiliateResult struct {
	Name   string          `json:"name"`
	Result SanctionsResult `json:"result"`
}

// ComplianceRisk is one aggregated risk factor carried on the report, with
// the factor's own recommendations and the sources it was derived from.
type ComplianceRisk struct {
	Category        string    `json:"category"`
	Level           RiskLevel `json:"level"`
	Description     string    `json:"description"`
	Recommendations []string  `json:"recommendations,omitempty"`
	Sources         []string  `json:"sources,omitempty"`
}

// ComplianceReport is the full compliance check output: all four category
// results plus affiliate screenings, rolled up into an overall level with
// the derived risk factors and recommendations.
type ComplianceReport struct {
	ID               string              `json:"id"`
	Target           string              `json:"target"`
	Timestamp        time.Time           `json:"timestamp"`
	Sanctions        *SanctionsResult    `json:"sanctions,omitempty"`
	Enforcement      *EnforcementResult  `json:"enforcement,omitempty"`
	Jurisdiction     *JurisdictionResult `json:"jurisdiction,omitempty"`
	Resolution       *ResolutionResult   `json:"resolution,omitempty"`
	Affiliates       []AffiliateResult   `json:"affiliates,omitempty"`
	OverallRiskLevel RiskLevel           `json:"overall_risk_level"`
	Risks            []ComplianceRisk    `json:"risks"`
	Recommendations  []string            `json:"recommendations"`
	Success          bool                `json:"success"`
}

// RiskAssessment wraps a compliance report with the weighted numeric score
// derived from its category levels.
type RiskAssessment struct {
	Report       ComplianceReport           `json:"report"`
	FactorScores map[string]decimal.Decimal `json:"factor_scores"`
	OverallScore decimal.Decimal            `json:"overall_score"`
	RiskLevel    RiskLevel                  `json:"risk_level"`
}
