package screening

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/clearwatch/clearwatch/internal/watchlist"
)

// Risk factor names used in weighted scoring and the risk breakdown.
const (
	FactorSanctions    = "sanctions_risk"
	FactorEnforcement  = "enforcement_risk"
	FactorJurisdiction = "jurisdiction_risk"
	FactorEntity       = "entity_risk"
)

// RiskWeights assigns a relative weight to each risk factor. Weights are
// normalized at scoring time, so they need not sum to one.
type RiskWeights map[string]decimal.Decimal

// DefaultRiskWeights weighs the four factors equally.
func DefaultRiskWeights() RiskWeights {
	q := decimal.NewFromFloat(0.25)
	return RiskWeights{
		FactorSanctions:    q,
		FactorEnforcement:  q,
		FactorJurisdiction: q,
		FactorEntity:       q,
	}
}

// riskLevelScore maps an ordinal level to its numeric factor score.
func riskLevelScore(level RiskLevel) decimal.Decimal {
	switch level {
	case RiskCritical:
		return decimal.NewFromFloat(1.0)
	case RiskHigh:
		return decimal.NewFromFloat(0.75)
	case RiskMedium:
		return decimal.NewFromFloat(0.5)
	default:
		return decimal.NewFromFloat(0.1)
	}
}

// RiskScoreToLevel maps a weighted score back to an ordinal level.
func RiskScoreToLevel(score decimal.Decimal) RiskLevel {
	switch {
	case score.GreaterThanOrEqual(decimal.NewFromFloat(0.9)):
		return RiskCritical
	case score.GreaterThanOrEqual(decimal.NewFromFloat(0.7)):
		return RiskHigh
	case score.GreaterThanOrEqual(decimal.NewFromFloat(0.4)):
		return RiskMedium
	default:
		return RiskLow
	}
}

// Aggregator rolls per-category results up into the report-level risk view.
type Aggregator struct {
	weights RiskWeights
}

// NewAggregator creates an aggregator; nil or empty weights fall back to the
// equal-weight default.
func NewAggregator(weights RiskWeights) *Aggregator {
	if len(weights) == 0 {
		weights = DefaultRiskWeights()
	}
	return &Aggregator{weights: weights}
}

// OverallRiskLevel is the maximum category level across sanctions,
// enforcement, jurisdiction, and every affiliate screening. Entity
// resolution carries no risk level and does not participate.
func (a *Aggregator) OverallRiskLevel(report *ComplianceReport) RiskLevel {
	levels := make([]RiskLevel, 0, 3+len(report.Affiliates))
	if report.Sanctions != nil {
		levels = append(levels, report.Sanctions.RiskLevel)
	}
	if report.Enforcement != nil {
		levels = append(levels, report.Enforcement.RiskLevel)
	}
	if report.Jurisdiction != nil {
		levels = append(levels, report.Jurisdiction.RiskLevel)
	}
	for _, aff := range report.Affiliates {
		levels = append(levels, aff.Result.RiskLevel)
	}
	return MaxRiskLevel(levels...)
}

// FactorLevels extracts the per-factor levels from a report. Missing
// categories score LOW.
func (a *Aggregator) FactorLevels(report *ComplianceReport) map[string]RiskLevel {
	factors := map[string]RiskLevel{
		FactorSanctions:    RiskLow,
		FactorEnforcement:  RiskLow,
		FactorJurisdiction: RiskLow,
		FactorEntity:       RiskLow,
	}
	if report.Sanctions != nil {
		factors[FactorSanctions] = report.Sanctions.RiskLevel
	}
	if report.Enforcement != nil {
		factors[FactorEnforcement] = report.Enforcement.RiskLevel
	}
	if report.Jurisdiction != nil {
		factors[FactorJurisdiction] = report.Jurisdiction.RiskLevel
	}
	for _, aff := range report.Affiliates {
		factors[FactorEntity] = MaxRiskLevel(factors[FactorEntity], aff.Result.RiskLevel)
	}
	return factors
}

// WeightedRiskScore computes the normalized weighted average of the factor
// scores.
func (a *Aggregator) WeightedRiskScore(factors map[string]RiskLevel) (map[string]decimal.Decimal, decimal.Decimal) {
	scores := make(map[string]decimal.Decimal, len(factors))
	total := decimal.Zero
	weightSum := decimal.Zero
	for name, level := range factors {
		score := riskLevelScore(level)
		scores[name] = score
		weight, ok := a.weights[name]
		if !ok {
			continue
		}
		total = total.Add(score.Mul(weight))
		weightSum = weightSum.Add(weight)
	}
	if weightSum.IsZero() {
		return scores, decimal.Zero
	}
	return scores, total.Div(weightSum).Round(4)
}

// Assess builds the weighted risk assessment for a completed report.
func (a *Aggregator) Assess(report ComplianceReport) RiskAssessment {
	factors := a.FactorLevels(&report)
	scores, overall := a.WeightedRiskScore(factors)
	return RiskAssessment{
		Report:       report,
		FactorScores: scores,
		OverallScore: overall,
		RiskLevel:    RiskScoreToLevel(overall),
	}
}

// Risks builds the per-category risk factors carried on the report. Each
// factor names the sources it was derived from and carries its own
// recommendation lines.
func (a *Aggregator) Risks(report *ComplianceReport) []ComplianceRisk {
	var risks []ComplianceRisk
	if report.Sanctions != nil {
		risk := ComplianceRisk{
			Category:    "sanctions",
			Level:       report.Sanctions.RiskLevel,
			Description: fmt.Sprintf("%d sanctions match(es) across %d source list(s)", len(report.Sanctions.Matches), len(report.Sanctions.SourcesChecked)),
			Sources:     sourceNames(report.Sanctions.SourcesChecked),
		}
		if len(report.Sanctions.Matches) > 0 {
			risk.Recommendations = []string{
				"Review sanctions matches with compliance officer",
				"Implement sanctions screening procedures",
			}
		}
		risks = append(risks, risk)
	}
	if report.Enforcement != nil {
		risk := ComplianceRisk{
			Category:    "enforcement",
			Level:       report.Enforcement.RiskLevel,
			Description: fmt.Sprintf("%d enforcement action(s) across %d agencies", len(report.Enforcement.Actions), len(report.Enforcement.AgenciesChecked)),
			Sources:     report.Enforcement.AgenciesChecked,
		}
		if len(report.Enforcement.Actions) > 0 {
			risk.Recommendations = []string{
				"Monitor ongoing enforcement developments",
				"Consider regulatory engagement strategy",
			}
		}
		risks = append(risks, risk)
	}
	if report.Jurisdiction != nil {
		risk := ComplianceRisk{
			Category:    "jurisdiction",
			Level:       report.Jurisdiction.RiskLevel,
			Description: fmt.Sprintf("%d restricted jurisdiction(s) flagged", len(report.Jurisdiction.Flags)),
		}
		for _, f := range report.Jurisdiction.Flags {
			risk.Sources = append(risk.Sources, f.CountryCode)
		}
		if len(report.Jurisdiction.Flags) > 0 {
			risk.Recommendations = report.Jurisdiction.Requirements
		}
		risks = append(risks, risk)
	}
	for _, aff := range report.Affiliates {
		if aff.Result.RiskLevel.rank() > RiskLow.rank() {
			risks = append(risks, ComplianceRisk{
				Category:    "affiliate",
				Level:       aff.Result.RiskLevel,
				Description: fmt.Sprintf("affiliated entity %q screened at %s", aff.Name, aff.Result.RiskLevel),
				Recommendations: []string{
					"Review sanctions matches with compliance officer",
				},
				Sources: sourceNames(aff.Result.SourcesChecked),
			})
		}
	}
	return risks
}

func sourceNames(sources []watchlist.Source) []string {
	out := make([]string, len(sources))
	for i, s := range sources {
		out[i] = string(s)
	}
	return out
}

// Recommendations derives the ordered recommendation list from a report.
// Rules append, never replace: the baseline monitoring and documentation
// recommendations always close the list.
func (a *Aggregator) Recommendations(report *ComplianceReport) []string {
	var recs []string
	if report.OverallRiskLevel == RiskHigh || report.OverallRiskLevel == RiskCritical {
		recs = append(recs,
			"Immediate legal review required",
			"Consider enhanced due diligence procedures")
	}
	if report.Sanctions != nil && len(report.Sanctions.Matches) > 0 {
		recs = append(recs,
			"Review sanctions matches with compliance officer",
			"Implement sanctions screening procedures")
	}
	if report.Enforcement != nil && len(report.Enforcement.Actions) > 0 {
		recs = append(recs,
			"Monitor ongoing enforcement developments",
			"Consider regulatory engagement strategy")
	}
	recs = append(recs,
		"Implement continuous monitoring system",
		"Document compliance procedures and decisions")
	return recs
}
