package screening

import (
	"context"
	"sort"
	"strings"
	"time"
)

// Jurisdiction tiers. Tier membership drives flagging and the category risk
// level.
const (
	TierHighRisk             = "HIGH_RISK"
	TierMediumRisk           = "MEDIUM_RISK"
	TierRegulatoryRestricted = "REGULATORY_RESTRICTED"
)

// restrictedJurisdictions maps ISO 3166-1 alpha-2 country codes to their
// scrutiny tier for crypto/DeFi operations. A code may appear in more than
// one tier; the highest tier wins for risk purposes but each membership is
// flagged.
var restrictedJurisdictions = map[string][]string{
	TierHighRisk: {
		"AF", "BY", "MM", "CF", "CN", "CU", "IR", "IQ", "LB", "LY", "ML",
		"NI", "KP", "RU", "SO", "SS", "SD", "SY", "UA", "VE", "YE", "ZW",
	},
	TierMediumRisk: {
		"BD", "BO", "KH", "EC", "EG", "GH", "GT", "HT", "JM", "JO", "KE",
		"LA", "MV", "MZ", "NP", "NI", "PK", "PH", "LK", "TZ", "TH", "TN",
		"TR", "UG", "VN", "ZM",
	},
	TierRegulatoryRestricted: {"US", "CN", "KR", "JP", "IN"},
}

var tierReasons = map[string]string{
	TierHighRisk:             "Sanctioned or FATF high-risk jurisdiction",
	TierMediumRisk:           "Enhanced monitoring jurisdiction",
	TierRegulatoryRestricted: "Jurisdiction with specific crypto/DeFi restrictions",
}

// JurisdictionAnalyzer evaluates a target's jurisdiction exposure against
// the restricted-jurisdiction tiers.
type JurisdictionAnalyzer struct{}

// NewJurisdictionAnalyzer creates an analyzer over the built-in tier table.
func NewJurisdictionAnalyzer() *JurisdictionAnalyzer {
	return &JurisdictionAnalyzer{}
}

// Analyze flags the operating countries that fall in a restricted tier. When
// the request declares no operating countries, every tiered jurisdiction is
// flagged as potential exposure. Risk is HIGH if any flagged country is in
// the high-risk tier, MEDIUM for any other flag, LOW with no flags.
func (a *JurisdictionAnalyzer) Analyze(ctx context.Context, target string, operatingCountries []string) JurisdictionResult {
	result := JurisdictionResult{
		Target:    target,
		Timestamp: time.Now(),
		Requirements: []string{
			"May require securities registration",
			"AML compliance required for US operations",
			"Money transmitter license may be required",
		},
	}

	declared := make(map[string]bool, len(operatingCountries))
	for _, c := range operatingCountries {
		declared[strings.ToUpper(strings.TrimSpace(c))] = true
	}

	tiers := []string{TierHighRisk, TierMediumRisk, TierRegulatoryRestricted}
	for _, tier := range tiers {
		for _, code := range restrictedJurisdictions[tier] {
			if len(operatingCountries) > 0 && !declared[code] {
				continue
			}
			result.Flags = append(result.Flags, JurisdictionFlag{
				CountryCode: code,
				Tier:        tier,
				Reason:      tierReasons[tier],
			})
		}
	}
	sort.Slice(result.Flags, func(i, j int) bool {
		if result.Flags[i].Tier != result.Flags[j].Tier {
			return result.Flags[i].Tier < result.Flags[j].Tier
		}
		return result.Flags[i].CountryCode < result.Flags[j].CountryCode
	})

	result.RiskLevel = RiskLow
	for _, f := range result.Flags {
		if f.Tier == TierHighRisk {
			result.RiskLevel = RiskHigh
			break
		}
		result.RiskLevel = RiskMedium
	}
	return result
}
