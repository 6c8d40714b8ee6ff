package screening

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAnalyzeDeclaredCountries(t *testing.T) {
	a := NewJurisdictionAnalyzer()

	result := a.Analyze(context.Background(), "Protocol X", []string{"us", "DE", "kp"})
	require.Len(t, result.Flags, 2)

	byCode := map[string]JurisdictionFlag{}
	for _, f := range result.Flags {
		byCode[f.CountryCode] = f
	}
	assert.Equal(t, TierHighRisk, byCode["KP"].Tier)
	assert.Equal(t, TierRegulatoryRestricted, byCode["US"].Tier)
	assert.NotContains(t, byCode, "DE")
	assert.Equal(t, RiskHigh, result.RiskLevel)
}

func TestAnalyzeMediumTierOnly(t *testing.T) {
	a := NewJurisdictionAnalyzer()

	result := a.Analyze(context.Background(), "Protocol X", []string{"TH", "VN"})
	assert.Len(t, result.Flags, 2)
	assert.Equal(t, RiskMedium, result.RiskLevel)
}

func TestAnalyzeCleanCountries(t *testing.T) {
	a := NewJurisdictionAnalyzer()

	result := a.Analyze(context.Background(), "Protocol X", []string{"DE", "CH", "SE"})
	assert.Empty(t, result.Flags)
	assert.Equal(t, RiskLow, result.RiskLevel)
	assert.NotEmpty(t, result.Requirements)
}

func TestAnalyzeWithoutDeclaredCountriesFlagsFullTable(t *testing.T) {
	a := NewJurisdictionAnalyzer()

	result := a.Analyze(context.Background(), "Protocol X", nil)
	assert.Greater(t, len(result.Flags), 40)
	assert.Equal(t, RiskHigh, result.RiskLevel)
}

func TestAnalyzeMultiTierCountry(t *testing.T) {
	a := NewJurisdictionAnalyzer()

	// CN sits in both the high-risk and regulatory tiers; each membership
	// is flagged.
	result := a.Analyze(context.Background(), "Protocol X", []string{"CN"})
	assert.Len(t, result.Flags, 2)
	assert.Equal(t, RiskHigh, result.RiskLevel)
}
