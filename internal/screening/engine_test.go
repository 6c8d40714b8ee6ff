package screening

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/clearwatch/clearwatch/internal/cache"
	"github.com/clearwatch/clearwatch/internal/watchlist"
)

type capturingPublisher struct {
	reports []ComplianceReport
}

func (p *capturingPublisher) Publish(ctx context.Context, report ComplianceReport) error {
	p.reports = append(p.reports, report)
	return nil
}

func newTestEngine(t *testing.T, store watchlist.Store, publisher ReportPublisher) *Engine {
	t.Helper()
	matcher := NewMatcher(store, DefaultMatcherConfig(), zap.NewNop())
	return NewEngine(
		NewSanctionsScreener(matcher, []watchlist.Source{watchlist.SourceOFACSDN}, zap.NewNop()),
		NewEnforcementChecker(NewKeywordEvidenceProvider(), nil, nil, cache.New(cache.NewMemoryBackend()), 0, 0, zap.NewNop()),
		NewJurisdictionAnalyzer(),
		NewEntityResolver(nil),
		NewAggregator(nil),
		publisher,
		zap.NewNop(),
	)
}

func TestParseAction(t *testing.T) {
	for _, valid := range []string{
		"sanctions_screening", "enforcement_check", "jurisdiction_analysis",
		"entity_resolution", "risk_assessment", "full_compliance_check",
	} {
		a, err := ParseAction(valid)
		require.NoError(t, err)
		assert.Equal(t, Action(valid), a)
	}

	_, err := ParseAction("continuous_monitoring")
	assert.ErrorIs(t, err, ErrUnsupportedAction)
}

func TestCheckRejectsEmptyTarget(t *testing.T) {
	engine := newTestEngine(t, watchlist.NewMemoryStore(zap.NewNop()), nil)

	_, err := engine.Check(context.Background(), SanctionsScreeningRequest{Target: "   "})
	assert.ErrorIs(t, err, ErrInvalidTarget)

	_, err = engine.Check(context.Background(), FullComplianceCheckRequest{Target: ""})
	assert.ErrorIs(t, err, ErrInvalidTarget)
}

func TestCheckDispatchesVariants(t *testing.T) {
	store := seededStore(t, watchlist.Entity{ID: "1", Name: "Tornado Cash"})
	engine := newTestEngine(t, store, nil)
	ctx := context.Background()

	res, err := engine.Check(ctx, SanctionsScreeningRequest{Target: "Tornado Cash"})
	require.NoError(t, err)
	require.NotNil(t, res.Sanctions)
	assert.Equal(t, RiskCritical, res.Sanctions.RiskLevel)

	res, err = engine.Check(ctx, EnforcementCheckRequest{Target: "CryptoSwap"})
	require.NoError(t, err)
	require.NotNil(t, res.Enforcement)

	res, err = engine.Check(ctx, JurisdictionAnalysisRequest{Target: "X", OperatingCountries: []string{"DE"}})
	require.NoError(t, err)
	require.NotNil(t, res.Jurisdiction)
	assert.Equal(t, RiskLow, res.Jurisdiction.RiskLevel)

	res, err = engine.Check(ctx, EntityResolutionRequest{Target: "Maker DAO"})
	require.NoError(t, err)
	require.NotNil(t, res.Resolution)
	assert.Equal(t, ClassCryptoOrganization, res.Resolution.EntityClass)

	res, err = engine.Check(ctx, RiskAssessmentRequest{Target: "Acme Trading", OperatingCountries: []string{"DE"}})
	require.NoError(t, err)
	require.NotNil(t, res.Assessment)
	assert.False(t, res.Assessment.OverallScore.IsNegative())
}

func TestFullCheckAffiliateEscalation(t *testing.T) {
	store := seededStore(t, watchlist.Entity{ID: "1", Name: "Sanctioned Person"})
	publisher := &capturingPublisher{}
	engine := newTestEngine(t, store, publisher)

	report := engine.FullCheck(context.Background(), FullComplianceCheckRequest{
		Target:             "Protocol X",
		AffiliatedEntities: []string{"Sanctioned Person"},
		OperatingCountries: []string{"DE"},
	})

	// The primary target is clean; the affiliate's exact match still drives
	// the report to CRITICAL.
	assert.Empty(t, report.Sanctions.Matches)
	require.Len(t, report.Affiliates, 1)
	assert.Equal(t, RiskCritical, report.Affiliates[0].Result.RiskLevel)
	assert.Equal(t, RiskCritical, report.OverallRiskLevel)
	assert.True(t, report.Success)
	assert.NotEmpty(t, report.ID)
	assert.Contains(t, report.Recommendations, "Immediate legal review required")

	require.Len(t, publisher.reports, 1)
	assert.Equal(t, report.ID, publisher.reports[0].ID)
}

func TestFullCheckSuccessDespiteSourceFailures(t *testing.T) {
	store := &flakySourceStore{
		Store:   watchlist.NewMemoryStore(zap.NewNop()),
		failing: map[watchlist.Source]bool{watchlist.SourceOFACSDN: true},
	}
	engine := newTestEngine(t, store, nil)

	// Sanctions lost its only source, but enforcement still answered, so
	// the report itself succeeds with the failure recorded per source.
	report := engine.FullCheck(context.Background(), FullComplianceCheckRequest{
		Target:             "CryptoSwap",
		OperatingCountries: []string{"DE"},
	})
	assert.False(t, report.Sanctions.Success)
	assert.True(t, report.Enforcement.Success)
	assert.True(t, report.Success)
	assert.Contains(t, report.Sanctions.ErrorsBySource, watchlist.SourceOFACSDN)
}

func TestFullCheckReportsSourcesChecked(t *testing.T) {
	store := seededStore(t)
	engine := newTestEngine(t, store, nil)

	report := engine.FullCheck(context.Background(), FullComplianceCheckRequest{
		Target:             "Uniswap",
		OperatingCountries: []string{"DE"},
	})
	assert.Equal(t, []watchlist.Source{watchlist.SourceOFACSDN}, report.Sanctions.SourcesChecked)
	assert.NotEmpty(t, report.Enforcement.AgenciesChecked)
}
