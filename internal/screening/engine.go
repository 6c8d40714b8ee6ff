package screening

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/clearwatch/clearwatch/internal/metrics"
	"github.com/clearwatch/clearwatch/internal/watchlist"
)

// Request-level failures. Category-level source failures never surface here;
// they degrade to partial results inside the category.
var (
	ErrInvalidTarget     = errors.New("screening target must not be empty")
	ErrUnsupportedAction = errors.New("unsupported screening action")
)

// Action is the closed set of screening operations.
type Action string

const (
	ActionSanctionsScreening   Action = "sanctions_screening"
	ActionEnforcementCheck     Action = "enforcement_check"
	ActionJurisdictionAnalysis Action = "jurisdiction_analysis"
	ActionEntityResolution     Action = "entity_resolution"
	ActionRiskAssessment       Action = "risk_assessment"
	ActionFullComplianceCheck  Action = "full_compliance_check"
)

// ParseAction validates an action string at the request boundary.
func ParseAction(s string) (Action, error) {
	switch a := Action(strings.TrimSpace(s)); a {
	case ActionSanctionsScreening, ActionEnforcementCheck, ActionJurisdictionAnalysis,
		ActionEntityResolution, ActionRiskAssessment, ActionFullComplianceCheck:
		return a, nil
	default:
		return "", errors.Wrapf(ErrUnsupportedAction, "%q", s)
	}
}

// Request is a sealed screening request. Each action carries its own typed
// parameters; the engine dispatches with an exhaustive type switch.
type Request interface {
	target() string
	action() Action
}

// SanctionsScreeningRequest screens one target against watchlist sources.
// Empty Sources means the configured default set.
type SanctionsScreeningRequest struct {
	Target  string
	Sources []watchlist.Source
}

func (r SanctionsScreeningRequest) target() string { return r.Target }
func (r SanctionsScreeningRequest) action() Action { return ActionSanctionsScreening }

// EnforcementCheckRequest checks enforcement history for one target.
type EnforcementCheckRequest struct {
	Target string
}

func (r EnforcementCheckRequest) target() string { return r.Target }
func (r EnforcementCheckRequest) action() Action { return ActionEnforcementCheck }

// JurisdictionAnalysisRequest analyzes jurisdiction exposure. With no
// operating countries declared, every tiered jurisdiction is reported.
type JurisdictionAnalysisRequest struct {
	Target             string
	OperatingCountries []string
}

func (r JurisdictionAnalysisRequest) target() string { return r.Target }
func (r JurisdictionAnalysisRequest) action() Action { return ActionJurisdictionAnalysis }

// EntityResolutionRequest classifies and expands one target.
type EntityResolutionRequest struct {
	Target string
}

func (r EntityResolutionRequest) target() string { return r.Target }
func (r EntityResolutionRequest) action() Action { return ActionEntityResolution }

// FullComplianceCheckRequest runs every category plus affiliate screening.
type FullComplianceCheckRequest struct {
	Target             string
	AffiliatedEntities []string
	OperatingCountries []string
	Sources            []watchlist.Source
}

func (r FullComplianceCheckRequest) target() string { return r.Target }
func (r FullComplianceCheckRequest) action() Action { return ActionFullComplianceCheck }

// RiskAssessmentRequest runs a full check and derives the weighted score.
type RiskAssessmentRequest struct {
	Target             string
	AffiliatedEntities []string
	OperatingCountries []string
	Sources            []watchlist.Source
}

func (r RiskAssessmentRequest) target() string { return r.Target }
func (r RiskAssessmentRequest) action() Action { return ActionRiskAssessment }

// Result is the typed outcome of Engine.Check; exactly one field is set,
// matching the request variant.
type Result struct {
	Sanctions    *SanctionsResult    `json:"sanctions,omitempty"`
	Enforcement  *EnforcementResult  `json:"enforcement,omitempty"`
	Jurisdiction *JurisdictionResult `json:"jurisdiction,omitempty"`
	Resolution   *ResolutionResult   `json:"resolution,omitempty"`
	Report       *ComplianceReport   `json:"report,omitempty"`
	Assessment   *RiskAssessment     `json:"assessment,omitempty"`
}

// ReportPublisher receives completed compliance reports, typically for an
// audit stream. Publishing is best-effort; a publish failure never fails the
// screening.
type ReportPublisher interface {
	Publish(ctx context.Context, report ComplianceReport) error
}

// Engine dispatches screening requests across the category screeners and
// aggregates full-check reports.
type Engine struct {
	sanctions    *SanctionsScreener
	enforcement  *EnforcementChecker
	jurisdiction *JurisdictionAnalyzer
	resolver     *EntityResolver
	aggregator   *Aggregator
	publisher    ReportPublisher
	logger       *zap.Logger
}

// NewEngine wires the screeners together. publisher may be nil.
func NewEngine(
	sanctions *SanctionsScreener,
	enforcement *EnforcementChecker,
	jurisdiction *JurisdictionAnalyzer,
	resolver *EntityResolver,
	aggregator *Aggregator,
	publisher ReportPublisher,
	logger *zap.Logger,
) *Engine {
	return &Engine{
		sanctions:    sanctions,
		enforcement:  enforcement,
		jurisdiction: jurisdiction,
		resolver:     resolver,
		aggregator:   aggregator,
		publisher:    publisher,
		logger:       logger,
	}
}

// Check validates and dispatches one request. Request-level failures
// (invalid target, unsupported action) return an error with no partial
// result; everything else returns a typed result.
func (e *Engine) Check(ctx context.Context, req Request) (Result, error) {
	if strings.TrimSpace(req.target()) == "" {
		return Result{}, ErrInvalidTarget
	}

	action := req.action()
	start := time.Now()
	defer func() {
		metrics.ScreeningDuration.WithLabelValues(string(action)).Observe(time.Since(start).Seconds())
	}()
	metrics.ScreeningsTotal.WithLabelValues(string(action)).Inc()

	ctx, span := otel.Tracer("clearwatch/screening").Start(ctx, "engine.check")
	span.SetAttributes(
		attribute.String("screening.action", string(action)),
		attribute.String("screening.target", req.target()),
	)
	defer span.End()

	switch r := req.(type) {
	case SanctionsScreeningRequest:
		res := e.sanctions.Screen(ctx, r.Target, r.Sources...)
		return Result{Sanctions: &res}, nil
	case EnforcementCheckRequest:
		res := e.enforcement.Check(ctx, r.Target)
		return Result{Enforcement: &res}, nil
	case JurisdictionAnalysisRequest:
		res := e.jurisdiction.Analyze(ctx, r.Target, r.OperatingCountries)
		return Result{Jurisdiction: &res}, nil
	case EntityResolutionRequest:
		res := e.resolver.Resolve(ctx, r.Target)
		return Result{Resolution: &res}, nil
	case FullComplianceCheckRequest:
		report := e.FullCheck(ctx, r)
		return Result{Report: &report}, nil
	case RiskAssessmentRequest:
		report := e.FullCheck(ctx, FullComplianceCheckRequest(r))
		assessment := e.aggregator.Assess(report)
		return Result{Assessment: &assessment}, nil
	default:
		return Result{}, errors.Wrapf(ErrUnsupportedAction, "%T", req)
	}
}

// FullCheck runs all four categories and the affiliate screenings
// concurrently and folds them into one report. End-to-end latency is bounded
// by the slowest category, not their sum. The report fails as a whole only
// when sanctions and enforcement both lost every source; jurisdiction and
// resolution are local computations and cannot fail.
func (e *Engine) FullCheck(ctx context.Context, req FullComplianceCheckRequest) ComplianceReport {
	report := ComplianceReport{
		ID:        uuid.New().String(),
		Target:    req.Target,
		Timestamp: time.Now(),
	}

	g, gctx := errgroup.WithContext(ctx)
	affiliates := make([]AffiliateResult, len(req.AffiliatedEntities))

	g.Go(func() error {
		res := e.sanctions.Screen(gctx, req.Target, req.Sources...)
		report.Sanctions = &res
		return nil
	})
	g.Go(func() error {
		res := e.enforcement.Check(gctx, req.Target)
		report.Enforcement = &res
		return nil
	})
	g.Go(func() error {
		res := e.jurisdiction.Analyze(gctx, req.Target, req.OperatingCountries)
		report.Jurisdiction = &res
		return nil
	})
	g.Go(func() error {
		res := e.resolver.Resolve(gctx, req.Target)
		report.Resolution = &res
		return nil
	})
	for i, name := range req.AffiliatedEntities {
		i, name := i, name
		g.Go(func() error {
			affiliates[i] = AffiliateResult{
				Name:   name,
				Result: e.sanctions.Screen(gctx, name, req.Sources...),
			}
			return nil
		})
	}
	_ = g.Wait()

	report.Affiliates = affiliates
	report.OverallRiskLevel = e.aggregator.OverallRiskLevel(&report)
	report.Risks = e.aggregator.Risks(&report)
	report.Recommendations = e.aggregator.Recommendations(&report)
	report.Success = report.Sanctions.Success || report.Enforcement.Success

	e.logger.Info("compliance check complete",
		zap.String("report_id", report.ID),
		zap.String("target", req.Target),
		zap.String("overall_risk_level", string(report.OverallRiskLevel)),
		zap.Bool("success", report.Success))

	if e.publisher != nil {
		if err := e.publisher.Publish(ctx, report); err != nil {
			e.logger.Warn("report publish failed",
				zap.String("report_id", report.ID), zap.Error(err))
		}
	}
	return report
}
