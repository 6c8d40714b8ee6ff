// Package audit streams completed compliance reports to Kafka for
// downstream retention and case management.
package audit

import (
	"context"
	"encoding/json"
	"time"

	"github.com/pkg/errors"
	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"

	"github.com/clearwatch/clearwatch/internal/screening"
)

// ReportSummary is the audit-stream projection of a compliance report. The
// full report stays with the caller; the stream carries what a reviewer
// needs to triage.
type ReportSummary struct {
	ReportID          string              `json:"report_id"`
	Target            string              `json:"target"`
	Timestamp         time.Time           `json:"timestamp"`
	OverallRiskLevel  screening.RiskLevel `json:"overall_risk_level"`
	SanctionsMatches  int                 `json:"sanctions_matches"`
	EnforcementHits   int                 `json:"enforcement_hits"`
	AffiliatesFlagged int                 `json:"affiliates_flagged"`
	Success           bool                `json:"success"`
}

// KafkaPublisher writes report summaries to one topic, keyed by target so a
// single entity's history lands on one partition.
type KafkaPublisher struct {
	writer *kafka.Writer
	logger *zap.Logger
}

// NewKafkaPublisher creates a publisher for the given brokers and topic.
func NewKafkaPublisher(brokers []string, topic string, logger *zap.Logger) *KafkaPublisher {
	writer := &kafka.Writer{
		Addr:         kafka.TCP(brokers...),
		Topic:        topic,
		Balancer:     &kafka.LeastBytes{},
		RequiredAcks: kafka.RequireOne,
		BatchTimeout: 50 * time.Millisecond,
	}
	return &KafkaPublisher{writer: writer, logger: logger}
}

// Publish emits the summary of one completed report.
func (p *KafkaPublisher) Publish(ctx context.Context, report screening.ComplianceReport) error {
	summary := ReportSummary{
		ReportID:         report.ID,
		Target:           report.Target,
		Timestamp:        report.Timestamp,
		OverallRiskLevel: report.OverallRiskLevel,
		Success:          report.Success,
	}
	if report.Sanctions != nil {
		summary.SanctionsMatches = len(report.Sanctions.Matches)
	}
	if report.Enforcement != nil {
		summary.EnforcementHits = len(report.Enforcement.Actions)
	}
	for _, aff := range report.Affiliates {
		if len(aff.Result.Matches) > 0 {
			summary.AffiliatesFlagged++
		}
	}

	payload, err := json.Marshal(summary)
	if err != nil {
		return errors.Wrap(err, "marshal report summary")
	}

	err = p.writer.WriteMessages(ctx, kafka.Message{
		Key:   []byte(report.Target),
		Value: payload,
	})
	if err != nil {
		return errors.Wrap(err, "write audit message")
	}

	p.logger.Debug("audit report published",
		zap.String("report_id", report.ID),
		zap.String("target", report.Target))
	return nil
}

// Close flushes and closes the underlying writer.
func (p *KafkaPublisher) Close() error {
	return p.writer.Close()
}
