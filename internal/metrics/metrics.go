package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	// ScreeningsTotal counts screening operations by requested action.
	ScreeningsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "clearwatch_screenings_total",
			Help: "Total screening operations by action",
		},
		[]string{"action"},
	)

	// ScreeningDuration tracks end-to-end screening latency by action.
	ScreeningDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "clearwatch_screening_duration_seconds",
			Help:    "Screening operation latency by action",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"action"},
	)

	// SanctionsMatchesTotal counts watchlist matches emitted across all
	// screenings.
	SanctionsMatchesTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "clearwatch_sanctions_matches_total",
			Help: "Total sanctions matches emitted",
		},
	)

	// SourceErrorsTotal counts per-source lookup failures during screening.
	SourceErrorsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "clearwatch_source_errors_total",
			Help: "Watchlist source lookup failures by source",
		},
		[]string{"source"},
	)

	// WatchlistEntities reports the current entity count per source list.
	WatchlistEntities = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "clearwatch_watchlist_entities",
			Help: "Current watchlist entity count by source",
		},
		[]string{"source"},
	)
)

func init() {
	prometheus.MustRegister(
		ScreeningsTotal,
		ScreeningDuration,
		SanctionsMatchesTotal,
		SourceErrorsTotal,
		WatchlistEntities,
	)
}
