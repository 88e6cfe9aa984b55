package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	WorkbooksGenerated = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "workbook_generated_total",
			Help: "Total number of workbooks generated",
		},
		[]string{"mode"},
	)

	ParticipantFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "workbook_participant_failures_total",
			Help: "Participants that could not be processed, by reason",
		},
		[]string{"reason"},
	)

	ConversionDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "workbook_conversion_seconds",
			Help:    "Duration of document to PDF conversions in seconds",
			Buckets: []float64{0.5, 1, 2, 5, 10, 20, 40, 80, 160},
		},
		[]string{"converter"},
	)

	MatchOutcomes = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "workbook_match_outcomes_total",
			Help: "Batch name matching outcomes",
		},
		[]string{"outcome"},
	)
)
