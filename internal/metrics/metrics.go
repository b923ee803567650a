// Package metrics holds the Prometheus collectors of the UniPilot backend.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Turn outcomes used as the outcome label of ChatTurnsTotal.
const (
	OutcomeSuccess    = "success"
	OutcomeTimeout    = "timeout"
	OutcomeUpstream   = "upstream"
	OutcomeUnexpected = "unexpected"
	OutcomeRejected   = "rejected"
)

var (
	// ChatTurnsTotal counts chat turns by outcome.
	// Labels: outcome (success, timeout, upstream, unexpected, rejected)
	ChatTurnsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "unipilot",
			Subsystem: "chat",
			Name:      "turns_total",
			Help:      "Total number of chat turns by outcome",
		},
		[]string{"outcome"},
	)

	// GenerationLatency tracks how long the generative model takes per turn.
	GenerationLatency = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "unipilot",
			Subsystem: "chat",
			Name:      "generation_latency_seconds",
			Help:      "Latency of generation calls in seconds",
			Buckets:   []float64{0.25, 0.5, 1, 2, 4, 8, 15, 30, 60},
		},
	)

	// AntiCheatDetections counts classifier verdicts.
	// Labels: label (allowed, borderline, cheating)
	AntiCheatDetections = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "unipilot",
			Subsystem: "anticheat",
			Name:      "detections_total",
			Help:      "Total number of classified chat messages by label",
		},
		[]string{"label"},
	)

	// RetrievalFallbacks counts turns that went on without sources because
	// retrieval failed.
	RetrievalFallbacks = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: "unipilot",
			Subsystem: "retrieval",
			Name:      "fallbacks_total",
			Help:      "Total number of retrieval failures degraded to an empty context",
		},
	)

	// DocumentsIngested counts finished ingestions.
	// Labels: status (ready, failed)
	DocumentsIngested = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "unipilot",
			Subsystem: "documents",
			Name:      "ingested_total",
			Help:      "Total number of document ingestions by final status",
		},
		[]string{"status"},
	)

	// DocumentsSwept counts documents failed by the stale document sweeper.
	DocumentsSwept = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: "unipilot",
			Subsystem: "documents",
			Name:      "swept_total",
			Help:      "Total number of documents stuck in processing marked as failed",
		},
	)
)
