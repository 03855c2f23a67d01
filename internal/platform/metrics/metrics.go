package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "codedojo"

// Grading pass outcomes.
const (
	OutcomeSolved      = "solved"
	OutcomeFailed      = "failed"
	OutcomeNotFound    = "not_found"
	OutcomeUnavailable = "unavailable"
	OutcomeCancelled   = "cancelled"
	OutcomeLocked      = "locked"
	OutcomeError       = "error"
)

var (
	GradingPasses = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "grading_passes_total",
		Help:      "Grading passes by terminal outcome.",
	}, []string{"outcome"})

	SandboxRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "sandbox_requests_total",
		Help:      "Calls to the execution sandbox by language and result.",
	}, []string{"language", "outcome"})

	SandboxDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "sandbox_request_duration_seconds",
		Help:      "Round trip time of execution sandbox calls.",
		Buckets:   []float64{0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
	}, []string{"language"})
)
