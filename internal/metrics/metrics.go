// Package metrics exposes the prometheus instrumentation for the control
// plane: candidate counts, swap durations, and health-probe outcomes. It is
// grounded on the metrics-registration idiom used throughout the example
// pack's prometheus/client_golang usage (giantswarm-muster pulls the
// library in transitively; this package is where corectl gives it a home).
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	CandidatesRegistered = prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: "corectl",
		Subsystem: "registry",
		Name:      "candidates_registered",
		Help:      "Number of registered candidates per domain.",
	}, []string{"domain"})

	SwapDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "corectl",
		Subsystem: "lifecycle",
		Name:      "swap_duration_seconds",
		Help:      "Duration of swap() calls, labeled by outcome.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"domain", "outcome"})

	HealthOutcomes = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "corectl",
		Subsystem: "lifecycle",
		Name:      "health_probe_total",
		Help:      "Count of health probe outcomes.",
	}, []string{"domain", "outcome"})

	SwapInProgressRejections = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "corectl",
		Subsystem: "lifecycle",
		Name:      "swap_in_progress_total",
		Help:      "Count of swap calls rejected because a swap was already in progress for that key.",
	}, []string{"domain"})
)

// Registry is the prometheus registry corectl registers its collectors
// into; callers expose it via promhttp.HandlerFor in the serve command.
var Registry = prometheus.NewRegistry()

func init() {
	Registry.MustRegister(CandidatesRegistered, SwapDuration, HealthOutcomes, SwapInProgressRejections)
}

// ObserveSwap records a swap's duration and outcome.
func ObserveSwap(domain, outcome string, start time.Time) {
	SwapDuration.WithLabelValues(domain, outcome).Observe(time.Since(start).Seconds())
}

// ObserveHealth records a health probe outcome.
func ObserveHealth(domain string, ok bool) {
	outcome := "healthy"
	if !ok {
		outcome = "unhealthy"
	}
	HealthOutcomes.WithLabelValues(domain, outcome).Inc()
}
