// internal/matching/metrics.go

package matching

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	discoveryRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "matching_discovery_requests_total",
			Help: "Total number of discovery queries",
		},
		[]string{"result"},
	)

	discoveryCandidatesReturned = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "matching_discovery_candidates_returned",
			Help:    "Number of candidates returned per discovery query",
			Buckets: prometheus.LinearBuckets(0, 5, 11),
		},
	)

	discoveryDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "matching_discovery_duration_seconds",
			Help:    "End-to-end duration of discovery queries",
			Buckets: prometheus.DefBuckets,
		},
	)

	compatibilityChecksTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "matching_compatibility_checks_total",
			Help: "Total number of pairwise compatibility checks",
		},
		[]string{"outcome"},
	)
)

func recordDiscovery(result string, returned int, duration time.Duration) {
	discoveryRequestsTotal.WithLabelValues(result).Inc()
	if result == "ok" {
		discoveryCandidatesReturned.Observe(float64(returned))
	}
	discoveryDuration.Observe(duration.Seconds())
}

func recordCompatibilityCheck(compatible bool) {
	outcome := "incompatible"
	if compatible {
		outcome = "compatible"
	}
	compatibilityChecksTotal.WithLabelValues(outcome).Inc()
}
