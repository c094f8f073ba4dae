// internal/match/metrics.go

package match

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	likesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "match_likes_total",
			Help: "Total number of like attempts",
		},
		[]string{"result"},
	)

	matchesTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "match_matches_total",
			Help: "Total number of matches created",
		},
	)

	unmatchesTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "match_unmatches_total",
			Help: "Total number of matches dissolved",
		},
	)
)

func recordLike(result string) {
	likesTotal.WithLabelValues(result).Inc()
}

func recordMatch() {
	matchesTotal.Inc()
}

func recordUnmatch() {
	unmatchesTotal.Inc()
}
