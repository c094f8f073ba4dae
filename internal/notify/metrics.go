// internal/notify/metrics.go

package notify

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	publishedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "notify_published_total",
		Help: "Notifications published, by kind and delivery channel.",
	}, []string{"kind", "channel"})

	wsConnections = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "notify_ws_connections",
		Help: "Live websocket connections.",
	})
)

func recordPublished(kind, channel string) {
	publishedTotal.WithLabelValues(kind, channel).Inc()
}

func recordConnections(n int) {
	wsConnections.Set(float64(n))
}
