// internal/premium/metrics.go

package premium

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	subscriptionsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "premium_subscriptions_total",
		Help: "Subscriptions started, by plan.",
	}, []string{"plan"})

	paymentsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "premium_payments_total",
		Help: "Payment attempts, by outcome.",
	}, []string{"status"})

	expiredTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "premium_subscriptions_expired_total",
		Help: "Subscriptions lapsed by the expiry sweep.",
	})
)

func recordSubscription(plan string) {
	subscriptionsTotal.WithLabelValues(plan).Inc()
}

func recordPayment(status string) {
	paymentsTotal.WithLabelValues(status).Inc()
}

func recordExpired(n int) {
	expiredTotal.Add(float64(n))
}
