package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the counters both limiters report into.
type Metrics struct {
	Requests      *prometheus.CounterVec
	StoreFailures prometheus.Counter
	QuotaDenials  *prometheus.CounterVec
}

// New registers the counters on reg. Pass prometheus.DefaultRegisterer
// outside tests.
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)

	return &Metrics{
		Requests: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "ratelimit",
			Name:      "requests_total",
			Help:      "Inbound requests seen by the rate limit middleware, by rule and decision.",
		}, []string{"rule", "decision"}),
		StoreFailures: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "ratelimit",
			Name:      "store_failures_total",
			Help:      "Counter store errors; the configured fail open/closed policy decided these requests.",
		}),
		QuotaDenials: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "ratelimit",
			Name:      "quota_denials_total",
			Help:      "Outbound calls denied by the provider quota tracker, by endpoint.",
		}, []string{"endpoint"}),
	}
}
