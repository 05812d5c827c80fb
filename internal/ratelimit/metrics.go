package ratelimit

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var rateLimitChecksTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Name: "portalgw_ratelimit_checks_total",
		Help: "Total number of rate limit checks by outcome",
	},
	[]string{"outcome"},
)

func recordCheck(outcome string) {
	rateLimitChecksTotal.WithLabelValues(outcome).Inc()
}
