package token

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	tokensIssuedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "portalgw_tokens_issued_total",
			Help: "Total number of auth tokens issued",
		},
	)

	tokenVerificationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "portalgw_token_verifications_total",
			Help: "Total number of token verifications",
		},
		[]string{"status"},
	)

	tokenVerificationDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "portalgw_token_verification_duration_seconds",
			Help:    "Duration of token verification in seconds",
			Buckets: []float64{0.0001, 0.0005, 0.001, 0.005, 0.01, 0.05},
		},
	)
)

func recordIssued() {
	tokensIssuedTotal.Inc()
}

func recordVerification(status string, duration time.Duration) {
	tokenVerificationsTotal.WithLabelValues(status).Inc()
	tokenVerificationDuration.Observe(duration.Seconds())
}
