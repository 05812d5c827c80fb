package logging

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var sinkFaultsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Name: "portalgw_log_sink_faults_total",
		Help: "Total number of log sink delivery failures by sink",
	},
	[]string{"sink"},
)

func recordSinkFault(sink string) {
	sinkFaultsTotal.WithLabelValues(sink).Inc()
}
