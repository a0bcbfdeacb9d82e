// Kunhua Huang 2026

package tcp

import "github.com/prometheus/client_golang/prometheus"

var (
	connectionsActive = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "echoadd_connections_active",
			Help: "Number of connections with a running worker",
		},
	)
	connectionsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "echoadd_connections_total",
			Help: "Total number of accepted connections",
		},
	)
	connectionsRejected = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "echoadd_connections_rejected_total",
			Help: "Connections closed at accept because the limit was reached",
		},
	)
	workerExits = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "echoadd_worker_exits_total",
			Help: "Worker terminations by reason",
		},
		[]string{"reason"},
	)
	decodeErrors = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "echoadd_decode_errors_total",
			Help: "Payloads dropped because they did not decode",
		},
	)
)

func init() {
	prometheus.MustRegister(connectionsActive)
	prometheus.MustRegister(connectionsTotal)
	prometheus.MustRegister(connectionsRejected)
	prometheus.MustRegister(workerExits)
	prometheus.MustRegister(decodeErrors)
}
