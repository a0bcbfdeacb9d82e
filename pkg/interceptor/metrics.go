// Kunhua Huang 2026

package interceptor

import (
	"context"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/ecstasoy/echoadd/pkg/protocol"
)

var (
	messagesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "echoadd_messages_total",
			Help: "Total number of dispatched messages",
		},
		[]string{"kind", "status"},
	)
	dispatchDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "echoadd_dispatch_duration_seconds",
			Help:    "Duration of message dispatch in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"kind"},
	)
)

func init() {
	prometheus.MustRegister(messagesTotal)
	prometheus.MustRegister(dispatchDuration)
}

func Metrics() Interceptor {
	return func(ctx context.Context, req *protocol.Request, invoker Invoker) (*protocol.Response, error) {
		start := time.Now()
		kind := req.Kind().String()

		resp, err := invoker(ctx, req)

		status := "success"
		if err != nil {
			status = "error"
		}

		messagesTotal.WithLabelValues(kind, status).Inc()
		dispatchDuration.WithLabelValues(kind).Observe(time.Since(start).Seconds())

		return resp, err
	}
}
