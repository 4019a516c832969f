package gateway

import (
	"errors"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

type gatewayMetrics struct {
	calls    *prometheus.CounterVec
	duration *prometheus.HistogramVec
}

func newGatewayMetrics(registry *prometheus.Registry) *gatewayMetrics {
	if registry == nil {
		return nil
	}

	m := &gatewayMetrics{
		calls: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "debrief_gateway_calls_total",
				Help: "Total number of gateway operations by result",
			},
			[]string{"operation", "result"},
		),
		duration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "debrief_gateway_call_duration_seconds",
				Help:    "Duration of gateway operations",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"operation"},
		),
	}

	m.calls = register(registry, m.calls)
	m.duration = register(registry, m.duration)
	return m
}

// register adds c to registry, reusing the collector a previous gateway
// registered under the same name.
func register[C prometheus.Collector](registry *prometheus.Registry, c C) C {
	if err := registry.Register(c); err != nil {
		var are prometheus.AlreadyRegisteredError
		if errors.As(err, &are) {
			if existing, ok := are.ExistingCollector.(C); ok {
				return existing
			}
		}
		panic(err)
	}
	return c
}

func (m *gatewayMetrics) recordCall(operation, result string, d time.Duration) {
	if m == nil {
		return
	}
	m.calls.WithLabelValues(operation, result).Inc()
	m.duration.WithLabelValues(operation).Observe(d.Seconds())
}
