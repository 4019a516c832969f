package model

import (
	"errors"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

type providerMetrics struct {
	invocations *prometheus.CounterVec
	retries     *prometheus.CounterVec
	duration    *prometheus.HistogramVec
}

func newProviderMetrics(registry *prometheus.Registry) *providerMetrics {
	if registry == nil {
		return nil
	}

	m := &providerMetrics{
		invocations: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "debrief_model_invocations_total",
				Help: "Total number of model invocations by outcome",
			},
			[]string{"provider", "model", "outcome"},
		),
		retries: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "debrief_model_retries_total",
				Help: "Total number of retried model invocations by error kind",
			},
			[]string{"provider", "kind"},
		),
		duration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "debrief_model_invocation_duration_seconds",
				Help:    "Duration of model invocations including retries",
				Buckets: prometheus.ExponentialBuckets(0.25, 2, 8),
			},
			[]string{"provider", "model"},
		),
	}

	m.invocations = register(registry, m.invocations)
	m.retries = register(registry, m.retries)
	m.duration = register(registry, m.duration)

	return m
}

// register adds c to registry, reusing an identical collector that a
// previous provider already registered.
func register[C prometheus.Collector](registry *prometheus.Registry, c C) C {
	if err := registry.Register(c); err != nil {
		var already prometheus.AlreadyRegisteredError
		if errors.As(err, &already) {
			if existing, ok := already.ExistingCollector.(C); ok {
				return existing
			}
		}
	}
	return c
}

func (m *providerMetrics) recordInvocation(provider, model string, start time.Time, err error) {
	if m == nil {
		return
	}

	outcome := "success"
	if err != nil {
		outcome = "error"
		var providerErr *ProviderError
		if errors.As(err, &providerErr) {
			outcome = string(providerErr.Kind)
		}
	}

	m.invocations.WithLabelValues(provider, model, outcome).Inc()
	m.duration.WithLabelValues(provider, model).Observe(time.Since(start).Seconds())
}

func (m *providerMetrics) recordRetry(provider string, kind ProviderErrorKind) {
	if m == nil {
		return
	}
	m.retries.WithLabelValues(provider, string(kind)).Inc()
}
