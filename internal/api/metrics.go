package api

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics owns a private registry so tests can build isolated
// instances without duplicate-registration panics.
type Metrics struct {
	AuthFailures       prometheus.Counter
	RateLimited        prometheus.Counter
	SecurityViolations prometheus.Counter

	registry *prometheus.Registry
}

func NewMetrics() *Metrics {
	registry := prometheus.NewRegistry()
	factory := promauto.With(registry)

	return &Metrics{
		AuthFailures: factory.NewCounter(prometheus.CounterOpts{
			Name: "portal_auth_failures_total",
			Help: "Requests rejected with 401 or 403.",
		}),
		RateLimited: factory.NewCounter(prometheus.CounterOpts{
			Name: "portal_rate_limited_total",
			Help: "Requests rejected by the rate limiter.",
		}),
		SecurityViolations: factory.NewCounter(prometheus.CounterOpts{
			Name: "portal_security_violations_total",
			Help: "Content submissions rejected by the sanitizer.",
		}),
		registry: registry,
	}
}

func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
