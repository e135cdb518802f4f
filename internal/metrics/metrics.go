// Package metrics exposes Prometheus collectors for tenancy and dispatch.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// tenantResolutions counts resolved requests.
	// Labels:
	// - source: "slug", "admin_fallback", "default_fallback" or "none"
	tenantResolutions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "phishing",
			Subsystem: "tenant",
			Name:      "resolutions_total",
			Help:      "Number of requests by how their tenant was resolved.",
		},
		[]string{"source"},
	)

	// dispatchEmails counts individual send attempts.
	// Labels:
	// - status: "delivered" or "failed"
	dispatchEmails = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "phishing",
			Subsystem: "dispatch",
			Name:      "emails_total",
			Help:      "Number of campaign emails by delivery outcome.",
		},
		[]string{"status"},
	)

	dispatchDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "phishing",
			Subsystem: "dispatch",
			Name:      "duration_seconds",
			Help:      "Wall time of a whole campaign send.",
			Buckets:   prometheus.DefBuckets,
		},
	)

	rateLimitExceeded = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "phishing",
			Subsystem: "http",
			Name:      "rate_limit_exceeded_total",
			Help:      "Number of requests rejected due to rate limiting (HTTP 429).",
		},
		[]string{"route"},
	)
)

// IncTenantResolution records how a request's tenant was chosen.
func IncTenantResolution(source string) {
	if source == "" {
		source = "none"
	}
	tenantResolutions.WithLabelValues(source).Inc()
}

// AddDispatched records the outcome of one campaign send.
func AddDispatched(delivered, failed int, seconds float64) {
	dispatchEmails.WithLabelValues("delivered").Add(float64(delivered))
	dispatchEmails.WithLabelValues("failed").Add(float64(failed))
	dispatchDuration.Observe(seconds)
}

// IncRateLimitExceeded increments the 429 counter for route.
func IncRateLimitExceeded(route string) {
	if route == "" {
		route = "unknown"
	}
	rateLimitExceeded.WithLabelValues(route).Inc()
}
