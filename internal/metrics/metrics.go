// Package metrics holds the Prometheus collectors exported at /metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "radar"

var (
	AuthRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: namespace, Name: "auth_requests_total", Help: "Authentication attempts by outcome."},
		[]string{"outcome"},
	)
	LandingPageEvents = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: namespace, Name: "landing_page_events_total", Help: "Public landing page visits and conversions."},
		[]string{"event"},
	)
	RateLimit = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: namespace, Name: "rate_limit_total", Help: "Rate limiter decisions on public endpoints."},
		[]string{"result"},
	)
	AIRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: namespace, Name: "ai_requests_total", Help: "Generative provider calls by result."},
		[]string{"result"},
	)
	ReportArchives = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: namespace, Name: "report_archives_total", Help: "Report archive uploads by result."},
		[]string{"result"},
	)
)

// RegisterCollectors registers every collector of this package with reg.
func RegisterCollectors(reg prometheus.Registerer) {
	reg.MustRegister(AuthRequests)
	reg.MustRegister(LandingPageEvents)
	reg.MustRegister(RateLimit)
	reg.MustRegister(AIRequests)
	reg.MustRegister(ReportArchives)
}
