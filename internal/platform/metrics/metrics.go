package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics for the application.
type Metrics struct {
	LoginAttempts *prometheus.CounterVec
	RateLimited   prometheus.Counter

	AuditWriteFailures prometheus.Counter
	AuditEventsDropped prometheus.Counter

	NotificationsSent    prometheus.Counter
	NotificationsDropped prometheus.Counter

	EndpointLatency *prometheus.HistogramVec
}

// New creates and registers all Prometheus metrics on the default registry.
// Call it once from main; handlers and services tolerate a nil *Metrics so
// tests do not have to touch the global registry.
func New() *Metrics {
	return &Metrics{
		LoginAttempts: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "linkgate_login_attempts_total",
			Help: "Total number of login attempts by result",
		}, []string{"result"}),
		RateLimited: promauto.NewCounter(prometheus.CounterOpts{
			Name: "linkgate_rate_limited_total",
			Help: "Total number of requests rejected by the monthly rate limit",
		}),
		AuditWriteFailures: promauto.NewCounter(prometheus.CounterOpts{
			Name: "linkgate_audit_write_failures_total",
			Help: "Total number of audit events that failed to persist",
		}),
		AuditEventsDropped: promauto.NewCounter(prometheus.CounterOpts{
			Name: "linkgate_audit_events_dropped_total",
			Help: "Total number of audit events dropped because the buffer was full",
		}),
		NotificationsSent: promauto.NewCounter(prometheus.CounterOpts{
			Name: "linkgate_notifications_sent_total",
			Help: "Total number of notification mails handed to the SMTP server",
		}),
		NotificationsDropped: promauto.NewCounter(prometheus.CounterOpts{
			Name: "linkgate_notifications_dropped_total",
			Help: "Total number of notifications dropped by the concurrency bound",
		}),
		EndpointLatency: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "linkgate_endpoint_latency_seconds",
			Help:    "Latency of endpoints in seconds",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "route"}),
	}
}
