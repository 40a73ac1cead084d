// Package httptransport wires the HTTP surface: middleware stack, public
// endpoints, the gated login route, and the admin-only audit routes.
package httptransport

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	accesshandler "linkgate/internal/access/handler"
	audithandler "linkgate/internal/audit/handler"
	"linkgate/internal/platform/health"
	"linkgate/internal/platform/metrics"
	"linkgate/internal/platform/middleware"
	"linkgate/internal/ratelimit"
)

// Deps carries everything the router mounts. Optional fields may be nil.
type Deps struct {
	Login      *accesshandler.Handler
	Audit      *audithandler.Handler
	Limiter    *ratelimit.Monthly
	AdminToken string
	Metrics    *metrics.Metrics
	Logger     *slog.Logger
}

// NewRouter assembles the full route tree. Health probes and /metrics sit
// outside the monthly rate limit so monitoring keeps working after the
// budget is spent; everything user-facing goes through it.
func NewRouter(deps Deps) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.Recovery(deps.Logger))
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger(deps.Logger))
	r.Use(middleware.Timeout(30 * time.Second))
	r.Use(middleware.Metadata)
	if deps.Metrics != nil {
		r.Use(latency(deps.Metrics))
	}

	health.New().Register(r)
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	r.Group(func(r chi.Router) {
		r.Use(ratelimit.Middleware(deps.Limiter, deps.Logger, deps.Metrics))

		deps.Login.Register(r)

		r.Group(func(r chi.Router) {
			r.Use(middleware.RequireAdminToken(deps.AdminToken, deps.Logger))
			deps.Audit.Register(r)
		})
	})

	return r
}

// latency records per-endpoint request duration. Routes are labelled by
// chi's route pattern, not the raw path, to keep cardinality bounded.
func latency(m *metrics.Metrics) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			next.ServeHTTP(w, r)

			pattern := chi.RouteContext(r.Context()).RoutePattern()
			if pattern == "" {
				pattern = "unmatched"
			}
			m.EndpointLatency.WithLabelValues(r.Method, pattern).Observe(time.Since(start).Seconds())
		})
	}
}
