package ratelimit

import (
	"log/slog"
	"net/http"

	platformMW "linkgate/internal/platform/middleware"
	"linkgate/internal/platform/metrics"
	dErrors "linkgate/pkg/domain-errors"
	"linkgate/pkg/platform/httputil"
)

// Middleware rejects requests once the monthly budget is spent.
//
// Rate-limited requests are answered before the access gate runs, so they
// produce no audit event. Mount this on the gated route group only; the
// health probes stay outside it.
func Middleware(limiter *Monthly, logger *slog.Logger, m *metrics.Metrics) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !limiter.Admit() {
				ctx := r.Context()
				logger.WarnContext(ctx, "monthly rate limit exceeded",
					"path", r.URL.Path,
					"request_id", platformMW.GetRequestID(ctx),
				)
				if m != nil {
					m.RateLimited.Inc()
				}
				httputil.WriteError(w, dErrors.New(dErrors.CodeRateLimited, "monthly request limit reached"))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
