package middleware

import (
	"log/slog"
	"net/http"

	dErrors "linkgate/pkg/domain-errors"
	"linkgate/pkg/platform/httputil"
)

// RequireAdminToken guards the audit endpoints behind a single shared secret.
// The comparison is a plain string equality, a documented scope limitation of
// this service, not an oversight.
//
// An empty expectedToken fails closed: every request is rejected with a
// configuration error so operators can tell "no secret set" apart from
// "wrong secret supplied".
func RequireAdminToken(expectedToken string, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			requestID := GetRequestID(ctx)

			if expectedToken == "" {
				logger.ErrorContext(ctx, "admin token not configured",
					"request_id", requestID,
				)
				httputil.WriteError(w, dErrors.New(dErrors.CodeConfigMissing, "admin token not configured"))
				return
			}

			if r.Header.Get("X-Admin-Token") != expectedToken {
				logger.WarnContext(ctx, "admin token mismatch",
					"request_id", requestID,
				)
				httputil.WriteError(w, dErrors.New(dErrors.CodeUnauthorized, "admin token required"))
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
