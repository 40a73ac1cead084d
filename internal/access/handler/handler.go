// Package handler exposes the login endpoint.
package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"linkgate/internal/access"
	"linkgate/internal/platform/middleware"
	dErrors "linkgate/pkg/domain-errors"
	"linkgate/pkg/platform/httputil"
)

// Handler serves login attempts.
type Handler struct {
	service *access.Service
	logger  *slog.Logger
}

// New creates a login handler.
func New(service *access.Service, logger *slog.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

// Register mounts the login route on the given router. The bare /login
// alias is kept for clients that predate the /api prefix.
func (h *Handler) Register(r chi.Router) {
	r.Post("/api/login", h.HandleLogin)
	r.Post("/login", h.HandleLogin)
}

type loginRequest struct {
	Username string `json:"username"`
}

type loginResponse struct {
	FilenLink string `json:"filenLink"`
}

// HandleLogin decides one attempt. The response is written before the
// audit event and notification fire, so a slow or broken backend can
// never delay or fail a login.
func (h *Handler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	req, ok := httputil.DecodeJSON[loginRequest](w, r, h.logger, r.Context(), middleware.GetRequestID(r.Context()))
	if !ok {
		return
	}

	decision := h.service.Authorize(r.Context(), req.Username)
	if decision.Allowed {
		httputil.WriteJSON(w, http.StatusOK, loginResponse{FilenLink: decision.Link})
	} else {
		httputil.WriteError(w, dErrors.New(dErrors.CodeUnauthorized, "unknown username"))
	}

	// The client connection may drop as soon as the response is flushed;
	// recording continues regardless.
	h.service.Record(
		context.WithoutCancel(r.Context()),
		decision,
		middleware.GetClientIP(r.Context()),
		middleware.GetUserAgent(r.Context()),
	)
}
