// Package handler exposes the admin-gated audit trail endpoints.
package handler

import (
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"linkgate/internal/audit"
	platformMW "linkgate/internal/platform/middleware"
	"linkgate/internal/platform/tracer"
	"linkgate/pkg/platform/httputil"
)

type Handler struct {
	publisher *audit.Publisher
	store     audit.Store
	logger    *slog.Logger
	tracer    tracer.Tracer
}

// New creates the audit trail handler. The store is consulted directly for
// the selftest so the probe bypasses the async buffer.
func New(publisher *audit.Publisher, store audit.Store, logger *slog.Logger, tr tracer.Tracer) *Handler {
	if tr == nil {
		tr = tracer.NewNoop()
	}
	return &Handler{
		publisher: publisher,
		store:     store,
		logger:    logger,
		tracer:    tr,
	}
}

// Register mounts the audit routes. Wrap the router in the admin token
// middleware; these handlers assume authorization already happened.
func (h *Handler) Register(r chi.Router) {
	r.Get("/api/audit", h.HandleList)
	r.Get("/api/audit.csv", h.HandleExportCSV)
	r.Get("/api/audit-selftest", h.HandleSelftest)
}

// HandleList implements GET /api/audit?limit=N.
// Returns a JSON array of events in ascending chronological order.
func (h *Handler) HandleList(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	limit := audit.ClampLimit(parseLimit(r), 100, audit.MaxRecentJSON)

	events, err := h.publisher.Recent(ctx, limit)
	if err != nil {
		// Upstream faults degrade to an empty trail; the admin sees the
		// failure in the selftest and the server logs, not as a 5xx here.
		h.logger.ErrorContext(ctx, "failed to read audit trail",
			"error", err,
			"backend", h.publisher.Backend(),
			"request_id", platformMW.GetRequestID(ctx),
		)
		events = []audit.Event{}
	}
	if events == nil {
		events = []audit.Event{}
	}
	httputil.WriteJSON(w, http.StatusOK, events)
}

// HandleExportCSV implements GET /api/audit.csv?limit=N.
// Header row ts,username,result,ip,ua; every value double-quoted with
// embedded quotes doubled.
func (h *Handler) HandleExportCSV(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	limit := audit.ClampLimit(parseLimit(r), 1000, audit.MaxRecentCSV)

	events, err := h.publisher.Recent(ctx, limit)
	if err != nil {
		h.logger.ErrorContext(ctx, "failed to read audit trail for export",
			"error", err,
			"backend", h.publisher.Backend(),
			"request_id", platformMW.GetRequestID(ctx),
		)
		events = nil
	}

	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="audit.csv"`)
	w.WriteHeader(http.StatusOK)

	var b strings.Builder
	b.WriteString("ts,username,result,ip,ua\n")
	for _, event := range events {
		writeCSVRow(&b, event)
	}
	_, _ = w.Write([]byte(b.String()))
}

// HandleSelftest implements GET /api/audit-selftest.
// Performs one synthetic write and read-back against the active backend.
func (h *Handler) HandleSelftest(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	report := audit.Selftest(ctx, h.store, h.tracer)

	if report.Error != "" {
		h.logger.WarnContext(ctx, "audit selftest failed",
			"backend", report.Backend,
			"error", report.Error,
			"request_id", platformMW.GetRequestID(ctx),
		)
	}
	httputil.WriteJSON(w, http.StatusOK, report)
}

func parseLimit(r *http.Request) int {
	raw := r.URL.Query().Get("limit")
	if raw == "" {
		return 0
	}
	limit, err := strconv.Atoi(raw)
	if err != nil {
		return 0
	}
	return limit
}

func writeCSVRow(b *strings.Builder, event audit.Event) {
	fields := []string{
		event.Timestamp.UTC().Format(time.RFC3339),
		event.Username,
		string(event.Result),
		event.SourceIP,
		event.UserAgent,
	}
	for i, field := range fields {
		if i > 0 {
			b.WriteByte(',')
		}
		b.WriteByte('"')
		b.WriteString(strings.ReplaceAll(field, `"`, `""`))
		b.WriteByte('"')
	}
	b.WriteByte('\n')
}
