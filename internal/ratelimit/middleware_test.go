package ratelimit

import (
	"bytes"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestMiddleware_RejectsOverBudget(t *testing.T) {
	clock := time.Date(2026, time.June, 1, 0, 0, 0, 0, time.UTC)
	limiter := NewMonthly(2, WithClock(func() time.Time { return clock }))
	logger := slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil))

	handler := Middleware(limiter, logger, nil)(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	codes := make([]int, 0, 3)
	for range 3 {
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/login", nil))
		codes = append(codes, rec.Code)
	}

	assert.Equal(t, []int{http.StatusOK, http.StatusOK, http.StatusTooManyRequests}, codes)
}

func TestMiddleware_RejectionBody(t *testing.T) {
	limiter := NewMonthly(0)
	logger := slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil))
	handler := Middleware(limiter, logger, nil)(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		t.Fatal("handler must not run when rate limited")
	}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/login", nil))

	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Contains(t, rec.Body.String(), "rate_limited")
}
