// Package ratelimit throttles total traffic on a rolling monthly budget.
package ratelimit

import (
	"sync"
	"time"
)

// Monthly is a process-wide counter with a calendar-month reset boundary.
// It is an approximate, best-effort global throttle: not per-user, not
// persisted, and reset on process restart.
//
// The counter is shared across concurrently handled requests, so the
// check-and-increment is guarded by a mutex.
type Monthly struct {
	mu      sync.Mutex
	limit   int
	count   int
	resetAt time.Time
	now     func() time.Time
}

// Option configures the limiter.
type Option func(*Monthly)

// WithClock injects a time source for tests.
func WithClock(now func() time.Time) Option {
	return func(m *Monthly) {
		m.now = now
	}
}

// NewMonthly creates a limiter admitting limit requests per calendar month.
func NewMonthly(limit int, opts ...Option) *Monthly {
	m := &Monthly{
		limit: limit,
		now:   time.Now,
	}
	for _, opt := range opts {
		opt(m)
	}
	m.resetAt = nextMonthStart(m.now())
	return m
}

// Admit reports whether the request fits the monthly budget, incrementing
// the counter when it does.
//
// When the reset boundary has passed, the counter resets to zero and the
// boundary advances to the first instant of the month after the current
// time. Recomputing from the current time rather than the prior boundary
// keeps a long-idle process from skipping or repeating months.
func (m *Monthly) Admit() bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()
	if !now.Before(m.resetAt) {
		m.count = 0
		m.resetAt = nextMonthStart(now)
	}

	if m.count >= m.limit {
		return false
	}
	m.count++
	return true
}

// Remaining reports how much of the current window's budget is left and
// when the window resets. Advisory only; the value may be stale by the
// time the caller acts on it.
func (m *Monthly) Remaining() (int, time.Time) {
	m.mu.Lock()
	defer m.mu.Unlock()

	remaining := m.limit - m.count
	if remaining < 0 {
		remaining = 0
	}
	return remaining, m.resetAt
}

// nextMonthStart returns midnight on the first day of the month after t.
// time.Date normalizes month 13 into January of the following year.
func nextMonthStart(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month()+1, 1, 0, 0, 0, 0, t.Location())
}
