package ratelimit

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAdmit_ExactBudget(t *testing.T) {
	clock := time.Date(2026, time.March, 10, 12, 0, 0, 0, time.UTC)
	m := NewMonthly(3, WithClock(func() time.Time { return clock }))

	assert.True(t, m.Admit())
	assert.True(t, m.Admit())
	assert.True(t, m.Admit())
	assert.False(t, m.Admit(), "request limit+1 must be rejected")
	assert.False(t, m.Admit())
}

func TestAdmit_ResetsAtMonthBoundary(t *testing.T) {
	clock := time.Date(2026, time.March, 31, 23, 59, 59, 0, time.UTC)
	m := NewMonthly(1, WithClock(func() time.Time { return clock }))

	require.True(t, m.Admit())
	require.False(t, m.Admit())

	// One second later it is April; the budget is fresh.
	clock = time.Date(2026, time.April, 1, 0, 0, 0, 0, time.UTC)
	assert.True(t, m.Admit())
	assert.False(t, m.Admit())
}

func TestAdmit_BoundaryDoesNotDriftAcrossIdleMonths(t *testing.T) {
	clock := time.Date(2026, time.January, 15, 0, 0, 0, 0, time.UTC)
	m := NewMonthly(1, WithClock(func() time.Time { return clock }))

	require.True(t, m.Admit())

	// The process sleeps through February and wakes in mid-March. The new
	// boundary must be April 1st, not March 1st carried from the old one.
	clock = time.Date(2026, time.March, 15, 8, 30, 0, 0, time.UTC)
	require.True(t, m.Admit())

	_, resetAt := m.Remaining()
	assert.Equal(t, time.Date(2026, time.April, 1, 0, 0, 0, 0, time.UTC), resetAt)
}

func TestAdmit_DecemberRollsIntoJanuary(t *testing.T) {
	clock := time.Date(2026, time.December, 20, 0, 0, 0, 0, time.UTC)
	m := NewMonthly(1, WithClock(func() time.Time { return clock }))

	require.True(t, m.Admit())

	_, resetAt := m.Remaining()
	assert.Equal(t, time.Date(2027, time.January, 1, 0, 0, 0, 0, time.UTC), resetAt)
}

func TestRemaining(t *testing.T) {
	clock := time.Date(2026, time.May, 2, 0, 0, 0, 0, time.UTC)
	m := NewMonthly(2, WithClock(func() time.Time { return clock }))

	remaining, _ := m.Remaining()
	assert.Equal(t, 2, remaining)

	m.Admit()
	m.Admit()
	m.Admit()

	remaining, _ = m.Remaining()
	assert.Equal(t, 0, remaining)
}
