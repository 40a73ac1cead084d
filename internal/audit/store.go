package audit

import "context"

// Store is the single polymorphic audit capability. One implementation is
// selected at startup by configuration presence; call sites never branch on
// the backend.
type Store interface {
	// Append persists one event. Failures are advisory: the access decision
	// that produced the event has already been committed to the response.
	Append(ctx context.Context, event Event) error

	// Recent returns at most limit events in ascending chronological order.
	// A missing log or empty list yields an empty slice, not an error.
	Recent(ctx context.Context, limit int) ([]Event, error)

	// Name identifies the backend in logs and the selftest report.
	Name() string
}

const (
	// ListMax caps the remote list length so the trail cannot grow unbounded.
	ListMax = 1000

	// MaxRecentJSON caps the JSON audit view regardless of the requested limit.
	MaxRecentJSON = 1000

	// MaxRecentCSV caps the CSV export.
	MaxRecentCSV = 10000
)

// ClampLimit normalizes a caller-requested limit against an enforced maximum.
func ClampLimit(limit, fallback, max int) int {
	if limit <= 0 {
		limit = fallback
	}
	if limit > max {
		limit = max
	}
	return limit
}
