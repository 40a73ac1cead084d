// Package audit records every login attempt to an append-only trail.
package audit

import "time"

// Result classifies the outcome of a login attempt.
type Result string

const (
	ResultSuccess      Result = "success"
	ResultUnauthorized Result = "unauthorized"
)

// Event is one login attempt. Immutable once created; appended, never
// updated or deleted individually. The JSON field names double as the CSV
// export columns.
type Event struct {
	Timestamp time.Time `json:"ts"`
	Username  string    `json:"username,omitempty"`
	Result    Result    `json:"result"`
	SourceIP  string    `json:"ip,omitempty"`
	UserAgent string    `json:"ua,omitempty"`
}
