// Package allowlist decides which usernames may receive the resource link.
package allowlist

import (
	"log/slog"
	"os"
	"strings"
)

// Resolver checks candidate usernames against a plaintext allowlist file,
// one username per line, '#'-prefixed lines ignored.
//
// The file is re-read on every check so edits apply without a restart.
// There is deliberately no caching: the list is tiny and the gate handles
// a handful of requests per day.
type Resolver struct {
	path   string
	logger *slog.Logger
}

// Option configures the Resolver.
type Option func(*Resolver)

// WithLogger sets a logger for read failures.
func WithLogger(logger *slog.Logger) Option {
	return func(r *Resolver) {
		r.logger = logger
	}
}

// New creates a Resolver backed by the given allowlist file.
func New(path string, opts ...Option) *Resolver {
	r := &Resolver{path: path}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// IsAllowed reports whether candidate is on the allowlist. Matching is
// case-insensitive and ignores surrounding whitespace on both sides.
//
// An unreadable or missing allowlist resolves to the empty set: the failure
// is logged and every candidate is denied. The request path never sees an
// error from here.
func (r *Resolver) IsAllowed(candidate string) bool {
	candidate = strings.ToLower(strings.TrimSpace(candidate))
	if candidate == "" {
		return false
	}

	entries := r.load()
	_, ok := entries[candidate]
	return ok
}

// load reads and normalizes the allowlist. Duplicates collapse into the set.
func (r *Resolver) load() map[string]struct{} {
	data, err := os.ReadFile(r.path)
	if err != nil {
		if r.logger != nil {
			r.logger.Error("failed to read allowlist, denying all",
				"path", r.path,
				"error", err,
			)
		}
		return nil
	}

	entries := make(map[string]struct{})
	for line := range strings.Lines(string(data)) {
		entry := strings.ToLower(strings.TrimSpace(line))
		if entry == "" || strings.HasPrefix(entry, "#") {
			continue
		}
		entries[entry] = struct{}{}
	}
	return entries
}
