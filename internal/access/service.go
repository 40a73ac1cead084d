// Package access decides whether a login attempt may see the protected
// photo link and records the outcome.
package access

import (
	"context"
	"log/slog"
	"os"
	"strings"
	"time"

	"linkgate/internal/audit"
	"linkgate/internal/platform/metrics"
)

// Allowlist answers whether a username is currently allowed.
type Allowlist interface {
	IsAllowed(username string) bool
}

// Notifier is told about every attempt. Implementations must not block.
type Notifier interface {
	LoginAttempt(username, ip, ua string, allowed bool)
}

// Decision is the outcome of one login attempt.
type Decision struct {
	Allowed  bool
	Link     string
	Username string
}

// Service gates access to the photo link.
type Service struct {
	allowlist Allowlist
	publisher *audit.Publisher
	notifier  Notifier
	logger    *slog.Logger
	metrics   *metrics.Metrics

	linkFile     string
	fallbackLink string
}

// Option configures the Service.
type Option func(*Service)

// WithNotifier wires owner notifications.
func WithNotifier(n Notifier) Option {
	return func(s *Service) {
		s.notifier = n
	}
}

// WithMetrics wires attempt counters.
func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) {
		s.metrics = m
	}
}

// WithLinkFile points the service at a file holding the current link. The
// file is re-read on every granted attempt so the link can be rotated
// without a restart; fallback is used when the file is absent or empty.
func WithLinkFile(path string) Option {
	return func(s *Service) {
		s.linkFile = path
	}
}

// New creates the access service. fallbackLink is served when no link file
// is configured.
func New(allowlist Allowlist, publisher *audit.Publisher, fallbackLink string, logger *slog.Logger, opts ...Option) *Service {
	s := &Service{
		allowlist:    allowlist,
		publisher:    publisher,
		fallbackLink: fallbackLink,
		logger:       logger,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Authorize evaluates one attempt. It performs no side effects; callers
// write their response first and then call Record.
func (s *Service) Authorize(_ context.Context, username string) Decision {
	trimmed := strings.TrimSpace(username)
	if trimmed == "" || !s.allowlist.IsAllowed(trimmed) {
		return Decision{Allowed: false, Username: trimmed}
	}
	return Decision{
		Allowed:  true,
		Link:     s.currentLink(),
		Username: trimmed,
	}
}

// Record emits the audit event and notification for a decided attempt. It
// never returns an error: recording failures must not affect a response
// that has already been written.
func (s *Service) Record(ctx context.Context, d Decision, ip, ua string) {
	result := audit.ResultUnauthorized
	if d.Allowed {
		result = audit.ResultSuccess
	}

	if s.metrics != nil {
		s.metrics.LoginAttempts.WithLabelValues(string(result)).Inc()
	}

	err := s.publisher.Emit(ctx, audit.Event{
		Timestamp: time.Now().UTC(),
		Username:  d.Username,
		Result:    result,
		SourceIP:  ip,
		UserAgent: ua,
	})
	if err != nil {
		s.logger.Warn("audit event not recorded",
			"username", d.Username,
			"error", err,
		)
	}

	if s.notifier != nil {
		s.notifier.LoginAttempt(d.Username, ip, ua, d.Allowed)
	}
}

// currentLink resolves the link to hand out, preferring the link file so
// rotation takes effect immediately.
func (s *Service) currentLink() string {
	if s.linkFile == "" {
		return s.fallbackLink
	}
	data, err := os.ReadFile(s.linkFile)
	if err != nil {
		if !os.IsNotExist(err) {
			s.logger.Warn("failed to read link file, using fallback",
				"path", s.linkFile,
				"error", err,
			)
		}
		return s.fallbackLink
	}
	link := strings.TrimSpace(string(data))
	if link == "" {
		return s.fallbackLink
	}
	return link
}
