package notify

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/mssola/useragent"
	"golang.org/x/sync/semaphore"

	"linkgate/internal/platform/metrics"
)

const (
	defaultMaxInFlight = 4
	sendTimeout        = 10 * time.Second
)

// Dispatcher fans login attempts out to the mailer without blocking the
// caller. In-flight sends are bounded by a weighted semaphore: a flood of
// invalid usernames degrades to dropped notifications instead of unbounded
// goroutines and mail volume.
type Dispatcher struct {
	mailer      Mailer
	sem         *semaphore.Weighted
	maxInFlight int64
	logger      *slog.Logger
	metrics     *metrics.Metrics
}

// DispatcherOption configures the Dispatcher.
type DispatcherOption func(*Dispatcher)

// WithMaxInFlight bounds concurrent sends.
func WithMaxInFlight(n int64) DispatcherOption {
	return func(d *Dispatcher) {
		if n > 0 {
			d.maxInFlight = n
		}
	}
}

// WithMetrics wires sent/dropped counters.
func WithMetrics(m *metrics.Metrics) DispatcherOption {
	return func(d *Dispatcher) {
		d.metrics = m
	}
}

// NewDispatcher creates a dispatcher in front of the given mailer.
func NewDispatcher(mailer Mailer, logger *slog.Logger, opts ...DispatcherOption) *Dispatcher {
	d := &Dispatcher{
		mailer:      mailer,
		maxInFlight: defaultMaxInFlight,
		logger:      logger,
	}
	for _, opt := range opts {
		opt(d)
	}
	d.sem = semaphore.NewWeighted(d.maxInFlight)
	return d
}

// LoginAttempt notifies the owner about one attempt. It returns immediately;
// the send happens in a background goroutine with a bounded timeout. When
// the concurrency bound is hit the notification is dropped with a log line.
func (d *Dispatcher) LoginAttempt(username, ip, ua string, allowed bool) {
	if !d.sem.TryAcquire(1) {
		if d.metrics != nil {
			d.metrics.NotificationsDropped.Inc()
		}
		d.logger.Warn("notification dropped, too many in flight",
			"username", username,
		)
		return
	}

	go func() {
		defer d.sem.Release(1)

		ctx, cancel := context.WithTimeout(context.Background(), sendTimeout)
		defer cancel()

		subject, body := composeAttempt(username, ip, ua, allowed)
		if err := d.mailer.Send(ctx, subject, body); err != nil {
			d.logger.Error("failed to send notification",
				"error", err,
				"username", username,
			)
			return
		}
		if d.metrics != nil {
			d.metrics.NotificationsSent.Inc()
		}
	}()
}

// Drain waits for all in-flight sends to finish, bounded by ctx.
// Called during graceful shutdown.
func (d *Dispatcher) Drain(ctx context.Context) error {
	if err := d.sem.Acquire(ctx, d.maxInFlight); err != nil {
		return err
	}
	d.sem.Release(d.maxInFlight)
	return nil
}

func composeAttempt(username, ip, ua string, allowed bool) (subject, body string) {
	if allowed {
		subject = fmt.Sprintf("Fotozugang: %s", username)
	} else {
		subject = fmt.Sprintf("Fotozugang abgelehnt: %s", username)
	}

	var b strings.Builder
	if allowed {
		fmt.Fprintf(&b, "%s hat sich angemeldet.\n", username)
	} else {
		fmt.Fprintf(&b, "Unbekannter Benutzername: %s\n", username)
	}
	if ip != "" {
		fmt.Fprintf(&b, "IP: %s\n", ip)
	}
	if summary := browserSummary(ua); summary != "" {
		fmt.Fprintf(&b, "Client: %s\n", summary)
	}
	return subject, b.String()
}

// browserSummary condenses a raw User-Agent into "Browser on OS" for the
// mail body. Unparseable agents fall back to the raw string; either way the
// result is capped so a hostile header cannot bloat the mail.
func browserSummary(ua string) string {
	if ua == "" {
		return ""
	}

	parsed := useragent.New(ua)
	browser, version := parsed.Browser()
	os := parsed.OS()

	summary := ua
	if browser != "" {
		if major, _, ok := strings.Cut(version, "."); ok && major != "" {
			browser = browser + " " + major
		} else if version != "" {
			browser = browser + " " + version
		}
		summary = browser
		if os != "" {
			summary = browser + " on " + os
		}
	}

	if len(summary) > 80 {
		summary = summary[:80]
	}
	return summary
}
