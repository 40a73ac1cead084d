package audit

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"linkgate/internal/platform/metrics"
	"linkgate/internal/platform/tracer"
)

// Publisher captures audit events. It is append-only and uses the storage
// layer for persistence so tests can swap sinks easily.
//
// With an async buffer configured, Emit is fire-and-forget: events queue in
// a bounded channel and a background goroutine persists them, so the
// response path never waits on the backend. A full buffer drops the event
// with a warning; audit is an observability side effect, never a gate.
type Publisher struct {
	store   Store
	events  chan Event
	wg      sync.WaitGroup
	logger  *slog.Logger
	metrics *metrics.Metrics
	tracer  tracer.Tracer
	async   bool
}

// PublisherOption configures the Publisher.
type PublisherOption func(*Publisher)

// WithAsyncBuffer enables async processing with the specified buffer size.
// Events are queued and persisted in a background goroutine.
func WithAsyncBuffer(size int) PublisherOption {
	return func(p *Publisher) {
		if size > 0 {
			p.events = make(chan Event, size)
			p.async = true
		}
	}
}

// WithPublisherLogger sets a logger for async error reporting.
func WithPublisherLogger(logger *slog.Logger) PublisherOption {
	return func(p *Publisher) {
		p.logger = logger
	}
}

// WithMetrics wires failure and drop counters.
func WithMetrics(m *metrics.Metrics) PublisherOption {
	return func(p *Publisher) {
		p.metrics = m
	}
}

// WithTracer wires span emission around store appends.
func WithTracer(t tracer.Tracer) PublisherOption {
	return func(p *Publisher) {
		p.tracer = t
	}
}

func NewPublisher(store Store, opts ...PublisherOption) *Publisher {
	p := &Publisher{store: store, tracer: tracer.NewNoop()}
	for _, opt := range opts {
		opt(p)
	}
	if p.async {
		p.wg.Add(1)
		go p.processEvents()
	}
	return p
}

// processEvents runs in a goroutine and persists events from the channel.
func (p *Publisher) processEvents() {
	defer p.wg.Done()
	for event := range p.events {
		p.append(context.Background(), event)
	}
}

func (p *Publisher) append(ctx context.Context, event Event) {
	ctx, span := p.tracer.Start(ctx, tracer.SpanAuditAppend,
		tracer.String(tracer.AttrBackend, p.store.Name()),
		tracer.String(tracer.AttrResult, string(event.Result)),
	)
	err := p.store.Append(ctx, event)
	span.End(err)
	if err == nil {
		return
	}
	if p.metrics != nil {
		p.metrics.AuditWriteFailures.Inc()
	}
	if p.logger != nil {
		p.logger.Error("failed to persist audit event",
			"error", err,
			"backend", p.store.Name(),
			"username", event.Username,
			"result", event.Result,
		)
	}
}

// Close shuts down the async publisher and waits for pending events to drain.
func (p *Publisher) Close() {
	if p.async && p.events != nil {
		close(p.events)
		p.wg.Wait()
	}
}

// Emit records one event. A zero timestamp is stamped with the current time.
func (p *Publisher) Emit(ctx context.Context, event Event) error {
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now().UTC()
	}
	if p.async {
		// Non-blocking send; drop the event if the buffer is full so the
		// hot path never stalls on a slow backend.
		select {
		case p.events <- event:
		default:
			if p.metrics != nil {
				p.metrics.AuditEventsDropped.Inc()
			}
			if p.logger != nil {
				p.logger.Warn("audit buffer full, event dropped",
					"username", event.Username,
					"result", event.Result,
				)
			}
		}
		return nil
	}
	p.append(ctx, event)
	return nil
}

// Recent reads back the trail through the same backend the publisher
// writes to.
func (p *Publisher) Recent(ctx context.Context, limit int) ([]Event, error) {
	ctx, span := p.tracer.Start(ctx, tracer.SpanAuditRecent,
		tracer.String(tracer.AttrBackend, p.store.Name()),
		tracer.Int64(tracer.AttrLimit, int64(limit)),
	)
	events, err := p.store.Recent(ctx, limit)
	span.SetAttributes(tracer.Int64(tracer.AttrCount, int64(len(events))))
	span.End(err)
	return events, err
}

// Backend names the active store for logs and the selftest report.
func (p *Publisher) Backend() string {
	return p.store.Name()
}
