package audit

import (
	"context"
	"time"

	"linkgate/internal/platform/tracer"
)

// SelftestReport describes whether the configured backend accepted one
// synthetic write and returned it on read-back.
type SelftestReport struct {
	Backend  string `json:"backend"`
	Writable bool   `json:"writable"`
	Readable bool   `json:"readable"`
	Error    string `json:"error,omitempty"`
}

// Selftest writes one synthetic event directly to the store, bypassing the
// async buffer, then reads the trail back and looks for it. The probe event
// stays in the trail; it is marked by the reserved username so exports can
// tell it apart from real attempts.
func Selftest(ctx context.Context, store Store, tr tracer.Tracer) SelftestReport {
	if tr == nil {
		tr = tracer.NewNoop()
	}
	ctx, span := tr.Start(ctx, tracer.SpanAuditSelftest,
		tracer.String(tracer.AttrBackend, store.Name()),
	)

	report := SelftestReport{Backend: store.Name()}

	probe := Event{
		Timestamp: time.Now().UTC(),
		Username:  "_selftest",
		Result:    ResultSuccess,
	}

	if err := store.Append(ctx, probe); err != nil {
		report.Error = err.Error()
		span.End(err)
		return report
	}
	report.Writable = true

	events, err := store.Recent(ctx, 10)
	if err != nil {
		report.Error = err.Error()
		span.End(err)
		return report
	}
	for _, event := range events {
		if event.Username == probe.Username && event.Timestamp.Equal(probe.Timestamp) {
			report.Readable = true
			break
		}
	}

	span.SetAttributes(
		tracer.Bool("selftest.writable", report.Writable),
		tracer.Bool("selftest.readable", report.Readable),
	)
	span.End(nil)
	return report
}
