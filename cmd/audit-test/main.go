// Command audit-test exercises the audit pipeline against a real backend
// from the shell: it writes probe events through the publisher, floods the
// async buffer to demonstrate drop behavior, and reads the trail back.
//
// Point it at a backend with the same environment variables the server
// uses (UPSTASH_REDIS_REST_URL/_TOKEN, REDIS_URL, or AUDIT_FILE).
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"linkgate/internal/audit"
	"linkgate/internal/platform/config"
	"linkgate/internal/platform/redis"
)

func main() {
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug}))
	cfg := config.FromEnv()

	store, closeStore, err := newStore(cfg.Audit)
	if err != nil {
		logger.Error("failed to initialize audit backend", "error", err)
		os.Exit(1)
	}
	defer closeStore()

	ctx := context.Background()
	fmt.Printf("=== Audit backend check: %s ===\n\n", store.Name())

	fmt.Println("1. Selftest...")
	report := audit.Selftest(ctx, store, nil)
	fmt.Printf("   writable=%v readable=%v", report.Writable, report.Readable)
	if report.Error != "" {
		fmt.Printf(" error=%q", report.Error)
	}
	fmt.Println()

	publisher := audit.NewPublisher(store,
		audit.WithAsyncBuffer(10),
		audit.WithPublisherLogger(logger),
	)

	fmt.Println("\n2. Emitting 5 events through the async publisher...")
	for i := range 5 {
		err := publisher.Emit(ctx, audit.Event{
			Timestamp: time.Now().UTC(),
			Username:  fmt.Sprintf("probe-%d", i+1),
			Result:    audit.ResultUnauthorized,
			SourceIP:  "127.0.0.1",
			UserAgent: "audit-test",
		})
		if err != nil {
			fmt.Printf("   event %d failed: %v\n", i+1, err)
		}
		time.Sleep(50 * time.Millisecond)
	}

	fmt.Println("\n3. Flooding the buffer with 50 events (buffer size is 10)...")
	for range 50 {
		_ = publisher.Emit(ctx, audit.Event{
			Timestamp: time.Now().UTC(),
			Username:  "flood",
			Result:    audit.ResultUnauthorized,
		})
	}
	publisher.Close()
	fmt.Println("   done; dropped events are logged above")

	fmt.Println("\n4. Reading the trail back...")
	events, err := store.Recent(ctx, 10)
	if err != nil {
		logger.Error("failed to read audit trail", "error", err)
		os.Exit(1)
	}
	fmt.Printf("   last %d events:\n", len(events))
	for _, e := range events {
		fmt.Printf("   %s  %-12s %s\n", e.Timestamp.UTC().Format(time.RFC3339), e.Username, e.Result)
	}
}

func newStore(cfg config.AuditConfig) (audit.Store, func(), error) {
	switch {
	case cfg.UpstashURL != "" && cfg.UpstashToken != "":
		return audit.NewRESTStore(cfg.UpstashURL, cfg.UpstashToken), func() {}, nil
	case cfg.RedisURL != "":
		client, err := redis.New(cfg.RedisURL)
		if err != nil {
			return nil, nil, err
		}
		return audit.NewRedisStore(client), func() { _ = client.Close() }, nil
	default:
		return audit.NewFileStore(cfg.File), func() {}, nil
	}
}
