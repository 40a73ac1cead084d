package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"linkgate/internal/access"
	accesshandler "linkgate/internal/access/handler"
	"linkgate/internal/allowlist"
	"linkgate/internal/audit"
	audithandler "linkgate/internal/audit/handler"
	"linkgate/internal/notify"
	"linkgate/internal/platform/config"
	"linkgate/internal/platform/logger"
	"linkgate/internal/platform/metrics"
	"linkgate/internal/platform/redis"
	"linkgate/internal/platform/tracer"
	"linkgate/internal/ratelimit"
	httptransport "linkgate/internal/transport/http"
)

const auditBuffer = 256

// main wires dependencies and owns the server lifecycle. Business logic
// lives in the internal packages.
func main() {
	cfg := config.FromEnv()
	log := logger.New()
	m := metrics.New()
	tr := tracer.NewOTel()

	store, closeStore, err := newAuditStore(cfg.Audit)
	if err != nil {
		log.Error("failed to initialize audit backend", "error", err)
		os.Exit(1)
	}
	defer closeStore()

	log.Info("initializing linkgate",
		"addr", cfg.Addr,
		"audit_backend", store.Name(),
		"rate_limit", cfg.RateLimit,
	)

	publisher := audit.NewPublisher(store,
		audit.WithAsyncBuffer(auditBuffer),
		audit.WithPublisherLogger(log),
		audit.WithMetrics(m),
		audit.WithTracer(tr),
	)
	defer publisher.Close()

	accessOpts := []access.Option{
		access.WithLinkFile(cfg.LinkFile),
		access.WithMetrics(m),
	}
	var dispatcher *notify.Dispatcher
	if cfg.SMTP.Host != "" {
		mailer := notify.NewSMTPMailer(cfg.SMTP.Host, cfg.SMTP.Port, cfg.SMTP.Username, cfg.SMTP.Password, cfg.SMTP.Owner)
		dispatcher = notify.NewDispatcher(mailer, log, notify.WithMetrics(m))
		accessOpts = append(accessOpts, access.WithNotifier(dispatcher))
	} else {
		log.Info("SMTP_HOST not set, notifications disabled")
	}

	service := access.New(
		allowlist.New(cfg.AllowlistFile, allowlist.WithLogger(log)),
		publisher,
		cfg.FilenLink,
		log,
		accessOpts...,
	)

	router := httptransport.NewRouter(httptransport.Deps{
		Login:      accesshandler.New(service, log),
		Audit:      audithandler.New(publisher, store, log, tr),
		Limiter:    ratelimit.NewMonthly(cfg.RateLimit),
		AdminToken: cfg.AdminToken,
		Metrics:    m,
		Logger:     log,
	})

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	log.Info("starting http server", "addr", cfg.Addr)

	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	log.Info("shutting down server gracefully")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Error("graceful shutdown failed", "error", err)
	}
	if dispatcher != nil {
		if err := dispatcher.Drain(ctx); err != nil {
			log.Warn("notification drain interrupted", "error", err)
		}
	}

	log.Info("server stopped")
}

// newAuditStore selects the audit backend. The Upstash REST pair wins over
// a native Redis URL, which wins over the local append-only file.
func newAuditStore(cfg config.AuditConfig) (audit.Store, func(), error) {
	switch {
	case cfg.UpstashURL != "" && cfg.UpstashToken != "":
		return audit.NewRESTStore(cfg.UpstashURL, cfg.UpstashToken), func() {}, nil
	case cfg.RedisURL != "":
		client, err := redis.New(cfg.RedisURL)
		if err != nil {
			return nil, nil, err
		}
		return audit.NewRedisStore(client), func() {
			_ = client.Close()
		}, nil
	default:
		return audit.NewFileStore(cfg.File), func() {}, nil
	}
}
