package config

import (
	"os"
	"strconv"
	"time"
)

// Server captures process-wide configuration for the gate.
type Server struct {
	Addr string

	// AllowlistFile is re-read on every login attempt so edits apply
	// without a restart. LinkFile behaves the same way; FilenLink is the
	// static fallback when no link file is present.
	AllowlistFile string
	LinkFile      string
	FilenLink     string

	// AdminToken guards the audit read/export endpoints. Empty means the
	// admin surface fails closed with a configuration error.
	AdminToken string

	// RateLimit is the total number of gated requests admitted per
	// calendar month.
	RateLimit int

	Audit AuditConfig
	SMTP  SMTPConfig
}

// AuditConfig selects the audit backend. Exactly one backend is active:
// the Upstash REST pair wins over RedisURL, which wins over the local file.
type AuditConfig struct {
	File           string
	UpstashURL     string
	UpstashToken   string
	RedisURL       string
	RequestTimeout time.Duration
}

// SMTPConfig carries the optional outbound notification credentials.
// Notifications are disabled when Host is empty.
type SMTPConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	Owner    string
}

// DefaultRateLimit bounds total monthly traffic when RATE_LIMIT is unset.
const DefaultRateLimit = 300

// FromEnv builds a Server config from environment variables so main stays lean.
func FromEnv() Server {
	return Server{
		Addr:          getEnv("LINKGATE_ADDR", ":8080"),
		AllowlistFile: getEnv("ALLOWLIST_FILE", "allowlist.txt"),
		LinkFile:      os.Getenv("LINK_FILE"),
		FilenLink:     os.Getenv("FILEN_LINK"),
		AdminToken:    os.Getenv("ADMIN_TOKEN"),
		RateLimit:     getEnvInt("RATE_LIMIT", DefaultRateLimit),
		Audit: AuditConfig{
			File:           getEnv("AUDIT_FILE", "audit.log"),
			UpstashURL:     os.Getenv("UPSTASH_REDIS_REST_URL"),
			UpstashToken:   os.Getenv("UPSTASH_REDIS_REST_TOKEN"),
			RedisURL:       os.Getenv("REDIS_URL"),
			RequestTimeout: 5 * time.Second,
		},
		SMTP: SMTPConfig{
			Host:     os.Getenv("SMTP_HOST"),
			Port:     getEnvInt("SMTP_PORT", 587),
			Username: os.Getenv("SMTP_USER"),
			Password: os.Getenv("SMTP_PASS"),
			Owner:    os.Getenv("NOTIFY_EMAIL"),
		},
	}
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	raw := os.Getenv(key)
	if raw == "" {
		return fallback
	}
	value, err := strconv.Atoi(raw)
	if err != nil || value < 0 {
		return fallback
	}
	return value
}
