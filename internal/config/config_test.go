package config

import (
	"strings"
	"testing"
	"time"
)

func clearEnv(t *testing.T) {
	t.Helper()
	keys := []string{
		"PORT", "READ_TIMEOUT", "READ_HEADER_TIMEOUT", "WRITE_TIMEOUT", "IDLE_TIMEOUT",
		"MAX_HEADER_BYTES", "GIN_MODE", "LOG_LEVEL", "LOG_PRETTY", "API_BASE_PATH",
		"BASE_URL", "DEFAULT_EXPIRATION_MONTHS", "DB_PATH", "UPLOAD_DIR",
		"KV_URL", "KV_TOKEN", "BLOB_ENDPOINT", "BLOB_TOKEN",
		"MODERATION_URL", "MODERATION_TIMEOUT",
		"RATE_RPS", "RATE_BURST", "CORS_ALLOWED_ORIGINS",
		"ENABLE_HSTS", "HSTS_MAX_AGE", "IDEMPOTENCY_TTL",
		"OTEL_ENABLED", "OTEL_EXPORTER_OTLP_ENDPOINT", "OTEL_EXPORTER_OTLP_INSECURE",
		"OTEL_SERVICE_NAME", "OTEL_TRACES_SAMPLER_ARG",
	}
	for _, k := range keys {
		t.Setenv(k, "")
	}
}

func TestLoadDefaults(t *testing.T) {
	clearEnv(t)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Port != "8080" {
		t.Fatalf("Port = %q, want 8080", cfg.Port)
	}
	if cfg.GinMode != "release" {
		t.Fatalf("GinMode = %q, want release", cfg.GinMode)
	}
	if cfg.LogLevel != "info" {
		t.Fatalf("LogLevel = %q, want info", cfg.LogLevel)
	}
	if cfg.APIBasePath != "/" {
		t.Fatalf("APIBasePath = %q, want /", cfg.APIBasePath)
	}
	if cfg.BaseURL != "http://localhost:8080" {
		t.Fatalf("BaseURL = %q", cfg.BaseURL)
	}
	if cfg.DefaultExpirationMonths != 6 {
		t.Fatalf("DefaultExpirationMonths = %d, want 6", cfg.DefaultExpirationMonths)
	}
	if cfg.KV.Enabled() {
		t.Fatal("KV should be disabled by default")
	}
	if cfg.Blob.Remote() {
		t.Fatal("Blob should be local by default")
	}
	if cfg.Moderation.Timeout != 5*time.Second {
		t.Fatalf("Moderation.Timeout = %v", cfg.Moderation.Timeout)
	}
	if cfg.IdempotencyTTL != 24*time.Hour {
		t.Fatalf("IdempotencyTTL = %v", cfg.IdempotencyTTL)
	}
}

func TestLoadOverridesAndNormalization(t *testing.T) {
	clearEnv(t)
	t.Setenv("PORT", "9999")
	t.Setenv("LOG_LEVEL", "WARNING")
	t.Setenv("GIN_MODE", "bogus")
	t.Setenv("API_BASE_PATH", "api/v1/")
	t.Setenv("BASE_URL", "https://tune.example.com/")
	t.Setenv("KV_URL", "redis://localhost:6379/0")
	t.Setenv("KV_TOKEN", "secret")
	t.Setenv("BLOB_ENDPOINT", "https://blob.example.com/store")
	t.Setenv("BLOB_TOKEN", "tok")
	t.Setenv("CORS_ALLOWED_ORIGINS", "https://a.com, https://b.com ,")
	t.Setenv("RATE_RPS", "2.5")
	t.Setenv("DEFAULT_EXPIRATION_MONTHS", "3")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Port != "9999" {
		t.Fatalf("Port = %q", cfg.Port)
	}
	if cfg.LogLevel != "warn" {
		t.Fatalf("LogLevel = %q, want warn", cfg.LogLevel)
	}
	if cfg.GinMode != "release" {
		t.Fatalf("GinMode = %q, want release fallback", cfg.GinMode)
	}
	if cfg.APIBasePath != "/api/v1" {
		t.Fatalf("APIBasePath = %q", cfg.APIBasePath)
	}
	if strings.HasSuffix(cfg.BaseURL, "/") {
		t.Fatalf("BaseURL should have no trailing slash: %q", cfg.BaseURL)
	}
	if !cfg.KV.Enabled() {
		t.Fatal("KV should be enabled")
	}
	if !cfg.Blob.Remote() {
		t.Fatal("Blob should be remote")
	}
	if len(cfg.CORS.AllowedOrigins) != 2 {
		t.Fatalf("AllowedOrigins = %v", cfg.CORS.AllowedOrigins)
	}
	if cfg.RateRPS != 2.5 {
		t.Fatalf("RateRPS = %v", cfg.RateRPS)
	}
	if cfg.DefaultExpirationMonths != 3 {
		t.Fatalf("DefaultExpirationMonths = %d", cfg.DefaultExpirationMonths)
	}
}

func TestLoadValidationErrors(t *testing.T) {
	cases := []struct {
		name string
		key  string
		val  string
	}{
		{"bad log level", "LOG_LEVEL", "noisy"},
		{"zero read timeout", "READ_TIMEOUT", "0s"},
		{"negative rps", "RATE_RPS", "-1"},
		{"zero burst", "RATE_BURST", "0"},
		{"zero months", "DEFAULT_EXPIRATION_MONTHS", "0"},
		{"sample ratio too high", "OTEL_TRACES_SAMPLER_ARG", "1.5"},
		{"zero idempotency ttl", "IDEMPOTENCY_TTL", "0s"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			clearEnv(t)
			t.Setenv(tc.key, tc.val)
			if _, err := Load(); err == nil {
				t.Fatalf("expected error for %s=%s", tc.key, tc.val)
			}
		})
	}
}

func TestNormalizeBasePath(t *testing.T) {
	cases := map[string]string{
		"":        "/",
		"/":       "/",
		"api":     "/api",
		"/api/":   "/api",
		"/api/v2": "/api/v2",
	}
	for in, want := range cases {
		if got := normalizeBasePath(in); got != want {
			t.Fatalf("normalizeBasePath(%q) = %q, want %q", in, got, want)
		}
	}
}
