package config

import (
	"errors"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestDefault(t *testing.T) {
	cfg := Default()

	if cfg.Server.HTTP.Addr != DefaultHTTPAddr {
		t.Errorf("HTTP.Addr = %q, want %q", cfg.Server.HTTP.Addr, DefaultHTTPAddr)
	}

	// Relay defaults
	r := cfg.Relay
	if r.MaxRetries != 3 {
		t.Errorf("MaxRetries = %d, want 3", r.MaxRetries)
	}
	if r.RetryDelay() != 2*time.Second {
		t.Errorf("RetryDelay() = %v, want 2s", r.RetryDelay())
	}
	if r.Timeout() != 30*time.Second {
		t.Errorf("Timeout() = %v, want 30s", r.Timeout())
	}
	if r.Cooldown() != 10*time.Second {
		t.Errorf("Cooldown() = %v, want 10s", r.Cooldown())
	}
	if r.MaxPayloadBytes != 10485760 {
		t.Errorf("MaxPayloadBytes = %d, want 10485760", r.MaxPayloadBytes)
	}
	if r.PreviewItems != 5 || r.MaxTextLength != 4000 {
		t.Errorf("PreviewItems/MaxTextLength = %d/%d, want 5/4000", r.PreviewItems, r.MaxTextLength)
	}

	if cfg.Delivery.Workers != DefaultWorkers || cfg.Delivery.QueueSize != DefaultQueueSize {
		t.Errorf("Delivery = %+v", cfg.Delivery)
	}
	if cfg.Storage.Backend != BackendMemory {
		t.Errorf("Storage.Backend = %q, want %q", cfg.Storage.Backend, BackendMemory)
	}
	if cfg.Storage.ReportTTL != DefaultReportTTL {
		t.Errorf("ReportTTL = %v, want %v", cfg.Storage.ReportTTL, DefaultReportTTL)
	}
	if cfg.Log.Level != DefaultLogLevel {
		t.Errorf("Log.Level = %q, want %q", cfg.Log.Level, DefaultLogLevel)
	}
	if cfg.Log.Format != DefaultLogFormat {
		t.Errorf("Log.Format = %q, want %q", cfg.Log.Format, DefaultLogFormat)
	}
}

func TestVerify_Default(t *testing.T) {
	if err := Verify(Default()); err != nil {
		t.Fatalf("Verify(Default()) error = %v", err)
	}
}

func TestVerify_Invalid(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*ServerConfig)
		want   string
	}{
		{"bad addr", func(c *ServerConfig) { c.Server.HTTP.Addr = "nope" }, "server.http.addr"},
		{"cert without key", func(c *ServerConfig) { c.Server.HTTP.TLSCertFile = "/tmp/cert.pem" }, "set together"},
		{"negative rate", func(c *ServerConfig) { c.Server.HTTP.RateLimit = -1 }, "rate_limit"},
		{"zero burst", func(c *ServerConfig) { c.Server.HTTP.RateBurst = 0 }, "rate_burst"},
		{"zero retries", func(c *ServerConfig) { c.Relay.MaxRetries = 0 }, "relay.max_retries"},
		{"zero timeout", func(c *ServerConfig) { c.Relay.TimeoutSeconds = 0 }, "relay.timeout_seconds"},
		{"negative cooldown", func(c *ServerConfig) { c.Relay.CooldownSeconds = -1 }, "relay.cooldown_seconds"},
		{"zero payload", func(c *ServerConfig) { c.Relay.MaxPayloadBytes = 0 }, "relay.max_payload_bytes"},
		{"text too long", func(c *ServerConfig) { c.Relay.MaxTextLength = 5000 }, "relay.max_text_length"},
		{"no workers", func(c *ServerConfig) { c.Delivery.Workers = 0 }, "delivery.workers"},
		{"no queue", func(c *ServerConfig) { c.Delivery.QueueSize = 0 }, "delivery.queue_size"},
		{"unknown backend", func(c *ServerConfig) { c.Storage.Backend = "sqlite" }, "storage.backend"},
		{"badger without dir", func(c *ServerConfig) {
			c.Storage.Backend = BackendBadger
			c.Storage.DataDir = ""
		}, "storage.data_dir"},
		{"short encryption key", func(c *ServerConfig) { c.Storage.EncryptionKey = "abcd" }, "storage.encryption_key"},
		{"bad level", func(c *ServerConfig) { c.Log.Level = "loud" }, "log.level"},
		{"bad format", func(c *ServerConfig) { c.Log.Format = "xml" }, "log.format"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			err := Verify(cfg)
			if err == nil {
				t.Fatal("Verify() should fail")
			}
			if !strings.Contains(err.Error(), tt.want) {
				t.Errorf("Verify() error = %q, want it to mention %q", err, tt.want)
			}
		})
	}
}

func TestVerify_ReportsAllProblems(t *testing.T) {
	cfg := Default()
	cfg.Relay.MaxRetries = 0
	cfg.Delivery.Workers = 0

	err := Verify(cfg)
	if err == nil {
		t.Fatal("Verify() should fail")
	}
	for _, want := range []string{"relay.max_retries", "delivery.workers"} {
		if !strings.Contains(err.Error(), want) {
			t.Errorf("error %q does not mention %q", err, want)
		}
	}
}

func TestVerify_BadgerCreatesDataDir(t *testing.T) {
	cfg := Default()
	cfg.Storage.Backend = BackendBadger
	cfg.Storage.DataDir = filepath.Join(t.TempDir(), "nested", "data")

	if err := Verify(cfg); err != nil {
		t.Fatalf("Verify() error = %v", err)
	}
}

func TestVerify_MissingTLSFiles(t *testing.T) {
	cfg := Default()
	cfg.Server.HTTP.TLSCertFile = "/nonexistent/cert.pem"
	cfg.Server.HTTP.TLSKeyFile = "/nonexistent/key.pem"

	err := Verify(cfg)
	if err == nil {
		t.Fatal("Verify() should fail for missing TLS files")
	}
	var joined interface{ Unwrap() []error }
	if !errors.As(err, &joined) {
		t.Errorf("Verify() error should be a joined error, got %T", err)
	}
}

func TestSanitize(t *testing.T) {
	cfg := Default()
	cfg.Telegram.BotToken = "123456:ABCDEFghijklmnop"
	cfg.Security.AdminAPIKey = "admin-key-1234567890"
	cfg.Storage.EncryptionKey = strings.Repeat("ab", 32)

	sanitized := Sanitize(cfg)
	if sanitized.Storage.EncryptionKey == cfg.Storage.EncryptionKey {
		t.Error("Sanitized config should mask the encryption key")
	}

	// Original should be unchanged
	if cfg.Telegram.BotToken != "123456:ABCDEFghijklmnop" {
		t.Error("Original config should not be modified")
	}

	if sanitized.Telegram.BotToken == cfg.Telegram.BotToken {
		t.Error("Sanitized config should mask the bot token")
	}
	if sanitized.Security.AdminAPIKey == cfg.Security.AdminAPIKey {
		t.Error("Sanitized config should mask the admin key")
	}

	// Should preserve first 2 and last 2 characters
	masked := sanitized.Security.AdminAPIKey
	if len(masked) != len(cfg.Security.AdminAPIKey) {
		t.Errorf("Masked key length = %d, want %d", len(masked), len(cfg.Security.AdminAPIKey))
	}
	if !strings.HasPrefix(masked, "ad") || !strings.HasSuffix(masked, "90") {
		t.Errorf("Masked key = %q, want ad...90", masked)
	}
}

func TestSanitize_EmptySecrets(t *testing.T) {
	sanitized := Sanitize(Default())

	if sanitized.Telegram.BotToken != "" {
		t.Errorf("Empty bot token should stay empty, got %q", sanitized.Telegram.BotToken)
	}
	if sanitized.Security.AdminAPIKey != "" {
		t.Errorf("Empty admin key should stay empty, got %q", sanitized.Security.AdminAPIKey)
	}
}

func TestMaskSecret_Short(t *testing.T) {
	if got := maskSecret("abc"); got != "****" {
		t.Errorf("maskSecret(short) = %q, want ****", got)
	}
}

func TestVerify_EncryptionKey(t *testing.T) {
	cfg := Default()
	cfg.Storage.EncryptionKey = strings.Repeat("0f", 32)
	if err := Verify(cfg); err != nil {
		t.Errorf("valid hex key rejected: %v", err)
	}
}
