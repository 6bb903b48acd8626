package config

import (
	"errors"
	"fmt"
	"net"
	"os"
	"strings"

	"github.com/yndnr/tokrelay-go/pkg/crypto/adaptive"
)

// maxTelegramText is the Bot API limit for a single message.
const maxTelegramText = 4096

// Verify validates the configuration and reports every problem found.
func Verify(cfg *ServerConfig) error {
	return errors.Join(
		verifyServer(&cfg.Server),
		verifyRelay(&cfg.Relay),
		verifyDelivery(&cfg.Delivery),
		verifyStorage(&cfg.Storage),
		verifyLog(&cfg.Log),
	)
}

func verifyServer(cfg *ServerSection) error {
	var errs []error
	if _, _, err := net.SplitHostPort(cfg.HTTP.Addr); err != nil {
		errs = append(errs, fmt.Errorf("server.http.addr: %w", err))
	}
	if (cfg.HTTP.TLSCertFile == "") != (cfg.HTTP.TLSKeyFile == "") {
		errs = append(errs, errors.New("server.http.tls_cert_file and tls_key_file must be set together"))
	}
	for _, f := range []string{cfg.HTTP.TLSCertFile, cfg.HTTP.TLSKeyFile} {
		if f == "" {
			continue
		}
		if _, err := os.Stat(f); err != nil {
			errs = append(errs, fmt.Errorf("server.http tls file: %w", err))
		}
	}
	if cfg.HTTP.RateLimit < 0 {
		errs = append(errs, errors.New("server.http.rate_limit must not be negative"))
	}
	if cfg.HTTP.RateLimit > 0 && cfg.HTTP.RateBurst < 1 {
		errs = append(errs, errors.New("server.http.rate_burst must be at least 1 when rate_limit is set"))
	}
	if cfg.HTTP.ReadTimeout < 0 {
		errs = append(errs, errors.New("server.http.read_timeout must not be negative"))
	}
	return errors.Join(errs...)
}

func verifyRelay(cfg *RelaySection) error {
	var errs []error
	if cfg.MaxRetries < 1 {
		errs = append(errs, errors.New("relay.max_retries must be at least 1"))
	}
	if cfg.RetryDelaySeconds < 0 {
		errs = append(errs, errors.New("relay.retry_delay_seconds must not be negative"))
	}
	if cfg.TimeoutSeconds < 1 {
		errs = append(errs, errors.New("relay.timeout_seconds must be at least 1"))
	}
	if cfg.CooldownSeconds < 0 {
		errs = append(errs, errors.New("relay.cooldown_seconds must not be negative"))
	}
	if cfg.MaxPayloadBytes < 1 {
		errs = append(errs, errors.New("relay.max_payload_bytes must be positive"))
	}
	if cfg.PreviewItems < 1 {
		errs = append(errs, errors.New("relay.preview_items must be at least 1"))
	}
	if cfg.MaxTextLength < 100 || cfg.MaxTextLength > maxTelegramText {
		errs = append(errs, fmt.Errorf("relay.max_text_length must be between 100 and %d", maxTelegramText))
	}
	return errors.Join(errs...)
}

func verifyDelivery(cfg *DeliverySection) error {
	var errs []error
	if cfg.Workers < 1 {
		errs = append(errs, errors.New("delivery.workers must be at least 1"))
	}
	if cfg.QueueSize < 1 {
		errs = append(errs, errors.New("delivery.queue_size must be at least 1"))
	}
	return errors.Join(errs...)
}

func verifyStorage(cfg *StorageSection) error {
	if cfg.ReportTTL < 0 {
		return errors.New("storage.report_ttl must not be negative")
	}
	if cfg.EncryptionKey != "" {
		if _, err := adaptive.ParseKey(cfg.EncryptionKey); err != nil {
			return fmt.Errorf("storage.encryption_key: %w", err)
		}
	}

	switch cfg.Backend {
	case BackendMemory:
		return nil
	case BackendBadger:
	default:
		return fmt.Errorf("storage.backend %q: want %q or %q", cfg.Backend, BackendMemory, BackendBadger)
	}

	if cfg.DataDir == "" {
		return errors.New("storage.data_dir is required for the badger backend")
	}

	// Check if data directory exists or can be created
	if err := os.MkdirAll(cfg.DataDir, 0750); err != nil {
		return errors.New("cannot create data directory: " + err.Error())
	}
	return nil
}

func verifyLog(cfg *LogSection) error {
	var errs []error
	switch strings.ToLower(cfg.Level) {
	case "debug", "info", "warn", "warning", "error":
	default:
		errs = append(errs, fmt.Errorf("log.level %q is not a valid level", cfg.Level))
	}
	switch strings.ToLower(cfg.Format) {
	case "json", "text":
	default:
		errs = append(errs, fmt.Errorf("log.format %q: want json or text", cfg.Format))
	}
	return errors.Join(errs...)
}
