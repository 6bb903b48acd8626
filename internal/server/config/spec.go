package config

import "time"

// ServerConfig is the root configuration for tokrelay-server.
type ServerConfig struct {
	Server   ServerSection   `koanf:"server"`
	Relay    RelaySection    `koanf:"relay"`
	Delivery DeliverySection `koanf:"delivery"`
	Telegram TelegramSection `koanf:"telegram"`
	Storage  StorageSection  `koanf:"storage"`
	Security SecuritySection `koanf:"security"`
	Log      LogSection      `koanf:"log"`
}

// ServerSection configures server endpoints.
type ServerSection struct {
	HTTP HTTPConfig `koanf:"http"`
}

// HTTPConfig configures the HTTP server.
type HTTPConfig struct {
	Addr        string `koanf:"addr"`
	TLSCertFile string `koanf:"tls_cert_file"`
	TLSKeyFile  string `koanf:"tls_key_file"`

	// RateLimit is the sustained per-client request rate (requests/second).
	// Zero disables the limiter.
	RateLimit float64 `koanf:"rate_limit"`
	RateBurst int     `koanf:"rate_burst"`

	ReadTimeout time.Duration `koanf:"read_timeout"`

	// TrustProxy takes the client address from X-Forwarded-For/X-Real-IP.
	// Enable only behind a reverse proxy that sets these headers.
	TrustProxy bool `koanf:"trust_proxy"`
}

// RelaySection holds the delivery behavior of the relay.
type RelaySection struct {
	// MaxRetries is the total number of attempts per outbound message.
	MaxRetries        int `koanf:"max_retries"`
	RetryDelaySeconds int `koanf:"retry_delay_seconds"`
	TimeoutSeconds    int `koanf:"timeout_seconds"`

	// CooldownSeconds is the minimum interval between accepted submissions
	// from the same (token, client) pair.
	CooldownSeconds int   `koanf:"cooldown_seconds"`
	MaxPayloadBytes int64 `koanf:"max_payload_bytes"`

	PreviewItems  int `koanf:"preview_items"`
	MaxTextLength int `koanf:"max_text_length"`
}

// RetryDelay returns RetryDelaySeconds as a duration.
func (r RelaySection) RetryDelay() time.Duration {
	return time.Duration(r.RetryDelaySeconds) * time.Second
}

// Timeout returns TimeoutSeconds as a duration.
func (r RelaySection) Timeout() time.Duration {
	return time.Duration(r.TimeoutSeconds) * time.Second
}

// Cooldown returns CooldownSeconds as a duration.
func (r RelaySection) Cooldown() time.Duration {
	return time.Duration(r.CooldownSeconds) * time.Second
}

// DeliverySection sizes the delivery worker pool.
type DeliverySection struct {
	Workers   int `koanf:"workers"`
	QueueSize int `koanf:"queue_size"`
}

// TelegramSection configures the Telegram Bot API sender.
//
// An empty BotToken runs the relay in dry-run mode: messages are logged
// instead of sent.
type TelegramSection struct {
	BotToken    string `koanf:"bot_token"`
	APIEndpoint string `koanf:"api_endpoint"`
}

// StorageSection configures storage behavior.
type StorageSection struct {
	// Backend is "memory" or "badger".
	Backend   string        `koanf:"backend"`
	DataDir   string        `koanf:"data_dir"`
	ReportTTL time.Duration `koanf:"report_ttl"`

	// EncryptionKey seals pending reports on disk (badger backend). It is
	// 32 bytes written as hex or base64. Empty stores them unencrypted.
	EncryptionKey string `koanf:"encryption_key"`
}

// SecuritySection configures security settings.
type SecuritySection struct {
	// AdminAPIKey guards /admin/v1. Empty disables the admin API.
	AdminAPIKey string `koanf:"admin_api_key"`
}

// LogSection configures logging.
type LogSection struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"`
}
