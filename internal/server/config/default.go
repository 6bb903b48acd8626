package config

import "time"

// Default configuration values.
const (
	DefaultHTTPAddr        = "127.0.0.1:5080"
	DefaultHTTPRateLimit   = 20.0
	DefaultHTTPRateBurst   = 40
	DefaultHTTPReadTimeout = 30 * time.Second

	DefaultMaxRetries        = 3
	DefaultRetryDelaySeconds = 2
	DefaultTimeoutSeconds    = 30
	DefaultCooldownSeconds   = 10
	DefaultMaxPayloadBytes   = 10 * 1024 * 1024
	DefaultPreviewItems      = 5
	DefaultMaxTextLength     = 4000

	DefaultWorkers   = 4
	DefaultQueueSize = 256

	DefaultStorageBackend = BackendMemory
	DefaultDataDir        = "/var/lib/tokrelay-server/data"
	DefaultReportTTL      = 24 * time.Hour

	DefaultLogLevel  = "info"
	DefaultLogFormat = "json"
)

// Storage backends.
const (
	BackendMemory = "memory"
	BackendBadger = "badger"
)

// Default returns the default server configuration.
func Default() *ServerConfig {
	return &ServerConfig{
		Server: ServerSection{
			HTTP: HTTPConfig{
				Addr:        DefaultHTTPAddr,
				RateLimit:   DefaultHTTPRateLimit,
				RateBurst:   DefaultHTTPRateBurst,
				ReadTimeout: DefaultHTTPReadTimeout,
			},
		},
		Relay: RelaySection{
			MaxRetries:        DefaultMaxRetries,
			RetryDelaySeconds: DefaultRetryDelaySeconds,
			TimeoutSeconds:    DefaultTimeoutSeconds,
			CooldownSeconds:   DefaultCooldownSeconds,
			MaxPayloadBytes:   DefaultMaxPayloadBytes,
			PreviewItems:      DefaultPreviewItems,
			MaxTextLength:     DefaultMaxTextLength,
		},
		Delivery: DeliverySection{
			Workers:   DefaultWorkers,
			QueueSize: DefaultQueueSize,
		},
		Storage: StorageSection{
			Backend:   DefaultStorageBackend,
			DataDir:   DefaultDataDir,
			ReportTTL: DefaultReportTTL,
		},
		Log: LogSection{
			Level:  DefaultLogLevel,
			Format: DefaultLogFormat,
		},
	}
}
