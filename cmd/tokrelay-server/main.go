package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/yndnr/tokrelay-go/internal/core/format"
	"github.com/yndnr/tokrelay-go/internal/core/service"
	"github.com/yndnr/tokrelay-go/internal/infra/buildinfo"
	"github.com/yndnr/tokrelay-go/internal/infra/confloader"
	"github.com/yndnr/tokrelay-go/internal/infra/shutdown"
	"github.com/yndnr/tokrelay-go/internal/server/config"
	"github.com/yndnr/tokrelay-go/internal/server/httpserver"
	"github.com/yndnr/tokrelay-go/internal/server/httpserver/handler"
	"github.com/yndnr/tokrelay-go/internal/storage"
	"github.com/yndnr/tokrelay-go/internal/storage/memory"
	"github.com/yndnr/tokrelay-go/internal/telemetry/logger"
	"github.com/yndnr/tokrelay-go/internal/telemetry/metric"
	"github.com/yndnr/tokrelay-go/internal/transport"
	"github.com/yndnr/tokrelay-go/pkg/crypto/adaptive"
)

const shutdownTimeout = 30 * time.Second

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	var (
		configFile  = flag.String("config", "", "Path to configuration file")
		showVersion = flag.Bool("version", false, "Show version information")
	)
	flag.Parse()

	info := buildinfo.Get()
	if *showVersion {
		fmt.Printf("tokrelay-server %s\n", buildinfo.String())
		return nil
	}

	cfg, err := loadConfig(*configFile)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	log, err := initLogger(cfg)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}

	log.Info("starting tokrelay-server",
		"version", info.Version,
		"commit", info.Commit,
		"config", *configFile)
	log.Debug("effective configuration", "config", config.Sanitize(cfg))

	metrics := metric.NewRegistry()

	stores, err := initStorage(cfg, log, metrics)
	if err != nil {
		return fmt.Errorf("init storage: %w", err)
	}

	sender, err := initSender(cfg, log)
	if err != nil {
		_ = stores.close()
		return fmt.Errorf("init telegram: %w", err)
	}

	client := transport.NewClient(sender, transport.Config{
		MaxRetries: cfg.Relay.MaxRetries,
		RetryDelay: cfg.Relay.RetryDelay(),
		Timeout:    cfg.Relay.Timeout(),
	},
		transport.WithLogger(log),
		transport.WithAttemptHook(metrics.Attempted))

	observer := service.MultiObserver{service.NewLogObserver(log), metrics}

	formatter := format.New(format.Options{
		PreviewItems: cfg.Relay.PreviewItems,
		MaxLength:    cfg.Relay.MaxTextLength,
	})
	dispatcher := service.NewDispatcher(client, formatter, stores.reports,
		service.DispatcherConfig{
			Workers:   cfg.Delivery.Workers,
			QueueSize: cfg.Delivery.QueueSize,
		},
		service.WithObserver(observer),
		service.WithDispatchLogger(log))
	metrics.WatchQueueDepth(dispatcher.QueueDepth)

	limiter := service.NewCooldownLimiter()
	tokens := service.NewTokenService(stores.tokens, limiter, &service.TokenServiceConfig{
		IssueCooldown: cfg.Relay.Cooldown(),
	})
	collect := service.NewCollectService(tokens, stores.reports, dispatcher, limiter, observer,
		service.CollectConfig{
			Cooldown:        cfg.Relay.Cooldown(),
			MaxPayloadBytes: cfg.Relay.MaxPayloadBytes,
		},
		service.WithCollectLogger(log))

	h := handler.New(handler.Config{
		Tokens:          tokens,
		Collect:         collect,
		Events:          metrics,
		Logger:          log,
		MaxPayloadBytes: cfg.Relay.MaxPayloadBytes,
		TrustProxy:      cfg.Server.HTTP.TrustProxy,
		Ready:           dispatcher.Ready,
		QueueDepth:      dispatcher.QueueDepth,
	})

	if cfg.Security.AdminAPIKey == "" {
		log.Warn("security.admin_api_key is empty, admin API disabled")
	}
	router := httpserver.NewRouter(&httpserver.RouterConfig{
		Handler:     h,
		Metrics:     metrics.Handler(),
		Observer:    metrics,
		Logger:      log,
		AdminAPIKey: cfg.Security.AdminAPIKey,
		RateLimit: httpserver.RateLimitConfig{
			Rate:       cfg.Server.HTTP.RateLimit,
			Burst:      cfg.Server.HTTP.RateBurst,
			TrustProxy: cfg.Server.HTTP.TrustProxy,
		},
	})

	httpServer := httpserver.New(httpserver.Config{
		Addr:        cfg.Server.HTTP.Addr,
		TLSCertFile: cfg.Server.HTTP.TLSCertFile,
		TLSKeyFile:  cfg.Server.HTTP.TLSKeyFile,
		ReadTimeout: cfg.Server.HTTP.ReadTimeout,
	}, router)

	ln, err := httpServer.Listen()
	if err != nil {
		_ = stores.close()
		return fmt.Errorf("listen %s: %w", cfg.Server.HTTP.Addr, err)
	}

	dispatcher.Start()

	// Hooks run in reverse order: stop accepting requests, drain the
	// delivery queue, then close storage.
	shutdownHandler := shutdown.NewHandler(shutdownTimeout, shutdown.WithLogger(log))
	shutdownHandler.OnShutdown("storage", func(context.Context) error {
		return stores.close()
	})
	shutdownHandler.OnShutdown("dispatcher", dispatcher.Close)
	shutdownHandler.OnShutdown("http", httpServer.Shutdown)

	if *configFile != "" {
		watcher, err := watchConfig(*configFile, log)
		if err != nil {
			log.Warn("config hot reload disabled", "error", err)
		} else {
			shutdownHandler.OnShutdown("config-watcher", func(context.Context) error {
				return watcher.Stop()
			})
		}
	}

	serveErr := make(chan error, 1)
	go func() {
		log.Info("HTTP server listening",
			"addr", ln.Addr().String(),
			"tls", httpServer.TLSEnabled())
		serveErr <- httpServer.Serve(ln)
	}()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() {
		if err := <-serveErr; err != nil {
			log.Error("HTTP server error", "error", err)
			cancel()
		}
	}()

	log.Info("server started, press Ctrl+C to stop")
	if err := shutdownHandler.Wait(ctx); err != nil {
		log.Error("shutdown error", "error", err)
		return err
	}

	log.Info("server stopped gracefully")
	return nil
}

// loadConfig loads configuration from file and environment on top of the
// defaults and verifies the result.
func loadConfig(configFile string) (*config.ServerConfig, error) {
	cfg := config.Default()

	var opts []confloader.Option
	if configFile != "" {
		opts = append(opts, confloader.WithConfigFile(configFile))
	}
	if err := confloader.NewLoader(opts...).Load(cfg); err != nil {
		return nil, err
	}

	if err := config.Verify(cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

func initLogger(cfg *config.ServerConfig) (*slog.Logger, error) {
	log, err := logger.New(logger.Config{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
		Output: os.Stdout,
	})
	if err != nil {
		return nil, err
	}
	logger.SetDefault(log)
	return log, nil
}

// repositories groups the repositories of the selected backend.
type repositories struct {
	tokens  service.TokenRepository
	reports service.ReportRepository
	close   func() error
}

func initStorage(cfg *config.ServerConfig, log *slog.Logger, metrics *metric.Registry) (*repositories, error) {
	switch cfg.Storage.Backend {
	case config.BackendBadger:
		engine, err := storage.NewBadgerEngine(storage.DefaultKVConfig(cfg.Storage.DataDir), log)
		if err != nil {
			return nil, err
		}
		engine.RegisterMetrics(metrics.Registerer())

		var opts []storage.ReportOption
		if cfg.Storage.EncryptionKey != "" {
			c, err := reportCipher(cfg.Storage.EncryptionKey)
			if err != nil {
				_ = engine.Close()
				return nil, err
			}
			opts = append(opts, storage.WithReportCipher(c))
			log.Info("report encryption enabled", "cipher", string(c.Type()))
		}

		log.Info("storage ready", "backend", "badger", "dir", cfg.Storage.DataDir)
		return &repositories{
			tokens:  storage.NewTokenRepository(engine),
			reports: storage.NewReportRepository(engine, cfg.Storage.ReportTTL, opts...),
			close:   engine.Close,
		}, nil
	default:
		log.Warn("storage backend is memory, tokens are lost on restart")
		if cfg.Storage.EncryptionKey != "" {
			log.Warn("storage.encryption_key is ignored by the memory backend")
		}
		return &repositories{
			tokens:  memory.NewTokenStore(),
			reports: memory.NewReportStore(),
			close:   func() error { return nil },
		}, nil
	}
}

func reportCipher(encoded string) (adaptive.Cipher, error) {
	key, err := adaptive.ParseKey(encoded)
	if err != nil {
		return nil, err
	}
	return adaptive.New(key)
}

// initSender returns the Telegram sender, or a log-only sender when no bot
// token is configured.
func initSender(cfg *config.ServerConfig, log *slog.Logger) (transport.Sender, error) {
	if cfg.Telegram.BotToken == "" {
		log.Warn("telegram.bot_token is empty, reports are logged instead of delivered")
		return transport.NewLogSender(log), nil
	}

	sender, err := transport.NewTelegramSender(transport.TelegramConfig{
		BotToken:    cfg.Telegram.BotToken,
		APIEndpoint: cfg.Telegram.APIEndpoint,
		Timeout:     cfg.Relay.Timeout(),
	})
	if err != nil {
		return nil, err
	}
	log.Info("telegram sender ready", "bot", sender.BotName())
	return sender, nil
}

// watchConfig reloads the log level when the config file changes. Other
// settings need a restart.
func watchConfig(path string, log *slog.Logger) (*confloader.Watcher, error) {
	watcher, err := confloader.NewWatcher(confloader.WithWatcherLogger(log))
	if err != nil {
		return nil, err
	}
	if err := watcher.Watch(path); err != nil {
		return nil, errors.Join(err, watcher.Stop())
	}

	watcher.OnChange(func(string) {
		cfg, err := loadConfig(path)
		if err != nil {
			log.Warn("config reload rejected", "error", err)
			return
		}
		if cfg.Log.Level != logger.GetLevel() {
			logger.SetLevel(cfg.Log.Level)
			log.Info("log level changed", "level", cfg.Log.Level)
		}
	})
	watcher.StartAsync()
	return watcher, nil
}
