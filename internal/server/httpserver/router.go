package httpserver

import (
	"log/slog"
	"net/http"

	"github.com/yndnr/tokrelay-go/internal/server/httpserver/handler"
)

// RouterConfig holds configuration for the HTTP router.
type RouterConfig struct {
	// Handler serves every API route.
	Handler *handler.Handler

	// Metrics serves GET /metrics. Nil leaves the route unregistered.
	Metrics http.Handler

	// Observer records per-route request metrics. May be nil.
	Observer RequestObserver

	// Logger for request logging.
	Logger *slog.Logger

	// AdminAPIKey guards /admin/v1. Empty disables the admin API.
	AdminAPIKey string

	// RateLimit throttles /collect per client.
	RateLimit RateLimitConfig
}

// NewRouter creates and configures the HTTP router with all routes and middleware.
func NewRouter(cfg *RouterConfig) http.Handler {
	log := cfg.Logger
	if log == nil {
		log = slog.Default()
	}
	h := cfg.Handler

	route := func(name string, extra ...Middleware) http.Handler {
		chain := []Middleware{RequestID(), Recover(log), Audit(log, cfg.Observer, name)}
		return Chain(h, append(chain, extra...)...)
	}

	mux := http.NewServeMux()

	// Health endpoints - no authentication required
	mux.Handle("GET /health", Chain(h, RequestID(), Recover(log)))
	mux.Handle("GET /ready", Chain(h, RequestID(), Recover(log)))

	if cfg.Metrics != nil {
		mux.Handle("GET /metrics", cfg.Metrics)
	}

	// Report submission - token in the path, throttled per client
	mux.Handle("POST /collect/{token}", route("/collect/{token}", RateLimit(cfg.RateLimit)))

	// Admin API
	admin := func(name string) http.Handler {
		return route(name, AdminAuth(cfg.AdminAPIKey, log))
	}
	mux.Handle("POST /admin/v1/tokens", admin("/admin/v1/tokens"))
	mux.Handle("GET /admin/v1/tokens", admin("/admin/v1/tokens"))
	mux.Handle("GET /admin/v1/tokens/{id}", admin("/admin/v1/tokens/{id}"))
	mux.Handle("POST /admin/v1/tokens/{id}/revoke", admin("/admin/v1/tokens/{id}/revoke"))

	return mux
}
