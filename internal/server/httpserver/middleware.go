package httpserver

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/yndnr/tokrelay-go/internal/core/domain"
	"github.com/yndnr/tokrelay-go/internal/server/httpserver/handler"
	"github.com/yndnr/tokrelay-go/internal/telemetry/logger"
	"github.com/yndnr/tokrelay-go/pkg/cmap"
	"github.com/yndnr/tokrelay-go/pkg/token"
)

// Context keys for request-scoped values.
type contextKey string

const (
	// ContextKeyStartTime is the context key for request start time.
	ContextKeyStartTime contextKey = "start_time"
)

// Middleware wraps an http.Handler with additional functionality.
type Middleware func(http.Handler) http.Handler

// Chain chains multiple middlewares together. The first middleware is
// the outermost.
func Chain(h http.Handler, middlewares ...Middleware) http.Handler {
	for i := len(middlewares) - 1; i >= 0; i-- {
		h = middlewares[i](h)
	}
	return h
}

// RequestObserver records served requests, typically into Prometheus.
type RequestObserver interface {
	ObserveRequest(method, route string, status int, elapsed time.Duration)
}

// RequestID adds a unique request ID to each request.
func RequestID() Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			requestID := r.Header.Get("X-Request-ID")
			if requestID == "" || len(requestID) > 128 {
				if id, err := token.GenerateWithLength(16); err == nil {
					requestID = "req-" + id
				} else {
					requestID = "req-unknown"
				}
			}
			r.Header.Set("X-Request-ID", requestID)
			w.Header().Set("X-Request-ID", requestID)

			ctx := logger.WithRequestID(r.Context(), requestID)
			ctx = context.WithValue(ctx, ContextKeyStartTime, time.Now())

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// Recover recovers from panics and returns 500 error.
func Recover(log *slog.Logger) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if err := recover(); err != nil {
					if err == http.ErrAbortHandler {
						panic(err)
					}
					log.ErrorContext(r.Context(), "panic recovered",
						"error", err,
						"path", r.URL.Path,
					)
					writeError(w, http.StatusInternalServerError, domain.ErrInternalServer.Code, "internal server error")
				}
			}()

			next.ServeHTTP(w, r)
		})
	}
}

// Audit logs each request and records it under route.
// The request path is not logged for routes carrying a token, only route.
func Audit(log *slog.Logger, obs RequestObserver, route string) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			wrapped := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}
			start, ok := r.Context().Value(ContextKeyStartTime).(time.Time)
			if !ok {
				start = time.Now()
			}

			next.ServeHTTP(wrapped, r)

			duration := time.Since(start)
			if obs != nil {
				obs.ObserveRequest(r.Method, route, wrapped.statusCode, duration)
			}

			attrs := []any{
				"method", r.Method,
				"route", route,
				"status", wrapped.statusCode,
				"duration_ms", duration.Milliseconds(),
			}
			switch {
			case wrapped.statusCode >= 500:
				log.ErrorContext(r.Context(), "request completed with error", attrs...)
			case wrapped.statusCode >= 400:
				log.WarnContext(r.Context(), "request completed with client error", attrs...)
			default:
				log.InfoContext(r.Context(), "request completed", attrs...)
			}
		})
	}
}

// RateLimitConfig configures the per-client request limiter.
type RateLimitConfig struct {
	// Rate is the sustained requests per second per client. Zero disables.
	Rate  float64
	Burst int
	// TrustProxy reads the client address from forwarding headers.
	TrustProxy bool
	// IdleTTL drops limiters of clients idle this long.
	IdleTTL time.Duration
}

type clientLimiter struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// RateLimit applies a token bucket per client IP.
func RateLimit(cfg RateLimitConfig) Middleware {
	if cfg.Rate <= 0 {
		return func(next http.Handler) http.Handler { return next }
	}
	if cfg.Burst < 1 {
		cfg.Burst = 1
	}
	if cfg.IdleTTL <= 0 {
		cfg.IdleTTL = 10 * time.Minute
	}

	clients := cmap.New[string, *clientLimiter]()
	var lastSweep time.Time
	var sweepMu = make(chan struct{}, 1)

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ip := handler.ClientIP(r, cfg.TrustProxy)
			now := time.Now()

			cl := clients.Compute(ip, func(old *clientLimiter, exists bool) (*clientLimiter, bool) {
				if !exists {
					old = &clientLimiter{limiter: rate.NewLimiter(rate.Limit(cfg.Rate), cfg.Burst)}
				}
				old.lastSeen = now
				return old, true
			})

			// Opportunistic sweep; at most one goroutine at a time.
			select {
			case sweepMu <- struct{}{}:
				if now.Sub(lastSweep) > cfg.IdleTTL {
					lastSweep = now
					clients.DeleteIf(func(_ string, c *clientLimiter) bool {
						return now.Sub(c.lastSeen) > cfg.IdleTTL
					})
				}
				<-sweepMu
			default:
			}

			if !cl.limiter.AllowN(now, 1) {
				w.Header().Set("Retry-After", "1")
				writeError(w, http.StatusTooManyRequests, domain.ErrCooldown.Code, "too many requests")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// AdminAuth requires X-API-Key (or Authorization: Bearer) to equal apiKey.
// An empty apiKey disables the admin API.
func AdminAuth(apiKey string, log *slog.Logger) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if apiKey == "" {
				writeError(w, http.StatusUnauthorized, domain.ErrAPIKeyInvalid.Code, "admin api disabled")
				return
			}

			presented := extractAPIKey(r)
			if presented == "" {
				writeError(w, http.StatusUnauthorized, domain.ErrAPIKeyMissing.Code, domain.ErrAPIKeyMissing.Message)
				return
			}
			if !token.Equal(presented, apiKey) {
				log.WarnContext(r.Context(), "admin authentication failed",
					"client_ip", handler.ClientIP(r, false),
				)
				writeError(w, http.StatusUnauthorized, domain.ErrAPIKeyInvalid.Code, domain.ErrAPIKeyInvalid.Message)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// extractAPIKey reads the admin key from X-API-Key or a Bearer token.
func extractAPIKey(r *http.Request) string {
	if key := r.Header.Get("X-API-Key"); key != "" {
		return key
	}
	if auth := r.Header.Get("Authorization"); strings.HasPrefix(auth, "Bearer ") {
		return strings.TrimSpace(strings.TrimPrefix(auth, "Bearer "))
	}
	return ""
}

// responseWriter wraps http.ResponseWriter to capture status code.
type responseWriter struct {
	http.ResponseWriter
	statusCode  int
	wroteHeader bool
}

func (w *responseWriter) WriteHeader(code int) {
	if !w.wroteHeader {
		w.statusCode = code
		w.wroteHeader = true
	}
	w.ResponseWriter.WriteHeader(code)
}

func (w *responseWriter) Unwrap() http.ResponseWriter {
	return w.ResponseWriter
}

// writeError writes the error envelope used by every endpoint.
func writeError(w http.ResponseWriter, status int, code, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("X-Error-Code", code)
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{
		"status":  "error",
		"code":    code,
		"message": message,
	})
}
