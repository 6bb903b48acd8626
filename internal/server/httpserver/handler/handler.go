package handler

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/yndnr/tokrelay-go/internal/core/domain"
	"github.com/yndnr/tokrelay-go/internal/core/service"
	"github.com/yndnr/tokrelay-go/internal/telemetry/logger"
)

// TokenEvents is notified of admin token operations.
type TokenEvents interface {
	TokenIssued()
	TokenRevoked()
}

type nopTokenEvents struct{}

func (nopTokenEvents) TokenIssued()  {}
func (nopTokenEvents) TokenRevoked() {}

// Config wires a Handler to its services.
type Config struct {
	Tokens  *service.TokenService
	Collect *service.CollectService

	// Events may be nil.
	Events TokenEvents
	Logger *slog.Logger

	// MaxPayloadBytes bounds the request body of /collect. Zero means no limit.
	MaxPayloadBytes int64
	// TrustProxy reads the client address from forwarding headers.
	TrustProxy bool

	// Ready reports whether the server can accept reports. May be nil.
	Ready func(ctx context.Context) error
	// QueueDepth reports the delivery backlog. May be nil.
	QueueDepth func() int
}

// Handler is the main HTTP handler that routes requests to appropriate handlers.
type Handler struct {
	tokens  *service.TokenService
	collect *service.CollectService
	events  TokenEvents
	logger  *slog.Logger

	maxPayload int64
	trustProxy bool
	ready      func(ctx context.Context) error
	queueDepth func() int

	mux *http.ServeMux
}

// New creates a new Handler.
func New(cfg Config) *Handler {
	h := &Handler{
		tokens:     cfg.Tokens,
		collect:    cfg.Collect,
		events:     cfg.Events,
		logger:     cfg.Logger,
		maxPayload: cfg.MaxPayloadBytes,
		trustProxy: cfg.TrustProxy,
		ready:      cfg.Ready,
		queueDepth: cfg.QueueDepth,
		mux:        http.NewServeMux(),
	}
	if h.events == nil {
		h.events = nopTokenEvents{}
	}
	if h.logger == nil {
		h.logger = slog.Default()
	}

	h.registerRoutes()
	return h
}

// ServeHTTP implements http.Handler.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.mux.ServeHTTP(w, r)
}

func (h *Handler) registerRoutes() {
	h.mux.HandleFunc("GET /health", h.handleHealth)
	h.mux.HandleFunc("GET /ready", h.handleReady)

	h.mux.HandleFunc("POST /collect/{token}", h.handleCollect)

	h.mux.HandleFunc("POST /admin/v1/tokens", h.handleCreateToken)
	h.mux.HandleFunc("GET /admin/v1/tokens", h.handleListTokens)
	h.mux.HandleFunc("GET /admin/v1/tokens/{id}", h.handleGetToken)
	h.mux.HandleFunc("POST /admin/v1/tokens/{id}/revoke", h.handleRevokeToken)
}

// writeJSON writes v as the response body.
func (h *Handler) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		h.logger.Error("failed to encode response", "error", err)
	}
}

// writeData writes a success envelope.
func (h *Handler) writeData(w http.ResponseWriter, r *http.Request, status int, data any) {
	h.writeJSON(w, status, &Response{
		Status:    StatusSuccess,
		RequestID: getRequestID(r),
		Data:      data,
	})
}

// writeError writes an error envelope.
func (h *Handler) writeError(w http.ResponseWriter, r *http.Request, status int, code, message string) {
	w.Header().Set("X-Error-Code", code)
	h.writeJSON(w, status, &Response{
		Status:    StatusError,
		Code:      code,
		Message:   message,
		RequestID: getRequestID(r),
	})
}

// handleServiceError converts service errors to HTTP responses.
func (h *Handler) handleServiceError(w http.ResponseWriter, r *http.Request, err error) {
	var cooldown *service.CooldownError
	if errors.As(err, &cooldown) {
		w.Header().Set("Retry-After", strconv.Itoa(service.RetryAfterSeconds(cooldown.Wait)))
	}

	var de *domain.DomainError
	if errors.As(err, &de) {
		status := errorCodeToHTTPStatus(de.Code)
		if status >= 500 {
			h.logger.ErrorContext(r.Context(), "request failed",
				"code", de.Code,
				"error", err,
			)
		}
		h.writeError(w, r, status, de.Code, de.Message)
		return
	}

	h.logger.ErrorContext(r.Context(), "internal error", "error", err)
	h.writeError(w, r, http.StatusInternalServerError, domain.ErrInternalServer.Code, domain.ErrInternalServer.Message)
}

// getRequestID returns the id assigned by the RequestID middleware.
func getRequestID(r *http.Request) string {
	if id := logger.RequestIDFromContext(r.Context()); id != "" {
		return id
	}
	return r.Header.Get("X-Request-ID")
}

// errorCodeToHTTPStatus maps error codes to HTTP status codes.
func errorCodeToHTTPStatus(code string) int {
	switch {
	case strings.HasSuffix(code, "-4040"), strings.HasSuffix(code, "-4041"):
		return http.StatusNotFound
	case strings.HasSuffix(code, "-4090"):
		return http.StatusConflict
	case strings.HasSuffix(code, "-4130"):
		return http.StatusRequestEntityTooLarge
	case strings.HasSuffix(code, "-4290"):
		return http.StatusTooManyRequests
	case strings.HasSuffix(code, "-4000"):
		return http.StatusBadRequest
	case strings.HasSuffix(code, "-4010"), strings.HasSuffix(code, "-4011"):
		return http.StatusUnauthorized
	case strings.HasSuffix(code, "-5030"):
		return http.StatusServiceUnavailable
	case strings.HasPrefix(code, "TR-ARG-"):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}
