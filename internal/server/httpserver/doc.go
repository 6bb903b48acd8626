// Package httpserver provides the HTTP/HTTPS server for TokRelay.
//
// This package implements the external API using stdlib net/http:
//
//   - Report submission: POST /collect/{token}
//   - Token administration: /admin/v1/tokens (X-API-Key)
//   - Health endpoints: /health, /ready, /metrics
//
// Middleware: RequestID, Recover, Audit (slog + Prometheus), a per-client
// rate limiter on /collect and AdminAuth on /admin/v1.
package httpserver
