// Package handler provides HTTP request handlers for TokRelay.
//
// This package contains handlers for all HTTP endpoints:
//
//   - collect.go: report submission (POST /collect/{token})
//   - token.go: token administration (/admin/v1/tokens)
//   - health.go: health and readiness checks
//
// All handlers follow a consistent pattern:
//
//   - Parse and validate request
//   - Call domain service
//   - Format and return response
//   - Handle errors with appropriate HTTP status codes
package handler
