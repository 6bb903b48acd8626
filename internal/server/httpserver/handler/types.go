package handler

import (
	"github.com/yndnr/tokrelay-go/internal/core/domain"
)

// Response statuses.
const (
	StatusSuccess = "success"
	StatusError   = "error"
)

// Response is the JSON envelope of every admin and health endpoint.
type Response struct {
	Status    string `json:"status"`
	Code      string `json:"code,omitempty"`
	Message   string `json:"message,omitempty"`
	RequestID string `json:"request_id,omitempty"`
	Data      any    `json:"data,omitempty"`
}

// CollectResponse is returned by POST /collect/{token} once the report is
// queued for delivery.
type CollectResponse struct {
	Status    string `json:"status"`
	ReportID  string `json:"report_id"`
	RequestID string `json:"request_id,omitempty"`
}

// attachmentPayload is one entry of the reserved "attachments" JSON key.
// Data is base64 in JSON.
type attachmentPayload struct {
	Name        string `json:"name"`
	ContentType string `json:"content_type"`
	Data        []byte `json:"data"`
}

// CreateTokenRequest is the request body for POST /admin/v1/tokens.
type CreateTokenRequest struct {
	OwnerID int64  `json:"owner_id"`
	Label   string `json:"label,omitempty"`
}

// TokenResponse describes a token to administrators.
type TokenResponse struct {
	ID         string `json:"id"`
	OwnerID    int64  `json:"owner_id"`
	Label      string `json:"label,omitempty"`
	Active     bool   `json:"active"`
	UsageCount int64  `json:"usage_count"`
	CreatedAt  int64  `json:"created_at"`
	RevokedAt  int64  `json:"revoked_at,omitempty"`
}

// ListTokensResponse is the response body for GET /admin/v1/tokens.
type ListTokensResponse struct {
	Tokens []TokenResponse `json:"tokens"`
	Total  int             `json:"total"`
}

// HealthResponse is the payload of /health and /ready.
type HealthResponse struct {
	Status     string `json:"status"`
	Version    string `json:"version,omitempty"`
	QueueDepth int    `json:"queue_depth"`
	Time       string `json:"time"`
	Error      string `json:"error,omitempty"`
}

func toTokenResponse(t *domain.Token) TokenResponse {
	return TokenResponse{
		ID:         t.ID,
		OwnerID:    t.OwnerID,
		Label:      t.Label,
		Active:     t.Active,
		UsageCount: t.UsageCount,
		CreatedAt:  t.CreatedAt,
		RevokedAt:  t.RevokedAt,
	}
}
