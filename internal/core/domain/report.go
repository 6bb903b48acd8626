package domain

import (
	"crypto/rand"
	"fmt"
	"strings"
	"time"

	"github.com/oklog/ulid/v2"
)

// DefaultContentType is assumed for attachments without a MIME hint.
const DefaultContentType = "application/octet-stream"

// Attachment is a named binary blob delivered alongside a report summary.
type Attachment struct {
	Name        string `json:"name"`
	ContentType string `json:"content_type"`
	Data        []byte `json:"data"`
}

// Size returns the attachment length in bytes.
func (a Attachment) Size() int {
	return len(a.Data)
}

// IsImage reports whether the MIME hint names an image type.
func (a Attachment) IsImage() bool {
	return strings.HasPrefix(strings.ToLower(a.ContentType), "image/")
}

// Report is a structured payload submitted against a token.
// Reports are immutable after NewReport and live only until delivered.
type Report struct {
	ID          string         `json:"id"`
	TokenID     string         `json:"token_id"`
	OwnerID     int64          `json:"owner_id"`
	Fields      map[string]any `json:"fields"`
	Attachments []Attachment   `json:"attachments,omitempty"`
	ReceivedAt  int64          `json:"received_at"` // Unix milliseconds
}

// NewReport assigns a ULID to the payload and normalizes attachment metadata.
func NewReport(tok *Token, fields map[string]any, attachments []Attachment) (*Report, error) {
	if tok == nil {
		return nil, ErrTokenInvalid
	}
	id, err := ulid.New(ulid.Timestamp(time.Now()), ulid.Monotonic(rand.Reader, 0))
	if err != nil {
		return nil, ErrInternalServer.WithCause(err)
	}
	if fields == nil {
		fields = map[string]any{}
	}

	atts := make([]Attachment, len(attachments))
	for i, a := range attachments {
		if a.Name == "" {
			a.Name = fmt.Sprintf("attachment-%d", i+1)
		}
		if a.ContentType == "" {
			a.ContentType = DefaultContentType
		}
		atts[i] = a
	}

	return &Report{
		ID:          id.String(),
		TokenID:     tok.ID,
		OwnerID:     tok.OwnerID,
		Fields:      fields,
		Attachments: atts,
		ReceivedAt:  time.Now().UnixMilli(),
	}, nil
}

// AttachmentBytes returns the combined size of all attachments.
func (r *Report) AttachmentBytes() int {
	n := 0
	for _, a := range r.Attachments {
		n += a.Size()
	}
	return n
}

// DeliveryState tracks a report through the collection pipeline.
type DeliveryState string

const (
	StateReceived       DeliveryState = "RECEIVED"
	StateTokenValidated DeliveryState = "TOKEN_VALIDATED"
	StateStored         DeliveryState = "STORED"
	StateQueued         DeliveryState = "DELIVERY_QUEUED"
	StateDelivered      DeliveryState = "DELIVERED"
	StateFailed         DeliveryState = "DELIVERY_FAILED"
)

// Terminal reports whether no further transition can follow s.
func (s DeliveryState) Terminal() bool {
	return s == StateDelivered || s == StateFailed
}

var stateOrder = map[DeliveryState]int{
	StateReceived:       0,
	StateTokenValidated: 1,
	StateStored:         2,
	StateQueued:         3,
	StateDelivered:      4,
	StateFailed:         4,
}

// CanTransition reports whether from -> to is a legal single step.
func CanTransition(from, to DeliveryState) bool {
	f, ok1 := stateOrder[from]
	t, ok2 := stateOrder[to]
	if !ok1 || !ok2 || from.Terminal() {
		return false
	}
	return t == f+1
}
