package domain

import (
	"strings"
	"time"

	"github.com/yndnr/tokrelay-go/pkg/token"
)

const (
	// TokenPrefix marks collection token ids.
	TokenPrefix = "trk_"

	// TokenBytesLength is the entropy of a token id in bytes.
	TokenBytesLength = 16
)

// TokenLength is the full length of a token id (prefix + 22 chars).
var TokenLength = len(TokenPrefix) + token.EncodedLength(TokenBytesLength)

// Token is an opaque capability that lets its holder submit reports which
// are then delivered to OwnerID.
type Token struct {
	ID         string `json:"id"`
	OwnerID    int64  `json:"owner_id"`
	Label      string `json:"label,omitempty"`
	CreatedAt  int64  `json:"created_at"` // Unix milliseconds
	RevokedAt  int64  `json:"revoked_at,omitempty"`
	UsageCount int64  `json:"usage_count"`
	Active     bool   `json:"active"`
}

// NewTokenID returns a fresh random token id.
func NewTokenID() (string, error) {
	id, err := token.GenerateWithPrefix(TokenPrefix, TokenBytesLength)
	if err != nil {
		return "", ErrInternalServer.WithCause(err)
	}
	return id, nil
}

// NewToken builds an active token for owner with a fresh id.
func NewToken(ownerID int64, label string) (*Token, error) {
	id, err := NewTokenID()
	if err != nil {
		return nil, err
	}
	return &Token{
		ID:        id,
		OwnerID:   ownerID,
		Label:     label,
		CreatedAt: time.Now().UnixMilli(),
		Active:    true,
	}, nil
}

// Clone returns a copy safe to hand out of a store.
func (t *Token) Clone() *Token {
	if t == nil {
		return nil
	}
	c := *t
	return &c
}

// Revoke deactivates the token. Revoking twice keeps the first RevokedAt.
func (t *Token) Revoke(now time.Time) {
	if !t.Active {
		return
	}
	t.Active = false
	t.RevokedAt = now.UnixMilli()
}

// ValidateTokenFormat reports whether id looks like a token id.
func ValidateTokenFormat(id string) bool {
	if len(id) != TokenLength || !strings.HasPrefix(id, TokenPrefix) {
		return false
	}
	for _, c := range id[len(TokenPrefix):] {
		switch {
		case c >= 'a' && c <= 'z', c >= 'A' && c <= 'Z', c >= '0' && c <= '9', c == '-', c == '_':
		default:
			return false
		}
	}
	return true
}

// MaskToken hides most of a token id for display and logs.
func MaskToken(id string) string {
	if !strings.HasPrefix(id, TokenPrefix) || len(id) <= len(TokenPrefix)+6 {
		return TokenPrefix + "***"
	}
	body := id[len(TokenPrefix):]
	return TokenPrefix + body[:3] + "..." + body[len(body)-3:]
}
