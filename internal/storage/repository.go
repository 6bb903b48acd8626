package storage

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/yndnr/tokrelay-go/internal/core/domain"
	"github.com/yndnr/tokrelay-go/pkg/crypto/adaptive"
)

// Key prefixes.
const (
	tokenPrefix  = "token/"
	ownerPrefix  = "owner/"
	reportPrefix = "report/"
)

// DefaultReportTTL bounds how long an undelivered report stays on disk.
const DefaultReportTTL = 24 * time.Hour

func tokenKey(id string) []byte {
	return []byte(tokenPrefix + id)
}

func ownerKeyPrefix(owner int64) []byte {
	return []byte(ownerPrefix + strconv.FormatInt(owner, 10) + "/")
}

func ownerKey(owner int64, id string) []byte {
	return append(ownerKeyPrefix(owner), id...)
}

func reportKey(id string) []byte {
	return []byte(reportPrefix + id)
}

// TokenRepository stores tokens in a KVEngine.
// It implements service.TokenRepository.
type TokenRepository struct {
	kv KVEngine
}

// NewTokenRepository creates a TokenRepository on kv.
func NewTokenRepository(kv KVEngine) *TokenRepository {
	return &TokenRepository{kv: kv}
}

// Create stores tok and its owner index entry in one transaction.
func (r *TokenRepository) Create(ctx context.Context, tok *domain.Token) error {
	data, err := marshal(tok)
	if err != nil {
		return err
	}

	return r.kv.Update(ctx, func(txn KVTxn) error {
		_, err := txn.Get(tokenKey(tok.ID))
		switch {
		case err == nil:
			return domain.ErrTokenConflict
		case !errors.Is(err, ErrKeyNotFound):
			return err
		}
		if err := txn.Set(tokenKey(tok.ID), data, 0); err != nil {
			return err
		}
		return txn.Set(ownerKey(tok.OwnerID, tok.ID), nil, 0)
	})
}

// Get loads a token.
func (r *TokenRepository) Get(ctx context.Context, id string) (*domain.Token, error) {
	data, err := r.kv.Get(ctx, tokenKey(id))
	if err != nil {
		if errors.Is(err, ErrKeyNotFound) {
			return nil, domain.ErrTokenNotFound
		}
		return nil, err
	}
	return decodeToken(data)
}

// Update applies fn to the stored token inside a transaction.
func (r *TokenRepository) Update(ctx context.Context, id string, fn func(*domain.Token) error) (*domain.Token, error) {
	var updated *domain.Token

	err := r.kv.Update(ctx, func(txn KVTxn) error {
		data, err := txn.Get(tokenKey(id))
		if err != nil {
			if errors.Is(err, ErrKeyNotFound) {
				return domain.ErrTokenNotFound
			}
			return err
		}
		tok, err := decodeToken(data)
		if err != nil {
			return err
		}
		if err := fn(tok); err != nil {
			return err
		}
		if data, err = marshal(tok); err != nil {
			return err
		}
		updated = tok
		return txn.Set(tokenKey(id), data, 0)
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// ListByOwner loads every token in the owner index.
func (r *TokenRepository) ListByOwner(ctx context.Context, ownerID int64) ([]*domain.Token, error) {
	prefix := ownerKeyPrefix(ownerID)
	var ids []string
	err := r.kv.Scan(ctx, prefix, func(key, _ []byte) bool {
		ids = append(ids, string(key[len(prefix):]))
		return true
	})
	if err != nil {
		return nil, err
	}

	out := make([]*domain.Token, 0, len(ids))
	for _, id := range ids {
		tok, err := r.Get(ctx, id)
		if errors.Is(err, domain.ErrTokenNotFound) {
			continue
		}
		if err != nil {
			return nil, err
		}
		out = append(out, tok)
	}
	return out, nil
}

func decodeToken(data []byte) (*domain.Token, error) {
	var tok domain.Token
	if err := unmarshal(data, &tok); err != nil {
		return nil, err
	}
	return &tok, nil
}

// ReportRepository stores pending reports in a KVEngine with a TTL.
// It implements service.ReportRepository.
type ReportRepository struct {
	kv     KVEngine
	ttl    time.Duration
	cipher adaptive.Cipher
}

// ReportOption configures a ReportRepository.
type ReportOption func(*ReportRepository)

// WithReportCipher seals every stored report with c. The report ID is
// bound as additional data.
func WithReportCipher(c adaptive.Cipher) ReportOption {
	return func(r *ReportRepository) { r.cipher = c }
}

// NewReportRepository creates a ReportRepository. A non-positive ttl uses
// DefaultReportTTL.
func NewReportRepository(kv KVEngine, ttl time.Duration, opts ...ReportOption) *ReportRepository {
	if ttl <= 0 {
		ttl = DefaultReportTTL
	}
	r := &ReportRepository{kv: kv, ttl: ttl}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Save stores the report until it is deleted or its TTL expires.
func (r *ReportRepository) Save(ctx context.Context, rep *domain.Report) error {
	data, err := marshal(rep)
	if err != nil {
		return err
	}
	if r.cipher != nil {
		if data, err = r.cipher.Seal(data, []byte(rep.ID)); err != nil {
			return err
		}
	}
	return r.kv.Set(ctx, reportKey(rep.ID), data, r.ttl)
}

// Get loads a report.
func (r *ReportRepository) Get(ctx context.Context, id string) (*domain.Report, error) {
	data, err := r.kv.Get(ctx, reportKey(id))
	if err != nil {
		if errors.Is(err, ErrKeyNotFound) {
			return nil, domain.ErrReportNotFound
		}
		return nil, err
	}
	if r.cipher != nil {
		if data, err = r.cipher.Open(data, []byte(id)); err != nil {
			return nil, fmt.Errorf("open report %s: %w", id, err)
		}
	}
	var rep domain.Report
	if err := unmarshal(data, &rep); err != nil {
		return nil, err
	}
	return &rep, nil
}

// Delete removes a report.
func (r *ReportRepository) Delete(ctx context.Context, id string) error {
	return r.kv.Delete(ctx, reportKey(id))
}
