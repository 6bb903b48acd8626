package service

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"
	"unicode/utf8"

	"github.com/yndnr/tokrelay-go/internal/core/domain"
)

// TokenRepository defines the storage interface for collection tokens.
type TokenRepository interface {
	// Create stores a new token. It returns domain.ErrTokenConflict when
	// the id is already taken.
	Create(ctx context.Context, tok *domain.Token) error

	// Get returns a copy of the token or domain.ErrTokenNotFound.
	Get(ctx context.Context, id string) (*domain.Token, error)

	// Update applies fn to the stored token atomically and returns the
	// updated copy. It returns domain.ErrTokenNotFound for unknown ids.
	Update(ctx context.Context, id string, fn func(tok *domain.Token) error) (*domain.Token, error)

	// ListByOwner returns every token issued to owner, revoked included.
	ListByOwner(ctx context.Context, ownerID int64) ([]*domain.Token, error)
}

// Token service limits.
const (
	// MaxCreateAttempts bounds id regeneration on collision.
	MaxCreateAttempts = 5

	// MaxLabelLength is the longest accepted label, in runes.
	MaxLabelLength = 128
)

// TokenServiceConfig holds configuration for TokenService.
type TokenServiceConfig struct {
	// IssueCooldown is the minimum interval between two tokens issued to
	// the same owner. Zero disables the check.
	IssueCooldown time.Duration
}

// CooldownError reports a call rejected by a CooldownLimiter.
// It matches domain.ErrCooldown under errors.Is.
type CooldownError struct {
	Wait time.Duration
}

func (e *CooldownError) Error() string {
	return fmt.Sprintf("%s: retry after %s", domain.ErrCooldown.Error(), e.Wait.Round(time.Millisecond))
}

func (e *CooldownError) Unwrap() error {
	return domain.ErrCooldown
}

// TokenService issues, validates and revokes collection tokens.
type TokenService struct {
	repo          TokenRepository
	limiter       *CooldownLimiter
	issueCooldown time.Duration

	newID func() (string, error)
	now   func() time.Time
}

// NewTokenService creates a TokenService. limiter may be nil, in which case
// issuance is not throttled.
func NewTokenService(repo TokenRepository, limiter *CooldownLimiter, cfg *TokenServiceConfig) *TokenService {
	if cfg == nil {
		cfg = &TokenServiceConfig{}
	}
	return &TokenService{
		repo:          repo,
		limiter:       limiter,
		issueCooldown: cfg.IssueCooldown,
		newID:         domain.NewTokenID,
		now:           time.Now,
	}
}

// ============================================================================
// Issuance
// ============================================================================

// Create issues a new active token for owner.
func (s *TokenService) Create(ctx context.Context, ownerID int64, label string) (*domain.Token, error) {
	// 1. Validate input
	if ownerID == 0 {
		return nil, domain.ErrMissingArgument.WithDetails("owner_id is required")
	}
	if utf8.RuneCountInString(label) > MaxLabelLength {
		return nil, domain.ErrInvalidArgument.WithDetails(
			fmt.Sprintf("label longer than %d characters", MaxLabelLength))
	}

	// 2. Owner cooldown
	if s.limiter != nil && s.issueCooldown > 0 {
		if ok, wait := s.limiter.Allowed(IssueCooldownKey(ownerID), s.issueCooldown); !ok {
			return nil, &CooldownError{Wait: wait}
		}
	}

	// 3. Generate and persist, regenerating on id collision
	for attempt := 1; attempt <= MaxCreateAttempts; attempt++ {
		id, err := s.newID()
		if err != nil {
			return nil, err
		}
		tok := &domain.Token{
			ID:        id,
			OwnerID:   ownerID,
			Label:     label,
			CreatedAt: s.now().UnixMilli(),
			Active:    true,
		}

		err = s.repo.Create(ctx, tok)
		switch {
		case err == nil:
			return tok.Clone(), nil
		case errors.Is(err, domain.ErrTokenConflict):
			continue
		default:
			return nil, storageError(err)
		}
	}

	return nil, domain.ErrTokenConflict.WithDetails(
		fmt.Sprintf("no free id after %d attempts", MaxCreateAttempts))
}

// ============================================================================
// Queries
// ============================================================================

// Validate reports whether id names an existing active token.
func (s *TokenService) Validate(ctx context.Context, id string) bool {
	_, err := s.Lookup(ctx, id)
	return err == nil
}

// Lookup returns the active token id names, or domain.ErrTokenInvalid.
// Storage failures are returned as domain.ErrStorageError.
func (s *TokenService) Lookup(ctx context.Context, id string) (*domain.Token, error) {
	if !domain.ValidateTokenFormat(id) {
		return nil, domain.ErrTokenInvalid
	}
	tok, err := s.repo.Get(ctx, id)
	if err != nil {
		if errors.Is(err, domain.ErrTokenNotFound) {
			return nil, domain.ErrTokenInvalid
		}
		return nil, storageError(err)
	}
	if !tok.Active {
		return nil, domain.ErrTokenInvalid
	}
	return tok, nil
}

// Get returns the token regardless of its state.
func (s *TokenService) Get(ctx context.Context, id string) (*domain.Token, error) {
	if !domain.ValidateTokenFormat(id) {
		return nil, domain.ErrTokenNotFound
	}
	tok, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, storageError(err)
	}
	return tok, nil
}

// ListByOwner returns the owner's tokens, newest first. Revoked tokens are
// included only when includeRevoked is set.
func (s *TokenService) ListByOwner(ctx context.Context, ownerID int64, includeRevoked bool) ([]*domain.Token, error) {
	if ownerID == 0 {
		return nil, domain.ErrMissingArgument.WithDetails("owner_id is required")
	}
	all, err := s.repo.ListByOwner(ctx, ownerID)
	if err != nil {
		return nil, storageError(err)
	}

	out := make([]*domain.Token, 0, len(all))
	for _, tok := range all {
		if tok.Active || includeRevoked {
			out = append(out, tok)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt != out[j].CreatedAt {
			return out[i].CreatedAt > out[j].CreatedAt
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

// ============================================================================
// Mutations
// ============================================================================

// Increment adds one to the token's usage count. Unknown ids are ignored.
func (s *TokenService) Increment(ctx context.Context, id string) error {
	_, err := s.repo.Update(ctx, id, func(tok *domain.Token) error {
		tok.UsageCount++
		return nil
	})
	if err != nil && !errors.Is(err, domain.ErrTokenNotFound) {
		return storageError(err)
	}
	return nil
}

// Revoke deactivates the token. Revoking a revoked token succeeds and keeps
// the original revocation time; changed is false in that case.
func (s *TokenService) Revoke(ctx context.Context, id string) (tok *domain.Token, changed bool, err error) {
	if !domain.ValidateTokenFormat(id) {
		return nil, false, domain.ErrTokenNotFound
	}
	now := s.now()
	tok, err = s.repo.Update(ctx, id, func(t *domain.Token) error {
		changed = t.Active
		t.Revoke(now)
		return nil
	})
	if err != nil {
		return nil, false, storageError(err)
	}
	return tok, changed, nil
}

// storageError passes domain errors through and wraps everything else.
func storageError(err error) error {
	var de *domain.DomainError
	if errors.As(err, &de) {
		return err
	}
	return domain.ErrStorageError.WithCause(err)
}
