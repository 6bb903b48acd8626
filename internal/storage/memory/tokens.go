package memory

import (
	"context"

	"github.com/yndnr/tokrelay-go/internal/core/domain"
	"github.com/yndnr/tokrelay-go/pkg/cmap"
)

// TokenStore is an in-memory service.TokenRepository.
type TokenStore struct {
	tokens *cmap.Map[string, *domain.Token]
	owners *OwnerIndex
}

// NewTokenStore creates an empty store.
func NewTokenStore() *TokenStore {
	return &TokenStore{
		tokens: cmap.New[string, *domain.Token](),
		owners: NewOwnerIndex(),
	}
}

// Create stores tok unless its id is taken.
func (s *TokenStore) Create(_ context.Context, tok *domain.Token) error {
	if !s.tokens.SetIfAbsent(tok.ID, tok.Clone()) {
		return domain.ErrTokenConflict
	}
	s.owners.Add(tok.OwnerID, tok.ID)
	return nil
}

// Get returns a copy of the token.
func (s *TokenStore) Get(_ context.Context, id string) (*domain.Token, error) {
	tok, ok := s.tokens.Get(id)
	if !ok {
		return nil, domain.ErrTokenNotFound
	}
	return tok.Clone(), nil
}

// Update applies fn under the token's shard lock.
func (s *TokenStore) Update(_ context.Context, id string, fn func(*domain.Token) error) (*domain.Token, error) {
	var (
		updated *domain.Token
		err     error
	)
	s.tokens.Compute(id, func(old *domain.Token, exists bool) (*domain.Token, bool) {
		if !exists {
			err = domain.ErrTokenNotFound
			return nil, false
		}
		next := old.Clone()
		if err = fn(next); err != nil {
			return old, true
		}
		updated = next.Clone()
		return next, true
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// ListByOwner returns copies of every token issued to owner.
func (s *TokenStore) ListByOwner(_ context.Context, ownerID int64) ([]*domain.Token, error) {
	ids := s.owners.Get(ownerID)
	out := make([]*domain.Token, 0, len(ids))
	for _, id := range ids {
		if tok, ok := s.tokens.Get(id); ok {
			out = append(out, tok.Clone())
		}
	}
	return out, nil
}

// Len returns the number of stored tokens.
func (s *TokenStore) Len() int {
	return s.tokens.Len()
}
