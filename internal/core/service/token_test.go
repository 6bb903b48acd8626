package service

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/yndnr/tokrelay-go/internal/core/domain"
)

func TestTokenService_CreateValidateRevoke(t *testing.T) {
	svc := NewTokenService(newMockTokenRepo(), nil, nil)
	ctx := context.Background()

	tok, err := svc.Create(ctx, 42, "ci alerts")
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if !domain.ValidateTokenFormat(tok.ID) {
		t.Errorf("token id %q has wrong format", tok.ID)
	}
	if !tok.Active || tok.OwnerID != 42 || tok.Label != "ci alerts" {
		t.Errorf("unexpected token: %+v", tok)
	}

	if !svc.Validate(ctx, tok.ID) {
		t.Error("Validate should be true after Create")
	}

	revoked, changed, err := svc.Revoke(ctx, tok.ID)
	if err != nil {
		t.Fatalf("Revoke failed: %v", err)
	}
	if !changed {
		t.Error("first Revoke should report a change")
	}
	if revoked.Active || revoked.RevokedAt == 0 {
		t.Errorf("token not revoked: %+v", revoked)
	}
	if svc.Validate(ctx, tok.ID) {
		t.Error("Validate should be false after Revoke")
	}

	// Idempotent
	again, changed, err := svc.Revoke(ctx, tok.ID)
	if err != nil {
		t.Fatalf("second Revoke failed: %v", err)
	}
	if changed {
		t.Error("second Revoke should not report a change")
	}
	if again.RevokedAt != revoked.RevokedAt {
		t.Error("second Revoke should keep the first revocation time")
	}
}

func TestTokenService_RevokeUnknown(t *testing.T) {
	svc := NewTokenService(newMockTokenRepo(), nil, nil)
	id, _ := domain.NewTokenID()

	if _, _, err := svc.Revoke(context.Background(), id); !errors.Is(err, domain.ErrTokenNotFound) {
		t.Errorf("Revoke(unknown) error = %v, want ErrTokenNotFound", err)
	}
	if _, _, err := svc.Revoke(context.Background(), "garbage"); !errors.Is(err, domain.ErrTokenNotFound) {
		t.Errorf("Revoke(garbage) error = %v, want ErrTokenNotFound", err)
	}
}

func TestTokenService_ValidateUnknown(t *testing.T) {
	svc := NewTokenService(newMockTokenRepo(), nil, nil)
	id, _ := domain.NewTokenID()

	for _, candidate := range []string{"", "abc", id, strings.Repeat("x", 200)} {
		if svc.Validate(context.Background(), candidate) {
			t.Errorf("Validate(%q) = true", candidate)
		}
	}
}

func TestTokenService_CreateRetriesOnCollision(t *testing.T) {
	repo := newMockTokenRepo()
	svc := NewTokenService(repo, nil, nil)

	taken, _ := domain.NewTokenID()
	fresh, _ := domain.NewTokenID()
	repo.tokens[taken] = &domain.Token{ID: taken, OwnerID: 1, Active: true}

	calls := 0
	svc.newID = func() (string, error) {
		calls++
		if calls < 3 {
			return taken, nil
		}
		return fresh, nil
	}

	tok, err := svc.Create(context.Background(), 7, "")
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if tok.ID != fresh {
		t.Errorf("ID = %s, want %s", tok.ID, fresh)
	}
	if calls != 3 {
		t.Errorf("id generated %d times, want 3", calls)
	}
}

func TestTokenService_CreateGivesUpAfterMaxAttempts(t *testing.T) {
	repo := newMockTokenRepo()
	svc := NewTokenService(repo, nil, nil)

	taken, _ := domain.NewTokenID()
	repo.tokens[taken] = &domain.Token{ID: taken, OwnerID: 1, Active: true}

	calls := 0
	svc.newID = func() (string, error) {
		calls++
		return taken, nil
	}

	_, err := svc.Create(context.Background(), 7, "")
	if !errors.Is(err, domain.ErrTokenConflict) {
		t.Fatalf("error = %v, want ErrTokenConflict", err)
	}
	if calls != MaxCreateAttempts {
		t.Errorf("attempts = %d, want %d", calls, MaxCreateAttempts)
	}
}

func TestTokenService_CreateValidation(t *testing.T) {
	svc := NewTokenService(newMockTokenRepo(), nil, nil)
	ctx := context.Background()

	if _, err := svc.Create(ctx, 0, ""); !errors.Is(err, domain.ErrMissingArgument) {
		t.Errorf("owner 0: error = %v", err)
	}
	if _, err := svc.Create(ctx, 1, strings.Repeat("a", MaxLabelLength+1)); !errors.Is(err, domain.ErrInvalidArgument) {
		t.Errorf("long label: error = %v", err)
	}
}

func TestTokenService_CreateStorageError(t *testing.T) {
	repo := newMockTokenRepo()
	repo.err = errors.New("disk gone")
	svc := NewTokenService(repo, nil, nil)

	_, err := svc.Create(context.Background(), 1, "")
	if !errors.Is(err, domain.ErrStorageError) {
		t.Errorf("error = %v, want ErrStorageError", err)
	}
}

func TestTokenService_IssueCooldown(t *testing.T) {
	clock := newFakeClock()
	limiter := NewCooldownLimiter(WithClock(clock.Now))
	svc := NewTokenService(newMockTokenRepo(), limiter, &TokenServiceConfig{IssueCooldown: 10 * time.Second})
	ctx := context.Background()

	if _, err := svc.Create(ctx, 5, ""); err != nil {
		t.Fatalf("first Create failed: %v", err)
	}

	clock.Advance(3 * time.Second)
	_, err := svc.Create(ctx, 5, "")
	var cd *CooldownError
	if !errors.As(err, &cd) {
		t.Fatalf("error = %v, want CooldownError", err)
	}
	if cd.Wait != 7*time.Second {
		t.Errorf("Wait = %v, want 7s", cd.Wait)
	}
	if !errors.Is(err, domain.ErrCooldown) {
		t.Error("CooldownError should match domain.ErrCooldown")
	}

	// Other owners are unaffected.
	if _, err := svc.Create(ctx, 6, ""); err != nil {
		t.Errorf("other owner: %v", err)
	}

	clock.Advance(7 * time.Second)
	if _, err := svc.Create(ctx, 5, ""); err != nil {
		t.Errorf("after cooldown: %v", err)
	}
}

func TestTokenService_Increment(t *testing.T) {
	repo := newMockTokenRepo()
	svc := NewTokenService(repo, nil, nil)
	ctx := context.Background()

	tok, _ := svc.Create(ctx, 1, "")
	for i := 0; i < 3; i++ {
		if err := svc.Increment(ctx, tok.ID); err != nil {
			t.Fatalf("Increment failed: %v", err)
		}
	}
	got, _ := svc.Get(ctx, tok.ID)
	if got.UsageCount != 3 {
		t.Errorf("UsageCount = %d, want 3", got.UsageCount)
	}

	missing, _ := domain.NewTokenID()
	if err := svc.Increment(ctx, missing); err != nil {
		t.Errorf("Increment(missing) = %v, want nil", err)
	}
}

func TestTokenService_ListByOwner(t *testing.T) {
	repo := newMockTokenRepo()
	svc := NewTokenService(repo, nil, nil)
	ctx := context.Background()

	var now int64 = 1000
	svc.now = func() time.Time {
		now += 1000
		return time.UnixMilli(now)
	}

	a, _ := svc.Create(ctx, 1, "a")
	b, _ := svc.Create(ctx, 1, "b")
	c, _ := svc.Create(ctx, 1, "c")
	svc.Create(ctx, 2, "other")
	svc.Revoke(ctx, b.ID)

	active, err := svc.ListByOwner(ctx, 1, false)
	if err != nil {
		t.Fatalf("ListByOwner failed: %v", err)
	}
	if len(active) != 2 || active[0].ID != c.ID || active[1].ID != a.ID {
		t.Errorf("active list order wrong: %v", ids(active))
	}

	all, _ := svc.ListByOwner(ctx, 1, true)
	if len(all) != 3 {
		t.Errorf("len(all) = %d, want 3", len(all))
	}

	if _, err := svc.ListByOwner(ctx, 0, false); !errors.Is(err, domain.ErrMissingArgument) {
		t.Errorf("owner 0: error = %v", err)
	}
}

func ids(toks []*domain.Token) []string {
	out := make([]string, len(toks))
	for i, t := range toks {
		out[i] = t.Label
	}
	return out
}
