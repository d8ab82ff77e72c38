package store

import (
	"context"

	"github.com/perical/identity-postgres/entity"
)

// Claim is a (type, value) pair as seen by callers; the owning account id is
// managed by the store.
type Claim struct {
	Type  string
	Value string
}

// loadClaims materializes the claim buffer from the table on first touch.
func (s *AccountStore[K]) loadClaims(ctx context.Context, ch *entity.Changes[K], accountID K) error {
	if ch.ClaimsLoaded {
		return nil
	}
	rows, err := s.claims.ForAccount(ctx, accountID)
	if err != nil {
		return err
	}
	ch.Claims = rows
	ch.ClaimsLoaded = true
	return nil
}

// GetClaims returns the account's claims, reflecting any mutations buffered
// since the handle was loaded.
func (s *AccountStore[K]) GetClaims(ctx context.Context, a *entity.Account[K]) ([]Claim, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if a == nil {
		return nil, ErrNilAccount
	}
	ch := a.Pending()
	if err := s.loadClaims(ctx, ch, a.ID); err != nil {
		return nil, err
	}
	out := make([]Claim, 0, len(ch.Claims))
	for _, c := range ch.Claims {
		out = append(out, Claim{Type: c.ClaimType, Value: c.ClaimValue})
	}
	return out, nil
}

// AddClaims buffers new claims for the account; they persist on the next
// Update.
func (s *AccountStore[K]) AddClaims(ctx context.Context, a *entity.Account[K], claims ...Claim) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if a == nil {
		return ErrNilAccount
	}
	ch := a.Pending()
	if err := s.loadClaims(ctx, ch, a.ID); err != nil {
		return err
	}
	for _, c := range claims {
		ch.Claims = append(ch.Claims, entity.AccountClaim[K]{
			AccountID:  a.ID,
			ClaimType:  c.Type,
			ClaimValue: c.Value,
		})
	}
	return nil
}

// ReplaceClaim rewrites every buffered claim matching the exact (type, value)
// pair of old with the fields of new. When nothing matches it is a silent
// no-op.
func (s *AccountStore[K]) ReplaceClaim(ctx context.Context, a *entity.Account[K], old, new Claim) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if a == nil {
		return ErrNilAccount
	}
	ch := a.Pending()
	if err := s.loadClaims(ctx, ch, a.ID); err != nil {
		return err
	}
	for i := range ch.Claims {
		if ch.Claims[i].ClaimType == old.Type && ch.Claims[i].ClaimValue == old.Value {
			ch.Claims[i].ClaimType = new.Type
			ch.Claims[i].ClaimValue = new.Value
		}
	}
	return nil
}

// RemoveClaims drops every buffered claim matching one of the given pairs.
func (s *AccountStore[K]) RemoveClaims(ctx context.Context, a *entity.Account[K], claims ...Claim) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if a == nil {
		return ErrNilAccount
	}
	ch := a.Pending()
	if err := s.loadClaims(ctx, ch, a.ID); err != nil {
		return err
	}
	for _, c := range claims {
		kept := ch.Claims[:0]
		for _, existing := range ch.Claims {
			if existing.ClaimType == c.Type && existing.ClaimValue == c.Value {
				continue
			}
			kept = append(kept, existing)
		}
		ch.Claims = kept
	}
	return nil
}

// AccountsForClaim returns every account holding the claim. Direct query, no
// buffering.
func (s *AccountStore[K]) AccountsForClaim(ctx context.Context, claim Claim) ([]entity.Account[K], error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return s.claims.AccountsForClaim(ctx, claim.Type, claim.Value)
}
