package store

import (
	"context"

	"github.com/perical/identity-postgres/entity"
)

// Login identifies an external authentication source link.
type Login struct {
	Provider    string
	Key         string
	DisplayName string
}

func (s *AccountStore[K]) loadLogins(ctx context.Context, ch *entity.Changes[K], accountID K) error {
	if ch.LoginsLoaded {
		return nil
	}
	rows, err := s.logins.ForAccount(ctx, accountID)
	if err != nil {
		return err
	}
	ch.Logins = rows
	ch.LoginsLoaded = true
	return nil
}

// AddLogin buffers a new external login; it persists on the next Update.
func (s *AccountStore[K]) AddLogin(ctx context.Context, a *entity.Account[K], login Login) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if a == nil {
		return ErrNilAccount
	}
	ch := a.Pending()
	if err := s.loadLogins(ctx, ch, a.ID); err != nil {
		return err
	}
	ch.Logins = append(ch.Logins, entity.ExternalLogin[K]{
		LoginProvider:       login.Provider,
		ProviderKey:         login.Key,
		ProviderDisplayName: login.DisplayName,
		AccountID:           a.ID,
	})
	return nil
}

// RemoveLogin drops the buffered login matching (provider, key). Removing a
// login that does not exist is a no-op, not a failure.
func (s *AccountStore[K]) RemoveLogin(ctx context.Context, a *entity.Account[K], loginProvider, providerKey string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if a == nil {
		return ErrNilAccount
	}
	ch := a.Pending()
	if err := s.loadLogins(ctx, ch, a.ID); err != nil {
		return err
	}
	kept := ch.Logins[:0]
	for _, l := range ch.Logins {
		if l.LoginProvider == loginProvider && l.ProviderKey == providerKey {
			continue
		}
		kept = append(kept, l)
	}
	ch.Logins = kept
	return nil
}

// GetLogins returns the account's external logins including buffered ones.
func (s *AccountStore[K]) GetLogins(ctx context.Context, a *entity.Account[K]) ([]Login, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if a == nil {
		return nil, ErrNilAccount
	}
	ch := a.Pending()
	if err := s.loadLogins(ctx, ch, a.ID); err != nil {
		return nil, err
	}
	out := make([]Login, 0, len(ch.Logins))
	for _, l := range ch.Logins {
		out = append(out, Login{Provider: l.LoginProvider, Key: l.ProviderKey, DisplayName: l.ProviderDisplayName})
	}
	return out, nil
}

// FindByLogin resolves the owner of a (provider, key) pair and loads it.
// Two-step lookup with no buffering: there is no owning-entity context yet.
func (s *AccountStore[K]) FindByLogin(ctx context.Context, loginProvider, providerKey string) (*entity.Account[K], error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	id, ok, err := s.logins.FindAccountID(ctx, loginProvider, providerKey)
	if err != nil || !ok {
		return nil, err
	}
	return s.accounts.FindByID(ctx, id)
}
