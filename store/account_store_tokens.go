package store

import (
	"context"
	"strings"

	"github.com/perical/identity-postgres/entity"
)

// Reserved (provider, name) pairs backing the two-factor subsystem. The
// authenticator key and the joined recovery-code list are ordinary token
// rows under an internal provider name; there is no separate schema.
const (
	internalLoginProvider     = "[identity-postgres]"
	authenticatorKeyTokenName = "AuthenticatorKey"
	recoveryCodesTokenName    = "RecoveryCodes"
	recoveryCodeSeparator     = ";"
)

func (s *AccountStore[K]) loadTokens(ctx context.Context, ch *entity.Changes[K], accountID K) error {
	if ch.TokensLoaded {
		return nil
	}
	rows, err := s.tokens.ForAccount(ctx, accountID)
	if err != nil {
		return err
	}
	ch.Tokens = rows
	ch.TokensLoaded = true
	return nil
}

// SetToken buffers the (provider, name) -> value entry, overwriting any
// buffered value for the same pair. Persists on the next Update.
func (s *AccountStore[K]) SetToken(ctx context.Context, a *entity.Account[K], loginProvider, name, value string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if a == nil {
		return ErrNilAccount
	}
	ch := a.Pending()
	if err := s.loadTokens(ctx, ch, a.ID); err != nil {
		return err
	}
	for i := range ch.Tokens {
		if ch.Tokens[i].LoginProvider == loginProvider && ch.Tokens[i].Name == name {
			ch.Tokens[i].Value = value
			return nil
		}
	}
	ch.Tokens = append(ch.Tokens, entity.AccountToken[K]{
		AccountID:     a.ID,
		LoginProvider: loginProvider,
		Name:          name,
		Value:         value,
	})
	return nil
}

// RemoveToken drops the buffered entry; absent entries are a no-op.
func (s *AccountStore[K]) RemoveToken(ctx context.Context, a *entity.Account[K], loginProvider, name string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if a == nil {
		return ErrNilAccount
	}
	ch := a.Pending()
	if err := s.loadTokens(ctx, ch, a.ID); err != nil {
		return err
	}
	kept := ch.Tokens[:0]
	for _, t := range ch.Tokens {
		if t.LoginProvider == loginProvider && t.Name == name {
			continue
		}
		kept = append(kept, t)
	}
	ch.Tokens = kept
	return nil
}

// GetToken returns the stored value for the (provider, name) pair, or the
// empty string when the token is unset.
func (s *AccountStore[K]) GetToken(ctx context.Context, a *entity.Account[K], loginProvider, name string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if a == nil {
		return "", ErrNilAccount
	}
	ch := a.Pending()
	if err := s.loadTokens(ctx, ch, a.ID); err != nil {
		return "", err
	}
	for _, t := range ch.Tokens {
		if t.LoginProvider == loginProvider && t.Name == name {
			return t.Value, nil
		}
	}
	return "", nil
}

// SetAuthenticatorKey stores the TOTP authenticator key through the generic
// token mechanism.
func (s *AccountStore[K]) SetAuthenticatorKey(ctx context.Context, a *entity.Account[K], key string) error {
	return s.SetToken(ctx, a, internalLoginProvider, authenticatorKeyTokenName, key)
}

func (s *AccountStore[K]) GetAuthenticatorKey(ctx context.Context, a *entity.Account[K]) (string, error) {
	return s.GetToken(ctx, a, internalLoginProvider, authenticatorKeyTokenName)
}

// ReplaceRecoveryCodes overwrites the account's recovery codes with the
// given set, stored as one separator-joined token value.
func (s *AccountStore[K]) ReplaceRecoveryCodes(ctx context.Context, a *entity.Account[K], codes []string) error {
	return s.SetToken(ctx, a, internalLoginProvider, recoveryCodesTokenName, strings.Join(codes, recoveryCodeSeparator))
}

// RedeemRecoveryCode consumes a single recovery code. When the code is
// present it is removed and the reduced list is buffered atomically with the
// removal; a code redeems at most once. Returns whether redemption
// succeeded.
func (s *AccountStore[K]) RedeemRecoveryCode(ctx context.Context, a *entity.Account[K], code string) (bool, error) {
	joined, err := s.GetToken(ctx, a, internalLoginProvider, recoveryCodesTokenName)
	if err != nil || joined == "" {
		return false, err
	}
	codes := strings.Split(joined, recoveryCodeSeparator)
	for i, c := range codes {
		if c == code {
			remaining := append(codes[:i:i], codes[i+1:]...)
			return true, s.ReplaceRecoveryCodes(ctx, a, remaining)
		}
	}
	return false, nil
}

// CountRecoveryCodes returns how many unredeemed codes remain, zero when the
// token is unset.
func (s *AccountStore[K]) CountRecoveryCodes(ctx context.Context, a *entity.Account[K]) (int, error) {
	joined, err := s.GetToken(ctx, a, internalLoginProvider, recoveryCodesTokenName)
	if err != nil || joined == "" {
		return 0, err
	}
	return len(strings.Split(joined, recoveryCodeSeparator)), nil
}
