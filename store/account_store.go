// Package store implements the identity persistence contract over the table
// accessors: account and role CRUD, claims, external logins, lockout state,
// role membership, and the token-backed two-factor subsystem. Child-entity
// mutations are buffered on the owning entity handle and flushed in one
// transaction by the owner's Update.
package store

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/perical/identity-postgres/entity"
	"github.com/perical/identity-postgres/repo"
)

// AccountsTable is the accounts accessor surface the store depends on.
type AccountsTable[K entity.Key] interface {
	Create(ctx context.Context, a *entity.Account[K]) (bool, error)
	FindByID(ctx context.Context, id K) (*entity.Account[K], error)
	FindByName(ctx context.Context, normalizedUserName string) (*entity.Account[K], error)
	FindByEmail(ctx context.Context, normalizedEmail string) (*entity.Account[K], error)
	All(ctx context.Context) ([]entity.Account[K], error)
	Update(ctx context.Context, a *entity.Account[K], ch *entity.Changes[K]) (bool, error)
	Delete(ctx context.Context, id K) (bool, error)
}

// AccountClaimsTable is the account_claims accessor surface.
type AccountClaimsTable[K entity.Key] interface {
	ForAccount(ctx context.Context, accountID K) ([]entity.AccountClaim[K], error)
	AccountsForClaim(ctx context.Context, claimType, claimValue string) ([]entity.Account[K], error)
}

// ExternalLoginsTable is the external_logins accessor surface.
type ExternalLoginsTable[K entity.Key] interface {
	ForAccount(ctx context.Context, accountID K) ([]entity.ExternalLogin[K], error)
	FindAccountID(ctx context.Context, loginProvider, providerKey string) (K, bool, error)
}

// AccountTokensTable is the account_tokens accessor surface.
type AccountTokensTable[K entity.Key] interface {
	ForAccount(ctx context.Context, accountID K) ([]entity.AccountToken[K], error)
}

// AccountRolesTable is the account_roles accessor surface.
type AccountRolesTable[K entity.Key] interface {
	RolesForAccount(ctx context.Context, accountID K) ([]entity.Role[K], error)
	AccountsInRole(ctx context.Context, normalizedRoleName string) ([]entity.Account[K], error)
}

// RolesTable is the roles accessor surface shared with the role store.
type RolesTable[K entity.Key] interface {
	Create(ctx context.Context, role *entity.Role[K]) (bool, error)
	FindByID(ctx context.Context, id K) (*entity.Role[K], error)
	FindByName(ctx context.Context, normalizedName string) (*entity.Role[K], error)
	All(ctx context.Context) ([]entity.Role[K], error)
	Update(ctx context.Context, role *entity.Role[K], ch *entity.RoleChanges[K]) (bool, error)
	Delete(ctx context.Context, id K) (bool, error)
}

// AccountStore is the facade implementing the account side of the identity
// persistence contract. Pending child mutations accumulate on the account
// handle itself until its Update flushes them, so the store holds no
// per-account state and is safe to share; each handle must stay confined to
// one logical operation at a time, as with any entity instance.
type AccountStore[K entity.Key] struct {
	accounts AccountsTable[K]
	claims   AccountClaimsTable[K]
	logins   ExternalLoginsTable[K]
	tokens   AccountTokensTable[K]
	members  AccountRolesTable[K]
	roles    RolesTable[K]
	logger   *zap.SugaredLogger
}

// NewAccountStore wires an account store over the given accessors. A nil
// logger disables logging.
func NewAccountStore[K entity.Key](
	accounts AccountsTable[K],
	claims AccountClaimsTable[K],
	logins ExternalLoginsTable[K],
	tokens AccountTokensTable[K],
	members AccountRolesTable[K],
	roles RolesTable[K],
	logger *zap.SugaredLogger,
) *AccountStore[K] {
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	return &AccountStore[K]{
		accounts: accounts,
		claims:   claims,
		logins:   logins,
		tokens:   tokens,
		members:  members,
		roles:    roles,
		logger:   logger,
	}
}

// Create inserts the account row. Buffered child mutations are not written
// here; they flush on the next Update. Constraint violations surface as a
// failed Result, never as an error.
func (s *AccountStore[K]) Create(ctx context.Context, a *entity.Account[K]) (Result, error) {
	if err := ctx.Err(); err != nil {
		return Result{}, err
	}
	if a == nil {
		return Result{}, ErrNilAccount
	}
	ok, err := s.accounts.Create(ctx, a)
	if err != nil || !ok {
		return s.failure(err, fmt.Sprintf("Account '%s' could not be created.", a.UserName)), nil
	}
	return Ok(), nil
}

// Update regenerates the concurrency stamp and flushes the scalar row plus
// every child collection buffered on the handle in one transaction. The
// handle's buffer is cleared on success; persisted state then equals what
// was flushed, so later reads reload identical data.
func (s *AccountStore[K]) Update(ctx context.Context, a *entity.Account[K]) (Result, error) {
	if err := ctx.Err(); err != nil {
		return Result{}, err
	}
	if a == nil {
		return Result{}, ErrNilAccount
	}
	a.ConcurrencyStamp = newConcurrencyStamp()
	ok, err := s.accounts.Update(ctx, a, a.Pending())
	if err != nil || !ok {
		return s.failure(err, fmt.Sprintf("Account '%s' could not be updated.", a.UserName)), nil
	}
	a.ClearPending()
	return Ok(), nil
}

// Delete removes the account row; the schema cascades child-row deletion.
func (s *AccountStore[K]) Delete(ctx context.Context, a *entity.Account[K]) (Result, error) {
	if err := ctx.Err(); err != nil {
		return Result{}, err
	}
	if a == nil {
		return Result{}, ErrNilAccount
	}
	ok, err := s.accounts.Delete(ctx, a.ID)
	if err != nil || !ok {
		return s.failure(err, fmt.Sprintf("Account '%s' could not be deleted.", a.UserName)), nil
	}
	a.ClearPending()
	return Ok(), nil
}

// FindByID returns the account with the given id, or nil when absent.
func (s *AccountStore[K]) FindByID(ctx context.Context, id K) (*entity.Account[K], error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return s.accounts.FindByID(ctx, id)
}

// FindByName looks up by normalized username; normalization is the caller's
// job.
func (s *AccountStore[K]) FindByName(ctx context.Context, normalizedUserName string) (*entity.Account[K], error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return s.accounts.FindByName(ctx, normalizedUserName)
}

// FindByEmail looks up by normalized email; normalization is the caller's
// job.
func (s *AccountStore[K]) FindByEmail(ctx context.Context, normalizedEmail string) (*entity.Account[K], error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return s.accounts.FindByEmail(ctx, normalizedEmail)
}

// All returns every account. Unbounded; enumeration surfaces only.
func (s *AccountStore[K]) All(ctx context.Context) ([]entity.Account[K], error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return s.accounts.All(ctx)
}

// Lockout state lives on the in-memory entity and persists with the next
// Update.

func (s *AccountStore[K]) GetLockoutEnd(a *entity.Account[K]) *time.Time {
	return a.LockoutEnd
}

func (s *AccountStore[K]) SetLockoutEnd(a *entity.Account[K], end *time.Time) {
	a.LockoutEnd = end
}

func (s *AccountStore[K]) GetLockoutEnabled(a *entity.Account[K]) bool {
	return a.LockoutEnabled
}

func (s *AccountStore[K]) SetLockoutEnabled(a *entity.Account[K], enabled bool) {
	a.LockoutEnabled = enabled
}

// IncrementAccessFailedCount bumps the failure counter and returns the
// post-increment value.
func (s *AccountStore[K]) IncrementAccessFailedCount(a *entity.Account[K]) int {
	a.AccessFailedCount++
	return a.AccessFailedCount
}

func (s *AccountStore[K]) ResetAccessFailedCount(a *entity.Account[K]) {
	a.AccessFailedCount = 0
}

func (s *AccountStore[K]) GetAccessFailedCount(a *entity.Account[K]) int {
	return a.AccessFailedCount
}

// failure converts a data-layer error into a Result, classifying the causes
// a caller can act on.
func (s *AccountStore[K]) failure(err error, description string) Result {
	code := ""
	switch {
	case repo.IsUniqueViolation(err):
		code = CodeDuplicate
	case repo.IsForeignKeyViolation(err):
		code = CodeForeignKey
	}
	if err != nil {
		s.logger.Debugw("account store operation failed", "err", err, "description", description)
	}
	return Fail(Error{Code: code, Description: description})
}
