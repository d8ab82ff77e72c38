// Package identity wires the relational identity persistence stores:
// account and role stores over per-table accessors, generic over the key
// type K. Wiring is an explicit typed builder invoked once at startup; the
// chosen K fixes every accessor and store at compile time, so there is no
// runtime type discovery to fail.
package identity

import (
	"context"
	"errors"

	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	"github.com/perical/identity-postgres/entity"
	"github.com/perical/identity-postgres/pkg/database"
	"github.com/perical/identity-postgres/repo"
	"github.com/perical/identity-postgres/store"
)

// Configuration errors are startup-time fatal conditions, not runtime
// recoverable ones.
var ErrNilDB = errors.New("identity: database handle must not be nil")

// Stores bundles the fully wired store facades for one key type.
type Stores[K entity.Key] struct {
	Accounts *store.AccountStore[K]
	Roles    *store.RoleStore[K]
}

// New wires accessors and stores for the chosen key type over an existing
// database handle. The handle stays owned by the caller.
func New[K entity.Key](db *sqlx.DB, logger *zap.SugaredLogger) (*Stores[K], error) {
	if db == nil {
		return nil, ErrNilDB
	}
	accounts := repo.NewAccountsRepo[K](db)
	roles := repo.NewRolesRepo[K](db)
	accountClaims := repo.NewAccountClaimsRepo[K](db)
	roleClaims := repo.NewRoleClaimsRepo[K](db)
	logins := repo.NewExternalLoginsRepo[K](db)
	tokens := repo.NewAccountTokensRepo[K](db)
	members := repo.NewAccountRolesRepo[K](db)

	return &Stores[K]{
		Accounts: store.NewAccountStore[K](accounts, accountClaims, logins, tokens, members, roles, logger),
		Roles:    store.NewRoleStore[K](roles, roleClaims, logger),
	}, nil
}

// Open connects with the given config and wires stores over the fresh
// handle, which is returned so the caller can close it on shutdown.
func Open[K entity.Key](ctx context.Context, cfg database.Config, logger *zap.SugaredLogger) (*Stores[K], *sqlx.DB, error) {
	db, err := database.Connect(ctx, cfg)
	if err != nil {
		return nil, nil, err
	}
	stores, err := New[K](db, logger)
	if err != nil {
		db.Close()
		return nil, nil, err
	}
	return stores, db, nil
}
