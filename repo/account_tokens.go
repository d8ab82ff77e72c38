package repo

import (
	"context"
	"database/sql"
	"errors"

	"github.com/jmoiron/sqlx"

	"github.com/perical/identity-postgres/entity"
)

const insertAccountTokenSQL = `INSERT INTO account_tokens (account_id, login_provider, name, value)
	VALUES (:account_id, :login_provider, :name, :value)`

// AccountTokensRepo provides read access for the account_tokens table.
// Writes happen through the accounts accessor's transactional update.
type AccountTokensRepo[K entity.Key] struct {
	db *sqlx.DB
}

func NewAccountTokensRepo[K entity.Key](db *sqlx.DB) *AccountTokensRepo[K] {
	return &AccountTokensRepo[K]{db: db}
}

// ForAccount returns all tokens owned by the given account.
func (r *AccountTokensRepo[K]) ForAccount(ctx context.Context, accountID K) ([]entity.AccountToken[K], error) {
	var out []entity.AccountToken[K]
	const q = `SELECT account_id, login_provider, name, value FROM account_tokens WHERE account_id = $1`
	if err := r.db.SelectContext(ctx, &out, q, accountID); err != nil {
		return nil, err
	}
	return out, nil
}

// Find returns the token for the (account, provider, name) triple, or nil
// when absent.
func (r *AccountTokensRepo[K]) Find(ctx context.Context, accountID K, loginProvider, name string) (*entity.AccountToken[K], error) {
	var t entity.AccountToken[K]
	const q = `SELECT account_id, login_provider, name, value FROM account_tokens
		WHERE account_id = $1 AND login_provider = $2 AND name = $3`
	err := r.db.GetContext(ctx, &t, q, accountID, loginProvider, name)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &t, nil
}
