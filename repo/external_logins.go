package repo

import (
	"context"
	"database/sql"
	"errors"

	"github.com/jmoiron/sqlx"

	"github.com/perical/identity-postgres/entity"
)

const insertExternalLoginSQL = `INSERT INTO external_logins (login_provider, provider_key, provider_display_name, account_id)
	VALUES (:login_provider, :provider_key, :provider_display_name, :account_id)`

// ExternalLoginsRepo provides read access for the external_logins table.
// Writes happen through the accounts accessor's transactional update.
type ExternalLoginsRepo[K entity.Key] struct {
	db *sqlx.DB
}

func NewExternalLoginsRepo[K entity.Key](db *sqlx.DB) *ExternalLoginsRepo[K] {
	return &ExternalLoginsRepo[K]{db: db}
}

// ForAccount returns all external logins linked to the given account.
func (r *ExternalLoginsRepo[K]) ForAccount(ctx context.Context, accountID K) ([]entity.ExternalLogin[K], error) {
	var out []entity.ExternalLogin[K]
	const q = `SELECT login_provider, provider_key, provider_display_name, account_id
		FROM external_logins WHERE account_id = $1`
	if err := r.db.SelectContext(ctx, &out, q, accountID); err != nil {
		return nil, err
	}
	return out, nil
}

// FindAccountID resolves the owner of a (provider, key) pair. The second
// return value is false when no such login exists.
func (r *ExternalLoginsRepo[K]) FindAccountID(ctx context.Context, loginProvider, providerKey string) (K, bool, error) {
	var id K
	const q = `SELECT account_id FROM external_logins WHERE login_provider = $1 AND provider_key = $2`
	err := r.db.GetContext(ctx, &id, q, loginProvider, providerKey)
	if errors.Is(err, sql.ErrNoRows) {
		return id, false, nil
	}
	if err != nil {
		return id, false, err
	}
	return id, true, nil
}
