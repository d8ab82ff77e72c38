package repo

import (
	"context"

	"github.com/jmoiron/sqlx"

	"github.com/perical/identity-postgres/entity"
)

const insertAccountRoleSQL = `INSERT INTO account_roles (account_id, role_id)
	VALUES (:account_id, :role_id)`

// AccountRolesRepo provides read access for the account_roles junction
// table. Writes happen through the accounts accessor's transactional update.
type AccountRolesRepo[K entity.Key] struct {
	db *sqlx.DB
}

func NewAccountRolesRepo[K entity.Key](db *sqlx.DB) *AccountRolesRepo[K] {
	return &AccountRolesRepo[K]{db: db}
}

// RolesForAccount returns the full role rows the account belongs to.
func (r *AccountRolesRepo[K]) RolesForAccount(ctx context.Context, accountID K) ([]entity.Role[K], error) {
	var out []entity.Role[K]
	const q = `SELECT r.id, r.name, r.normalized_name, r.concurrency_stamp
		FROM roles r
		INNER JOIN account_roles ar ON ar.role_id = r.id
		WHERE ar.account_id = $1`
	if err := r.db.SelectContext(ctx, &out, q, accountID); err != nil {
		return nil, err
	}
	return out, nil
}

// AccountsInRole returns every member of the role with the given normalized
// name via a three-table join.
func (r *AccountRolesRepo[K]) AccountsInRole(ctx context.Context, normalizedRoleName string) ([]entity.Account[K], error) {
	var out []entity.Account[K]
	const q = `SELECT a.id, a.username, a.normalized_username, a.email, a.normalized_email, a.email_confirmed,
		a.password_hash, a.security_stamp, a.concurrency_stamp, a.phone_number, a.phone_confirmed,
		a.two_factor_enabled, a.lockout_end, a.lockout_enabled, a.access_failed_count
		FROM accounts a
		INNER JOIN account_roles ar ON ar.account_id = a.id
		INNER JOIN roles r ON r.id = ar.role_id
		WHERE r.normalized_name = $1`
	if err := r.db.SelectContext(ctx, &out, q, normalizedRoleName); err != nil {
		return nil, err
	}
	return out, nil
}
