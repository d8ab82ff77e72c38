package repo

import (
	"context"
	"database/sql"
	"errors"

	"github.com/jmoiron/sqlx"

	"github.com/perical/identity-postgres/entity"
)

const accountColumns = `id, username, normalized_username, email, normalized_email, email_confirmed,
	password_hash, security_stamp, concurrency_stamp, phone_number, phone_confirmed,
	two_factor_enabled, lockout_end, lockout_enabled, access_failed_count`

const insertAccountSQL = `INSERT INTO accounts
	(id, username, normalized_username, email, normalized_email, email_confirmed,
	 password_hash, security_stamp, concurrency_stamp, phone_number, phone_confirmed,
	 two_factor_enabled, lockout_end, lockout_enabled, access_failed_count)
	VALUES
	(:id, :username, :normalized_username, :email, :normalized_email, :email_confirmed,
	 :password_hash, :security_stamp, :concurrency_stamp, :phone_number, :phone_confirmed,
	 :two_factor_enabled, :lockout_end, :lockout_enabled, :access_failed_count)`

const updateAccountSQL = `UPDATE accounts SET
	username = :username,
	normalized_username = :normalized_username,
	email = :email,
	normalized_email = :normalized_email,
	email_confirmed = :email_confirmed,
	password_hash = :password_hash,
	security_stamp = :security_stamp,
	concurrency_stamp = :concurrency_stamp,
	phone_number = :phone_number,
	phone_confirmed = :phone_confirmed,
	two_factor_enabled = :two_factor_enabled,
	lockout_end = :lockout_end,
	lockout_enabled = :lockout_enabled,
	access_failed_count = :access_failed_count
	WHERE id = :id`

// AccountsRepo provides data access for the accounts table. Update performs
// the transactional fan-out into the child tables owned by the account.
type AccountsRepo[K entity.Key] struct {
	db *sqlx.DB
}

func NewAccountsRepo[K entity.Key](db *sqlx.DB) *AccountsRepo[K] {
	return &AccountsRepo[K]{db: db}
}

// Create inserts a new account row. Success means exactly one row inserted.
func (r *AccountsRepo[K]) Create(ctx context.Context, a *entity.Account[K]) (bool, error) {
	res, err := r.db.NamedExecContext(ctx, insertAccountSQL, a)
	if err != nil {
		return false, err
	}
	return oneRow(res), nil
}

// FindByID returns the account with the given id, or nil when absent.
func (r *AccountsRepo[K]) FindByID(ctx context.Context, id K) (*entity.Account[K], error) {
	var a entity.Account[K]
	err := r.db.GetContext(ctx, &a, `SELECT `+accountColumns+` FROM accounts WHERE id = $1`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &a, nil
}

// FindByName looks up by normalized username. Callers normalize beforehand.
func (r *AccountsRepo[K]) FindByName(ctx context.Context, normalizedUserName string) (*entity.Account[K], error) {
	var a entity.Account[K]
	err := r.db.GetContext(ctx, &a, `SELECT `+accountColumns+` FROM accounts WHERE normalized_username = $1`, normalizedUserName)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &a, nil
}

// FindByEmail looks up by normalized email. Callers normalize beforehand.
func (r *AccountsRepo[K]) FindByEmail(ctx context.Context, normalizedEmail string) (*entity.Account[K], error) {
	var a entity.Account[K]
	err := r.db.GetContext(ctx, &a, `SELECT `+accountColumns+` FROM accounts WHERE normalized_email = $1`, normalizedEmail)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &a, nil
}

// All returns every account row. Result size is unbounded; this exists only
// to back in-memory enumeration surfaces and should not be exposed to
// request paths that cannot afford a full scan.
func (r *AccountsRepo[K]) All(ctx context.Context) ([]entity.Account[K], error) {
	var out []entity.Account[K]
	if err := r.db.SelectContext(ctx, &out, `SELECT `+accountColumns+` FROM accounts`); err != nil {
		return nil, err
	}
	return out, nil
}

// Update rewrites the scalar columns and, for every materialized child
// collection in ch, replaces the stored child rows with the buffered set
// (delete then reinsert). Everything runs in one transaction owned by this
// call: any failure rolls the whole update back, never a partial commit.
func (r *AccountsRepo[K]) Update(ctx context.Context, a *entity.Account[K], ch *entity.Changes[K]) (bool, error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return false, err
	}

	res, err := tx.NamedExecContext(ctx, updateAccountSQL, a)
	if err != nil {
		return false, rollback(tx, err)
	}
	if !oneRow(res) {
		return false, rollback(tx, nil)
	}

	if !ch.Empty() {
		if ch.ClaimsLoaded {
			if _, err := tx.ExecContext(ctx, `DELETE FROM account_claims WHERE account_id = $1`, a.ID); err != nil {
				return false, rollback(tx, err)
			}
			if len(ch.Claims) > 0 {
				if _, err := tx.NamedExecContext(ctx, insertAccountClaimSQL, ch.Claims); err != nil {
					return false, rollback(tx, err)
				}
			}
		}
		if ch.LoginsLoaded {
			if _, err := tx.ExecContext(ctx, `DELETE FROM external_logins WHERE account_id = $1`, a.ID); err != nil {
				return false, rollback(tx, err)
			}
			if len(ch.Logins) > 0 {
				if _, err := tx.NamedExecContext(ctx, insertExternalLoginSQL, ch.Logins); err != nil {
					return false, rollback(tx, err)
				}
			}
		}
		if ch.RolesLoaded {
			if _, err := tx.ExecContext(ctx, `DELETE FROM account_roles WHERE account_id = $1`, a.ID); err != nil {
				return false, rollback(tx, err)
			}
			if len(ch.Roles) > 0 {
				memberships := make([]entity.AccountRole[K], 0, len(ch.Roles))
				for _, role := range ch.Roles {
					memberships = append(memberships, entity.AccountRole[K]{AccountID: a.ID, RoleID: role.ID})
				}
				if _, err := tx.NamedExecContext(ctx, insertAccountRoleSQL, memberships); err != nil {
					return false, rollback(tx, err)
				}
			}
		}
		if ch.TokensLoaded {
			if _, err := tx.ExecContext(ctx, `DELETE FROM account_tokens WHERE account_id = $1`, a.ID); err != nil {
				return false, rollback(tx, err)
			}
			if len(ch.Tokens) > 0 {
				if _, err := tx.NamedExecContext(ctx, insertAccountTokenSQL, ch.Tokens); err != nil {
					return false, rollback(tx, err)
				}
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return false, err
	}
	return true, nil
}

// Delete removes the account row by primary key. Child rows go with it via
// the schema's cascading foreign keys, not through this call.
func (r *AccountsRepo[K]) Delete(ctx context.Context, id K) (bool, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM accounts WHERE id = $1`, id)
	if err != nil {
		return false, err
	}
	return oneRow(res), nil
}
