package repo

import (
	"context"

	"github.com/jmoiron/sqlx"

	"github.com/perical/identity-postgres/entity"
)

const insertAccountClaimSQL = `INSERT INTO account_claims (account_id, claim_type, claim_value)
	VALUES (:account_id, :claim_type, :claim_value)`

// AccountClaimsRepo provides read access for the account_claims table.
// Writes happen through the accounts accessor's transactional update.
type AccountClaimsRepo[K entity.Key] struct {
	db *sqlx.DB
}

func NewAccountClaimsRepo[K entity.Key](db *sqlx.DB) *AccountClaimsRepo[K] {
	return &AccountClaimsRepo[K]{db: db}
}

// ForAccount returns all claims owned by the given account.
func (r *AccountClaimsRepo[K]) ForAccount(ctx context.Context, accountID K) ([]entity.AccountClaim[K], error) {
	var out []entity.AccountClaim[K]
	const q = `SELECT id, account_id, claim_type, claim_value FROM account_claims WHERE account_id = $1`
	if err := r.db.SelectContext(ctx, &out, q, accountID); err != nil {
		return nil, err
	}
	return out, nil
}

// AccountsForClaim returns every account holding the exact (type, value)
// claim pair.
func (r *AccountClaimsRepo[K]) AccountsForClaim(ctx context.Context, claimType, claimValue string) ([]entity.Account[K], error) {
	var out []entity.Account[K]
	const q = `SELECT a.id, a.username, a.normalized_username, a.email, a.normalized_email, a.email_confirmed,
		a.password_hash, a.security_stamp, a.concurrency_stamp, a.phone_number, a.phone_confirmed,
		a.two_factor_enabled, a.lockout_end, a.lockout_enabled, a.access_failed_count
		FROM accounts a
		INNER JOIN account_claims c ON c.account_id = a.id
		WHERE c.claim_type = $1 AND c.claim_value = $2`
	if err := r.db.SelectContext(ctx, &out, q, claimType, claimValue); err != nil {
		return nil, err
	}
	return out, nil
}
