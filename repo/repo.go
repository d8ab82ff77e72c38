// Package repo contains one accessor per identity table. Accessors expose
// narrow, purpose-built operations as hand-written parameterized statements
// over sqlx; they are not a query builder. Write operations report success
// strictly as "exactly one row affected".
package repo

import (
	"database/sql"
	"errors"

	"github.com/lib/pq"
)

// ErrRollbackFailed marks a transaction whose rollback itself failed after
// an earlier error. Callers still see the operation as failed either way,
// but diagnostics keep the two cases apart.
var ErrRollbackFailed = errors.New("transaction rollback failed")

// IsUniqueViolation detects PostgreSQL unique constraint violations
// (SQLSTATE 23505), e.g. duplicated normalized usernames or emails.
func IsUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == "23505"
}

// IsForeignKeyViolation detects referential integrity violations
// (SQLSTATE 23503).
func IsForeignKeyViolation(err error) bool {
	if err == nil {
		return false
	}
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == "23503"
}

type rollbacker interface {
	Rollback() error
}

// rollback rolls tx back and returns the original cause. A failing rollback
// is escalated: the returned error then carries ErrRollbackFailed alongside
// the cause so the two failure modes stay distinguishable.
func rollback(tx rollbacker, cause error) error {
	if rbErr := tx.Rollback(); rbErr != nil && !errors.Is(rbErr, sql.ErrTxDone) {
		if cause != nil {
			return errors.Join(ErrRollbackFailed, rbErr, cause)
		}
		return errors.Join(ErrRollbackFailed, rbErr)
	}
	return cause
}

// oneRow reports whether res affected exactly one row. Zero or more than one
// is treated as failure; a well-formed schema makes >1 impossible for
// primary-key operations.
func oneRow(res sql.Result) bool {
	n, err := res.RowsAffected()
	return err == nil && n == 1
}
