package repo

import (
	"context"
	"database/sql"
	"errors"

	"github.com/jmoiron/sqlx"

	"github.com/perical/identity-postgres/entity"
)

const roleColumns = `id, name, normalized_name, concurrency_stamp`

const insertRoleSQL = `INSERT INTO roles (id, name, normalized_name, concurrency_stamp)
	VALUES (:id, :name, :normalized_name, :concurrency_stamp)`

const updateRoleSQL = `UPDATE roles SET
	name = :name,
	normalized_name = :normalized_name,
	concurrency_stamp = :concurrency_stamp
	WHERE id = :id`

// RolesRepo provides data access for the roles table. Update performs the
// transactional fan-out into role_claims.
type RolesRepo[K entity.Key] struct {
	db *sqlx.DB
}

func NewRolesRepo[K entity.Key](db *sqlx.DB) *RolesRepo[K] {
	return &RolesRepo[K]{db: db}
}

func (r *RolesRepo[K]) Create(ctx context.Context, role *entity.Role[K]) (bool, error) {
	res, err := r.db.NamedExecContext(ctx, insertRoleSQL, role)
	if err != nil {
		return false, err
	}
	return oneRow(res), nil
}

func (r *RolesRepo[K]) FindByID(ctx context.Context, id K) (*entity.Role[K], error) {
	var role entity.Role[K]
	err := r.db.GetContext(ctx, &role, `SELECT `+roleColumns+` FROM roles WHERE id = $1`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &role, nil
}

// FindByName looks up by normalized role name. Callers normalize beforehand.
func (r *RolesRepo[K]) FindByName(ctx context.Context, normalizedName string) (*entity.Role[K], error) {
	var role entity.Role[K]
	err := r.db.GetContext(ctx, &role, `SELECT `+roleColumns+` FROM roles WHERE normalized_name = $1`, normalizedName)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &role, nil
}

// All returns every role row; unbounded, enumeration use only.
func (r *RolesRepo[K]) All(ctx context.Context) ([]entity.Role[K], error) {
	var out []entity.Role[K]
	if err := r.db.SelectContext(ctx, &out, `SELECT `+roleColumns+` FROM roles`); err != nil {
		return nil, err
	}
	return out, nil
}

// Update rewrites the scalar columns and, when the claim collection was
// materialized, replaces the stored role claims with the buffered set inside
// the same transaction.
func (r *RolesRepo[K]) Update(ctx context.Context, role *entity.Role[K], ch *entity.RoleChanges[K]) (bool, error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return false, err
	}

	res, err := tx.NamedExecContext(ctx, updateRoleSQL, role)
	if err != nil {
		return false, rollback(tx, err)
	}
	if !oneRow(res) {
		return false, rollback(tx, nil)
	}

	if !ch.Empty() {
		if _, err := tx.ExecContext(ctx, `DELETE FROM role_claims WHERE role_id = $1`, role.ID); err != nil {
			return false, rollback(tx, err)
		}
		if len(ch.Claims) > 0 {
			if _, err := tx.NamedExecContext(ctx, insertRoleClaimSQL, ch.Claims); err != nil {
				return false, rollback(tx, err)
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return false, err
	}
	return true, nil
}

func (r *RolesRepo[K]) Delete(ctx context.Context, id K) (bool, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM roles WHERE id = $1`, id)
	if err != nil {
		return false, err
	}
	return oneRow(res), nil
}
