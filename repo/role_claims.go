package repo

import (
	"context"

	"github.com/jmoiron/sqlx"

	"github.com/perical/identity-postgres/entity"
)

const insertRoleClaimSQL = `INSERT INTO role_claims (role_id, claim_type, claim_value)
	VALUES (:role_id, :claim_type, :claim_value)`

// RoleClaimsRepo provides read access for the role_claims table. Writes
// happen through the roles accessor's transactional update.
type RoleClaimsRepo[K entity.Key] struct {
	db *sqlx.DB
}

func NewRoleClaimsRepo[K entity.Key](db *sqlx.DB) *RoleClaimsRepo[K] {
	return &RoleClaimsRepo[K]{db: db}
}

// ForRole returns all claims owned by the given role.
func (r *RoleClaimsRepo[K]) ForRole(ctx context.Context, roleID K) ([]entity.RoleClaim[K], error) {
	var out []entity.RoleClaim[K]
	const q = `SELECT id, role_id, claim_type, claim_value FROM role_claims WHERE role_id = $1`
	if err := r.db.SelectContext(ctx, &out, q, roleID); err != nil {
		return nil, err
	}
	return out, nil
}
