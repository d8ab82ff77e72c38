package store

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/perical/identity-postgres/entity"
)

// RoleClaimsTable is the role_claims accessor surface.
type RoleClaimsTable[K entity.Key] interface {
	ForRole(ctx context.Context, roleID K) ([]entity.RoleClaim[K], error)
}

// RoleStore is the facade implementing the role side of the persistence
// contract. Claim mutations buffer on the role handle until its Update
// flushes them; the store itself holds no per-role state.
type RoleStore[K entity.Key] struct {
	roles  RolesTable[K]
	claims RoleClaimsTable[K]
	logger *zap.SugaredLogger
}

func NewRoleStore[K entity.Key](roles RolesTable[K], claims RoleClaimsTable[K], logger *zap.SugaredLogger) *RoleStore[K] {
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	return &RoleStore[K]{
		roles:  roles,
		claims: claims,
		logger: logger,
	}
}

func (s *RoleStore[K]) Create(ctx context.Context, role *entity.Role[K]) (Result, error) {
	if err := ctx.Err(); err != nil {
		return Result{}, err
	}
	if role == nil {
		return Result{}, ErrNilRole
	}
	ok, err := s.roles.Create(ctx, role)
	if err != nil || !ok {
		s.logFailure(err, role.Name, "created")
		return Fail(Error{Description: fmt.Sprintf("Role '%s' could not be created.", role.Name)}), nil
	}
	return Ok(), nil
}

// Update regenerates the concurrency stamp and flushes the scalar row plus
// any buffered claims in one transaction.
func (s *RoleStore[K]) Update(ctx context.Context, role *entity.Role[K]) (Result, error) {
	if err := ctx.Err(); err != nil {
		return Result{}, err
	}
	if role == nil {
		return Result{}, ErrNilRole
	}
	role.ConcurrencyStamp = newConcurrencyStamp()
	ok, err := s.roles.Update(ctx, role, role.Pending())
	if err != nil || !ok {
		s.logFailure(err, role.Name, "updated")
		return Fail(Error{Description: fmt.Sprintf("Role '%s' could not be updated.", role.Name)}), nil
	}
	role.ClearPending()
	return Ok(), nil
}

func (s *RoleStore[K]) Delete(ctx context.Context, role *entity.Role[K]) (Result, error) {
	if err := ctx.Err(); err != nil {
		return Result{}, err
	}
	if role == nil {
		return Result{}, ErrNilRole
	}
	ok, err := s.roles.Delete(ctx, role.ID)
	if err != nil || !ok {
		s.logFailure(err, role.Name, "deleted")
		return Fail(Error{Description: fmt.Sprintf("Role '%s' could not be deleted.", role.Name)}), nil
	}
	role.ClearPending()
	return Ok(), nil
}

func (s *RoleStore[K]) FindByID(ctx context.Context, id K) (*entity.Role[K], error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return s.roles.FindByID(ctx, id)
}

// FindByName looks up by normalized role name; normalization is the
// caller's job.
func (s *RoleStore[K]) FindByName(ctx context.Context, normalizedName string) (*entity.Role[K], error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return s.roles.FindByName(ctx, normalizedName)
}

// All returns every role. Unbounded; enumeration surfaces only.
func (s *RoleStore[K]) All(ctx context.Context) ([]entity.Role[K], error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return s.roles.All(ctx)
}

func (s *RoleStore[K]) loadClaims(ctx context.Context, ch *entity.RoleChanges[K], roleID K) error {
	if ch.ClaimsLoaded {
		return nil
	}
	rows, err := s.claims.ForRole(ctx, roleID)
	if err != nil {
		return err
	}
	ch.Claims = rows
	ch.ClaimsLoaded = true
	return nil
}

// GetClaims returns the role's claims including buffered mutations.
func (s *RoleStore[K]) GetClaims(ctx context.Context, role *entity.Role[K]) ([]Claim, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if role == nil {
		return nil, ErrNilRole
	}
	ch := role.Pending()
	if err := s.loadClaims(ctx, ch, role.ID); err != nil {
		return nil, err
	}
	out := make([]Claim, 0, len(ch.Claims))
	for _, c := range ch.Claims {
		out = append(out, Claim{Type: c.ClaimType, Value: c.ClaimValue})
	}
	return out, nil
}

// AddClaim buffers a new role claim; it persists on the next Update.
func (s *RoleStore[K]) AddClaim(ctx context.Context, role *entity.Role[K], claim Claim) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if role == nil {
		return ErrNilRole
	}
	ch := role.Pending()
	if err := s.loadClaims(ctx, ch, role.ID); err != nil {
		return err
	}
	ch.Claims = append(ch.Claims, entity.RoleClaim[K]{
		RoleID:     role.ID,
		ClaimType:  claim.Type,
		ClaimValue: claim.Value,
	})
	return nil
}

// RemoveClaim drops every buffered claim matching the pair; absent claims
// are a no-op.
func (s *RoleStore[K]) RemoveClaim(ctx context.Context, role *entity.Role[K], claim Claim) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if role == nil {
		return ErrNilRole
	}
	ch := role.Pending()
	if err := s.loadClaims(ctx, ch, role.ID); err != nil {
		return err
	}
	kept := ch.Claims[:0]
	for _, existing := range ch.Claims {
		if existing.ClaimType == claim.Type && existing.ClaimValue == claim.Value {
			continue
		}
		kept = append(kept, existing)
	}
	ch.Claims = kept
	return nil
}

func (s *RoleStore[K]) logFailure(err error, name, verb string) {
	if err != nil {
		s.logger.Debugw("role store operation failed", "role", name, "op", verb, "err", err)
	}
}
