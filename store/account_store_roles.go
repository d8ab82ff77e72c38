package store

import (
	"context"

	"github.com/perical/identity-postgres/entity"
)

func (s *AccountStore[K]) loadRoles(ctx context.Context, ch *entity.Changes[K], accountID K) error {
	if ch.RolesLoaded {
		return nil
	}
	rows, err := s.members.RolesForAccount(ctx, accountID)
	if err != nil {
		return err
	}
	ch.Roles = rows
	ch.RolesLoaded = true
	return nil
}

// AddToRole buffers membership in the role with the given normalized name.
// The role must exist: an unknown role returns ErrRoleNotFound. Adding a
// membership the account already has is a no-op.
func (s *AccountStore[K]) AddToRole(ctx context.Context, a *entity.Account[K], normalizedRoleName string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if a == nil {
		return ErrNilAccount
	}
	role, err := s.roles.FindByName(ctx, normalizedRoleName)
	if err != nil {
		return err
	}
	if role == nil {
		return ErrRoleNotFound
	}
	ch := a.Pending()
	if err := s.loadRoles(ctx, ch, a.ID); err != nil {
		return err
	}
	for _, existing := range ch.Roles {
		if existing.ID == role.ID {
			return nil
		}
	}
	ch.Roles = append(ch.Roles, *role)
	return nil
}

// RemoveFromRole drops the buffered membership. Removing a membership that
// does not exist (or naming an unknown role) is a silent no-op.
func (s *AccountStore[K]) RemoveFromRole(ctx context.Context, a *entity.Account[K], normalizedRoleName string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if a == nil {
		return ErrNilAccount
	}
	ch := a.Pending()
	if err := s.loadRoles(ctx, ch, a.ID); err != nil {
		return err
	}
	kept := ch.Roles[:0]
	for _, role := range ch.Roles {
		if role.NormalizedName == normalizedRoleName {
			continue
		}
		kept = append(kept, role)
	}
	ch.Roles = kept
	return nil
}

// GetRoles returns the names of the roles the account belongs to, including
// buffered membership changes.
func (s *AccountStore[K]) GetRoles(ctx context.Context, a *entity.Account[K]) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if a == nil {
		return nil, ErrNilAccount
	}
	ch := a.Pending()
	if err := s.loadRoles(ctx, ch, a.ID); err != nil {
		return nil, err
	}
	names := make([]string, 0, len(ch.Roles))
	for _, role := range ch.Roles {
		names = append(names, role.Name)
	}
	return names, nil
}

// IsInRole reports membership by normalized role name, buffered changes
// included.
func (s *AccountStore[K]) IsInRole(ctx context.Context, a *entity.Account[K], normalizedRoleName string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	if a == nil {
		return false, ErrNilAccount
	}
	ch := a.Pending()
	if err := s.loadRoles(ctx, ch, a.ID); err != nil {
		return false, err
	}
	for _, role := range ch.Roles {
		if role.NormalizedName == normalizedRoleName {
			return true, nil
		}
	}
	return false, nil
}

// AccountsInRole returns every member of the named role. Direct three-table
// join, no buffering.
func (s *AccountStore[K]) AccountsInRole(ctx context.Context, normalizedRoleName string) ([]entity.Account[K], error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return s.members.AccountsInRole(ctx, normalizedRoleName)
}
