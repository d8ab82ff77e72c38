package store_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/perical/identity-postgres/entity"
	"github.com/perical/identity-postgres/store"
)

func newRoleStore(db *memDB) *store.RoleStore[string] {
	return store.NewRoleStore[string](&fakeRolesTable{db: db}, &fakeRoleClaimsTable{db: db}, nil)
}

func testRole(id, name string) *entity.Role[string] {
	return &entity.Role[string]{
		ID:             id,
		Name:           name,
		NormalizedName: "N:" + name,
	}
}

func TestRoleCreateThenFindByName(t *testing.T) {
	ctx := context.Background()
	s := newRoleStore(newMemDB())

	role := testRole("r1", "admin")
	res, err := s.Create(ctx, role)
	require.NoError(t, err)
	require.True(t, res.Succeeded)

	found, err := s.FindByName(ctx, "N:admin")
	require.NoError(t, err)
	require.NotNil(t, found)
	assert.Equal(t, *role, *found)

	missing, err := s.FindByName(ctx, "N:ghost")
	require.NoError(t, err)
	assert.Nil(t, missing)
}

func TestRoleCreateDuplicateNameReturnsFailureResult(t *testing.T) {
	ctx := context.Background()
	s := newRoleStore(newMemDB())

	res, err := s.Create(ctx, testRole("r1", "admin"))
	require.NoError(t, err)
	require.True(t, res.Succeeded)

	res, err = s.Create(ctx, testRole("r2", "admin"))
	require.NoError(t, err)
	assert.False(t, res.Succeeded)
	require.Len(t, res.Errors, 1)
	assert.Contains(t, res.Errors[0].Description, "admin")
}

func TestRoleUpdateRotatesConcurrencyStamp(t *testing.T) {
	ctx := context.Background()
	s := newRoleStore(newMemDB())

	role := testRole("r1", "admin")
	_, err := s.Create(ctx, role)
	require.NoError(t, err)

	first := role.ConcurrencyStamp
	res, err := s.Update(ctx, role)
	require.NoError(t, err)
	require.True(t, res.Succeeded)
	assert.NotEqual(t, first, role.ConcurrencyStamp)
}

func TestRoleClaimsBufferThenFlush(t *testing.T) {
	ctx := context.Background()
	db := newMemDB()
	s := newRoleStore(db)

	role := testRole("r1", "admin")
	_, err := s.Create(ctx, role)
	require.NoError(t, err)

	claim := store.Claim{Type: "perm", Value: "users:write"}
	require.NoError(t, s.AddClaim(ctx, role, claim))

	// not persisted until Update: a freshly loaded handle sees none
	reloaded, err := s.FindByID(ctx, "r1")
	require.NoError(t, err)
	claims, err := s.GetClaims(ctx, reloaded)
	require.NoError(t, err)
	assert.Empty(t, claims)

	_, err = s.Update(ctx, role)
	require.NoError(t, err)

	reloaded, err = s.FindByID(ctx, "r1")
	require.NoError(t, err)
	claims, err = s.GetClaims(ctx, reloaded)
	require.NoError(t, err)
	assert.Equal(t, []store.Claim{claim}, claims)
}

func TestRoleRemoveClaim(t *testing.T) {
	ctx := context.Background()
	db := newMemDB()
	s := newRoleStore(db)

	role := testRole("r1", "admin")
	_, err := s.Create(ctx, role)
	require.NoError(t, err)

	claim := store.Claim{Type: "perm", Value: "users:write"}
	require.NoError(t, s.AddClaim(ctx, role, claim))
	require.NoError(t, s.RemoveClaim(ctx, role, claim))
	_, err = s.Update(ctx, role)
	require.NoError(t, err)

	claims, err := newRoleStore(db).GetClaims(ctx, role)
	require.NoError(t, err)
	assert.Empty(t, claims)
}

func TestRoleDelete(t *testing.T) {
	ctx := context.Background()
	s := newRoleStore(newMemDB())

	role := testRole("r1", "admin")
	_, err := s.Create(ctx, role)
	require.NoError(t, err)

	res, err := s.Delete(ctx, role)
	require.NoError(t, err)
	require.True(t, res.Succeeded)

	found, err := s.FindByID(ctx, "r1")
	require.NoError(t, err)
	assert.Nil(t, found)
}

func TestRoleClaimBuffersAreConfinedToTheHandle(t *testing.T) {
	ctx := context.Background()
	db := newMemDB()
	s := newRoleStore(db)

	role := testRole("r1", "admin")
	_, err := s.Create(ctx, role)
	require.NoError(t, err)

	first, err := s.FindByID(ctx, "r1")
	require.NoError(t, err)
	second, err := s.FindByID(ctx, "r1")
	require.NoError(t, err)

	require.NoError(t, s.AddClaim(ctx, first, store.Claim{Type: "perm", Value: "users:write"}))

	claims, err := s.GetClaims(ctx, second)
	require.NoError(t, err)
	assert.Empty(t, claims, "another handle for the same role sees no buffered claims")

	claims, err = s.GetClaims(ctx, first)
	require.NoError(t, err)
	assert.Len(t, claims, 1)
}

func TestRoleNilPreconditions(t *testing.T) {
	s := newRoleStore(newMemDB())
	ctx := context.Background()

	_, err := s.Create(ctx, nil)
	assert.ErrorIs(t, err, store.ErrNilRole)
	_, err = s.Update(ctx, nil)
	assert.ErrorIs(t, err, store.ErrNilRole)
	_, err = s.Delete(ctx, nil)
	assert.ErrorIs(t, err, store.ErrNilRole)
}
