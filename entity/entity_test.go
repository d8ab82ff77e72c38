package entity_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/perical/identity-postgres/entity"
)

func TestIsLockedOut(t *testing.T) {
	now := time.Now()
	past := now.Add(-time.Minute)
	future := now.Add(time.Minute)

	cases := []struct {
		name    string
		account entity.Account[string]
		want    bool
	}{
		{"no lockout end", entity.Account[string]{LockoutEnabled: true}, false},
		{"lockout end in the past", entity.Account[string]{LockoutEnabled: true, LockoutEnd: &past}, false},
		{"lockout end in the future", entity.Account[string]{LockoutEnabled: true, LockoutEnd: &future}, true},
		{"lockout disabled", entity.Account[string]{LockoutEnabled: false, LockoutEnd: &future}, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, tc.account.IsLockedOut(now))
		})
	}
}

func TestPendingIsPerHandle(t *testing.T) {
	a := &entity.Account[string]{ID: "a1"}
	b := &entity.Account[string]{ID: "a1"}

	a.Pending().ClaimsLoaded = true
	assert.False(t, a.Pending().Empty())
	assert.True(t, b.Pending().Empty(), "handles never share a buffer, same row or not")

	a.ClearPending()
	assert.True(t, a.Pending().Empty())
}

func TestChangesEmpty(t *testing.T) {
	var ch entity.Changes[string]
	assert.True(t, ch.Empty())

	ch.ClaimsLoaded = true
	assert.False(t, ch.Empty(), "a materialized collection flushes even when it has no rows")

	var rc entity.RoleChanges[int64]
	assert.True(t, rc.Empty())
	rc.ClaimsLoaded = true
	assert.False(t, rc.Empty())
}
