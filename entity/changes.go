package entity

// Changes is the pending-changes side structure carried alongside an Account
// between load and flush. Child collections are materialized lazily: a nil
// Loaded flag means the collection was never touched and the owning update
// must leave the table alone; a set flag means the slice is the full intended
// state and the update replaces the stored rows with it (delete then
// reinsert, inside the update's transaction).
type Changes[K Key] struct {
	Claims       []AccountClaim[K]
	ClaimsLoaded bool

	Logins       []ExternalLogin[K]
	LoginsLoaded bool

	// Roles holds the full role rows the account belongs to; only the ids
	// are written to the junction table, the names back the GetRoles view.
	Roles       []Role[K]
	RolesLoaded bool

	Tokens       []AccountToken[K]
	TokensLoaded bool
}

// Empty reports whether no child collection has been materialized, letting
// the accounts accessor skip the fan-out entirely.
func (c *Changes[K]) Empty() bool {
	if c == nil {
		return true
	}
	return !c.ClaimsLoaded && !c.LoginsLoaded && !c.RolesLoaded && !c.TokensLoaded
}

// Pending returns the change set attached to this account handle, creating
// it on first use. The buffer shares the handle's confinement: whoever owns
// the handle owns its pending changes, and two handles for the same row
// never share a buffer.
func (a *Account[K]) Pending() *Changes[K] {
	if a.pending == nil {
		a.pending = &Changes[K]{}
	}
	return a.pending
}

// ClearPending detaches the buffered change set, typically after a
// successful flush.
func (a *Account[K]) ClearPending() {
	a.pending = nil
}

// RoleChanges is the equivalent side structure for a Role, which owns a
// single child collection.
type RoleChanges[K Key] struct {
	Claims       []RoleClaim[K]
	ClaimsLoaded bool
}

func (c *RoleChanges[K]) Empty() bool {
	return c == nil || !c.ClaimsLoaded
}

// Pending returns the change set attached to this role handle, creating it
// on first use.
func (r *Role[K]) Pending() *RoleChanges[K] {
	if r.pending == nil {
		r.pending = &RoleChanges[K]{}
	}
	return r.pending
}

// ClearPending detaches the buffered change set.
func (r *Role[K]) ClearPending() {
	r.pending = nil
}
