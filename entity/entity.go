// Package entity defines the plain data records persisted by the identity
// stores. Every record is generic over an opaque key type K so callers can
// choose string, UUID or numeric identifiers without touching the SQL layer.
package entity

import "time"

// Key constrains the identifier type used across the identity tables. Any
// comparable type works as long as the database driver can bind and scan it
// (string, uuid.UUID and int64 in practice).
type Key interface {
	comparable
}

// Account represents a row in the `accounts` table. The store never assigns
// ID: callers supply one (typically a fresh UUID or KSUID) before Create.
type Account[K Key] struct {
	ID                 K          `db:"id"`
	UserName           string     `db:"username"`
	NormalizedUserName string     `db:"normalized_username"`
	Email              *string    `db:"email"`
	NormalizedEmail    *string    `db:"normalized_email"`
	EmailConfirmed     bool       `db:"email_confirmed"`
	PasswordHash       *string    `db:"password_hash"`
	SecurityStamp      string     `db:"security_stamp"`
	ConcurrencyStamp   string     `db:"concurrency_stamp"`
	PhoneNumber        *string    `db:"phone_number"`
	PhoneConfirmed     bool       `db:"phone_confirmed"`
	TwoFactorEnabled   bool       `db:"two_factor_enabled"`
	LockoutEnd         *time.Time `db:"lockout_end"`
	LockoutEnabled     bool       `db:"lockout_enabled"`
	AccessFailedCount  int        `db:"access_failed_count"`

	// pending rides on the handle, never on the store: handle confinement is
	// buffer confinement. Unexported, so sqlx ignores it.
	pending *Changes[K]
}

// IsLockedOut reports whether the account is currently locked out: lockout
// must be enabled and the lockout end must lie in the future. A nil or past
// LockoutEnd means not locked.
func (a *Account[K]) IsLockedOut(now time.Time) bool {
	return a.LockoutEnabled && a.LockoutEnd != nil && a.LockoutEnd.After(now)
}

// Role represents a row in the `roles` table.
type Role[K Key] struct {
	ID               K      `db:"id"`
	Name             string `db:"name"`
	NormalizedName   string `db:"normalized_name"`
	ConcurrencyStamp string `db:"concurrency_stamp"`

	pending *RoleChanges[K]
}

// AccountClaim is a claim owned by an account. ID is assigned by the
// database; it is ignored on insert. Uniqueness is by the
// (AccountID, ClaimType, ClaimValue) triple semantically, not by key.
type AccountClaim[K Key] struct {
	ID         int64  `db:"id"`
	AccountID  K      `db:"account_id"`
	ClaimType  string `db:"claim_type"`
	ClaimValue string `db:"claim_value"`
}

// RoleClaim is a claim owned by a role.
type RoleClaim[K Key] struct {
	ID         int64  `db:"id"`
	RoleID     K      `db:"role_id"`
	ClaimType  string `db:"claim_type"`
	ClaimValue string `db:"claim_value"`
}

// ExternalLogin links an account to a third-party authentication source.
// (LoginProvider, ProviderKey) is unique across the whole table.
type ExternalLogin[K Key] struct {
	LoginProvider       string `db:"login_provider"`
	ProviderKey         string `db:"provider_key"`
	ProviderDisplayName string `db:"provider_display_name"`
	AccountID           K      `db:"account_id"`
}

// AccountToken is a generic (provider, name) -> value secret owned by an
// account. The two-factor authenticator key and the joined recovery-code
// list are stored through this table under a reserved internal provider.
type AccountToken[K Key] struct {
	AccountID     K      `db:"account_id"`
	LoginProvider string `db:"login_provider"`
	Name          string `db:"name"`
	Value         string `db:"value"`
}

// AccountRole is the many-to-many membership junction row.
type AccountRole[K Key] struct {
	AccountID K `db:"account_id"`
	RoleID    K `db:"role_id"`
}
