package store

import "errors"

// Precondition errors. These signal programmer mistakes, are returned
// immediately and are never folded into a Result.
var (
	ErrNilAccount = errors.New("account must not be nil")
	ErrNilRole    = errors.New("role must not be nil")
)

// ErrRoleNotFound is returned when a role-membership mutation names a role
// that does not exist. Membership against an unknown role fails loudly
// rather than silently no-oping.
var ErrRoleNotFound = errors.New("role not found")
