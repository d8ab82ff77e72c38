package store

import "github.com/perical/identity-postgres/pkg/utilities"

// newConcurrencyStamp produces the opaque token rotated on every successful
// update. Callers never control the stamp value.
func newConcurrencyStamp() string {
	return utilities.NewKSUID()
}
