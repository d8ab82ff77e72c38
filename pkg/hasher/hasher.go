// Package hasher provides the credential hasher the identity stores
// delegate to. The stores only persist opaque hash strings; algorithm
// choice lives here, behind a minimal interface so callers can swap to
// argon2 or an external service.
package hasher

import "golang.org/x/crypto/bcrypt"

// Hasher defines the minimal hashing interface.
type Hasher interface {
	Hash(password string) (string, error)
	Verify(hash, password string) bool
}

// Bcrypt is the default Hasher implementation.
type Bcrypt struct {
	Cost int
}

func (b Bcrypt) Hash(password string) (string, error) {
	cost := b.Cost
	if cost == 0 {
		cost = bcrypt.DefaultCost
	}
	h, err := bcrypt.GenerateFromPassword([]byte(password), cost)
	if err != nil {
		return "", err
	}
	return string(h), nil
}

func (b Bcrypt) Verify(hash, password string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}
