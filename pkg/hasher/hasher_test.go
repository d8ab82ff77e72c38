package hasher_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/perical/identity-postgres/pkg/hasher"
)

func TestBcryptRoundTrip(t *testing.T) {
	h := hasher.Bcrypt{Cost: 4}

	hashed, err := h.Hash("correct horse battery staple")
	require.NoError(t, err)
	require.NotEmpty(t, hashed)
	assert.NotEqual(t, "correct horse battery staple", hashed)

	assert.True(t, h.Verify(hashed, "correct horse battery staple"))
	assert.False(t, h.Verify(hashed, "wrong password"))
	assert.False(t, h.Verify("not a bcrypt hash", "anything"))
}

func TestBcryptHashesAreSalted(t *testing.T) {
	h := hasher.Bcrypt{Cost: 4}

	a, err := h.Hash("same input")
	require.NoError(t, err)
	b, err := h.Hash("same input")
	require.NoError(t, err)
	assert.NotEqual(t, a, b)
}
