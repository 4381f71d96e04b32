package passhash

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHashThenVerify(t *testing.T) {
	hasher := New(DefaultCost)

	hashed, err := hasher.Hash("secret1")
	require.NoError(t, err)
	require.NotEmpty(t, hashed)
	assert.NotEqual(t, "secret1", hashed)

	ok, err := hasher.Verify("secret1", hashed)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestVerifyRejectsOtherPlaintext(t *testing.T) {
	hasher := New(DefaultCost)

	hashed, err := hasher.Hash("secret1")
	require.NoError(t, err)

	ok, err := hasher.Verify("secret2", hashed)
	require.NoError(t, err, "a mismatch is not an error")
	assert.False(t, ok)
}

func TestHashIsSalted(t *testing.T) {
	hasher := New(DefaultCost)

	first, err := hasher.Hash("secret1")
	require.NoError(t, err)

	second, err := hasher.Hash("secret1")
	require.NoError(t, err)

	assert.NotEqual(t, first, second, "repeated hashing should embed a fresh salt")

	ok, err := hasher.Verify("secret1", first)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = hasher.Verify("secret1", second)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestVerifyMalformedHash(t *testing.T) {
	hasher := New(DefaultCost)

	ok, err := hasher.Verify("secret1", "not a bcrypt value")
	assert.Error(t, err)
	assert.False(t, ok)
}

func TestNewReplacesOutOfRangeCost(t *testing.T) {
	hasher := New(1000)

	hashed, err := hasher.Hash("secret1")
	require.NoError(t, err)

	ok, err := hasher.Verify("secret1", hashed)
	require.NoError(t, err)
	assert.True(t, ok)
}
