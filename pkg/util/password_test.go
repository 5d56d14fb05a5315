package util

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHashPassword(t *testing.T) {
	hash, err := HashPassword("lunch-time-1230")
	require.NoError(t, err)
	assert.NotEmpty(t, hash)
	assert.NotEqual(t, "lunch-time-1230", hash)
}

func TestVerifyPassword(t *testing.T) {
	hash, err := HashPassword("lunch-time-1230")
	require.NoError(t, err)

	assert.True(t, VerifyPassword(hash, "lunch-time-1230"))
	assert.False(t, VerifyPassword(hash, "wrong-password"))
	assert.False(t, VerifyPassword("not-a-hash", "lunch-time-1230"))
}
