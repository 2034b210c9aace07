package security

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHashAndVerifyPassword(t *testing.T) {
	hash, err := HashPassword("s3cret passphrase")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(hash), "$argon2id$v=19$"))

	ok, err := VerifyPassword("s3cret passphrase", hash)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = VerifyPassword("wrong", hash)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestHashPassword_UniqueSalts(t *testing.T) {
	a, err := HashPassword("same")
	require.NoError(t, err)
	b, err := HashPassword("same")
	require.NoError(t, err)

	assert.NotEqual(t, a, b)
}

func TestVerifyPassword_EmptyHash(t *testing.T) {
	// Accounts created through Google carry no hash; that case must look
	// exactly like a mismatch, not like an error.
	ok, err := VerifyPassword("anything", nil)
	require.NoError(t, err)
	assert.False(t, ok)

	ok, err = VerifyPassword("anything", []byte{})
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestVerifyPassword_MalformedHash(t *testing.T) {
	_, err := VerifyPassword("pw", []byte("$bcrypt$whatever"))
	assert.Error(t, err)

	_, err = VerifyPassword("pw", []byte("not even dollar separated"))
	assert.Error(t, err)
}

func TestHashPasswordWithParams(t *testing.T) {
	params := Argon2Params{Time: 1, Memory: 16 * 1024, Threads: 1, KeyLen: 32, SaltLen: 16}

	hash, err := HashPasswordWithParams("pw", params)
	require.NoError(t, err)
	assert.Contains(t, string(hash), "t=1,m=16384,p=1")

	ok, err := VerifyPassword("pw", hash)
	require.NoError(t, err)
	assert.True(t, ok)
}
