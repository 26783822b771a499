package pkg

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCryptoRoundTrip(t *testing.T) {
	for _, size := range []int{16, 24, 32} {
		c, err := NewCrypto(strings.Repeat("k", size))
		require.NoError(t, err)

		enc, err := c.Encrypt("resume text")
		require.NoError(t, err)
		assert.NotContains(t, enc, "resume")

		dec, err := c.Decrypt(enc)
		require.NoError(t, err)
		assert.Equal(t, "resume text", dec)
	}
}

func TestCryptoNonceIsFreshPerCall(t *testing.T) {
	c, err := NewCrypto(strings.Repeat("k", 32))
	require.NoError(t, err)

	a, err := c.Encrypt("same")
	require.NoError(t, err)
	b, err := c.Encrypt("same")
	require.NoError(t, err)
	assert.NotEqual(t, a, b)
	assert.True(t, strings.HasPrefix(a, "v1."))
}

func TestCryptoRejectsBadKey(t *testing.T) {
	_, err := NewCrypto("short")
	require.ErrorIs(t, err, ErrInvalidKey)
}

func TestCryptoRejectsMalformedAndTampered(t *testing.T) {
	c, err := NewCrypto(strings.Repeat("k", 32))
	require.NoError(t, err)

	for _, in := range []string{"bm90LXZhbGlk", "v1.!!!", "v1.c2hvcnQ"} {
		_, err = c.Decrypt(in)
		assert.ErrorIs(t, err, ErrMalformedSealed, in)
	}

	enc, err := c.Encrypt("resume text")
	require.NoError(t, err)
	tampered := []byte(enc)
	i := len("v1.") + 5
	if tampered[i] == 'A' {
		tampered[i] = 'B'
	} else {
		tampered[i] = 'A'
	}
	_, err = c.Decrypt(string(tampered))
	assert.ErrorIs(t, err, ErrSealedAuthFailure)

	other, err := NewCrypto(strings.Repeat("x", 32))
	require.NoError(t, err)
	_, err = other.Decrypt(enc)
	assert.ErrorIs(t, err, ErrSealedAuthFailure)
}

func TestPassword(t *testing.T) {
	hash, err := HashPassword("s3cret")
	require.NoError(t, err)
	require.NoError(t, ComparePassword(hash, "s3cret"))
	require.Error(t, ComparePassword(hash, "wrong"))

	assert.True(t, IsPasswordHash(hash))
	assert.False(t, IsPasswordHash("s3cret"))
}
