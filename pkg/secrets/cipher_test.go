package secrets

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCipher_RoundTrip(t *testing.T) {
	c, err := NewCipher("test-secret", "test-salt")
	require.NoError(t, err)

	sealed, err := c.Encrypt("refresh-token-value")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(sealed, "enc:"), "sealed value should carry the enc: prefix")
	assert.NotContains(t, sealed, "refresh-token-value")

	opened, err := c.Decrypt(sealed)
	require.NoError(t, err)
	assert.Equal(t, "refresh-token-value", opened)
}

func TestCipher_NoncesDiffer(t *testing.T) {
	c, err := NewCipher("test-secret", "test-salt")
	require.NoError(t, err)

	a, err := c.Encrypt("same-value")
	require.NoError(t, err)
	b, err := c.Encrypt("same-value")
	require.NoError(t, err)
	assert.NotEqual(t, a, b, "each encryption should use a fresh nonce")
}

func TestCipher_PlaintextPassthrough(t *testing.T) {
	c, err := NewCipher("test-secret", "test-salt")
	require.NoError(t, err)

	opened, err := c.Decrypt("legacy-plaintext")
	require.NoError(t, err)
	assert.Equal(t, "legacy-plaintext", opened)
}

func TestCipher_WrongKey(t *testing.T) {
	c1, err := NewCipher("secret-one", "salt")
	require.NoError(t, err)
	c2, err := NewCipher("secret-two", "salt")
	require.NoError(t, err)

	sealed, err := c1.Encrypt("value")
	require.NoError(t, err)

	_, err = c2.Decrypt(sealed)
	assert.Error(t, err, "decrypting with the wrong key should fail")
}

func TestNewCipher_EmptySecret(t *testing.T) {
	_, err := NewCipher("", "salt")
	assert.Error(t, err)
}
