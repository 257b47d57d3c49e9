package credentials

import (
	"encoding/base64"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testKey() string {
	return base64.StdEncoding.EncodeToString([]byte(strings.Repeat("k", 32)))
}

func TestTokenCipher_RoundTrip(t *testing.T) {
	c, err := NewTokenCipher(testKey())
	require.NoError(t, err)

	sealed, err := c.Encrypt(`{"token":"abc"}`)
	require.NoError(t, err)
	assert.NotContains(t, sealed, "abc")

	again, err := c.Encrypt(`{"token":"abc"}`)
	require.NoError(t, err)
	assert.NotEqual(t, sealed, again, "nonce must differ per call")

	plain, err := c.Decrypt(sealed)
	require.NoError(t, err)
	assert.Equal(t, `{"token":"abc"}`, plain)
}

func TestNewTokenCipher_BadKeys(t *testing.T) {
	tbl := []struct {
		name string
		key  string
	}{
		{"empty", ""},
		{"not base64", "%%%"},
		{"short", base64.StdEncoding.EncodeToString([]byte("short"))},
	}

	for _, c := range tbl {
		t.Run(c.name, func(t *testing.T) {
			_, err := NewTokenCipher(c.key)
			assert.Error(t, err)
		})
	}
}

func TestTokenCipher_Tampered(t *testing.T) {
	c, err := NewTokenCipher(testKey())
	require.NoError(t, err)

	sealed, err := c.Encrypt("secret")
	require.NoError(t, err)

	raw, err := base64.StdEncoding.DecodeString(sealed)
	require.NoError(t, err)
	raw[len(raw)-1] ^= 0xff

	_, err = c.Decrypt(base64.StdEncoding.EncodeToString(raw))
	assert.Error(t, err)

	_, err = c.Decrypt(base64.StdEncoding.EncodeToString([]byte("x")))
	assert.Error(t, err)
}
