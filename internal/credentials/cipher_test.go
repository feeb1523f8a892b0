package credentials

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testKey = []byte("0123456789abcdef0123456789abcdef")

func newTestCipher(t *testing.T) *Cipher {
	t.Helper()

	c, err := NewCipher(testKey)
	require.NoError(t, err)
	return c
}

func TestNewCipherKeySize(t *testing.T) {
	tests := []struct {
		name      string
		key       []byte
		expectErr bool
	}{
		{name: "exact 32 bytes", key: testKey},
		{name: "too short", key: []byte("short"), expectErr: true},
		{name: "too long", key: append([]byte(nil), append(testKey, 'x')...), expectErr: true},
		{name: "nil", key: nil, expectErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewCipher(tt.key)
			if tt.expectErr {
				assert.ErrorIs(t, err, ErrInvalidKeySize)
				return
			}
			assert.NoError(t, err)
		})
	}
}

func TestEncryptDecryptRoundTrip(t *testing.T) {
	c := newTestCipher(t)

	secrets := []map[string]string{
		{"username": "alice", "password": "hunter2"},
		{"token": "abc123"},
		{},
	}

	for _, secret := range secrets {
		payload, err := c.Encrypt(secret)
		require.NoError(t, err)

		var out map[string]string
		require.NoError(t, c.Decrypt(payload, &out))
		assert.Equal(t, secret, out)
	}
}

func TestEncryptPayloadFormat(t *testing.T) {
	c := newTestCipher(t)

	payload, err := c.Encrypt(map[string]string{"username": "alice"})
	require.NoError(t, err)

	parts := strings.Split(payload, ":")
	require.Len(t, parts, 2)
	assert.Len(t, parts[0], 32) // 16-byte IV, hex encoded
	assert.NotEmpty(t, parts[1])
}

func TestEncryptUsesFreshIV(t *testing.T) {
	c := newTestCipher(t)
	secret := map[string]string{"username": "alice", "password": "hunter2"}

	first, err := c.Encrypt(secret)
	require.NoError(t, err)
	second, err := c.Encrypt(secret)
	require.NoError(t, err)

	// Identical input must never produce identical ciphertext.
	assert.NotEqual(t, first, second)
}

func TestDecryptWrongKey(t *testing.T) {
	c := newTestCipher(t)

	payload, err := c.Encrypt(map[string]string{"username": "alice"})
	require.NoError(t, err)

	other, err := NewCipher([]byte("ffffffffffffffffffffffffffffffff"))
	require.NoError(t, err)

	var out map[string]string
	err = other.Decrypt(payload, &out)
	assert.ErrorIs(t, err, ErrDecryptFailed)
}

func TestDecryptMalformedPayload(t *testing.T) {
	c := newTestCipher(t)

	tests := []struct {
		name    string
		payload string
	}{
		{name: "no separator", payload: "deadbeef"},
		{name: "bad iv hex", payload: "zz:deadbeef"},
		{name: "short iv", payload: "dead:deadbeefdeadbeefdeadbeefdeadbeef"},
		{name: "empty ciphertext", payload: strings.Repeat("ab", 16) + ":"},
		{name: "ciphertext not block aligned", payload: strings.Repeat("ab", 16) + ":dead"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var out map[string]string
			err := c.Decrypt(tt.payload, &out)
			assert.ErrorIs(t, err, ErrMalformedPayload)
		})
	}
}

func TestDecryptTruncatedCiphertext(t *testing.T) {
	c := newTestCipher(t)

	payload, err := c.Encrypt(map[string]string{"username": "alice", "password": "a long password to span blocks"})
	require.NoError(t, err)

	// Drop the last cipher block; padding validation must fail loudly.
	truncated := payload[:len(payload)-32]

	var out map[string]string
	err = c.Decrypt(truncated, &out)
	assert.Error(t, err)
}
