package auth

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testEncryptionSecret = "test-encryption-secret"

// Fixed IV 000102..0f; ciphertexts produced by the browser client implementation.
var knownPayloads = map[string]string{
	"admin@salon.com":  "000102030405060708090a0b0c0d0e0f:fdf99dc6d782a85bba9aaee30837b8f3",
	"123456":           "000102030405060708090a0b0c0d0e0f:e3012baed31105eaf2f21a9b84e514c2",
	"senha-segura-123": "000102030405060708090a0b0c0d0e0f:07165af9bd82fe7f1fe6d09845d25f1be35928129631448c08be124d4b2b76c2",
}

func newTestCipher(t *testing.T) *PayloadCipher {
	t.Helper()
	pc, err := NewPayloadCipher(testEncryptionSecret)
	require.NoError(t, err)
	return pc
}

func TestPayloadCipher_RoundTrip(t *testing.T) {
	pc := newTestCipher(t)

	for _, s := range []string{"", "a", "admin@salon.com", "exactly-16-bytes", "çãõ 🔐 unicode", strings.Repeat("x", 1000)} {
		enc, err := pc.Encrypt(s)
		require.NoError(t, err)
		assert.True(t, IsEncryptedValue(enc))

		dec, err := pc.Decrypt(enc)
		require.NoError(t, err)
		assert.Equal(t, s, dec)
	}
}

func TestPayloadCipher_FreshIVPerCall(t *testing.T) {
	pc := newTestCipher(t)

	first, err := pc.Encrypt("123456")
	require.NoError(t, err)
	second, err := pc.Encrypt("123456")
	require.NoError(t, err)

	assert.NotEqual(t, first, second)
	assert.NotEqual(t, strings.Split(first, ":")[0], strings.Split(second, ":")[0])
}

func TestPayloadCipher_KnownVectors(t *testing.T) {
	pc := newTestCipher(t)

	for plain, payload := range knownPayloads {
		dec, err := pc.Decrypt(payload)
		require.NoError(t, err)
		assert.Equal(t, plain, dec)
	}
}

func TestPayloadCipher_DeterministicWithFixedIV(t *testing.T) {
	pc := newTestCipher(t)
	pc.rand = bytes.NewReader([]byte{0, 1, 2, 3, 4, 5, 6, 7, 8, 9, 10, 11, 12, 13, 14, 15})

	enc, err := pc.Encrypt("admin@salon.com")
	require.NoError(t, err)
	assert.Equal(t, knownPayloads["admin@salon.com"], enc)
}

func TestPayloadCipher_Malformed(t *testing.T) {
	pc := newTestCipher(t)

	tests := []string{
		"",
		"no-separator",
		"a:b:c",
		"zz0102030405060708090a0b0c0d0e0f:fdf99dc6d782a85bba9aaee30837b8f3",
		"0001:fdf99dc6d782a85bba9aaee30837b8f3",
		"000102030405060708090a0b0c0d0e0f:",
		"000102030405060708090a0b0c0d0e0f:fdf99dc6",
		"000102030405060708090a0b0c0d0e0f:not-hex-at-all!!",
	}
	for _, payload := range tests {
		_, err := pc.Decrypt(payload)
		assert.ErrorIs(t, err, ErrMalformedPayload, "payload %q", payload)
	}
}

func TestPayloadCipher_TamperedPadding(t *testing.T) {
	pc := newTestCipher(t)
	payload := knownPayloads["senha-segura-123"]

	// Flipping the low nibble of the last byte of the first ciphertext block
	// turns the 0x10 padding byte of the second block into 0x11..0x1f.
	idx := strings.Index(payload, ":") + 32
	tampered := []byte(payload)
	if tampered[idx] == '0' {
		tampered[idx] = '1'
	} else {
		tampered[idx] = '0'
	}

	_, err := pc.Decrypt(string(tampered))
	assert.ErrorIs(t, err, ErrDecryptionFailed)
}

func TestPayloadCipher_WrongKey(t *testing.T) {
	pc := newTestCipher(t)
	other, err := NewPayloadCipher("another-secret")
	require.NoError(t, err)

	enc, err := pc.Encrypt("admin@salon.com")
	require.NoError(t, err)

	dec, err := other.Decrypt(enc)
	if err == nil {
		assert.NotEqual(t, "admin@salon.com", dec)
	}
}

func TestNewPayloadCipher_EmptySecret(t *testing.T) {
	_, err := NewPayloadCipher("")
	require.Error(t, err)
}

func TestIsEncryptedValue(t *testing.T) {
	assert.True(t, IsEncryptedValue(knownPayloads["123456"]))
	assert.False(t, IsEncryptedValue("admin@salon.com"))
	assert.False(t, IsEncryptedValue("00:11"))
	assert.False(t, IsEncryptedValue("000102030405060708090a0b0c0d0e0f:"))
}
