package auth

import (
	"bytes"
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"strings"
	"unicode/utf8"

	"golang.org/x/crypto/pbkdf2"
)

// Key derivation parameters shared with the browser client. Changing any of
// them makes every payload produced by deployed clients undecryptable.
const (
	payloadKDFSalt       = "salt"
	payloadKDFIterations = 1000
	payloadKeyLen        = 32
	payloadSeparator     = ":"
)

var (
	// ErrMalformedPayload is returned when a payload is not ivHex:ciphertextHex.
	ErrMalformedPayload = errors.New("malformed encrypted payload")
	// ErrDecryptionFailed is returned when a well-formed payload does not decrypt.
	ErrDecryptionFailed = errors.New("payload decryption failed")
)

// PayloadCipher encrypts login fields with AES-256-CBC under a PBKDF2-derived key.
// Output format: hex(iv) + ":" + hex(ciphertext).
type PayloadCipher struct {
	block cipher.Block
	rand  io.Reader
}

// NewPayloadCipher derives the key from the shared secret.
func NewPayloadCipher(secret string) (*PayloadCipher, error) {
	if secret == "" {
		return nil, errors.New("encryption secret is empty")
	}
	key := pbkdf2.Key([]byte(secret), []byte(payloadKDFSalt), payloadKDFIterations, payloadKeyLen, sha256.New)
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("init aes: %w", err)
	}
	return &PayloadCipher{block: block, rand: rand.Reader}, nil
}

// Encrypt encrypts plaintext under a fresh random IV.
func (pc *PayloadCipher) Encrypt(plaintext string) (string, error) {
	iv := make([]byte, aes.BlockSize)
	if _, err := io.ReadFull(pc.rand, iv); err != nil {
		return "", fmt.Errorf("generate iv: %w", err)
	}

	padded := pkcs7Pad([]byte(plaintext), aes.BlockSize)
	out := make([]byte, len(padded))
	cipher.NewCBCEncrypter(pc.block, iv).CryptBlocks(out, padded)

	return hex.EncodeToString(iv) + payloadSeparator + hex.EncodeToString(out), nil
}

// Decrypt reverses Encrypt and returns the UTF-8 plaintext.
func (pc *PayloadCipher) Decrypt(payload string) (string, error) {
	parts := strings.Split(payload, payloadSeparator)
	if len(parts) != 2 {
		return "", ErrMalformedPayload
	}

	iv, err := hex.DecodeString(parts[0])
	if err != nil || len(iv) != aes.BlockSize {
		return "", ErrMalformedPayload
	}
	ciphertext, err := hex.DecodeString(parts[1])
	if err != nil || len(ciphertext) == 0 || len(ciphertext)%aes.BlockSize != 0 {
		return "", ErrMalformedPayload
	}

	out := make([]byte, len(ciphertext))
	cipher.NewCBCDecrypter(pc.block, iv).CryptBlocks(out, ciphertext)

	plain, err := pkcs7Unpad(out, aes.BlockSize)
	if err != nil {
		return "", err
	}
	if !utf8.Valid(plain) {
		return "", ErrDecryptionFailed
	}
	return string(plain), nil
}

// IsEncryptedValue reports whether s has the ivHex:ciphertextHex shape.
func IsEncryptedValue(s string) bool {
	iv, ct, ok := strings.Cut(s, payloadSeparator)
	if !ok || len(iv) != hex.EncodedLen(aes.BlockSize) || len(ct) == 0 {
		return false
	}
	if _, err := hex.DecodeString(iv); err != nil {
		return false
	}
	_, err := hex.DecodeString(ct)
	return err == nil
}

func pkcs7Pad(data []byte, blockSize int) []byte {
	n := blockSize - len(data)%blockSize
	return append(data, bytes.Repeat([]byte{byte(n)}, n)...)
}

func pkcs7Unpad(data []byte, blockSize int) ([]byte, error) {
	if len(data) == 0 || len(data)%blockSize != 0 {
		return nil, ErrDecryptionFailed
	}
	n := int(data[len(data)-1])
	if n == 0 || n > blockSize {
		return nil, ErrDecryptionFailed
	}
	for _, b := range data[len(data)-n:] {
		if int(b) != n {
			return nil, ErrDecryptionFailed
		}
	}
	return data[:len(data)-n], nil
}
