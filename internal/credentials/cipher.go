// Package credentials implements the credential vault: encrypted at-rest
// storage of per-user, per-service backend secrets.
package credentials

import (
	"bytes"
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// KeySize is the required encryption key length in bytes (AES-256).
const KeySize = 32

// Cipher errors.
var (
	// ErrInvalidKeySize indicates the encryption key is not exactly 32 bytes.
	ErrInvalidKeySize = errors.New("encryption key must be exactly 32 bytes")

	// ErrMalformedPayload indicates the payload is not in ivHex:cipherHex form.
	ErrMalformedPayload = errors.New("malformed encrypted payload")

	// ErrDecryptFailed indicates decryption failed: the payload was
	// corrupted or encrypted under a different key.
	ErrDecryptFailed = errors.New("decryption failed")
)

// Cipher encrypts and decrypts credential payloads with AES-256-CBC.
// Payloads are serialized as JSON and encoded as "ivHex:cipherHex" with a
// fresh random IV per encryption.
type Cipher struct {
	key []byte
}

// NewCipher creates a Cipher. The key must be exactly 32 bytes.
func NewCipher(key []byte) (*Cipher, error) {
	if len(key) != KeySize {
		return nil, fmt.Errorf("%w: got %d", ErrInvalidKeySize, len(key))
	}

	c := &Cipher{key: make([]byte, KeySize)}
	copy(c.key, key)

	return c, nil
}

// Encrypt serializes the secret to JSON and encrypts it. Each call uses a
// fresh random IV, so identical inputs produce different ciphertexts.
func (c *Cipher) Encrypt(secret interface{}) (string, error) {
	plaintext, err := json.Marshal(secret)
	if err != nil {
		return "", fmt.Errorf("failed to serialize secret: %w", err)
	}

	block, err := aes.NewCipher(c.key)
	if err != nil {
		return "", err
	}

	iv := make([]byte, aes.BlockSize)
	if _, err := rand.Read(iv); err != nil {
		return "", fmt.Errorf("failed to generate IV: %w", err)
	}

	padded := pkcs7Pad(plaintext, aes.BlockSize)
	ciphertext := make([]byte, len(padded))
	cipher.NewCBCEncrypter(block, iv).CryptBlocks(ciphertext, padded)

	return hex.EncodeToString(iv) + ":" + hex.EncodeToString(ciphertext), nil
}

// Decrypt reverses Encrypt into out. A corrupted or truncated payload, or
// one encrypted under a different key, returns ErrDecryptFailed (or
// ErrMalformedPayload) rather than silently yielding wrong data.
func (c *Cipher) Decrypt(payload string, out interface{}) error {
	ivHex, cipherHex, ok := strings.Cut(payload, ":")
	if !ok {
		return ErrMalformedPayload
	}

	iv, err := hex.DecodeString(ivHex)
	if err != nil || len(iv) != aes.BlockSize {
		return ErrMalformedPayload
	}

	ciphertext, err := hex.DecodeString(cipherHex)
	if err != nil || len(ciphertext) == 0 || len(ciphertext)%aes.BlockSize != 0 {
		return ErrMalformedPayload
	}

	block, err := aes.NewCipher(c.key)
	if err != nil {
		return err
	}

	plaintext := make([]byte, len(ciphertext))
	cipher.NewCBCDecrypter(block, iv).CryptBlocks(plaintext, ciphertext)

	unpadded, err := pkcs7Unpad(plaintext, aes.BlockSize)
	if err != nil {
		return ErrDecryptFailed
	}

	if err := json.Unmarshal(unpadded, out); err != nil {
		return fmt.Errorf("%w: %v", ErrDecryptFailed, err)
	}

	return nil
}

// pkcs7Pad pads data to a multiple of blockSize.
func pkcs7Pad(data []byte, blockSize int) []byte {
	padLen := blockSize - len(data)%blockSize
	return append(data, bytes.Repeat([]byte{byte(padLen)}, padLen)...)
}

// pkcs7Unpad removes and validates PKCS#7 padding.
func pkcs7Unpad(data []byte, blockSize int) ([]byte, error) {
	if len(data) == 0 || len(data)%blockSize != 0 {
		return nil, errors.New("invalid padded length")
	}

	padLen := int(data[len(data)-1])
	if padLen == 0 || padLen > blockSize || padLen > len(data) {
		return nil, errors.New("invalid padding length")
	}

	for _, b := range data[len(data)-padLen:] {
		if int(b) != padLen {
			return nil, errors.New("invalid padding bytes")
		}
	}

	return data[:len(data)-padLen], nil
}
