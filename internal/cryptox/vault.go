// Package cryptox seals game vault secrets at rest.
package cryptox

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"strings"

	"golang.org/x/crypto/chacha20poly1305"
	"golang.org/x/crypto/hkdf"
)

// sealedPrefix marks a value produced by Seal
const sealedPrefix = "enc:v1:"

const hkdfInfo = "northline-journal vault v1"

// ErrMalformed is returned when a sealed value cannot be opened
var ErrMalformed = errors.New("malformed sealed value")

// Vault encrypts short secrets with XChaCha20-Poly1305.
// A nil *Vault is valid and passes values through unchanged.
type Vault struct {
	key []byte
}

// NewVault derives the encryption key from secret with HKDF-SHA256.
// An empty secret yields a nil vault, which disables encryption.
func NewVault(secret string) (*Vault, error) {
	if secret == "" {
		return nil, nil
	}

	key := make([]byte, chacha20poly1305.KeySize)
	if _, err := io.ReadFull(hkdf.New(sha256.New, []byte(secret), nil, []byte(hkdfInfo)), key); err != nil {
		return nil, fmt.Errorf("failed to derive vault key: %w", err)
	}

	return &Vault{key: key}, nil
}

// Enabled reports whether values are encrypted
func (v *Vault) Enabled() bool {
	return v != nil && len(v.key) > 0
}

// IsSealed reports whether value carries the sealed prefix
func IsSealed(value string) bool {
	return strings.HasPrefix(value, sealedPrefix)
}

// Seal encrypts plaintext bound to binding (usually the row id).
// Values already sealed are returned unchanged.
func (v *Vault) Seal(plaintext, binding string) (string, error) {
	if !v.Enabled() || IsSealed(plaintext) {
		return plaintext, nil
	}

	aead, err := chacha20poly1305.NewX(v.key)
	if err != nil {
		return "", fmt.Errorf("failed to create cipher: %w", err)
	}

	nonce := make([]byte, aead.NonceSize(), aead.NonceSize()+len(plaintext)+aead.Overhead())
	if _, err := rand.Read(nonce); err != nil {
		return "", fmt.Errorf("failed to generate nonce: %w", err)
	}

	sealed := aead.Seal(nonce, nonce, []byte(plaintext), []byte(binding))
	return sealedPrefix + base64.RawStdEncoding.EncodeToString(sealed), nil
}

// Open decrypts a value produced by Seal with the same binding.
// Values without the sealed prefix are legacy plaintext and returned unchanged.
func (v *Vault) Open(value, binding string) (string, error) {
	if !IsSealed(value) {
		return value, nil
	}
	if !v.Enabled() {
		return "", fmt.Errorf("vault key is not configured: %w", ErrMalformed)
	}

	raw, err := base64.RawStdEncoding.DecodeString(strings.TrimPrefix(value, sealedPrefix))
	if err != nil {
		return "", ErrMalformed
	}

	aead, err := chacha20poly1305.NewX(v.key)
	if err != nil {
		return "", fmt.Errorf("failed to create cipher: %w", err)
	}
	if len(raw) < aead.NonceSize()+aead.Overhead() {
		return "", ErrMalformed
	}

	nonce, ciphertext := raw[:aead.NonceSize()], raw[aead.NonceSize():]
	plaintext, err := aead.Open(nil, nonce, ciphertext, []byte(binding))
	if err != nil {
		return "", ErrMalformed
	}

	return string(plaintext), nil
}
