package service

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/hex"
	"fmt"
	"strings"

	"golang.org/x/crypto/scrypt"
)

// scrypt cost parameters. Stored hashes carry no parameters, so changing
// these invalidates every existing password.
const (
	scryptN      = 16384
	scryptR      = 8
	scryptP      = 1
	scryptKeyLen = 64
	saltLen      = 16
)

// HashPassword derives a salted scrypt hash of plaintext.
// The result has the form "<saltHex>:<keyHex>" and differs on every call.
func HashPassword(plaintext string) (string, error) {
	salt := make([]byte, saltLen)
	if _, err := rand.Read(salt); err != nil {
		return "", fmt.Errorf("failed to generate salt: %w", err)
	}
	saltHex := hex.EncodeToString(salt)

	// The hex text itself is the scrypt salt so existing hashes keep verifying
	key, err := scrypt.Key([]byte(plaintext), []byte(saltHex), scryptN, scryptR, scryptP, scryptKeyLen)
	if err != nil {
		return "", fmt.Errorf("failed to derive key: %w", err)
	}

	return saltHex + ":" + hex.EncodeToString(key), nil
}

// VerifyPassword reports whether plaintext matches a hash produced by HashPassword.
// Malformed stored values never match.
func VerifyPassword(plaintext, stored string) bool {
	saltHex, keyHex, found := strings.Cut(stored, ":")
	if !found || saltHex == "" || keyHex == "" {
		return false
	}

	expected, err := hex.DecodeString(keyHex)
	if err != nil || len(expected) != scryptKeyLen {
		return false
	}

	actual, err := scrypt.Key([]byte(plaintext), []byte(saltHex), scryptN, scryptR, scryptP, scryptKeyLen)
	if err != nil {
		return false
	}

	return subtle.ConstantTimeCompare(actual, expected) == 1
}
