package crypto

import (
	"crypto/sha256"
	"crypto/sha512"
	"encoding/hex"
	"fmt"
	"io"
	"strings"

	"golang.org/x/crypto/hkdf"
	"golang.org/x/crypto/pbkdf2"
)

// NormalizeEmail lowercases and trims an email address so that it derives
// the same salt on every client. Derivation silently diverges across
// devices if the email is used with mixed case.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// DeriveMasterKey derives the 256-bit master key from the user's email and
// password using PBKDF2-HMAC-SHA256 with the normalized email as salt.
// The function is pure and deterministic: login reconstructs the same key
// from credentials alone, without any server-side secret.
func DeriveMasterKey(email, password string) ([]byte, error) {
	email = NormalizeEmail(email)
	if email == "" || password == "" {
		return nil, ErrInvalidInput
	}
	return pbkdf2.Key([]byte(password), []byte(email), PBKDF2Iterations, MasterKeySize, sha256.New), nil
}

// StretchMasterKey expands the master key into the 512-bit key-wrapping key
// using HKDF-SHA-512 with a fixed domain-separation label. The stretched
// key is used only to wrap and unwrap the vault key, never to encrypt
// vault content directly.
func StretchMasterKey(masterKey []byte) ([]byte, error) {
	if len(masterKey) != MasterKeySize {
		return nil, fmt.Errorf("%w: got %d, want %d", ErrInvalidKeySize, len(masterKey), MasterKeySize)
	}

	reader := hkdf.New(sha512.New, masterKey, nil, []byte(StretchContext))
	stretched := make([]byte, StretchedKeySize)
	if _, err := io.ReadFull(reader, stretched); err != nil {
		return nil, fmt.Errorf("failed to stretch master key: %w", err)
	}

	return stretched, nil
}

// ComputeAuthHash derives the server-visible authentication hash from the
// master key and password. A single PBKDF2 pass keyed on the master key
// with the password as salt is a distinct derivation path from the master
// key itself, so a server that stores the auth hash cannot walk back to
// the key-wrapping key.
func ComputeAuthHash(masterKey []byte, password string) (string, error) {
	if len(masterKey) != MasterKeySize {
		return "", fmt.Errorf("%w: got %d, want %d", ErrInvalidKeySize, len(masterKey), MasterKeySize)
	}
	if password == "" {
		return "", ErrInvalidInput
	}

	hash := pbkdf2.Key(masterKey, []byte(password), AuthHashIterations, MasterKeySize, sha256.New)
	return hex.EncodeToString(hash), nil
}
