package crypto

import (
	"crypto/rand"
	"errors"
	"fmt"
)

// NewVaultKey generates a fresh random 256-bit vault key. It is created
// once at registration and replaced only by password rotation.
func NewVaultKey() ([]byte, error) {
	key := make([]byte, VaultKeySize)
	if _, err := rand.Read(key); err != nil {
		return nil, fmt.Errorf("failed to generate vault key: %w", err)
	}
	return key, nil
}

// WrapVaultKey encrypts the vault key under the stretched master key with
// a fresh random nonce. The wrapped key and nonce are returned separately
// because the server stores them as two fields (protected_vault_key,
// protected_vault_key_iv). Only the first 32 bytes of the stretched key
// are used as the AES key; the full 512-bit value keeps headroom for
// future derivations without changing the stretch.
func WrapVaultKey(vaultKey, stretchedKey []byte) (wrapped, nonce []byte, err error) {
	if len(vaultKey) != VaultKeySize {
		return nil, nil, fmt.Errorf("%w: got %d, want %d", ErrInvalidKeySize, len(vaultKey), VaultKeySize)
	}
	if len(stretchedKey) != StretchedKeySize {
		return nil, nil, fmt.Errorf("%w: got %d, want %d", ErrInvalidKeySize, len(stretchedKey), StretchedKeySize)
	}

	nonce = make([]byte, AESNonceSize)
	if _, err := rand.Read(nonce); err != nil {
		return nil, nil, fmt.Errorf("failed to generate wrap nonce: %w", err)
	}

	wrapped, err = EncryptSecretWithNonce(stretchedKey[:AESKeySize], nonce, vaultKey)
	if err != nil {
		return nil, nil, err
	}
	return wrapped, nonce, nil
}

// UnwrapVaultKey decrypts a wrapped vault key with the stretched master
// key. GCM authenticates the result, so a wrong password surfaces as
// ErrUnwrapFailed deterministically instead of producing garbage bytes.
func UnwrapVaultKey(wrapped, nonce, stretchedKey []byte) ([]byte, error) {
	if len(stretchedKey) != StretchedKeySize {
		return nil, fmt.Errorf("%w: got %d, want %d", ErrInvalidKeySize, len(stretchedKey), StretchedKeySize)
	}

	vaultKey, err := DecryptSecretWithNonce(stretchedKey[:AESKeySize], nonce, wrapped)
	if err != nil {
		if errors.Is(err, ErrDecryptionFailed) {
			return nil, ErrUnwrapFailed
		}
		return nil, err
	}
	if len(vaultKey) != VaultKeySize {
		Zero(vaultKey)
		return nil, ErrUnwrapFailed
	}
	return vaultKey, nil
}
