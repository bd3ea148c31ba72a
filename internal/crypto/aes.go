package crypto

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"fmt"
)

// EncryptSecret encrypts a vault secret using AES-256-GCM under the vault
// key with a fresh random nonce. The nonce travels inside the envelope:
// nonce (12 bytes) || ciphertext || tag (16 bytes). A new nonce is drawn
// for every call; reusing a nonce under the same key breaks GCM entirely.
func EncryptSecret(key, plaintext []byte) ([]byte, error) {
	nonce := make([]byte, AESNonceSize)
	if _, err := rand.Read(nonce); err != nil {
		return nil, fmt.Errorf("failed to generate nonce: %w", err)
	}
	return encryptAESGCM(key, nonce, plaintext)
}

// EncryptSecretWithNonce encrypts with a caller-supplied nonce. Used for
// wrapping the vault key, where the server stores the nonce in a separate
// field rather than inside the envelope.
func EncryptSecretWithNonce(key, nonce, plaintext []byte) ([]byte, error) {
	if len(nonce) != AESNonceSize {
		return nil, fmt.Errorf("%w: got %d, want %d", ErrInvalidNonceSize, len(nonce), AESNonceSize)
	}
	out, err := encryptAESGCM(key, nonce, plaintext)
	if err != nil {
		return nil, err
	}
	// Strip the embedded nonce; the caller tracks it.
	return out[AESNonceSize:], nil
}

// DecryptSecret decrypts an envelope produced by EncryptSecret.
// The format is: nonce (12 bytes) || ciphertext || tag (16 bytes).
// A wrong key or tampered ciphertext fails the GCM tag check and returns
// ErrDecryptionFailed, never silent garbage.
func DecryptSecret(key, ciphertext []byte) ([]byte, error) {
	if len(key) != AESKeySize {
		return nil, fmt.Errorf("%w: got %d, want %d", ErrInvalidKeySize, len(key), AESKeySize)
	}
	if len(ciphertext) < AESNonceSize+AESTagSize {
		return nil, ErrCiphertextTooShort
	}

	nonce := ciphertext[:AESNonceSize]
	body := ciphertext[AESNonceSize:]
	return decryptAESGCM(key, nonce, body)
}

// DecryptSecretWithNonce decrypts ciphertext whose nonce is tracked
// separately, the inverse of EncryptSecretWithNonce.
func DecryptSecretWithNonce(key, nonce, ciphertext []byte) ([]byte, error) {
	if len(nonce) != AESNonceSize {
		return nil, fmt.Errorf("%w: got %d, want %d", ErrInvalidNonceSize, len(nonce), AESNonceSize)
	}
	if len(ciphertext) < AESTagSize {
		return nil, ErrCiphertextTooShort
	}
	return decryptAESGCM(key, nonce, ciphertext)
}

// encryptAESGCM seals plaintext and returns nonce || ciphertext || tag.
func encryptAESGCM(key, nonce, plaintext []byte) ([]byte, error) {
	if len(key) != AESKeySize {
		return nil, fmt.Errorf("%w: got %d, want %d", ErrInvalidKeySize, len(key), AESKeySize)
	}

	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("failed to create cipher: %w", err)
	}

	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("failed to create GCM: %w", err)
	}

	out := make([]byte, 0, len(nonce)+len(plaintext)+AESTagSize)
	out = append(out, nonce...)
	return gcm.Seal(out, nonce, plaintext, nil), nil
}

func decryptAESGCM(key, nonce, ciphertext []byte) ([]byte, error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, err
	}

	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, err
	}

	plaintext, err := gcm.Open(nil, nonce, ciphertext, nil)
	if err != nil {
		return nil, ErrDecryptionFailed
	}

	return plaintext, nil
}
