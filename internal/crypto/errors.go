package crypto

import "errors"

var (
	// ErrInvalidInput is returned when the email or password is empty or
	// malformed. No key derivation runs on invalid input.
	ErrInvalidInput = errors.New("invalid email or password")

	// ErrInvalidKeySize is returned when a symmetric key has the wrong size.
	ErrInvalidKeySize = errors.New("invalid key size")

	// ErrInvalidNonceSize is returned when the nonce size is invalid.
	ErrInvalidNonceSize = errors.New("invalid nonce size")

	// ErrCiphertextTooShort is returned when a ciphertext is shorter than
	// the envelope overhead.
	ErrCiphertextTooShort = errors.New("ciphertext too short")

	// ErrDecryptionFailed is returned when authenticated decryption fails,
	// either because the key is wrong or the ciphertext was tampered with.
	ErrDecryptionFailed = errors.New("decryption failed")

	// ErrUnwrapFailed is returned when unwrapping the vault key fails its
	// integrity check, which almost always means the wrong password.
	ErrUnwrapFailed = errors.New("vault key unwrap failed")
)
