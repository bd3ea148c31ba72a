// Package crypto implements the Keyfold zero-knowledge key hierarchy and
// vault content encryption.
//
// # Algorithm Suite
//
// The package uses the following cryptographic algorithms:
//
//   - PBKDF2-HMAC-SHA256 (RFC 8018): Derives the 256-bit master key from
//     the user's email and password with a fixed 600,000-iteration work
//     factor, and derives the server-visible auth hash from the master key
//     in a second, distinct pass.
//
//   - HKDF-SHA-512 (RFC 5869): Stretches the master key into the 512-bit
//     key-wrapping key with a fixed domain-separation label.
//
//   - AES-256-GCM: Authenticated encryption for vault item secrets and for
//     wrapping the vault key. Integrity failures are reported
//     deterministically; a wrong key never yields silent garbage.
//
// # Key Hierarchy
//
// The master key and its stretched form never leave the client. The server
// only ever sees the auth hash and the wrapped vault key:
//
//	(email, password) --PBKDF2--> master key --HKDF--> stretched key
//	master key + password --PBKDF2--> auth hash       (sent to server)
//	vault key  <--AES-GCM wrap/unwrap--> stretched key (wrapped form stored)
//	vault item secrets <--AES-GCM--> vault key
//
// # Envelope Formats
//
// Item ciphertexts embed their nonce: nonce (12 bytes) || ciphertext ||
// tag (16 bytes). The wrapped vault key keeps its nonce in a separate
// field because the server stores protected_vault_key and
// protected_vault_key_iv independently.
//
// AES-GCM nonces MUST be unique for each encryption with the same key.
// Every EncryptSecret call draws a fresh random nonce; there is no
// account-wide IV.
//
// # Key Hygiene
//
// Derived keys are ephemeral. Callers zero master and stretched keys with
// [Zero] immediately after the wrap or unwrap that needed them. The vault
// key lives only in the session secret store, never in server storage in
// unwrapped form.
package crypto
