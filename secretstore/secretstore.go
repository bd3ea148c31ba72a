// Package secretstore provides the session secret store: a small
// key-value capability for opaque secret strings (tokens, the unwrapped
// vault key and its nonce). Implementations are selected at composition
// time; callers depend only on the Store interface.
package secretstore

// Well-known secret names used by the SDK.
const (
	// KeyToken is the access token for the current session.
	KeyToken = "token"
	// KeyRefreshToken is the refresh token for the current session.
	KeyRefreshToken = "refresh_token"
	// KeyVaultKey is the unwrapped vault key, base64-encoded. It exists
	// only while a session is unlocked.
	KeyVaultKey = "vault_key"
	// KeyIV is the nonce of the wrapped vault key as fetched from the
	// server, kept for re-wrapping checks during rotation.
	KeyIV = "iv"
)

// Store is a key-value store for opaque secret strings. Writes are
// last-writer-wins; there is no transactional guarantee beyond a Set
// completing before dependent Gets are issued.
type Store interface {
	// Set stores a secret under the given name, replacing any previous value.
	Set(name, value string) error
	// Get retrieves a secret. The second return value is false if the
	// name is not present.
	Get(name string) (string, bool)
	// Remove deletes a secret. Removing an absent name is not an error.
	Remove(name string) error
	// Clear removes all secrets.
	Clear() error
}
