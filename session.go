package keyfold

import (
	"fmt"
	"sync"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/keyfold/client-go/internal/crypto"
	"github.com/keyfold/client-go/secretstore"
)

// SessionState describes where a session is in the vault-key lifecycle.
type SessionState string

const (
	// StateLocked means no vault key is resident in the session.
	StateLocked SessionState = "locked"
	// StateUnlocking means a login is in progress: the stretched master
	// key has been computed and the wrapped vault key is being fetched.
	StateUnlocking SessionState = "unlocking"
	// StateUnlocked means the vault key is resident in the secret store.
	StateUnlocked SessionState = "unlocked"
	// StateRotating means a password change is in progress. Item
	// encryption and decryption are rejected until it completes, since
	// rotation swaps the active vault key.
	StateRotating SessionState = "rotating"
)

// Session is an explicit session context holding the unlocked vault key
// via the secret store. All vault item encryption and decryption goes
// through the session, so a locked vault is a structural error
// (ErrVaultLocked), not a nil-key panic.
type Session struct {
	id     string
	store  secretstore.Store
	logger zerolog.Logger

	mu    sync.Mutex
	state SessionState
}

func newSession(store secretstore.Store, logger zerolog.Logger) *Session {
	id := uuid.NewString()
	return &Session{
		id:     id,
		store:  store,
		logger: logger.With().Str("session_id", id).Logger(),
		state:  StateLocked,
	}
}

// ID returns the session's unique identifier.
func (s *Session) ID() string {
	return s.id
}

// State returns the current lifecycle state.
func (s *Session) State() SessionState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Store returns the session secret store.
func (s *Session) Store() secretstore.Store {
	return s.store
}

func (s *Session) setState(next SessionState) {
	s.mu.Lock()
	prev := s.state
	s.state = next
	s.mu.Unlock()
	if prev != next {
		s.logger.Debug().Str("from", string(prev)).Str("to", string(next)).Msg("session state transition")
	}
}

// transition moves the session from one expected state to another, or
// reports the mismatch. Guards the Unlocking and Rotating phases against
// overlapping lifecycle calls.
func (s *Session) transition(from, to SessionState) error {
	s.mu.Lock()
	if s.state != from {
		state := s.state
		s.mu.Unlock()
		return fmt.Errorf("session is %s, expected %s", state, from)
	}
	s.state = to
	s.mu.Unlock()
	s.logger.Debug().Str("from", string(from)).Str("to", string(to)).Msg("session state transition")
	return nil
}

// commitVaultKey writes the unwrapped vault key (and the wrap nonce it
// arrived with) into the secret store and marks the session unlocked.
func (s *Session) commitVaultKey(vaultKey, wrapNonce []byte) error {
	if err := s.store.Set(secretstore.KeyVaultKey, crypto.ToBase64(vaultKey)); err != nil {
		return fmt.Errorf("store vault key: %w", err)
	}
	if err := s.store.Set(secretstore.KeyIV, crypto.ToBase64(wrapNonce)); err != nil {
		return fmt.Errorf("store vault key nonce: %w", err)
	}
	s.setState(StateUnlocked)
	return nil
}

// vaultKey loads the resident vault key from the secret store. Fails
// with ErrVaultLocked unless the session is unlocked and the key is
// present.
func (s *Session) vaultKey() ([]byte, error) {
	if s.State() != StateUnlocked {
		return nil, ErrVaultLocked
	}

	encoded, ok := s.store.Get(secretstore.KeyVaultKey)
	if !ok {
		return nil, ErrVaultLocked
	}

	key, err := crypto.FromBase64(encoded)
	if err != nil {
		return nil, fmt.Errorf("corrupt vault key in secret store: %w", err)
	}
	if len(key) != crypto.VaultKeySize {
		crypto.Zero(key)
		return nil, ErrVaultLocked
	}
	return key, nil
}

// EncryptSecret encrypts a plaintext secret under the session vault key.
// The returned value is a base64-encoded envelope carrying its own fresh
// nonce.
func (s *Session) EncryptSecret(plaintext string) (string, error) {
	key, err := s.vaultKey()
	if err != nil {
		return "", err
	}
	defer crypto.Zero(key)

	ciphertext, err := crypto.EncryptSecret(key, []byte(plaintext))
	if err != nil {
		return "", err
	}
	return crypto.ToBase64(ciphertext), nil
}

// DecryptSecret decrypts a base64-encoded envelope produced by
// EncryptSecret. A wrong key or tampered envelope fails with
// ErrDecryptionFailed.
func (s *Session) DecryptSecret(ciphertext string) (string, error) {
	key, err := s.vaultKey()
	if err != nil {
		return "", err
	}
	defer crypto.Zero(key)

	raw, err := crypto.DecodeBase64(ciphertext)
	if err != nil {
		return "", &DecryptionError{Err: err}
	}

	plaintext, err := crypto.DecryptSecret(key, raw)
	if err != nil {
		return "", &DecryptionError{Err: err}
	}
	return string(plaintext), nil
}

// Lock discards the resident vault key and returns the session to the
// locked state. Safe to call in any state.
func (s *Session) Lock() {
	_ = s.store.Remove(secretstore.KeyVaultKey)
	_ = s.store.Remove(secretstore.KeyIV)
	s.setState(StateLocked)
}
