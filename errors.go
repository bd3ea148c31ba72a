package keyfold

import (
	"errors"
	"fmt"

	"github.com/keyfold/client-go/internal/api"
	"github.com/keyfold/client-go/internal/crypto"
)

// Sentinel errors for errors.Is() checks
var (
	// ErrMissingBaseURL is returned when no server base URL is provided.
	ErrMissingBaseURL = errors.New("server base URL is required")

	// ErrClientClosed is returned when operations are attempted on a closed client.
	ErrClientClosed = errors.New("client has been closed")

	// ErrInvalidInput is returned for a malformed or empty email/password,
	// detected before any cryptography runs.
	ErrInvalidInput = errors.New("invalid email or password")

	// ErrWrongCredentials is returned when the server rejects the auth hash
	// or the vault key fails its unwrap integrity check.
	ErrWrongCredentials = errors.New("wrong email or password")

	// ErrVaultLocked is returned when encrypting or decrypting with no
	// vault key resident in the session.
	ErrVaultLocked = errors.New("vault is locked")

	// ErrDecryptionFailed is returned when an item ciphertext does not
	// decrypt under the session vault key.
	ErrDecryptionFailed = errors.New("decryption failed")

	// ErrRotationFailed is returned when any item fails to re-encrypt
	// during password rotation. The whole rotation is aborted; nothing
	// partial is ever submitted.
	ErrRotationFailed = errors.New("password rotation failed")

	// ErrEmailRegistered is returned when registering an email that
	// already has an account.
	ErrEmailRegistered = errors.New("email already registered")

	// ErrRateLimited is returned when the API rate limit is exceeded.
	ErrRateLimited = errors.New("rate limit exceeded")
)

// KeyfoldError is implemented by all SDK errors.
type KeyfoldError interface {
	error
	KeyfoldError() // marker method
}

// APIError represents an HTTP error from the Keyfold API. The message is
// the server-provided detail string, passed through opaquely.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("API error %d: %s", e.StatusCode, e.Message)
	}
	return fmt.Sprintf("API error %d", e.StatusCode)
}

// KeyfoldError implements the KeyfoldError interface.
func (e *APIError) KeyfoldError() {}

// Is implements errors.Is for sentinel error matching.
func (e *APIError) Is(target error) bool {
	switch e.StatusCode {
	case 400, 409:
		return target == ErrEmailRegistered
	case 401:
		return target == ErrWrongCredentials
	case 429:
		return target == ErrRateLimited
	}
	return false
}

// NetworkError represents a network-level failure.
type NetworkError struct {
	Err     error
	URL     string
	Attempt int
}

func (e *NetworkError) Error() string {
	return fmt.Sprintf("network error: %v", e.Err)
}

// Unwrap returns the underlying error.
func (e *NetworkError) Unwrap() error {
	return e.Err
}

// KeyfoldError implements the KeyfoldError interface.
func (e *NetworkError) KeyfoldError() {}

// DecryptionError represents a failure to decrypt a vault item.
type DecryptionError struct {
	ItemID int
	Err    error
}

func (e *DecryptionError) Error() string {
	if e.ItemID != 0 {
		return fmt.Sprintf("decryption failed for item %d: %v", e.ItemID, e.Err)
	}
	return fmt.Sprintf("decryption failed: %v", e.Err)
}

// Unwrap returns the underlying error.
func (e *DecryptionError) Unwrap() error {
	return e.Err
}

// Is implements errors.Is for sentinel error matching.
func (e *DecryptionError) Is(target error) bool {
	return target == ErrDecryptionFailed
}

// KeyfoldError implements the KeyfoldError interface.
func (e *DecryptionError) KeyfoldError() {}

// RotationError reports which item aborted a password rotation. The old
// vault key and old wrapped payload remain authoritative.
type RotationError struct {
	ItemID int
	Site   string
	Err    error
}

func (e *RotationError) Error() string {
	return fmt.Sprintf("rotation aborted at item %d (%s): %v", e.ItemID, e.Site, e.Err)
}

// Unwrap returns the underlying error.
func (e *RotationError) Unwrap() error {
	return e.Err
}

// Is implements errors.Is for sentinel error matching.
func (e *RotationError) Is(target error) bool {
	return target == ErrRotationFailed
}

// KeyfoldError implements the KeyfoldError interface.
func (e *RotationError) KeyfoldError() {}

// wrapError converts internal errors to public errors. This ensures that
// errors.Is() checks work with public sentinel errors.
func wrapError(err error) error {
	if err == nil {
		return nil
	}

	var apiErr *api.APIError
	if errors.As(err, &apiErr) {
		return &APIError{
			StatusCode: apiErr.StatusCode,
			Message:    apiErr.Message,
		}
	}

	var netErr *api.NetworkError
	if errors.As(err, &netErr) {
		return &NetworkError{
			Err:     netErr.Err,
			URL:     netErr.URL,
			Attempt: netErr.Attempt,
		}
	}

	if errors.Is(err, crypto.ErrInvalidInput) {
		return ErrInvalidInput
	}
	if errors.Is(err, crypto.ErrUnwrapFailed) {
		return ErrWrongCredentials
	}

	return err
}
