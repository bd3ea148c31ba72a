package api

import (
	"errors"
	"fmt"
)

// Common API errors that can be checked with errors.Is.
var (
	// ErrUnauthorized indicates the auth hash or access token was rejected.
	ErrUnauthorized = errors.New("unauthorized")
	// ErrEmailRegistered indicates the email is already registered.
	ErrEmailRegistered = errors.New("email already registered")
	// ErrItemNotFound indicates the requested vault item does not exist.
	ErrItemNotFound = errors.New("vault item not found")
	// ErrRateLimited indicates the rate limit has been exceeded.
	ErrRateLimited = errors.New("rate limit exceeded")
)

// APIError represents an HTTP error from the Keyfold API. The server puts
// a human-readable reason in the "detail" field of error responses.
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

// Is implements errors.Is for sentinel error matching.
func (e *APIError) Is(target error) bool {
	switch e.StatusCode {
	case 400, 409:
		return target == ErrEmailRegistered
	case 401:
		return target == ErrUnauthorized
	case 404:
		return target == ErrItemNotFound
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
