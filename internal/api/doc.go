// Package api implements the HTTP client for the Keyfold server API.
//
// The client handles JSON encoding, bearer-token authentication, retry
// with exponential backoff, and mapping of HTTP error responses to typed
// errors. It knows nothing about cryptography: every value it transmits
// is already an auth hash, a wrapped key, or item ciphertext. Plaintext
// secrets and unwrapped keys never reach this package.
package api
