package keyfold

import (
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"github.com/keyfold/client-go/secretstore"
)

const defaultTimeout = 30 * time.Second

// clientConfig holds configuration for the client.
type clientConfig struct {
	httpClient *http.Client
	timeout    time.Duration
	retries    int
	retriesSet bool
	store      secretstore.Store
	logger     zerolog.Logger
}

// Option configures the client.
type Option func(*clientConfig)

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(c *clientConfig) {
		c.httpClient = client
	}
}

// WithTimeout sets the per-request timeout.
// Default: 30 seconds
func WithTimeout(timeout time.Duration) Option {
	return func(c *clientConfig) {
		c.timeout = timeout
	}
}

// WithRetries sets the number of retries for API calls.
// Default: 3
func WithRetries(count int) Option {
	return func(c *clientConfig) {
		c.retries = count
		c.retriesSet = true
	}
}

// WithSecretStore sets the session secret store. The default is an
// in-memory store backed by locked enclaves; a CLI that needs tokens to
// survive between invocations can pass a file store instead.
func WithSecretStore(store secretstore.Store) Option {
	return func(c *clientConfig) {
		c.store = store
	}
}

// WithLogger sets the logger for the client. The SDK logs session state
// transitions and request retries; it never logs passwords, keys, or
// plaintext secrets. Default: a no-op logger.
func WithLogger(logger zerolog.Logger) Option {
	return func(c *clientConfig) {
		c.logger = logger
	}
}
