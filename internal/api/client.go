package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// DefaultTimeout is the default per-request timeout.
const DefaultTimeout = 30 * time.Second

// TokenSource supplies the current access and refresh tokens. The root
// package backs it with the session secret store.
type TokenSource interface {
	AccessToken() (string, bool)
	RefreshToken() (string, bool)
	SetTokens(access, refresh string)
}

// Client is the HTTP API client.
type Client struct {
	baseURL    string
	httpClient *http.Client
	retry      *RetryConfig
	tokens     TokenSource
	logger     zerolog.Logger

	// refreshMu serializes token refresh so concurrent 401s trigger a
	// single refresh request.
	refreshMu sync.Mutex
}

// Option configures the API client.
type Option func(*Client)

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.httpClient = hc
	}
}

// WithRetryConfig sets the retry behavior for failed requests.
func WithRetryConfig(cfg *RetryConfig) Option {
	return func(c *Client) {
		c.retry = cfg
	}
}

// WithTokenSource sets the token source used for bearer authentication.
func WithTokenSource(ts TokenSource) Option {
	return func(c *Client) {
		c.tokens = ts
	}
}

// WithLogger sets the logger. The client logs retries and refreshes at
// debug level and never logs request bodies.
func WithLogger(logger zerolog.Logger) Option {
	return func(c *Client) {
		c.logger = logger
	}
}

// New creates a new API client for the given base URL.
func New(baseURL string, opts ...Option) (*Client, error) {
	if baseURL == "" {
		return nil, fmt.Errorf("base URL is required")
	}

	c := &Client{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: DefaultTimeout,
		},
		retry:  DefaultRetryConfig(),
		logger: zerolog.Nop(),
	}

	for _, opt := range opts {
		opt(c)
	}

	return c, nil
}

// Do executes a JSON request against the API. Requests are retried per
// the client's retry config; a 401 on an authenticated request triggers
// one transparent token refresh before failing.
func (c *Client) Do(ctx context.Context, method, path string, body, result interface{}) error {
	// Refresh proactively when the access token is already past its exp
	// claim instead of burning a request on a guaranteed 401.
	if tok := c.bearerToken(); tok != "" && tokenExpired(tok, expiryLeeway) && c.canRefresh(path) {
		if err := c.refreshTokens(ctx); err != nil {
			return err
		}
	}

	err := c.doOnce(ctx, method, path, body, result, c.bearerToken())
	if err == nil {
		return nil
	}

	// One refresh-and-retry on auth failure, if we hold a refresh token.
	var apiErr *APIError
	if errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusUnauthorized && c.canRefresh(path) {
		if rerr := c.refreshTokens(ctx); rerr != nil {
			return err
		}
		return c.doOnce(ctx, method, path, body, result, c.bearerToken())
	}

	return err
}

// SetTokens stores a token pair in the client's token source.
func (c *Client) SetTokens(access, refresh string) {
	if c.tokens == nil {
		return
	}
	c.tokens.SetTokens(access, refresh)
}

func (c *Client) bearerToken() string {
	if c.tokens == nil {
		return ""
	}
	tok, ok := c.tokens.AccessToken()
	if !ok {
		return ""
	}
	return tok
}

// canRefresh reports whether a 401 on this path is worth a token refresh.
// Credential endpoints authenticate with the auth hash, not a bearer
// token; refreshing cannot help them.
func (c *Client) canRefresh(path string) bool {
	if c.tokens == nil {
		return false
	}
	if path == pathLogin || path == pathRegister || path == pathRefresh {
		return false
	}
	_, ok := c.tokens.RefreshToken()
	return ok
}

// refreshTokens exchanges the stored refresh token for a new token pair.
func (c *Client) refreshTokens(ctx context.Context) error {
	c.refreshMu.Lock()
	defer c.refreshMu.Unlock()

	refresh, ok := c.tokens.RefreshToken()
	if !ok {
		return ErrUnauthorized
	}

	c.logger.Debug().Msg("refreshing access token")

	var resp TokenResponse
	if err := c.doOnce(ctx, http.MethodPost, pathRefresh, RefreshRequest{RefreshToken: refresh}, &resp, ""); err != nil {
		return err
	}

	c.tokens.SetTokens(resp.AccessToken, resp.RefreshToken)
	return nil
}

func (c *Client) doOnce(ctx context.Context, method, path string, body, result interface{}, bearer string) error {
	var payload []byte
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to marshal request body: %w", err)
		}
		payload = data
	}

	url := c.baseURL + path

	var lastErr error
	for attempt := 0; ; attempt++ {
		var bodyReader io.Reader
		if payload != nil {
			bodyReader = bytes.NewReader(payload)
		}

		req, err := http.NewRequestWithContext(ctx, method, url, bodyReader)
		if err != nil {
			return fmt.Errorf("failed to create request: %w", err)
		}
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("Accept", "application/json")
		if bearer != "" {
			req.Header.Set("Authorization", "Bearer "+bearer)
		}

		resp, err := c.httpClient.Do(req)
		if err != nil {
			lastErr = &NetworkError{Err: err, URL: url, Attempt: attempt}
			if attempt >= c.retry.MaxRetries {
				return lastErr
			}
			c.logger.Debug().Err(err).Int("attempt", attempt).Msg("request failed, retrying")
			if werr := c.retry.Wait(ctx, attempt); werr != nil {
				return werr
			}
			continue
		}

		if resp.StatusCode >= 400 {
			apiErr := parseErrorResponse(resp)
			resp.Body.Close()
			if !c.retry.ShouldRetry(attempt, resp.StatusCode) {
				return apiErr
			}
			lastErr = apiErr
			c.logger.Debug().Int("status", resp.StatusCode).Int("attempt", attempt).Msg("retryable status, retrying")
			if werr := c.retry.Wait(ctx, attempt); werr != nil {
				return werr
			}
			continue
		}

		defer resp.Body.Close()
		if result != nil && resp.StatusCode != http.StatusNoContent {
			if err := json.NewDecoder(resp.Body).Decode(result); err != nil {
				return fmt.Errorf("failed to decode response: %w", err)
			}
		}
		return nil
	}
}

func parseErrorResponse(resp *http.Response) error {
	body, _ := io.ReadAll(resp.Body)

	// FastAPI-style error responses carry the reason under "detail".
	var errResp struct {
		Detail  string `json:"detail"`
		Message string `json:"message"`
	}

	if err := json.Unmarshal(body, &errResp); err == nil {
		msg := errResp.Detail
		if msg == "" {
			msg = errResp.Message
		}
		if msg != "" {
			return &APIError{StatusCode: resp.StatusCode, Message: msg}
		}
	}

	return &APIError{
		StatusCode: resp.StatusCode,
		Message:    string(body),
	}
}
