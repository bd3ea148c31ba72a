package keyfold

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"sync"

	"github.com/rs/zerolog"

	"github.com/keyfold/client-go/internal/api"
	"github.com/keyfold/client-go/internal/crypto"
	"github.com/keyfold/client-go/secretstore"
)

// Client is the Keyfold vault client. It owns a single session context
// and performs all vault cryptography locally; the server only ever
// sees auth hashes and ciphertext.
//
// A Client is safe for concurrent use.
type Client struct {
	api     *api.Client
	session *Session

	mu     sync.Mutex
	email  string
	closed bool
}

// storeTokens adapts the session secret store to the API client's token
// source, so access and refresh tokens live next to the vault key.
type storeTokens struct {
	store secretstore.Store
}

func (s *storeTokens) AccessToken() (string, bool) {
	return s.store.Get(secretstore.KeyToken)
}

func (s *storeTokens) RefreshToken() (string, bool) {
	return s.store.Get(secretstore.KeyRefreshToken)
}

func (s *storeTokens) SetTokens(access, refresh string) {
	_ = s.store.Set(secretstore.KeyToken, access)
	if refresh != "" {
		_ = s.store.Set(secretstore.KeyRefreshToken, refresh)
	}
}

// New creates a new Keyfold client for the given server base URL. The
// client starts locked; call Login or Register to unlock the vault.
func New(baseURL string, opts ...Option) (*Client, error) {
	if strings.TrimSpace(baseURL) == "" {
		return nil, ErrMissingBaseURL
	}

	cfg := &clientConfig{
		timeout: defaultTimeout,
		logger:  zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(cfg)
	}

	if cfg.store == nil {
		cfg.store = secretstore.NewMemory()
	}

	apiOpts := []api.Option{
		api.WithTokenSource(&storeTokens{store: cfg.store}),
		api.WithLogger(cfg.logger),
	}
	httpClient := cfg.httpClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: cfg.timeout}
	}
	apiOpts = append(apiOpts, api.WithHTTPClient(httpClient))
	if cfg.retriesSet {
		rc := api.DefaultRetryConfig()
		rc.MaxRetries = cfg.retries
		apiOpts = append(apiOpts, api.WithRetryConfig(rc))
	}

	apiClient, err := api.New(baseURL, apiOpts...)
	if err != nil {
		return nil, err
	}

	return &Client{
		api:     apiClient,
		session: newSession(cfg.store, cfg.logger),
	}, nil
}

// Session returns the client's session context.
func (c *Client) Session() *Session {
	return c.session
}

func (c *Client) checkOpen() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return ErrClientClosed
	}
	return nil
}

func (c *Client) setEmail(email string) {
	c.mu.Lock()
	c.email = email
	c.mu.Unlock()
}

func (c *Client) currentEmail() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.email
}

func validateCredentials(email, password string) error {
	if strings.TrimSpace(email) == "" || !strings.Contains(email, "@") || password == "" {
		return ErrInvalidInput
	}
	return nil
}

// Register creates a new account. The full key hierarchy is derived
// locally: the server receives the auth hash and the wrapped vault key,
// never the password or any derived key. On success the client logs in
// and the vault is unlocked.
func (c *Client) Register(ctx context.Context, email, password string) error {
	if err := c.checkOpen(); err != nil {
		return err
	}
	if err := validateCredentials(email, password); err != nil {
		return err
	}

	reg, err := buildRegistration(email, password)
	if err != nil {
		return wrapError(err)
	}
	defer crypto.Zero(reg.vaultKey)

	err = c.api.Register(ctx, &api.RegisterRequest{
		Email:               reg.Email,
		AuthHash:            reg.AuthHash,
		ProtectedVaultKey:   reg.ProtectedVaultKey,
		ProtectedVaultKeyIV: reg.ProtectedVaultKeyIV,
	})
	if err != nil {
		return wrapError(err)
	}

	tokens, err := c.api.Login(ctx, &api.LoginRequest{
		Email:    reg.Email,
		AuthHash: reg.AuthHash,
	})
	if err != nil {
		return wrapError(err)
	}
	c.api.SetTokens(tokens.AccessToken, tokens.RefreshToken)

	if err := c.session.commitVaultKey(reg.vaultKey, reg.wrapNonce); err != nil {
		return err
	}
	c.setEmail(reg.Email)
	return nil
}

// Login authenticates and unlocks the vault: it derives the auth hash
// from the credentials, exchanges it for tokens, fetches the wrapped
// vault key, and unwraps it locally. A wrong password fails either at
// the server (rejected auth hash) or at the unwrap integrity check;
// both surface as ErrWrongCredentials, and the session stays locked.
func (c *Client) Login(ctx context.Context, email, password string) error {
	if err := c.checkOpen(); err != nil {
		return err
	}
	if err := validateCredentials(email, password); err != nil {
		return err
	}
	if err := c.session.transition(StateLocked, StateUnlocking); err != nil {
		return err
	}

	vaultKey, nonce, err := c.unlock(ctx, email, password)
	if err != nil {
		c.session.setState(StateLocked)
		return err
	}
	defer crypto.Zero(vaultKey)

	if err := c.session.commitVaultKey(vaultKey, nonce); err != nil {
		c.session.setState(StateLocked)
		return err
	}
	c.setEmail(crypto.NormalizeEmail(email))
	return nil
}

func (c *Client) unlock(ctx context.Context, email, password string) ([]byte, []byte, error) {
	stretchedKey, authHash, err := deriveCredentials(email, password)
	if err != nil {
		return nil, nil, wrapError(err)
	}
	defer crypto.Zero(stretchedKey)

	tokens, err := c.api.Login(ctx, &api.LoginRequest{
		Email:    crypto.NormalizeEmail(email),
		AuthHash: authHash,
	})
	if err != nil {
		return nil, nil, wrapError(err)
	}
	c.api.SetTokens(tokens.AccessToken, tokens.RefreshToken)

	keyResp, err := c.api.GetVaultKey(ctx)
	if err != nil {
		return nil, nil, wrapError(err)
	}

	vaultKey, nonce, err := unwrapVaultKey(stretchedKey, keyResp.ProtectedVaultKey, keyResp.ProtectedVaultKeyIV)
	if err != nil {
		return nil, nil, wrapError(err)
	}
	return vaultKey, nonce, nil
}

// Logout locks the vault and clears all session secrets, including the
// token pair. The client can be reused with another Login.
func (c *Client) Logout() error {
	if err := c.checkOpen(); err != nil {
		return err
	}
	c.session.Lock()
	c.setEmail("")
	return c.session.store.Clear()
}

// AddItem encrypts a password under the session vault key and stores it
// on the server. Requires an unlocked vault.
func (c *Client) AddItem(ctx context.Context, site, password string) (*Item, error) {
	if err := c.checkOpen(); err != nil {
		return nil, err
	}
	if strings.TrimSpace(site) == "" || password == "" {
		return nil, ErrInvalidInput
	}

	envelope, err := c.session.EncryptSecret(password)
	if err != nil {
		return nil, err
	}

	created, err := c.api.CreateItem(ctx, &api.CreateItemRequest{
		Site:              site,
		EncryptedPassword: envelope,
	})
	if err != nil {
		return nil, wrapError(err)
	}
	item := itemFromAPI(*created)
	return &item, nil
}

// Items lists the vault items with their passwords still encrypted.
// Listing does not require an unlocked vault, only valid tokens.
func (c *Client) Items(ctx context.Context) ([]Item, error) {
	if err := c.checkOpen(); err != nil {
		return nil, err
	}
	items, err := c.api.ListItems(ctx)
	if err != nil {
		return nil, wrapError(err)
	}
	return itemsFromAPI(items), nil
}

// RevealItem decrypts one item's password under the session vault key.
func (c *Client) RevealItem(_ context.Context, item Item) (string, error) {
	if err := c.checkOpen(); err != nil {
		return "", err
	}
	plaintext, err := c.session.DecryptSecret(item.Password)
	if err != nil {
		var decErr *DecryptionError
		if errors.As(err, &decErr) {
			decErr.ItemID = item.ID
			return "", decErr
		}
		return "", err
	}
	return plaintext, nil
}

// DeleteItem removes a vault item by ID.
func (c *Client) DeleteItem(ctx context.Context, id int) error {
	if err := c.checkOpen(); err != nil {
		return err
	}
	if err := c.api.DeleteItem(ctx, id); err != nil {
		return wrapError(err)
	}
	return nil
}

// ChangePassword rotates the entire vault to a new master password. It
// fetches every item, re-encrypts each under a fresh vault key, wraps
// the new key under the new password's stretched key, and submits the
// whole batch in one request. If any item fails to re-encrypt, nothing
// is submitted and the old password remains valid. On success the
// session stays unlocked under the new vault key; on failure it locks
// and requires a fresh login.
func (c *Client) ChangePassword(ctx context.Context, currentPassword, newPassword string) error {
	if err := c.checkOpen(); err != nil {
		return err
	}
	if newPassword == "" {
		return ErrInvalidInput
	}
	email := c.currentEmail()
	if email == "" {
		return ErrVaultLocked
	}
	if err := c.session.transition(StateUnlocked, StateRotating); err != nil {
		return err
	}

	result, err := c.rotate(ctx, email, currentPassword, newPassword)
	if err != nil {
		c.session.Lock()
		return err
	}
	defer crypto.Zero(result.vaultKey)

	if err := c.session.store.Set(secretstore.KeyVaultKey, crypto.ToBase64(result.vaultKey)); err != nil {
		c.session.Lock()
		return err
	}
	if err := c.session.store.Set(secretstore.KeyIV, crypto.ToBase64(result.nonce)); err != nil {
		c.session.Lock()
		return err
	}
	c.session.setState(StateUnlocked)
	return nil
}

func (c *Client) rotate(ctx context.Context, email, currentPassword, newPassword string) (*rotationResult, error) {
	keyResp, err := c.api.GetVaultKey(ctx)
	if err != nil {
		return nil, wrapError(err)
	}
	apiItems, err := c.api.ListItems(ctx)
	if err != nil {
		return nil, wrapError(err)
	}

	result, err := rotateVault(email, currentPassword, newPassword,
		keyResp.ProtectedVaultKey, keyResp.ProtectedVaultKeyIV, itemsFromAPI(apiItems))
	if err != nil {
		return nil, wrapError(err)
	}

	if err := c.api.ChangePassword(ctx, &result.Request); err != nil {
		crypto.Zero(result.vaultKey)
		return nil, wrapError(err)
	}
	return result, nil
}

// Close locks the vault, clears the secret store, and marks the client
// unusable. Subsequent calls return ErrClientClosed.
func (c *Client) Close() error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil
	}
	c.closed = true
	c.email = ""
	c.mu.Unlock()

	c.session.Lock()
	return c.session.store.Clear()
}
