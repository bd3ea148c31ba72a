package api

import (
	"context"
	"fmt"
	"net/http"
)

// API paths, versioned like the server's router.
const (
	pathRegister       = "/api/v1/auth/register"
	pathLogin          = "/api/v1/auth/login"
	pathRefresh        = "/api/v1/auth/refresh"
	pathChangePassword = "/api/v1/auth/change-password"
	pathVaultKey       = "/api/v1/vault/key"
	pathItems          = "/api/v1/vault/items"
	pathSecrets        = "/api/v1/secrets"
)

// Register creates a new account from the registration payload.
func (c *Client) Register(ctx context.Context, req *RegisterRequest) error {
	return c.Do(ctx, http.MethodPost, pathRegister, req, nil)
}

// Login authenticates with the auth hash and returns a token pair.
func (c *Client) Login(ctx context.Context, req *LoginRequest) (*TokenResponse, error) {
	var result TokenResponse
	if err := c.Do(ctx, http.MethodPost, pathLogin, req, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// GetVaultKey fetches the wrapped vault key for the authenticated user.
func (c *Client) GetVaultKey(ctx context.Context) (*VaultKeyResponse, error) {
	var result VaultKeyResponse
	if err := c.Do(ctx, http.MethodGet, pathVaultKey, nil, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// ListItems returns all vault items belonging to the authenticated user.
func (c *Client) ListItems(ctx context.Context) ([]VaultItem, error) {
	var result []VaultItem
	if err := c.Do(ctx, http.MethodGet, pathItems, nil, &result); err != nil {
		return nil, err
	}
	return result, nil
}

// CreateItem stores a new encrypted vault item.
func (c *Client) CreateItem(ctx context.Context, req *CreateItemRequest) (*VaultItem, error) {
	var result VaultItem
	if err := c.Do(ctx, http.MethodPost, pathItems, req, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// DeleteItem removes a vault item by ID.
func (c *Client) DeleteItem(ctx context.Context, id int) error {
	path := fmt.Sprintf("%s/%d", pathItems, id)
	return c.Do(ctx, http.MethodDelete, path, nil, nil)
}

// ChangePassword submits a complete password-change batch: new auth hash,
// newly wrapped vault key, and every item re-encrypted. The server
// applies it atomically or not at all.
func (c *Client) ChangePassword(ctx context.Context, req *ChangePasswordRequest) error {
	return c.Do(ctx, http.MethodPost, pathChangePassword, req, nil)
}

// CreateSharedSecret creates a one-time shareable secret and returns its
// link token.
func (c *Client) CreateSharedSecret(ctx context.Context, req *CreateSecretRequest) (*SharedSecret, error) {
	var result SharedSecret
	if err := c.Do(ctx, http.MethodPost, pathSecrets, req, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// ListSharedSecrets returns the authenticated user's shareable secrets.
func (c *Client) ListSharedSecrets(ctx context.Context) ([]SharedSecret, error) {
	var result []SharedSecret
	if err := c.Do(ctx, http.MethodGet, pathSecrets, nil, &result); err != nil {
		return nil, err
	}
	return result, nil
}

// RevokeSharedSecret revokes a shareable secret before its expiry.
func (c *Client) RevokeSharedSecret(ctx context.Context, id int) error {
	path := fmt.Sprintf("%s/%d", pathSecrets, id)
	return c.Do(ctx, http.MethodDelete, path, nil, nil)
}
