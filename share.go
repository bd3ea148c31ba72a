package keyfold

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"strings"
	"time"

	"github.com/keyfold/client-go/internal/api"
)

// SharedSecret is a one-time shareable secret: a server-held payload
// addressable by link token, consumed after a bounded number of reads
// or an expiry, whichever comes first.
type SharedSecret struct {
	ID                int
	Token             string
	MaxAccesses       int
	RemainingAccesses int
	CreatedAt         string
	ExpiresAt         string
	Revoked           bool
}

// ShareOptions bounds a shared secret's lifetime. An empty AccessPassword
// leaves the link unprotected.
type ShareOptions struct {
	MaxAccesses    int
	ExpiresIn      time.Duration
	AccessPassword string
}

func sharedSecretFromAPI(s api.SharedSecret) SharedSecret {
	return SharedSecret{
		ID:                s.ID,
		Token:             s.Token,
		MaxAccesses:       s.MaxAccesses,
		RemainingAccesses: s.RemainingAccesses,
		CreatedAt:         s.CreatedAt,
		ExpiresAt:         s.ExpiresAt,
		Revoked:           s.IsRevoked != 0,
	}
}

// ShareSecret creates a one-time shareable secret. Unlike vault items the
// content is encrypted server-side, so sharing works without the vault
// key; the access password, when set, travels only as a SHA-256 digest.
func (c *Client) ShareSecret(ctx context.Context, content string, opts ShareOptions) (*SharedSecret, error) {
	if err := c.checkOpen(); err != nil {
		return nil, err
	}
	if strings.TrimSpace(content) == "" {
		return nil, ErrInvalidInput
	}
	if opts.MaxAccesses <= 0 {
		opts.MaxAccesses = 1
	}
	if opts.ExpiresIn <= 0 {
		opts.ExpiresIn = 24 * time.Hour
	}

	req := &api.CreateSecretRequest{
		Content:          content,
		MaxAccesses:      opts.MaxAccesses,
		ExpiresInSeconds: int(opts.ExpiresIn.Seconds()),
	}
	if opts.AccessPassword != "" {
		digest := sha256.Sum256([]byte(opts.AccessPassword))
		req.PasswordHash = hex.EncodeToString(digest[:])
	}

	created, err := c.api.CreateSharedSecret(ctx, req)
	if err != nil {
		return nil, wrapError(err)
	}
	out := sharedSecretFromAPI(*created)
	return &out, nil
}

// SharedSecrets lists the account's shareable secrets.
func (c *Client) SharedSecrets(ctx context.Context) ([]SharedSecret, error) {
	if err := c.checkOpen(); err != nil {
		return nil, err
	}
	secrets, err := c.api.ListSharedSecrets(ctx)
	if err != nil {
		return nil, wrapError(err)
	}
	out := make([]SharedSecret, 0, len(secrets))
	for _, s := range secrets {
		out = append(out, sharedSecretFromAPI(s))
	}
	return out, nil
}

// RevokeSharedSecret invalidates a shared secret before its expiry.
func (c *Client) RevokeSharedSecret(ctx context.Context, id int) error {
	if err := c.checkOpen(); err != nil {
		return err
	}
	if err := c.api.RevokeSharedSecret(ctx, id); err != nil {
		return wrapError(err)
	}
	return nil
}
