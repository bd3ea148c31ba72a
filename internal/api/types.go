package api

// RegisterRequest represents the POST /api/v1/auth/register request.
// The auth hash is the only credential-derived value in the payload; the
// vault key travels wrapped, with its nonce in a separate field.
type RegisterRequest struct {
	Email               string `json:"email"`
	AuthHash            string `json:"auth_hash"`
	ProtectedVaultKey   string `json:"protected_vault_key"`
	ProtectedVaultKeyIV string `json:"protected_vault_key_iv"`
}

// LoginRequest represents the POST /api/v1/auth/login request.
type LoginRequest struct {
	Email    string `json:"email"`
	AuthHash string `json:"auth_hash"`
}

// TokenResponse represents the response to a successful login or refresh.
type TokenResponse struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	TokenType    string `json:"token_type"`
}

// RefreshRequest represents the POST /api/v1/auth/refresh request.
type RefreshRequest struct {
	RefreshToken string `json:"refresh_token"`
}

// VaultKeyResponse represents the GET /api/v1/vault/key response: the
// wrapped vault key pair the server stores for the authenticated user.
type VaultKeyResponse struct {
	ProtectedVaultKey   string `json:"protected_vault_key"`
	ProtectedVaultKeyIV string `json:"protected_vault_key_iv"`
}

// VaultItem represents a stored credential as the server sees it. The
// encrypted_password field is vault-key ciphertext; the server cannot
// read it.
type VaultItem struct {
	ID                int    `json:"id"`
	Site              string `json:"site"`
	EncryptedPassword string `json:"encrypted_password"`
	OwnerID           int    `json:"owner_id"`
}

// CreateItemRequest represents the POST /api/v1/vault/items request.
type CreateItemRequest struct {
	Site              string `json:"site"`
	EncryptedPassword string `json:"encrypted_password"`
}

// RotatedItem is one re-encrypted entry in a password-change batch.
type RotatedItem struct {
	ID                int    `json:"id"`
	Site              string `json:"site"`
	EncryptedPassword string `json:"encrypted_password"`
}

// ChangePasswordRequest represents the POST /api/v1/auth/change-password
// request. Every vault item must appear, fully re-encrypted under the new
// vault key; the server applies the batch as a single transaction. The
// batch ID lets the server deduplicate a retried submission.
type ChangePasswordRequest struct {
	BatchID                string        `json:"batch_id"`
	CurrentAuthHash        string        `json:"current_auth_hash"`
	NewAuthHash            string        `json:"new_auth_hash"`
	NewProtectedVaultKey   string        `json:"new_protected_vault_key"`
	NewProtectedVaultKeyIV string        `json:"new_protected_vault_key_iv"`
	Items                  []RotatedItem `json:"items"`
}

// CreateSecretRequest represents the POST /api/v1/secrets request for the
// one-time shareable secret feature. PasswordHash, when set, is the
// SHA-256 hex digest of the access password.
type CreateSecretRequest struct {
	Content          string `json:"content"`
	MaxAccesses      int    `json:"max_accesses"`
	ExpiresInSeconds int    `json:"expires_in_seconds"`
	PasswordHash     string `json:"password,omitempty"`
}

// SharedSecret represents a created shareable secret.
type SharedSecret struct {
	ID                int    `json:"id"`
	Token             string `json:"token"`
	MaxAccesses       int    `json:"max_accesses"`
	RemainingAccesses int    `json:"remaining_accesses"`
	CreatedAt         string `json:"created_at"`
	ExpiresAt         string `json:"expires_at"`
	IsRevoked         int    `json:"is_revoked"`
}
