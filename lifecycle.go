package keyfold

import (
	"github.com/google/uuid"

	"github.com/keyfold/client-go/internal/api"
	"github.com/keyfold/client-go/internal/crypto"
)

// registration holds everything the server needs to create an account,
// plus the freshly generated vault key for the local session. The
// caller owns vaultKey and must zero it once committed.
type registration struct {
	Email               string
	AuthHash            string
	ProtectedVaultKey   string
	ProtectedVaultKeyIV string

	vaultKey  []byte
	wrapNonce []byte
}

// buildRegistration derives the full key hierarchy for a new account:
// master key from the credentials, stretched key for wrapping, a random
// vault key wrapped under the stretched key, and the auth hash the
// server stores. Intermediate keys are zeroed before returning.
func buildRegistration(email, password string) (*registration, error) {
	masterKey, err := crypto.DeriveMasterKey(email, password)
	if err != nil {
		return nil, err
	}
	defer crypto.Zero(masterKey)

	authHash, err := crypto.ComputeAuthHash(masterKey, password)
	if err != nil {
		return nil, err
	}

	stretchedKey, err := crypto.StretchMasterKey(masterKey)
	if err != nil {
		return nil, err
	}
	defer crypto.Zero(stretchedKey)

	vaultKey, err := crypto.NewVaultKey()
	if err != nil {
		return nil, err
	}

	wrapped, nonce, err := crypto.WrapVaultKey(vaultKey, stretchedKey)
	if err != nil {
		crypto.Zero(vaultKey)
		return nil, err
	}

	return &registration{
		Email:               crypto.NormalizeEmail(email),
		AuthHash:            authHash,
		ProtectedVaultKey:   crypto.ToBase64(wrapped),
		ProtectedVaultKeyIV: crypto.ToBase64(nonce),
		vaultKey:            vaultKey,
		wrapNonce:           nonce,
	}, nil
}

// deriveCredentials computes the stretched key and auth hash for an
// existing account. The master key never leaves this function.
func deriveCredentials(email, password string) (stretchedKey []byte, authHash string, err error) {
	masterKey, err := crypto.DeriveMasterKey(email, password)
	if err != nil {
		return nil, "", err
	}
	defer crypto.Zero(masterKey)

	authHash, err = crypto.ComputeAuthHash(masterKey, password)
	if err != nil {
		return nil, "", err
	}

	stretchedKey, err = crypto.StretchMasterKey(masterKey)
	if err != nil {
		return nil, "", err
	}
	return stretchedKey, authHash, nil
}

// unwrapVaultKey recovers the vault key from the server's protected
// form using credential-derived keys. A wrong password surfaces as
// ErrWrongCredentials via the unwrap failure.
func unwrapVaultKey(stretchedKey []byte, protectedKey, protectedKeyIV string) ([]byte, []byte, error) {
	wrapped, err := crypto.DecodeBase64(protectedKey)
	if err != nil {
		return nil, nil, err
	}
	nonce, err := crypto.DecodeBase64(protectedKeyIV)
	if err != nil {
		return nil, nil, err
	}

	vaultKey, err := crypto.UnwrapVaultKey(wrapped, nonce, stretchedKey)
	if err != nil {
		return nil, nil, err
	}
	return vaultKey, nonce, nil
}

// rotationResult is the complete output of a vault rotation: the change
// request for the server and the new vault key for the local session.
type rotationResult struct {
	Request  api.ChangePasswordRequest
	vaultKey []byte
	nonce    []byte
}

// rotateVault performs a full password change on the client side. It
// verifies the current password by unwrapping the vault key, generates
// a fresh vault key, re-encrypts every item under it, and wraps the new
// key under the new password's stretched key. Any item that fails to
// decrypt aborts the whole rotation with a RotationError so the vault
// is never left split between two keys.
func rotateVault(email, currentPassword, newPassword, protectedKey, protectedKeyIV string, items []Item) (*rotationResult, error) {
	curStretched, curAuthHash, err := deriveCredentials(email, currentPassword)
	if err != nil {
		return nil, err
	}
	defer crypto.Zero(curStretched)

	oldVaultKey, _, err := unwrapVaultKey(curStretched, protectedKey, protectedKeyIV)
	if err != nil {
		return nil, err
	}
	defer crypto.Zero(oldVaultKey)

	newStretched, newAuthHash, err := deriveCredentials(email, newPassword)
	if err != nil {
		return nil, err
	}
	defer crypto.Zero(newStretched)

	newVaultKey, err := crypto.NewVaultKey()
	if err != nil {
		return nil, err
	}

	rotated := make([]api.RotatedItem, 0, len(items))
	for _, it := range items {
		raw, err := crypto.DecodeBase64(it.Password)
		if err != nil {
			crypto.Zero(newVaultKey)
			return nil, &RotationError{ItemID: it.ID, Site: it.Site, Err: err}
		}
		plaintext, err := crypto.DecryptSecret(oldVaultKey, raw)
		if err != nil {
			crypto.Zero(newVaultKey)
			return nil, &RotationError{ItemID: it.ID, Site: it.Site, Err: err}
		}
		reencrypted, err := crypto.EncryptSecret(newVaultKey, plaintext)
		crypto.Zero(plaintext)
		if err != nil {
			crypto.Zero(newVaultKey)
			return nil, &RotationError{ItemID: it.ID, Site: it.Site, Err: err}
		}
		rotated = append(rotated, api.RotatedItem{
			ID:                it.ID,
			Site:              it.Site,
			EncryptedPassword: crypto.ToBase64(reencrypted),
		})
	}

	wrapped, nonce, err := crypto.WrapVaultKey(newVaultKey, newStretched)
	if err != nil {
		crypto.Zero(newVaultKey)
		return nil, err
	}

	return &rotationResult{
		Request: api.ChangePasswordRequest{
			BatchID:                uuid.NewString(),
			CurrentAuthHash:        curAuthHash,
			NewAuthHash:            newAuthHash,
			NewProtectedVaultKey:   crypto.ToBase64(wrapped),
			NewProtectedVaultKeyIV: crypto.ToBase64(nonce),
			Items:                  rotated,
		},
		vaultKey: newVaultKey,
		nonce:    nonce,
	}, nil
}
