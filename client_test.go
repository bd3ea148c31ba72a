package keyfold

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync"
	"testing"

	"github.com/keyfold/client-go/internal/api"
)

// fakeVault is an in-memory stand-in for the Keyfold server. It stores
// exactly what the real server stores: auth hashes, wrapped vault keys,
// and ciphertext. It never sees a password or a key.
type fakeVault struct {
	mu sync.Mutex

	authHash     string
	protectedKey string
	protectedIV  string
	registered   bool

	items   []api.VaultItem
	nextID  int
	access  string
	refresh string
	tokenN  int

	batchIDs []string
}

func newFakeVault() *fakeVault {
	return &fakeVault{nextID: 1}
}

func (f *fakeVault) issueTokens() api.TokenResponse {
	f.tokenN++
	f.access = fmt.Sprintf("access-%d", f.tokenN)
	f.refresh = fmt.Sprintf("refresh-%d", f.tokenN)
	return api.TokenResponse{AccessToken: f.access, RefreshToken: f.refresh, TokenType: "bearer"}
}

func (f *fakeVault) authorized(r *http.Request) bool {
	return f.access != "" && r.Header.Get("Authorization") == "Bearer "+f.access
}

func writeDetail(w http.ResponseWriter, status int, detail string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"detail": detail})
}

func (f *fakeVault) handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("/api/v1/auth/register", func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		defer f.mu.Unlock()
		var req api.RegisterRequest
		json.NewDecoder(r.Body).Decode(&req)
		if f.registered {
			writeDetail(w, http.StatusBadRequest, "Email already registered")
			return
		}
		f.registered = true
		f.authHash = req.AuthHash
		f.protectedKey = req.ProtectedVaultKey
		f.protectedIV = req.ProtectedVaultKeyIV
		w.WriteHeader(http.StatusCreated)
	})

	mux.HandleFunc("/api/v1/auth/login", func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		defer f.mu.Unlock()
		var req api.LoginRequest
		json.NewDecoder(r.Body).Decode(&req)
		if !f.registered || req.AuthHash != f.authHash {
			writeDetail(w, http.StatusUnauthorized, "Incorrect email or password")
			return
		}
		json.NewEncoder(w).Encode(f.issueTokens())
	})

	mux.HandleFunc("/api/v1/auth/change-password", func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		defer f.mu.Unlock()
		if !f.authorized(r) {
			writeDetail(w, http.StatusUnauthorized, "Not authenticated")
			return
		}
		var req api.ChangePasswordRequest
		json.NewDecoder(r.Body).Decode(&req)
		if req.CurrentAuthHash != f.authHash {
			writeDetail(w, http.StatusUnauthorized, "Incorrect email or password")
			return
		}
		if len(req.Items) != len(f.items) {
			writeDetail(w, http.StatusBadRequest, "Incomplete rotation batch")
			return
		}
		f.batchIDs = append(f.batchIDs, req.BatchID)
		f.authHash = req.NewAuthHash
		f.protectedKey = req.NewProtectedVaultKey
		f.protectedIV = req.NewProtectedVaultKeyIV
		byID := make(map[int]string, len(req.Items))
		for _, it := range req.Items {
			byID[it.ID] = it.EncryptedPassword
		}
		for i := range f.items {
			f.items[i].EncryptedPassword = byID[f.items[i].ID]
		}
		w.WriteHeader(http.StatusOK)
	})

	mux.HandleFunc("/api/v1/vault/key", func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		defer f.mu.Unlock()
		if !f.authorized(r) {
			writeDetail(w, http.StatusUnauthorized, "Not authenticated")
			return
		}
		json.NewEncoder(w).Encode(api.VaultKeyResponse{
			ProtectedVaultKey:   f.protectedKey,
			ProtectedVaultKeyIV: f.protectedIV,
		})
	})

	mux.HandleFunc("/api/v1/vault/items", func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		defer f.mu.Unlock()
		if !f.authorized(r) {
			writeDetail(w, http.StatusUnauthorized, "Not authenticated")
			return
		}
		switch r.Method {
		case http.MethodGet:
			json.NewEncoder(w).Encode(f.items)
		case http.MethodPost:
			var req api.CreateItemRequest
			json.NewDecoder(r.Body).Decode(&req)
			item := api.VaultItem{
				ID:                f.nextID,
				Site:              req.Site,
				EncryptedPassword: req.EncryptedPassword,
				OwnerID:           1,
			}
			f.nextID++
			f.items = append(f.items, item)
			w.WriteHeader(http.StatusCreated)
			json.NewEncoder(w).Encode(item)
		}
	})

	mux.HandleFunc("/api/v1/vault/items/", func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		defer f.mu.Unlock()
		if !f.authorized(r) {
			writeDetail(w, http.StatusUnauthorized, "Not authenticated")
			return
		}
		id, _ := strconv.Atoi(strings.TrimPrefix(r.URL.Path, "/api/v1/vault/items/"))
		for i := range f.items {
			if f.items[i].ID == id {
				f.items = append(f.items[:i], f.items[i+1:]...)
				w.WriteHeader(http.StatusNoContent)
				return
			}
		}
		writeDetail(w, http.StatusNotFound, "Item not found")
	})

	return mux
}

func newTestClient(t *testing.T) (*Client, *fakeVault) {
	t.Helper()
	vault := newFakeVault()
	srv := httptest.NewServer(vault.handler())
	t.Cleanup(srv.Close)

	client, err := New(srv.URL)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	t.Cleanup(func() { client.Close() })
	return client, vault
}

func TestNewRequiresBaseURL(t *testing.T) {
	if _, err := New(""); !errors.Is(err, ErrMissingBaseURL) {
		t.Errorf("New(\"\") = %v, want ErrMissingBaseURL", err)
	}
	if _, err := New("   "); !errors.Is(err, ErrMissingBaseURL) {
		t.Errorf("New(blank) = %v, want ErrMissingBaseURL", err)
	}
}

func TestRegisterUnlocksVault(t *testing.T) {
	client, vault := newTestClient(t)
	ctx := context.Background()

	if err := client.Register(ctx, "user@example.com", "correct horse"); err != nil {
		t.Fatalf("Register: %v", err)
	}
	if got := client.Session().State(); got != StateUnlocked {
		t.Errorf("state after Register = %q, want %q", got, StateUnlocked)
	}
	vault.mu.Lock()
	defer vault.mu.Unlock()
	if vault.authHash == "" || vault.protectedKey == "" || vault.protectedIV == "" {
		t.Error("server did not receive the registration payload")
	}
	if strings.Contains(vault.authHash, "correct horse") {
		t.Error("auth hash leaks the password")
	}
}

func TestRegisterDuplicateEmail(t *testing.T) {
	client, _ := newTestClient(t)
	ctx := context.Background()

	if err := client.Register(ctx, "user@example.com", "pw one"); err != nil {
		t.Fatalf("Register: %v", err)
	}
	client.Session().Lock()

	err := client.Register(ctx, "user@example.com", "pw two")
	if !errors.Is(err, ErrEmailRegistered) {
		t.Errorf("duplicate Register = %v, want ErrEmailRegistered", err)
	}
}

func TestRegisterValidatesInput(t *testing.T) {
	client, _ := newTestClient(t)
	ctx := context.Background()

	for _, tc := range []struct{ email, password string }{
		{"", "pw"},
		{"not-an-email", "pw"},
		{"user@example.com", ""},
		{"   ", "pw"},
	} {
		if err := client.Register(ctx, tc.email, tc.password); !errors.Is(err, ErrInvalidInput) {
			t.Errorf("Register(%q, %q) = %v, want ErrInvalidInput", tc.email, tc.password, err)
		}
	}
}

func TestLoginRoundTrip(t *testing.T) {
	client, _ := newTestClient(t)
	ctx := context.Background()

	if err := client.Register(ctx, "user@example.com", "correct horse"); err != nil {
		t.Fatalf("Register: %v", err)
	}
	item, err := client.AddItem(ctx, "github.com", "hunter2")
	if err != nil {
		t.Fatalf("AddItem: %v", err)
	}
	if err := client.Logout(); err != nil {
		t.Fatalf("Logout: %v", err)
	}
	if got := client.Session().State(); got != StateLocked {
		t.Fatalf("state after Logout = %q, want %q", got, StateLocked)
	}

	// Email case must not matter.
	if err := client.Login(ctx, "USER@Example.COM", "correct horse"); err != nil {
		t.Fatalf("Login: %v", err)
	}

	items, err := client.Items(ctx)
	if err != nil {
		t.Fatalf("Items: %v", err)
	}
	if len(items) != 1 || items[0].ID != item.ID {
		t.Fatalf("Items = %+v, want the one stored item", items)
	}

	password, err := client.RevealItem(ctx, items[0])
	if err != nil {
		t.Fatalf("RevealItem: %v", err)
	}
	if password != "hunter2" {
		t.Errorf("RevealItem = %q, want %q", password, "hunter2")
	}
}

func TestLoginWrongPassword(t *testing.T) {
	client, _ := newTestClient(t)
	ctx := context.Background()

	if err := client.Register(ctx, "user@example.com", "correct horse"); err != nil {
		t.Fatalf("Register: %v", err)
	}
	if err := client.Logout(); err != nil {
		t.Fatalf("Logout: %v", err)
	}

	err := client.Login(ctx, "user@example.com", "wrong password")
	if !errors.Is(err, ErrWrongCredentials) {
		t.Errorf("Login with wrong password = %v, want ErrWrongCredentials", err)
	}
	if got := client.Session().State(); got != StateLocked {
		t.Errorf("state after failed Login = %q, want %q", got, StateLocked)
	}
}

func TestLoginCorruptedVaultKey(t *testing.T) {
	client, vault := newTestClient(t)
	ctx := context.Background()

	if err := client.Register(ctx, "user@example.com", "correct horse"); err != nil {
		t.Fatalf("Register: %v", err)
	}
	if err := client.Logout(); err != nil {
		t.Fatalf("Logout: %v", err)
	}

	// A tampered wrapped key must fail the unwrap integrity check even
	// though the server accepted the auth hash.
	vault.mu.Lock()
	vault.protectedKey = "AAAA" + vault.protectedKey[4:]
	vault.mu.Unlock()

	err := client.Login(ctx, "user@example.com", "correct horse")
	if !errors.Is(err, ErrWrongCredentials) {
		t.Errorf("Login with corrupt vault key = %v, want ErrWrongCredentials", err)
	}
	if got := client.Session().State(); got != StateLocked {
		t.Errorf("state = %q, want %q", got, StateLocked)
	}
}

func TestAddItemRequiresUnlockedVault(t *testing.T) {
	client, _ := newTestClient(t)

	_, err := client.AddItem(context.Background(), "github.com", "hunter2")
	if !errors.Is(err, ErrVaultLocked) {
		t.Errorf("AddItem on locked vault = %v, want ErrVaultLocked", err)
	}
}

func TestDeleteItem(t *testing.T) {
	client, _ := newTestClient(t)
	ctx := context.Background()

	if err := client.Register(ctx, "user@example.com", "correct horse"); err != nil {
		t.Fatalf("Register: %v", err)
	}
	item, err := client.AddItem(ctx, "github.com", "hunter2")
	if err != nil {
		t.Fatalf("AddItem: %v", err)
	}

	if err := client.DeleteItem(ctx, item.ID); err != nil {
		t.Fatalf("DeleteItem: %v", err)
	}
	items, err := client.Items(ctx)
	if err != nil {
		t.Fatalf("Items: %v", err)
	}
	if len(items) != 0 {
		t.Errorf("Items after delete = %+v, want empty", items)
	}
}

func TestChangePassword(t *testing.T) {
	client, vault := newTestClient(t)
	ctx := context.Background()

	if err := client.Register(ctx, "user@example.com", "old password"); err != nil {
		t.Fatalf("Register: %v", err)
	}

	secrets := map[string]string{
		"github.com":  "hunter2",
		"example.org": "s3cret",
		"mail.test":   "p@ssw0rd",
	}
	for site, pw := range secrets {
		if _, err := client.AddItem(ctx, site, pw); err != nil {
			t.Fatalf("AddItem(%s): %v", site, err)
		}
	}

	vault.mu.Lock()
	oldProtectedKey := vault.protectedKey
	vault.mu.Unlock()

	if err := client.ChangePassword(ctx, "old password", "new password"); err != nil {
		t.Fatalf("ChangePassword: %v", err)
	}
	if got := client.Session().State(); got != StateUnlocked {
		t.Errorf("state after rotation = %q, want %q", got, StateUnlocked)
	}
	vault.mu.Lock()
	newProtectedKey := vault.protectedKey
	batchIDs := vault.batchIDs
	vault.mu.Unlock()
	if newProtectedKey == oldProtectedKey {
		t.Error("rotation did not replace the wrapped vault key")
	}
	if len(batchIDs) != 1 || batchIDs[0] == "" {
		t.Errorf("server saw batch IDs %v, want exactly one", batchIDs)
	}

	// The still-open session must decrypt the rotated items.
	items, err := client.Items(ctx)
	if err != nil {
		t.Fatalf("Items: %v", err)
	}
	for _, it := range items {
		pw, err := client.RevealItem(ctx, it)
		if err != nil {
			t.Fatalf("RevealItem(%s) after rotation: %v", it.Site, err)
		}
		if pw != secrets[it.Site] {
			t.Errorf("RevealItem(%s) = %q, want %q", it.Site, pw, secrets[it.Site])
		}
	}

	// The old password must be dead, the new one live.
	if err := client.Logout(); err != nil {
		t.Fatalf("Logout: %v", err)
	}
	if err := client.Login(ctx, "user@example.com", "old password"); !errors.Is(err, ErrWrongCredentials) {
		t.Errorf("Login with retired password = %v, want ErrWrongCredentials", err)
	}
	if err := client.Login(ctx, "user@example.com", "new password"); err != nil {
		t.Fatalf("Login with new password: %v", err)
	}
}

func TestChangePasswordWrongCurrent(t *testing.T) {
	client, _ := newTestClient(t)
	ctx := context.Background()

	if err := client.Register(ctx, "user@example.com", "old password"); err != nil {
		t.Fatalf("Register: %v", err)
	}
	if _, err := client.AddItem(ctx, "github.com", "hunter2"); err != nil {
		t.Fatalf("AddItem: %v", err)
	}

	err := client.ChangePassword(ctx, "not the password", "new password")
	if !errors.Is(err, ErrWrongCredentials) {
		t.Errorf("ChangePassword with wrong current password = %v, want ErrWrongCredentials", err)
	}
	// A failed rotation locks the session; a fresh login must still
	// work with the untouched old password.
	if got := client.Session().State(); got != StateLocked {
		t.Errorf("state after failed rotation = %q, want %q", got, StateLocked)
	}
	if err := client.Login(ctx, "user@example.com", "old password"); err != nil {
		t.Fatalf("Login after failed rotation: %v", err)
	}
}

func TestChangePasswordRequiresUnlockedVault(t *testing.T) {
	client, _ := newTestClient(t)

	err := client.ChangePassword(context.Background(), "old", "new")
	if !errors.Is(err, ErrVaultLocked) {
		t.Errorf("ChangePassword on locked vault = %v, want ErrVaultLocked", err)
	}
}

func TestClosedClient(t *testing.T) {
	client, _ := newTestClient(t)
	ctx := context.Background()

	if err := client.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if err := client.Close(); err != nil {
		t.Fatalf("second Close: %v", err)
	}

	if err := client.Login(ctx, "user@example.com", "pw"); !errors.Is(err, ErrClientClosed) {
		t.Errorf("Login after Close = %v, want ErrClientClosed", err)
	}
	if _, err := client.Items(ctx); !errors.Is(err, ErrClientClosed) {
		t.Errorf("Items after Close = %v, want ErrClientClosed", err)
	}
}
