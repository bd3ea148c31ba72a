package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

// memTokens is an in-memory TokenSource for tests.
type memTokens struct {
	mu      sync.Mutex
	access  string
	refresh string
}

func (m *memTokens) AccessToken() (string, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.access, m.access != ""
}

func (m *memTokens) RefreshToken() (string, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.refresh, m.refresh != ""
}

func (m *memTokens) SetTokens(access, refresh string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.access = access
	m.refresh = refresh
}

func TestNew_RequiresBaseURL(t *testing.T) {
	_, err := New("")
	if err == nil {
		t.Error("expected error for empty base URL")
	}
}

func TestNew_Defaults(t *testing.T) {
	client, err := New("https://example.com")
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	if client.httpClient == nil {
		t.Fatal("httpClient is nil")
	}
	if client.httpClient.Timeout != DefaultTimeout {
		t.Errorf("timeout = %v, want %v", client.httpClient.Timeout, DefaultTimeout)
	}
	if client.retry == nil {
		t.Error("retry config is nil")
	}
}

func TestDo_SendsBearerToken(t *testing.T) {
	t.Parallel()
	var gotAuth string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		json.NewEncoder(w).Encode(map[string]string{"ok": "yes"})
	}))
	defer server.Close()

	tokens := &memTokens{access: "tok-abc", refresh: "ref-abc"}
	client, _ := New(server.URL, WithTokenSource(tokens))

	var result map[string]string
	if err := client.Do(context.Background(), http.MethodGet, "/api/v1/vault/items", nil, &result); err != nil {
		t.Fatalf("Do() error = %v", err)
	}

	if gotAuth != "Bearer tok-abc" {
		t.Errorf("Authorization = %q, want %q", gotAuth, "Bearer tok-abc")
	}
}

func TestDo_RetriesOnServerError(t *testing.T) {
	t.Parallel()
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		json.NewEncoder(w).Encode(map[string]string{"ok": "yes"})
	}))
	defer server.Close()

	retry := DefaultRetryConfig()
	retry.BaseDelay = time.Millisecond
	client, _ := New(server.URL, WithRetryConfig(retry))

	var result map[string]string
	if err := client.Do(context.Background(), http.MethodGet, "/", nil, &result); err != nil {
		t.Fatalf("Do() error = %v", err)
	}
	if calls.Load() != 3 {
		t.Errorf("calls = %d, want 3", calls.Load())
	}
}

func TestDo_NoRetryOnClientError(t *testing.T) {
	t.Parallel()
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusBadRequest)
		json.NewEncoder(w).Encode(map[string]string{"detail": "Email already registered"})
	}))
	defer server.Close()

	client, _ := New(server.URL)

	err := client.Do(context.Background(), http.MethodPost, pathRegister, map[string]string{}, nil)
	if err == nil {
		t.Fatal("expected error for 400 response")
	}
	if !errors.Is(err, ErrEmailRegistered) {
		t.Errorf("expected ErrEmailRegistered, got %v", err)
	}
	if calls.Load() != 1 {
		t.Errorf("calls = %d, want 1", calls.Load())
	}
}

func TestDo_RefreshesOn401(t *testing.T) {
	t.Parallel()
	var refreshed atomic.Bool
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case pathRefresh:
			refreshed.Store(true)
			json.NewEncoder(w).Encode(TokenResponse{
				AccessToken:  "new-access",
				RefreshToken: "new-refresh",
				TokenType:    "bearer",
			})
		default:
			if r.Header.Get("Authorization") != "Bearer new-access" {
				w.WriteHeader(http.StatusUnauthorized)
				json.NewEncoder(w).Encode(map[string]string{"detail": "Could not validate credentials"})
				return
			}
			json.NewEncoder(w).Encode([]VaultItem{})
		}
	}))
	defer server.Close()

	tokens := &memTokens{access: "stale-access", refresh: "ref-1"}
	client, _ := New(server.URL, WithTokenSource(tokens))

	if _, err := client.ListItems(context.Background()); err != nil {
		t.Fatalf("ListItems() error = %v", err)
	}

	if !refreshed.Load() {
		t.Error("expected a token refresh after 401")
	}
	if access, _ := tokens.AccessToken(); access != "new-access" {
		t.Errorf("access token = %q, want %q", access, "new-access")
	}
}

func TestDo_NoRefreshForLogin(t *testing.T) {
	t.Parallel()
	var refreshCalls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == pathRefresh {
			refreshCalls.Add(1)
		}
		w.WriteHeader(http.StatusUnauthorized)
		json.NewEncoder(w).Encode(map[string]string{"detail": "Incorrect email or password"})
	}))
	defer server.Close()

	tokens := &memTokens{access: "tok", refresh: "ref"}
	client, _ := New(server.URL, WithTokenSource(tokens))

	_, err := client.Login(context.Background(), &LoginRequest{Email: "a@b.com", AuthHash: "deadbeef"})
	if !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("expected ErrUnauthorized, got %v", err)
	}
	if refreshCalls.Load() != 0 {
		t.Errorf("refresh calls = %d, want 0", refreshCalls.Load())
	}
}

func TestDo_NetworkError(t *testing.T) {
	t.Parallel()
	retry := DefaultRetryConfig()
	retry.MaxRetries = 0

	// Closed port.
	client, _ := New("http://127.0.0.1:1", WithRetryConfig(retry))

	err := client.Do(context.Background(), http.MethodGet, "/", nil, nil)
	var netErr *NetworkError
	if !errors.As(err, &netErr) {
		t.Fatalf("expected NetworkError, got %v", err)
	}
}

func TestParseErrorResponse_Detail(t *testing.T) {
	t.Parallel()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		json.NewEncoder(w).Encode(map[string]string{"detail": "Item not found"})
	}))
	defer server.Close()

	client, _ := New(server.URL)
	err := client.DeleteItem(context.Background(), 42)

	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("expected APIError, got %v", err)
	}
	if apiErr.Message != "Item not found" {
		t.Errorf("Message = %q, want %q", apiErr.Message, "Item not found")
	}
	if !errors.Is(err, ErrItemNotFound) {
		t.Error("expected errors.Is(err, ErrItemNotFound)")
	}
}
