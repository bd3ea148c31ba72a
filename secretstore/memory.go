package secretstore

import (
	"sync"

	"github.com/awnumar/memguard"
)

// Memory is an in-process Store backed by memguard enclaves. Secret
// values live in encrypted, mlock-ed buffers rather than plain Go heap
// strings, so they are not written to swap and are harder to scrape from
// a core dump. This is the default store for interactive sessions.
type Memory struct {
	mu      sync.RWMutex
	secrets map[string]*memguard.Enclave
}

// NewMemory creates an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{
		secrets: make(map[string]*memguard.Enclave),
	}
}

// Set stores a secret inside a sealed enclave.
func (m *Memory) Set(name, value string) error {
	enclave := memguard.NewEnclave([]byte(value))

	m.mu.Lock()
	defer m.mu.Unlock()
	m.secrets[name] = enclave
	return nil
}

// Get opens the enclave and returns a copy of the secret.
func (m *Memory) Get(name string) (string, bool) {
	m.mu.RLock()
	enclave, ok := m.secrets[name]
	m.mu.RUnlock()
	if !ok {
		return "", false
	}

	buf, err := enclave.Open()
	if err != nil {
		return "", false
	}
	defer buf.Destroy()

	return string(buf.Bytes()), true
}

// Remove deletes a secret.
func (m *Memory) Remove(name string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.secrets, name)
	return nil
}

// Clear removes all secrets.
func (m *Memory) Clear() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.secrets = make(map[string]*memguard.Enclave)
	return nil
}
