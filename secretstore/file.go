package secretstore

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"sync"
)

// File is a Store persisted as a JSON file with 0600 permissions. It is
// meant for CLI use, where session tokens must survive between
// invocations. The unwrapped vault key should not be placed here; keep
// it in a Memory store and re-unlock instead.
type File struct {
	mu   sync.Mutex
	path string
}

// NewFile creates a file-backed store at the given path. The file is
// created on first write.
func NewFile(path string) *File {
	return &File{path: path}
}

func (f *File) load() (map[string]string, error) {
	data, err := os.ReadFile(f.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return map[string]string{}, nil
		}
		return nil, fmt.Errorf("read secret store: %w", err)
	}

	secrets := map[string]string{}
	if err := json.Unmarshal(data, &secrets); err != nil {
		return nil, fmt.Errorf("parse secret store: %w", err)
	}
	return secrets, nil
}

func (f *File) save(secrets map[string]string) error {
	data, err := json.MarshalIndent(secrets, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal secret store: %w", err)
	}
	if err := os.WriteFile(f.path, data, 0600); err != nil {
		return fmt.Errorf("write secret store: %w", err)
	}
	return nil
}

// Set stores a secret and persists the file.
func (f *File) Set(name, value string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	secrets, err := f.load()
	if err != nil {
		return err
	}
	secrets[name] = value
	return f.save(secrets)
}

// Get retrieves a secret from the file.
func (f *File) Get(name string) (string, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()

	secrets, err := f.load()
	if err != nil {
		return "", false
	}
	value, ok := secrets[name]
	return value, ok
}

// Remove deletes a secret and persists the file.
func (f *File) Remove(name string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	secrets, err := f.load()
	if err != nil {
		return err
	}
	delete(secrets, name)
	return f.save(secrets)
}

// Clear removes the backing file entirely.
func (f *File) Clear() error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if err := os.Remove(f.path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("remove secret store: %w", err)
	}
	return nil
}
