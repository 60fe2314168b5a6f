// Package account persists the PlayerID → Account registry. Sessions
// read it concurrently during login; registration is serialized and
// durable before it returns.
package account

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/cespare/xxhash/v2"
	"gopkg.in/yaml.v3"

	"github.com/udisondev/somnuscape/internal/model"
)

// HashPassword reduces a raw password to the stored 64-bit hash. Fast and
// non-cryptographic on purpose: credentials already cross the wire in
// plaintext telnet.
func HashPassword(password string) uint64 {
	return xxhash.Sum64String(password)
}

// Store is a single-writer/multi-reader account registry backed by one
// YAML file.
type Store struct {
	mu       sync.RWMutex
	accounts map[model.PlayerID]model.Account
	path     string
}

// LoadOrNew reads the registry from path, creating the parent directory
// and starting empty if the file does not exist.
func LoadOrNew(path string) (*Store, error) {
	s := &Store{
		accounts: make(map[model.PlayerID]model.Account),
		path:     path,
	}

	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("creating state directory: %w", err)
		}
		return s, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading player registry: %w", err)
	}
	if err := yaml.Unmarshal(data, &s.accounts); err != nil {
		return nil, fmt.Errorf("decoding player registry: %w", err)
	}
	return s, nil
}

// RegisterUser allocates a fresh PlayerID for the account, inserts it,
// and flushes the whole registry to disk before returning. The returned
// id is only valid once the account is durable.
func (s *Store) RegisterUser(acc model.Account) (model.PlayerID, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	id := model.NewPlayerID()
	for {
		if _, exists := s.accounts[id]; !exists {
			break
		}
		id = model.NewPlayerID()
	}
	s.accounts[id] = acc

	if err := s.flushLocked(); err != nil {
		delete(s.accounts, id)
		return model.PlayerID{}, fmt.Errorf("persisting registration: %w", err)
	}
	return id, nil
}

// flushLocked serializes the registry and atomically replaces the file.
// Callers must hold the write lock.
func (s *Store) flushLocked() error {
	data, err := yaml.Marshal(s.accounts)
	if err != nil {
		return fmt.Errorf("serializing player registry: %w", err)
	}

	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("writing player registry: %w", err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		return fmt.Errorf("replacing player registry: %w", err)
	}
	return nil
}

// Get returns the account for the given id.
func (s *Store) Get(id model.PlayerID) (model.Account, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	acc, ok := s.accounts[id]
	return acc, ok
}

// Username returns the display name for the given id, or an empty string.
func (s *Store) Username(id model.PlayerID) string {
	acc, _ := s.Get(id)
	return acc.Username
}

// Lookup finds an account by username, case-insensitively. The returned
// account carries the canonical casing chosen at registration.
func (s *Store) Lookup(username string) (model.PlayerID, model.Account, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for id, acc := range s.accounts {
		if strings.EqualFold(acc.Username, username) {
			return id, acc, true
		}
	}
	return model.PlayerID{}, model.Account{}, false
}

// Len returns the number of registered accounts.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.accounts)
}
