package auth

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

// DefaultClientID is the OIDC client id registered for the console.
const DefaultClientID = "HossServer"

// redirectKey is the KV entry holding the post-login redirect map. It is a
// single JSON object keyed by user email, matching the web console's
// "redirect" local storage entry.
const redirectKey = "redirect"

// KV is the minimal persisted key-value contract the credential store
// needs. Implementations: MapKV (tests), FileKV (on disk).
type KV interface {
	Get(key string) ([]byte, error)
	Set(key string, value []byte) error
	Delete(key string) error
}

// ErrKeyNotFound is returned by KV implementations for absent keys.
var ErrKeyNotFound = errors.New("key not found")

// Credential is a cached session credential.
type Credential struct {
	IDToken   string    `json:"id_token"`
	ExpiresAt time.Time `json:"expires_at"`
}

// CredentialKey builds the cache key for a session, mirroring the web
// console's local storage layout.
func CredentialKey(authority, clientID string) string {
	return fmt.Sprintf("oidc.user:%s:%s", authority, clientID)
}

// CredentialStore persists the session credential and the one-entry-per-user
// redirect-after-login map on top of a KV backend.
type CredentialStore struct {
	kv  KV
	key string
}

// NewCredentialStore creates a store persisting under the given session key.
func NewCredentialStore(kv KV, key string) *CredentialStore {
	return &CredentialStore{kv: kv, key: key}
}

// Load returns the cached credential, or ErrNoCredential when absent.
func (s *CredentialStore) Load() (*Credential, error) {
	data, err := s.kv.Get(s.key)
	if err != nil {
		if errors.Is(err, ErrKeyNotFound) {
			return nil, ErrNoCredential
		}
		return nil, fmt.Errorf("load credential: %w", err)
	}

	var cred Credential
	if err := json.Unmarshal(data, &cred); err != nil {
		return nil, fmt.Errorf("decode credential: %w", err)
	}
	return &cred, nil
}

// Save persists the credential.
func (s *CredentialStore) Save(cred *Credential) error {
	data, err := json.Marshal(cred)
	if err != nil {
		return fmt.Errorf("encode credential: %w", err)
	}
	return s.kv.Set(s.key, data)
}

// Remove revokes the cached credential. Removing an absent credential is
// not an error.
func (s *CredentialStore) Remove() error {
	if err := s.kv.Delete(s.key); err != nil && !errors.Is(err, ErrKeyNotFound) {
		return err
	}
	return nil
}

// IDToken implements the api.TokenSource contract. An absent credential
// yields an empty token, not an error, so unauthenticated discovery calls
// still work.
func (s *CredentialStore) IDToken() (string, error) {
	cred, err := s.Load()
	if errors.Is(err, ErrNoCredential) {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	return cred.IDToken, nil
}

// RecordRedirect remembers a path to restore after the named user next
// completes a login.
func (s *CredentialStore) RecordRedirect(email, path string) error {
	m, err := s.redirectMap()
	if err != nil {
		return err
	}
	m[email] = path
	return s.saveRedirectMap(m)
}

// TakeRedirect returns and clears the recorded path for one user. Entries
// recorded for other users are left untouched.
func (s *CredentialStore) TakeRedirect(email string) (string, bool, error) {
	m, err := s.redirectMap()
	if err != nil {
		return "", false, err
	}
	path, ok := m[email]
	if !ok || path == "" {
		return "", false, nil
	}
	delete(m, email)
	if err := s.saveRedirectMap(m); err != nil {
		return "", false, err
	}
	return path, true, nil
}

func (s *CredentialStore) redirectMap() (map[string]string, error) {
	data, err := s.kv.Get(redirectKey)
	if err != nil {
		if errors.Is(err, ErrKeyNotFound) {
			return map[string]string{}, nil
		}
		return nil, fmt.Errorf("load redirect map: %w", err)
	}

	m := map[string]string{}
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("decode redirect map: %w", err)
	}
	return m, nil
}

func (s *CredentialStore) saveRedirectMap(m map[string]string) error {
	data, err := json.Marshal(m)
	if err != nil {
		return fmt.Errorf("encode redirect map: %w", err)
	}
	return s.kv.Set(redirectKey, data)
}
