// Package localstore persists the small set of client state that must
// survive process restarts: the session identity and any OAuth consent
// that is pending across the provider redirect.
package localstore

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sync"
)

// State is the durable client state, stored as a single JSON file.
type State struct {
	// UserID and Token identify the signed-in session. Both empty
	// means no session.
	UserID string `json:"covalynce_uid,omitempty"`
	Token  string `json:"covalynce_token,omitempty"`
	// PendingProvider survives the full OAuth redirect so the
	// callback knows which provider the code belongs to.
	PendingProvider string `json:"pending_provider,omitempty"`
	// PendingPermissions is the exact permission snapshot shown at
	// consent time, recorded server-side once the callback lands.
	PendingPermissions []string `json:"pending_permissions,omitempty"`
}

// Store owns the state file. All access goes through the mutex: the
// session controller and the OAuth callback listener both touch it.
type Store struct {
	path  string
	mu    sync.Mutex
	state State
}

// New creates a Store bound to path. The file is created lazily on
// first Save.
func New(path string) *Store {
	return &Store{path: path}
}

// Load reads the state file. A missing file is not an error; it leaves
// the zero state in place.
func (s *Store) Load() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	f, err := os.Open(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			s.state = State{}
			return nil
		}
		return err
	}
	defer f.Close()
	return json.NewDecoder(f).Decode(&s.state)
}

func (s *Store) save() error {
	if dir := filepath.Dir(s.path); dir != "." {
		if err := os.MkdirAll(dir, 0o700); err != nil {
			return err
		}
	}
	f, err := os.OpenFile(s.path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o600)
	if err != nil {
		return err
	}
	defer f.Close()
	return json.NewEncoder(f).Encode(&s.state)
}

// Snapshot returns a copy of the current state.
func (s *Store) Snapshot() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// SetSession persists the signed-in identity.
func (s *Store) SetSession(userID, token string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state.UserID = userID
	s.state.Token = token
	return s.save()
}

// SetPending records the provider and permission snapshot of an
// in-flight consent, to be resolved by the OAuth callback.
func (s *Store) SetPending(provider string, permissions []string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state.PendingProvider = provider
	s.state.PendingPermissions = append([]string(nil), permissions...)
	return s.save()
}

// ClearPending unsets any in-flight consent.
func (s *Store) ClearPending() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state.PendingProvider = ""
	s.state.PendingPermissions = nil
	return s.save()
}

// Clear wipes all persisted state. Used on logout and data deletion.
func (s *Store) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state = State{}
	return s.save()
}
