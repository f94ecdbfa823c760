// Package store persists the client's credentials and the single active
// room token, the localStorage analogue of the web client.
package store

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"gopkg.in/yaml.v3"
)

// state is the on-disk layout. Room is absent when no room is active;
// there is never more than one.
type state struct {
	Token string `yaml:"token,omitempty"`
	Room  string `yaml:"room,omitempty"`
}

// Store is a file-backed credentials store. Safe for concurrent use.
type Store struct {
	path string

	mu    sync.Mutex
	state state
}

// Open loads the state file at path, creating parent directories as
// needed. A missing file is an empty store, not an error.
func Open(path string) (*Store, error) {
	s := &Store{path: path}

	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return s, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read state file: %w", err)
	}
	if err := yaml.Unmarshal(data, &s.state); err != nil {
		return nil, fmt.Errorf("failed to parse state file: %w", err)
	}
	return s, nil
}

func (s *Store) save() error {
	data, err := yaml.Marshal(s.state)
	if err != nil {
		return fmt.Errorf("failed to marshal state: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(s.path), 0o700); err != nil {
		return fmt.Errorf("failed to create state dir: %w", err)
	}
	if err := os.WriteFile(s.path, data, 0o600); err != nil {
		return fmt.Errorf("failed to write state file: %w", err)
	}
	return nil
}

// Token returns the stored auth token, empty when logged out.
func (s *Store) Token() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.Token
}

func (s *Store) SetToken(token string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state.Token = token
	return s.save()
}

func (s *Store) ClearToken() error {
	return s.SetToken("")
}

// TokenExpired reports whether the stored token carries an exp claim in
// the past. The signature is not verified here; the server does that. A
// token without an exp claim is treated as live.
func (s *Store) TokenExpired(now time.Time) bool {
	token := s.Token()
	if token == "" {
		return true
	}
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return false
	}
	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return false
	}
	return exp.Before(now)
}

// Room returns the active room token, empty when none.
func (s *Store) Room() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.Room
}

// SetRoom stores the active room token, replacing any previous one. At
// most one room token exists at a time.
func (s *Store) SetRoom(token string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state.Room = token
	return s.save()
}

func (s *Store) ClearRoom() error {
	return s.SetRoom("")
}

// ClearAll wipes credentials and room token, used on logout.
func (s *Store) ClearAll() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state = state{}
	return s.save()
}
