// Package session resolves and persists the tool-backend session credential.
//
// Resolution order: process cache, then the MCPGATE_SESSION_ID environment
// variable, then the persisted configuration file. The store never
// provisions a session on its own; obtaining one is a user action
// (mcpgate session configure <id>).
package session

import (
	"errors"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/oalmeida/mcpgate/internal/config"
)

// EnvVar is the environment variable consulted before persisted config.
const EnvVar = "MCPGATE_SESSION_ID"

// ErrUnavailable is returned when no session identifier can be resolved.
var ErrUnavailable = errors.New(
	"no tool session configured: set " + EnvVar + " or run 'mcpgate session configure <id>'")

// ErrEmptyID is returned by Set for blank identifiers.
var ErrEmptyID = errors.New("session id must not be empty")

// Source records where a session identifier came from.
type Source string

const (
	SourceEnv       Source = "env"
	SourcePersisted Source = "persisted"
)

// Session is the resolved credential. Immutable once created.
type Session struct {
	ID        string
	CreatedAt time.Time
	Source    Source
}

// Store caches the resolved Session for the process lifetime.
// Get is safe for concurrent use; Set and Clear are configuration
// actions and must not race with in-flight invocations.
type Store struct {
	configPath string

	mu     sync.RWMutex
	cached *Session
}

// NewStore creates a store persisting through the config file at path.
// An empty path means the default config location.
func NewStore(configPath string) *Store {
	return &Store{configPath: configPath}
}

// Get returns the active session, resolving it on first use.
func (s *Store) Get() (Session, error) {
	s.mu.RLock()
	if s.cached != nil {
		sess := *s.cached
		s.mu.RUnlock()
		return sess, nil
	}
	s.mu.RUnlock()

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cached != nil {
		return *s.cached, nil
	}

	if id := strings.TrimSpace(os.Getenv(EnvVar)); id != "" {
		s.cached = &Session{ID: id, CreatedAt: time.Now(), Source: SourceEnv}
		return *s.cached, nil
	}

	cfg, err := config.Load(s.configPath)
	if err != nil {
		return Session{}, err
	}
	if id := strings.TrimSpace(cfg.SessionID); id != "" {
		s.cached = &Session{ID: id, CreatedAt: time.Now(), Source: SourcePersisted}
		return *s.cached, nil
	}

	return Session{}, ErrUnavailable
}

// Set validates and persists a session identifier for future process
// invocations, overwriting any cached value.
func (s *Store) Set(id string) error {
	id = strings.TrimSpace(id)
	if id == "" {
		return ErrEmptyID
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	cfg, err := config.Load(s.configPath)
	if err != nil {
		return err
	}
	cfg.SessionID = id
	if err := config.Save(cfg, s.configPath); err != nil {
		return err
	}

	s.cached = &Session{ID: id, CreatedAt: time.Now(), Source: SourcePersisted}
	return nil
}

// Clear removes the persisted identifier and drops the cache.
func (s *Store) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	cfg, err := config.Load(s.configPath)
	if err != nil {
		return err
	}
	cfg.SessionID = ""
	if err := config.Save(cfg, s.configPath); err != nil {
		return err
	}

	s.cached = nil
	return nil
}
