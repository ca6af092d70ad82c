// Package session holds the process-wide authenticated-identity and
// session-token state consumed and updated by the connection manager.
package session

import (
	"sync"
	"time"

	"llamasearch-client/internal/model"

	"github.com/patrickmn/go-cache"
)

// Session ids are honored by the backend for about an hour (the login
// cookie's max-age); after that a resumption attempt is pointless, so the
// persisted id expires on the same schedule.
const (
	sessionTTL      = 1 * time.Hour
	cleanupInterval = 10 * time.Minute
)

// anonymousIdentity keys the persisted session id when no identity was
// installed (token supplied out of band, no REST login).
const anonymousIdentity = "anonymous"

// Store is the single owner of session state. The connection manager is its
// only writer; observers read snapshots.
type Store struct {
	mu       sync.RWMutex
	identity string
	state    model.ConnectionState
	attempts int

	// Persisted session ids keyed by identity, so a reconnect after an
	// identity switch never resumes someone else's session.
	cache *cache.Cache
}

func NewStore() *Store {
	return &Store{
		cache: cache.New(sessionTTL, cleanupInterval),
	}
}

// SetIdentity installs the authenticated identity. Clearing it (logout)
// drops the persisted session id and resets the state machine.
func (s *Store) SetIdentity(identity string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if identity == "" && s.identity != "" {
		s.cache.Delete(s.identity)
		s.state = model.StateDisconnected
		s.attempts = 0
	}
	s.identity = identity
}

func (s *Store) Identity() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.identity
}

// SetSessionId persists the backend-assigned session id for the current
// identity so a later connection attempt can request resumption.
func (s *Store) SetSessionId(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cache.Set(s.cacheKey(), id, cache.DefaultExpiration)
}

func (s *Store) SessionId() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if x, found := s.cache.Get(s.cacheKey()); found {
		return x.(string)
	}
	return ""
}

// cacheKey must be called with mu held.
func (s *Store) cacheKey() string {
	if s.identity == "" {
		return anonymousIdentity
	}
	return s.identity
}

func (s *Store) SetState(state model.ConnectionState) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state = state
	if state == model.StateAuthenticated {
		s.attempts = 0
	}
}

func (s *Store) State() model.ConnectionState {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state
}

func (s *Store) Attempts() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.attempts
}

func (s *Store) IncrementAttempts() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.attempts++
	return s.attempts
}

func (s *Store) ResetAttempts() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.attempts = 0
}

// Snapshot returns a point-in-time copy for observers.
func (s *Store) Snapshot() model.Session {
	s.mu.RLock()
	defer s.mu.RUnlock()
	sessionId := ""
	if x, found := s.cache.Get(s.cacheKey()); found {
		sessionId = x.(string)
	}
	return model.Session{
		Identity:          s.identity,
		SessionId:         sessionId,
		State:             s.state,
		ReconnectAttempts: s.attempts,
	}
}
