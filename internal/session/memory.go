package session

import (
	"context"
	"encoding/json"
	"sync"
	"time"
)

const (
	// MemoryTTL is how long an idle session survives before auto-expiring
	MemoryTTL = 24 * time.Hour

	// CleanupInterval is how often the background cleanup runs
	CleanupInterval = time.Minute
)

type memoryEntry struct {
	values    map[string]json.RawMessage
	expiresAt time.Time
}

// MemoryStore implements Store with in-memory storage. Meant for tests and
// single-process runs; sessions do not survive a restart.
type MemoryStore struct {
	mu       sync.RWMutex
	ttl      time.Duration
	sessions map[string]*memoryEntry

	stopCleanup chan struct{}
	wg          sync.WaitGroup
}

// NewMemoryStore creates a new in-memory session store
func NewMemoryStore() *MemoryStore {
	s := &MemoryStore{
		ttl:         MemoryTTL,
		sessions:    make(map[string]*memoryEntry),
		stopCleanup: make(chan struct{}),
	}

	// Start background cleanup goroutine
	s.wg.Add(1)
	go s.cleanupLoop()

	return s
}

// cleanupLoop periodically drops sessions past their TTL
func (s *MemoryStore) cleanupLoop() {
	defer s.wg.Done()

	ticker := time.NewTicker(CleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			s.expireSessions()
		case <-s.stopCleanup:
			return
		}
	}
}

func (s *MemoryStore) expireSessions() {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := time.Now()
	for id, entry := range s.sessions {
		if now.After(entry.expiresAt) {
			delete(s.sessions, id)
		}
	}
}

func (s *MemoryStore) Load(ctx context.Context, id string) (*Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	entry, ok := s.sessions[id]
	if !ok || time.Now().After(entry.expiresAt) {
		return nil, ErrSessionNotFound
	}

	return restore(id, copyValues(entry.values)), nil
}

func (s *MemoryStore) Save(_ context.Context, sess *Session) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.sessions[sess.ID] = &memoryEntry{
		values:    copyValues(sess.values),
		expiresAt: time.Now().Add(s.ttl),
	}
	return nil
}

func (s *MemoryStore) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.sessions, id)
	return nil
}

// Close stops the background cleanup goroutine
func (s *MemoryStore) Close() {
	close(s.stopCleanup)
	s.wg.Wait()
}

// copyValues keeps stored state isolated from live session mutations; only
// an explicit Save publishes changes.
func copyValues(values map[string]json.RawMessage) map[string]json.RawMessage {
	out := make(map[string]json.RawMessage, len(values))
	for k, v := range values {
		out[k] = v
	}
	return out
}
