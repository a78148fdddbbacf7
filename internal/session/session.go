package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
)

var ErrSessionNotFound = errors.New("session not found")

// Store persists sessions keyed by their opaque id
// Consumers define this interface, not the Redis implementation
type Store interface {
	Load(ctx context.Context, id string) (*Session, error)
	Save(ctx context.Context, sess *Session) error
	Delete(ctx context.Context, id string) error
}

// Session is a per-request bag of named values. Mutations are only persisted
// when the session has been marked modified before the request ends.
type Session struct {
	ID    string
	IsNew bool

	values   map[string]json.RawMessage
	modified bool
}

// New creates an empty session with a fresh opaque id.
func New() *Session {
	return &Session{
		ID:     uuid.NewString(),
		IsNew:  true,
		values: make(map[string]json.RawMessage),
	}
}

func restore(id string, values map[string]json.RawMessage) *Session {
	if values == nil {
		values = make(map[string]json.RawMessage)
	}
	return &Session{ID: id, values: values}
}

// Get unmarshals the value stored under key into v. The first return is
// false when the key is absent.
func (s *Session) Get(key string, v any) (bool, error) {
	raw, ok := s.values[key]
	if !ok {
		return false, nil
	}
	if err := json.Unmarshal(raw, v); err != nil {
		return true, fmt.Errorf("decode session value %q: %w", key, err)
	}
	return true, nil
}

// Set stores v under key. It does not mark the session modified; callers
// decide when a batch of mutations is worth persisting.
func (s *Session) Set(key string, v any) error {
	raw, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode session value %q: %w", key, err)
	}
	s.values[key] = raw
	return nil
}

// Delete removes the value stored under key, if any.
func (s *Session) Delete(key string) {
	delete(s.values, key)
}

// Has reports whether a value is stored under key.
func (s *Session) Has(key string) bool {
	_, ok := s.values[key]
	return ok
}

// MarkModified signals the store to persist this session at request end.
func (s *Session) MarkModified() { s.modified = true }

// Modified reports whether the session needs persisting.
func (s *Session) Modified() bool { return s.modified }
