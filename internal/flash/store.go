package flash

import (
	"encoding/gob"

	"github.com/gorilla/sessions"
)

func init() {
	gob.Register(Message{})
}

// Store is the session-backed key-value state flash messages live in.
type Store interface {
	Get(key string) (any, bool)
	Set(key string, value any)
	Delete(key string)
	Keys() []string
}

// SessionStore adapts a gorilla session to Store. Saving the session stays
// with the caller.
type SessionStore struct {
	Session *sessions.Session
}

// NewSessionStore wraps s.
func NewSessionStore(s *sessions.Session) *SessionStore {
	return &SessionStore{Session: s}
}

func (s *SessionStore) Get(key string) (any, bool) {
	v, ok := s.Session.Values[key]
	return v, ok
}

func (s *SessionStore) Set(key string, value any) {
	s.Session.Values[key] = value
}

func (s *SessionStore) Delete(key string) {
	delete(s.Session.Values, key)
}

func (s *SessionStore) Keys() []string {
	keys := make([]string, 0, len(s.Session.Values))
	for k := range s.Session.Values {
		if ks, ok := k.(string); ok {
			keys = append(keys, ks)
		}
	}
	return keys
}

// MemoryStore is a map-backed Store.
type MemoryStore map[string]any

func (m MemoryStore) Get(key string) (any, bool) {
	v, ok := m[key]
	return v, ok
}

func (m MemoryStore) Set(key string, value any) { m[key] = value }

func (m MemoryStore) Delete(key string) { delete(m, key) }

func (m MemoryStore) Keys() []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	return keys
}
