package session

import (
	"context"
	"errors"
	"sync"
	"time"
)

var ErrSessionIDRequired = errors.New("session id is required")

// Store holds one Session per browser, keyed by the opaque session ID
// carried in the portal cookie. Get returns a zero Session for unknown or
// expired IDs; Clear on an absent session is a no-op.
type Store interface {
	Get(ctx context.Context, sid string) (Session, error)
	Put(ctx context.Context, sid string, sess Session) error
	Clear(ctx context.Context, sid string) error
}

type memoryEntry struct {
	sess    Session
	expires time.Time
}

// MemoryStore is the in-process Store implementation. Sessions survive
// browser reloads for as long as the portal process and the TTL allow.
type MemoryStore struct {
	mu      sync.RWMutex
	ttl     time.Duration
	entries map[string]memoryEntry
	now     func() time.Time
}

func NewMemoryStore(ttl time.Duration) *MemoryStore {
	return &MemoryStore{
		ttl:     ttl,
		entries: map[string]memoryEntry{},
		now:     time.Now,
	}
}

func (s *MemoryStore) Get(_ context.Context, sid string) (Session, error) {
	if sid == "" {
		return Session{}, nil
	}

	s.mu.RLock()
	entry, ok := s.entries[sid]
	s.mu.RUnlock()

	if !ok {
		return Session{}, nil
	}
	if s.ttl > 0 && s.now().After(entry.expires) {
		s.mu.Lock()
		delete(s.entries, sid)
		s.mu.Unlock()
		return Session{}, nil
	}
	return entry.sess, nil
}

func (s *MemoryStore) Put(_ context.Context, sid string, sess Session) error {
	if sid == "" {
		return ErrSessionIDRequired
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries[sid] = memoryEntry{sess: sess, expires: s.now().Add(s.ttl)}
	return nil
}

func (s *MemoryStore) Clear(_ context.Context, sid string) error {
	if sid == "" {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.entries, sid)
	return nil
}
