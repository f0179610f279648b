package anonymizer

import (
	"context"
	"sync"

	"identia/pkg/platform/sentinel"
)

// InMemorySessionStore keeps session mappings in process memory. Use the
// Redis store when more than one instance serves the same sessions.
type InMemorySessionStore struct {
	mu       sync.RWMutex
	sessions map[string]*Result
}

// NewInMemorySessionStore creates an empty in-memory session store.
func NewInMemorySessionStore() *InMemorySessionStore {
	return &InMemorySessionStore{sessions: make(map[string]*Result)}
}

func (s *InMemorySessionStore) Save(ctx context.Context, sessionID string, result *Result) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[sessionID] = result
	return nil
}

func (s *InMemorySessionStore) Find(ctx context.Context, sessionID string) (*Result, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	result, ok := s.sessions[sessionID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	return result, nil
}

func (s *InMemorySessionStore) Delete(ctx context.Context, sessionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, sessionID)
	return nil
}
