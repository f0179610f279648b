package audit

import (
	"context"
	"sync"
)

// InMemoryStore is an in-memory Store implementation for tests and
// single-process deployments.
type InMemoryStore struct {
	mu     sync.RWMutex
	events map[string][]Event
}

// NewInMemoryStore creates an empty in-memory audit store.
func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{events: make(map[string][]Event)}
}

func (s *InMemoryStore) Append(_ context.Context, event Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events[event.ProcedureID] = append(s.events[event.ProcedureID], event)
	return nil
}

func (s *InMemoryStore) ListByProcedure(_ context.Context, procedureID string) ([]Event, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	events := s.events[procedureID]
	out := make([]Event, len(events))
	copy(out, events)
	return out, nil
}
