package workflow

import (
	"context"
	"sync"

	"identia/pkg/platform/sentinel"
)

// InMemoryStore keeps procedure state in process memory. It hands out clones
// so persisted state only changes through Save.
type InMemoryStore struct {
	mu         sync.RWMutex
	procedures map[string]*ProcedureState
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{procedures: make(map[string]*ProcedureState)}
}

func (s *InMemoryStore) Save(_ context.Context, state *ProcedureState) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.procedures[state.ProcedureID] = state.Clone()
	return nil
}

func (s *InMemoryStore) Find(_ context.Context, procedureID string) (*ProcedureState, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if state, ok := s.procedures[procedureID]; ok {
		return state.Clone(), nil
	}
	return nil, sentinel.ErrNotFound
}

func (s *InMemoryStore) Delete(_ context.Context, procedureID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.procedures[procedureID]; !ok {
		return sentinel.ErrNotFound
	}
	delete(s.procedures, procedureID)
	return nil
}
