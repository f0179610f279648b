package tracking

import (
	"context"
	"sort"
	"sync"

	"identia/pkg/platform/sentinel"
)

// InMemoryStore keeps trámites in process memory. It favors clarity over
// performance and backs tests and single-node deployments.
type InMemoryStore struct {
	mu       sync.RWMutex
	tramites map[string]Tramite
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{tramites: make(map[string]Tramite)}
}

func (s *InMemoryStore) Create(_ context.Context, tramite Tramite) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.tramites[tramite.PIN]; ok {
		return sentinel.ErrConflict
	}
	s.tramites[tramite.PIN] = cloneTramite(tramite)
	return nil
}

func (s *InMemoryStore) FindByPIN(_ context.Context, pin string) (Tramite, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if tramite, ok := s.tramites[pin]; ok {
		return cloneTramite(tramite), nil
	}
	return Tramite{}, sentinel.ErrNotFound
}

func (s *InMemoryStore) Update(_ context.Context, tramite Tramite) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.tramites[tramite.PIN]; !ok {
		return sentinel.ErrNotFound
	}
	s.tramites[tramite.PIN] = cloneTramite(tramite)
	return nil
}

func (s *InMemoryStore) ListActive(_ context.Context) ([]Tramite, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	active := make([]Tramite, 0)
	for _, tramite := range s.tramites {
		if tramite.Active() {
			active = append(active, cloneTramite(tramite))
		}
	}
	sort.Slice(active, func(i, j int) bool {
		return active[i].CreatedAt.Before(active[j].CreatedAt)
	})
	return active, nil
}

// cloneTramite copies the history slice so callers cannot mutate stored
// entries through the returned value.
func cloneTramite(t Tramite) Tramite {
	out := t
	out.History = append([]HistoryEntry(nil), t.History...)
	if t.Cita != nil {
		cita := *t.Cita
		out.Cita = &cita
	}
	return out
}
