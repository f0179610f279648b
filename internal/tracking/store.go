package tracking

import "context"

// Store persists trámites keyed by PIN.
type Store interface {
	// Create inserts a new trámite. Returns sentinel.ErrConflict when the
	// PIN is already taken.
	Create(ctx context.Context, tramite Tramite) error
	FindByPIN(ctx context.Context, pin string) (Tramite, error)
	Update(ctx context.Context, tramite Tramite) error
	ListActive(ctx context.Context) ([]Tramite, error)
}
