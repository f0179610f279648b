package workflow

import "context"

// Store persists procedure state between workflow invocations.
type Store interface {
	Save(ctx context.Context, state *ProcedureState) error
	Find(ctx context.Context, procedureID string) (*ProcedureState, error)
	Delete(ctx context.Context, procedureID string) error
}
