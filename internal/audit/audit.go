// Package audit records the append-only event trail of procedures: workflow
// step transitions, tracking state changes, and terminal errors. Events are
// write-only facts; business logic never reads them back.
package audit

import (
	"context"
	"log/slog"
	"time"
)

// EventType classifies an audit event.
type EventType string

const (
	EventStepTransition EventType = "step_transition"
	EventStateChange    EventType = "state_change"
	EventProcedureError EventType = "procedure_error"
)

// Event is one audit record for a procedure.
type Event struct {
	ProcedureID string    `json:"procedure_id"`
	Type        EventType `json:"type"`
	FromStep    string    `json:"from_step,omitempty"`
	ToStep      string    `json:"to_step,omitempty"`
	Note        string    `json:"note,omitempty"`
	Timestamp   time.Time `json:"timestamp"`
}

// Store persists audit events append-only.
type Store interface {
	Append(ctx context.Context, event Event) error
	ListByProcedure(ctx context.Context, procedureID string) ([]Event, error)
}

// Recorder accepts events from hot paths without blocking them on storage.
// Emission goes through a buffered inbox drained by Run; a full inbox drops
// the event and logs it rather than stalling a procedure step.
type Recorder struct {
	store  Store
	inbox  chan Event
	logger *slog.Logger
}

// NewRecorder creates a Recorder with the given inbox capacity.
func NewRecorder(store Store, capacity int, logger *slog.Logger) *Recorder {
	if capacity <= 0 {
		capacity = 256
	}
	return &Recorder{
		store:  store,
		inbox:  make(chan Event, capacity),
		logger: logger,
	}
}

// Emit enqueues one event, stamping the time when unset.
func (r *Recorder) Emit(ctx context.Context, event Event) {
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}
	select {
	case r.inbox <- event:
	default:
		r.logger.Warn("audit inbox full, dropping event",
			"procedure_id", event.ProcedureID, "type", string(event.Type))
	}
}

// Run drains the inbox into the store until ctx is cancelled. Persistence
// failures are logged and skipped so one bad write cannot halt the trail.
func (r *Recorder) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case event := <-r.inbox:
			if err := r.store.Append(ctx, event); err != nil {
				r.logger.Error("append audit event", "error", err,
					"procedure_id", event.ProcedureID)
			}
		}
	}
}

// List returns the events recorded for a procedure in append order.
func (r *Recorder) List(ctx context.Context, procedureID string) ([]Event, error) {
	return r.store.ListByProcedure(ctx, procedureID)
}
