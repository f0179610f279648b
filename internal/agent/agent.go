// Package agent contains the specialized agents that collaborate to complete
// a government procedure: validation, legal review, and case management.
package agent

import (
	"context"

	"identia/internal/domain"
)

// Status reports how an agent invocation concluded.
type Status string

const (
	StatusPending    Status = "pending"
	StatusProcessing Status = "processing"
	StatusCompleted  Status = "completed"
	StatusFailed     Status = "failed"
	StatusNeedsInfo  Status = "needs_info"
)

// Input is the slice of procedure state an agent reads. The workflow builds
// one per invocation; agents never mutate it.
type Input struct {
	Action        string
	ProcedureType string
	Documents     map[string]domain.Document
	Biometrics    domain.Biometrics
	FormData      map[string]any
	CitizenData   map[string]any
	Preferences   map[string]any
	CaseID        string
	Notification  map[string]any
}

// Result is what an agent hands back to the workflow after one invocation.
// It is consumed immediately and never persisted.
type Result struct {
	Status     Status
	Message    string
	Data       any
	NextAction string
	Confidence float64
}

// Agent processes one slice of procedure state and reports the outcome.
type Agent interface {
	Process(ctx context.Context, input Input) (Result, error)
}
