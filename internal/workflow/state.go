package workflow

import (
	"time"

	"identia/internal/agent"
	"identia/internal/domain"
)

// Step identifies a stage of the procedure lifecycle.
type Step string

const (
	StepStart               Step = "start"
	StepBiometricValidation Step = "biometric_validation"
	StepDocumentAnalysis    Step = "document_analysis"
	StepLegalReview         Step = "legal_review"
	StepScheduling          Step = "scheduling"
	StepComplete            Step = "complete"
	StepError               Step = "error"
)

// Terminal reports whether the step ends the workflow.
func (s Step) Terminal() bool {
	return s == StepComplete || s == StepError
}

// ProcedureState carries everything known about one citizen procedure as it
// moves through the workflow. Handlers mutate it in place; the state is the
// single source of truth for the procedure.
type ProcedureState struct {
	ProcedureID   string    `json:"procedure_id"`
	ProcedureType string    `json:"procedure_type"`
	CreatedAt     time.Time `json:"created_at"`

	CurrentStep Step     `json:"current_step"`
	StepHistory []string `json:"step_history"`

	CitizenID   string         `json:"citizen_id,omitempty"`
	CitizenData map[string]any `json:"citizen_data"`

	// TrackingPIN ties the procedure to its trámite in the tracking
	// registry. Empty until registration succeeds.
	TrackingPIN string `json:"tracking_pin,omitempty"`

	Documents  map[string]domain.Document `json:"documents"`
	Biometrics domain.Biometrics          `json:"biometric_data"`

	ValidationResult *agent.ValidationData `json:"validation_result,omitempty"`
	LegalResult      *agent.LegalData      `json:"legal_result,omitempty"`
	Appointment      *domain.Appointment   `json:"appointment,omitempty"`

	Error string `json:"error,omitempty"`

	// Messages accumulates everything said to the citizen, in order.
	Messages []string `json:"messages"`
}

// NewProcedureState creates the initial state for a procedure.
func NewProcedureState(procedureID, procedureType string) *ProcedureState {
	return &ProcedureState{
		ProcedureID:   procedureID,
		ProcedureType: procedureType,
		CreatedAt:     time.Now(),
		CurrentStep:   StepStart,
		StepHistory:   []string{},
		CitizenData:   make(map[string]any),
		Documents:     make(map[string]domain.Document),
		Messages:      []string{},
	}
}

// Say appends a message addressed to the citizen.
func (s *ProcedureState) Say(msg string) {
	s.Messages = append(s.Messages, msg)
}

// LastMessage returns the most recent citizen message, or "".
func (s *ProcedureState) LastMessage() string {
	if len(s.Messages) == 0 {
		return ""
	}
	return s.Messages[len(s.Messages)-1]
}

// Clone returns a deep copy of the state. Stores hand out clones so callers
// cannot mutate persisted state behind the workflow's back.
func (s *ProcedureState) Clone() *ProcedureState {
	out := *s
	out.StepHistory = append([]string(nil), s.StepHistory...)
	out.Messages = append([]string(nil), s.Messages...)
	out.CitizenData = make(map[string]any, len(s.CitizenData))
	for k, v := range s.CitizenData {
		out.CitizenData[k] = v
	}
	out.Documents = make(map[string]domain.Document, len(s.Documents))
	for k, v := range s.Documents {
		out.Documents[k] = v
	}
	if s.ValidationResult != nil {
		v := *s.ValidationResult
		out.ValidationResult = &v
	}
	if s.LegalResult != nil {
		v := *s.LegalResult
		out.LegalResult = &v
	}
	if s.Appointment != nil {
		v := *s.Appointment
		out.Appointment = &v
	}
	return &out
}

func (s *ProcedureState) fail(reason string) {
	s.Error = reason
	s.CurrentStep = StepError
}
