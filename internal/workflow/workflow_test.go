package workflow

import (
	"context"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"identia/internal/agent"
	"identia/internal/audit"
	"identia/internal/directory"
	"identia/internal/domain"
	"identia/internal/regulations"
)

func newTestWorkflow(opts ...Option) *Workflow {
	return New(
		agent.NewValidator(),
		agent.NewLegal(regulations.Default()),
		agent.NewGestor(directory.Default()),
		opts...,
	)
}

func completeCitizenData() map[string]any {
	return map[string]any{
		"nombre":       "Ana Gómez",
		"cedula":       "001-1234567-8",
		"direccion":    "Calle Duarte 12, Santo Domingo",
		"telefono":     "809-555-1234",
		"tipo_tramite": "cedula_renovation",
		"age":          34,
		"is_resident":  true,
	}
}

// completeDocuments covers both gates for a cédula renewal: the validator's
// generic list and the regulation's own requirements.
func completeDocuments() map[string]domain.Document {
	return map[string]domain.Document{
		"cedula":           {Type: "cedula", Verified: true},
		"proof_of_address": {Type: "proof_of_address", Verified: true},
		"photo":            {Type: "photo", Verified: true},
		"cedula_anterior":  {Type: "cedula_anterior", Verified: true},
		"foto_reciente":    {Type: "foto_reciente", Verified: true},
		"comprobante_pago": {Type: "comprobante_pago", Verified: true},
	}
}

func passingBiometrics() domain.Biometrics {
	return domain.Biometrics{FaceMatchScore: 0.93, LivenessCheck: true}
}

func TestRunWelcomesWithoutProcedureType(t *testing.T) {
	w := newTestWorkflow()
	state := NewProcedureState("proc-1", "")

	state = w.Run(context.Background(), state)

	assert.Equal(t, StepStart, state.CurrentStep)
	assert.Contains(t, state.LastMessage(), "Bienvenido a IDENTIA")
}

func TestRunStallsAwaitingBiometrics(t *testing.T) {
	w := newTestWorkflow()
	state := NewProcedureState("proc-2", "cedula_renovation")

	state = w.Run(context.Background(), state)

	assert.Equal(t, StepBiometricValidation, state.CurrentStep)
	assert.Contains(t, state.LastMessage(), "mire a la cámara")
	// The start transition plus the stalled biometric step.
	assert.Equal(t, []string{"biometric_validation", "biometric_validation"}, state.StepHistory)
}

func TestRunToCompletion(t *testing.T) {
	w := newTestWorkflow()
	state := NewProcedureState("proc-3", "cedula_renovation")
	state.CitizenData = completeCitizenData()
	state.Documents = completeDocuments()
	state.Biometrics = passingBiometrics()

	state = w.Run(context.Background(), state)

	require.Equal(t, StepComplete, state.CurrentStep)
	assert.Empty(t, state.Error)
	require.NotNil(t, state.Appointment)
	assert.NotEmpty(t, state.Appointment.ConfirmationCode)
	assert.NotEmpty(t, state.Appointment.Office)
	require.NotNil(t, state.ValidationResult)
	assert.True(t, state.ValidationResult.DocumentCheck.Passed)
	require.NotNil(t, state.LegalResult)
	assert.True(t, state.LegalResult.Eligibility.Eligible)
	assert.Contains(t, state.LastMessage(), "🎉")
}

func TestRunUnknownProcedureTypeEndsInError(t *testing.T) {
	w := newTestWorkflow()
	state := NewProcedureState("proc-4", "visa_trabajo")
	state.CitizenData = completeCitizenData()
	state.Documents = completeDocuments()
	state.Biometrics = passingBiometrics()

	state = w.Run(context.Background(), state)

	assert.Equal(t, StepError, state.CurrentStep)
	assert.Contains(t, state.Error, "visa_trabajo")
}

func TestStepPromptsForDocuments(t *testing.T) {
	w := newTestWorkflow()
	state := NewProcedureState("proc-5", "cedula_renovation")
	state.CurrentStep = StepDocumentAnalysis

	state = w.Step(context.Background(), state)

	assert.Equal(t, StepDocumentAnalysis, state.CurrentStep)
	assert.Contains(t, state.LastMessage(), "foto de su cédula")
}

func TestStepListsMissingDocuments(t *testing.T) {
	w := newTestWorkflow()
	state := NewProcedureState("proc-6", "cedula_renovation")
	state.CurrentStep = StepDocumentAnalysis
	state.CitizenData = completeCitizenData()
	state.Biometrics = passingBiometrics()
	state.Documents = map[string]domain.Document{
		"cedula": {Type: "cedula", Verified: true},
	}

	state = w.Step(context.Background(), state)

	assert.Equal(t, StepDocumentAnalysis, state.CurrentStep)
	msg := state.LastMessage()
	assert.Contains(t, msg, "documentos adicionales")
	assert.Contains(t, msg, "• proof_of_address")
	assert.Contains(t, msg, "• photo")
}

func TestStepSchedulingIsIdempotent(t *testing.T) {
	w := newTestWorkflow()
	state := NewProcedureState("proc-7", "cedula_renovation")
	state.CurrentStep = StepScheduling
	state.Appointment = &domain.Appointment{ConfirmationCode: "IDENTIA-0042"}

	state = w.Step(context.Background(), state)

	assert.Equal(t, StepComplete, state.CurrentStep)
	assert.Equal(t, "IDENTIA-0042", state.Appointment.ConfirmationCode)
}

type panicAgent struct{}

func (panicAgent) Process(context.Context, agent.Input) (agent.Result, error) {
	panic("validator exploded")
}

func TestRunRecoversFromHandlerPanic(t *testing.T) {
	w := New(panicAgent{}, panicAgent{}, panicAgent{})
	state := NewProcedureState("proc-8", "cedula_renovation")
	state.Biometrics = passingBiometrics()

	state = w.Run(context.Background(), state)

	assert.Equal(t, StepError, state.CurrentStep)
	assert.Contains(t, state.Error, "panicked")
	assert.Equal(t, "Lo sentimos, ocurrió un error procesando su solicitud. Por favor intente nuevamente.", state.LastMessage())
}

type fakeBooker struct {
	calls int
}

func (b *fakeBooker) Book(_ context.Context, appt *domain.Appointment, _ map[string]any) error {
	b.calls++
	appt.EventID = "IDENTIA-TEST01"
	appt.Mode = "simulated"
	return nil
}

func TestRunAttachesCalendarEvent(t *testing.T) {
	booker := &fakeBooker{}
	w := newTestWorkflow(WithBooker(booker))
	state := NewProcedureState("proc-9", "cedula_renovation")
	state.CitizenData = completeCitizenData()
	state.Documents = completeDocuments()
	state.Biometrics = passingBiometrics()

	state = w.Run(context.Background(), state)

	require.Equal(t, StepComplete, state.CurrentStep)
	assert.Equal(t, 1, booker.calls)
	assert.Equal(t, "IDENTIA-TEST01", state.Appointment.EventID)
}

type captureSink struct {
	mu     sync.Mutex
	events []audit.Event
}

func (s *captureSink) Emit(_ context.Context, event audit.Event) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, event)
}

func TestRunEmitsStepTransitions(t *testing.T) {
	sink := &captureSink{}
	w := newTestWorkflow(WithAuditSink(sink))
	state := NewProcedureState("proc-10", "cedula_renovation")
	state.CitizenData = completeCitizenData()
	state.Documents = completeDocuments()
	state.Biometrics = passingBiometrics()

	w.Run(context.Background(), state)

	require.Len(t, sink.events, 5)
	var steps []string
	for _, event := range sink.events {
		assert.Equal(t, audit.EventStepTransition, event.Type)
		steps = append(steps, event.ToStep)
	}
	assert.Equal(t, []string{
		"biometric_validation", "document_analysis", "legal_review", "scheduling", "complete",
	}, steps)
}

func TestRunSerializesSameProcedure(t *testing.T) {
	w := newTestWorkflow()
	state := NewProcedureState("proc-11", "")

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			w.Run(context.Background(), state)
		}()
	}
	wg.Wait()

	// Each run appends exactly one welcome prompt; serialization keeps the
	// slice consistent.
	assert.Len(t, state.Messages, 10)
	assert.Equal(t, StepStart, state.CurrentStep)
}

func TestAdvanceAppliesInputBeforeStep(t *testing.T) {
	w := newTestWorkflow()
	store := NewInMemoryStore()
	ctx := context.Background()

	state := NewProcedureState("proc-14", "cedula_renovation")
	state.CurrentStep = StepBiometricValidation
	state.CitizenData = completeCitizenData()
	state.Documents = completeDocuments()
	require.NoError(t, store.Save(ctx, state))

	advanced, err := w.Advance(ctx, store, "proc-14", func(state *ProcedureState) {
		state.Biometrics = passingBiometrics()
	})
	require.NoError(t, err)
	assert.Equal(t, StepDocumentAnalysis, advanced.CurrentStep)

	stored, err := store.Find(ctx, "proc-14")
	require.NoError(t, err)
	assert.Equal(t, StepDocumentAnalysis, stored.CurrentStep)
	assert.True(t, stored.Biometrics.LivenessCheck)
}

func TestAdvanceUnknownProcedure(t *testing.T) {
	w := newTestWorkflow()

	_, err := w.Advance(context.Background(), NewInMemoryStore(), "missing", nil)
	assert.Error(t, err)
}

func TestAdvanceSerializesLoadStepSave(t *testing.T) {
	booker := &fakeBooker{}
	w := newTestWorkflow(WithBooker(booker))
	store := NewInMemoryStore()
	ctx := context.Background()

	state := NewProcedureState("proc-15", "cedula_renovation")
	state.CurrentStep = StepScheduling
	state.CitizenData = completeCitizenData()
	state.Documents = completeDocuments()
	state.Biometrics = passingBiometrics()
	require.NoError(t, store.Save(ctx, state))

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := w.Advance(ctx, store, "proc-15", nil)
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	final, err := store.Find(ctx, "proc-15")
	require.NoError(t, err)
	assert.Equal(t, StepComplete, final.CurrentStep)
	require.NotNil(t, final.Appointment)
	// Every load-step-save runs alone, so the first request books and the
	// rest see the completed state instead of a stale clone.
	assert.Equal(t, 1, booker.calls)
}

func TestInMemoryStoreClonesState(t *testing.T) {
	store := NewInMemoryStore()
	ctx := context.Background()
	state := NewProcedureState("proc-12", "cedula_renovation")
	state.Say("hola")
	require.NoError(t, store.Save(ctx, state))

	state.Say("mutated after save")

	loaded, err := store.Find(ctx, "proc-12")
	require.NoError(t, err)
	assert.Equal(t, []string{"hola"}, loaded.Messages)

	require.NoError(t, store.Delete(ctx, "proc-12"))
	_, err = store.Find(ctx, "proc-12")
	assert.Error(t, err)
}

func TestProcedureStateCloneIsDeep(t *testing.T) {
	state := NewProcedureState("proc-13", "cedula_renovation")
	state.Documents["cedula"] = domain.Document{Type: "cedula", Verified: true}
	state.CitizenData["nombre"] = "Ana"

	clone := state.Clone()
	clone.Documents["photo"] = domain.Document{Type: "photo"}
	clone.CitizenData["nombre"] = "Luis"
	clone.Say("only on clone")

	assert.NotContains(t, state.Documents, "photo")
	assert.Equal(t, "Ana", state.CitizenData["nombre"])
	assert.Empty(t, state.Messages)
	if !strings.Contains(clone.LastMessage(), "only on clone") {
		t.Fatalf("clone message lost")
	}
}
