// Package workflow drives a citizen procedure through its lifecycle:
// start, biometric validation, document analysis, legal review, scheduling,
// and the terminal complete/error steps. Each step handler either advances
// the state, leaves it in place while asking the citizen for more input, or
// fails the procedure.
package workflow

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"identia/internal/agent"
	"identia/internal/audit"
	"identia/internal/domain"
	"identia/internal/workflow/metrics"
)

const msgProcessingError = "Lo sentimos, ocurrió un error procesando su solicitud. Por favor intente nuevamente."

// Booker confirms an appointment on an external calendar, attaching the
// event reference to the appointment. Implementations must not fail the
// procedure: unreachable calendars degrade to a simulated confirmation.
type Booker interface {
	Book(ctx context.Context, appt *domain.Appointment, citizen map[string]any) error
}

// AuditSink receives workflow audit events.
type AuditSink interface {
	Emit(ctx context.Context, event audit.Event)
}

// Workflow is the procedure state machine. It owns no storage: callers load
// a ProcedureState, run one or more steps, and persist the result.
type Workflow struct {
	validator agent.Agent
	legal     agent.Agent
	gestor    agent.Agent

	booker  Booker
	sink    AuditSink
	logger  *slog.Logger
	metrics *metrics.Metrics
	tracer  trace.Tracer

	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

// Option configures a Workflow.
type Option func(*Workflow)

// WithLogger sets the workflow logger.
func WithLogger(logger *slog.Logger) Option {
	return func(w *Workflow) { w.logger = logger }
}

// WithBooker sets the external calendar booker used after scheduling.
func WithBooker(booker Booker) Option {
	return func(w *Workflow) { w.booker = booker }
}

// WithAuditSink sets the sink receiving step-transition events.
func WithAuditSink(sink AuditSink) Option {
	return func(w *Workflow) { w.sink = sink }
}

// WithMetrics sets the workflow metrics.
func WithMetrics(m *metrics.Metrics) Option {
	return func(w *Workflow) { w.metrics = m }
}

// New creates a Workflow over the three procedure agents.
func New(validator, legal, gestor agent.Agent, opts ...Option) *Workflow {
	w := &Workflow{
		validator: validator,
		legal:     legal,
		gestor:    gestor,
		logger:    slog.Default(),
		tracer:    otel.Tracer("identia/workflow"),
		locks:     make(map[string]*sync.Mutex),
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Run advances the procedure until it reaches a terminal step or stalls
// waiting for citizen input. Steps for the same procedure are serialized, so
// concurrent submissions cannot interleave handler executions.
func (w *Workflow) Run(ctx context.Context, state *ProcedureState) *ProcedureState {
	lock := w.lockFor(state.ProcedureID)
	lock.Lock()
	defer lock.Unlock()

	ctx, span := w.tracer.Start(ctx, "workflow.Run",
		trace.WithAttributes(
			attribute.String("procedure.id", state.ProcedureID),
			attribute.String("procedure.type", state.ProcedureType),
		))
	defer span.End()

	for !state.CurrentStep.Terminal() {
		prev := state.CurrentStep
		w.execute(ctx, state)
		state.StepHistory = append(state.StepHistory, string(state.CurrentStep))
		if state.CurrentStep == prev {
			// Waiting on the citizen; nothing more to do until new input
			// arrives.
			break
		}
		w.recordTransition(ctx, state, prev)
	}

	span.SetAttributes(attribute.String("procedure.final_step", string(state.CurrentStep)))
	return state
}

// Step executes exactly one handler invocation for the current step.
func (w *Workflow) Step(ctx context.Context, state *ProcedureState) *ProcedureState {
	lock := w.lockFor(state.ProcedureID)
	lock.Lock()
	defer lock.Unlock()

	return w.stepLocked(ctx, state)
}

// Advance loads the procedure from store, applies the citizen's new input,
// executes one step, and saves the result. The whole sequence holds the
// procedure lock: a concurrent request can neither step a stale copy nor
// overwrite this invocation's transition with its own save.
func (w *Workflow) Advance(ctx context.Context, store Store, procedureID string, apply func(*ProcedureState)) (*ProcedureState, error) {
	lock := w.lockFor(procedureID)
	lock.Lock()
	defer lock.Unlock()

	state, err := store.Find(ctx, procedureID)
	if err != nil {
		return nil, err
	}
	if apply != nil {
		apply(state)
	}
	state = w.stepLocked(ctx, state)
	if err := store.Save(ctx, state); err != nil {
		return nil, err
	}
	return state, nil
}

func (w *Workflow) stepLocked(ctx context.Context, state *ProcedureState) *ProcedureState {
	ctx, span := w.tracer.Start(ctx, "workflow.Step",
		trace.WithAttributes(
			attribute.String("procedure.id", state.ProcedureID),
			attribute.String("procedure.step", string(state.CurrentStep)),
		))
	defer span.End()

	if state.CurrentStep.Terminal() {
		return state
	}

	prev := state.CurrentStep
	w.execute(ctx, state)
	state.StepHistory = append(state.StepHistory, string(state.CurrentStep))
	if state.CurrentStep != prev {
		w.recordTransition(ctx, state, prev)
	}
	return state
}

// execute runs the handler for the current step. It is the sole recovery
// boundary: a handler error or panic moves the procedure to the error step
// with a generic apology, never a raw internal message.
func (w *Workflow) execute(ctx context.Context, state *ProcedureState) {
	start := time.Now()
	step := state.CurrentStep
	defer func() {
		if w.metrics != nil {
			w.metrics.IncrementStep(string(step))
			w.metrics.ObserveStep(start)
		}
	}()

	err := func() (err error) {
		defer func() {
			if r := recover(); r != nil {
				err = fmt.Errorf("step %s panicked: %v", state.CurrentStep, r)
			}
		}()
		switch state.CurrentStep {
		case StepStart:
			return w.handleStart(ctx, state)
		case StepBiometricValidation:
			return w.handleBiometric(ctx, state)
		case StepDocumentAnalysis:
			return w.handleDocuments(ctx, state)
		case StepLegalReview:
			return w.handleLegal(ctx, state)
		case StepScheduling:
			return w.handleScheduling(ctx, state)
		default:
			state.fail(fmt.Sprintf("no handler for step: %s", state.CurrentStep))
			return nil
		}
	}()
	if err != nil {
		w.logger.Error("workflow step failed",
			"procedure_id", state.ProcedureID,
			"step", string(state.CurrentStep),
			"error", err)
		state.fail(err.Error())
		state.Say(msgProcessingError)
	}
}

func (w *Workflow) handleStart(_ context.Context, state *ProcedureState) error {
	if state.ProcedureType == "" {
		state.Say("¡Bienvenido a IDENTIA! 👋\n¿En qué trámite puedo ayudarle hoy?")
		return nil
	}

	state.Say(fmt.Sprintf(
		"Perfecto, vamos a iniciar su trámite de %s.\nPrimero necesito verificar su identidad.",
		strings.ReplaceAll(state.ProcedureType, "_", " ")))
	state.CurrentStep = StepBiometricValidation
	return nil
}

func (w *Workflow) handleBiometric(ctx context.Context, state *ProcedureState) error {
	if state.Biometrics.Empty() {
		state.Say("📸 Por favor, mire a la cámara para verificar su identidad.\nEsto solo tomará unos segundos.")
		return nil
	}

	result, err := w.validator.Process(ctx, agent.Input{
		Documents:  state.Documents,
		Biometrics: state.Biometrics,
		FormData:   state.CitizenData,
	})
	if err != nil {
		return fmt.Errorf("validator: %w", err)
	}
	if data, ok := result.Data.(agent.ValidationData); ok {
		state.ValidationResult = &data
	}

	switch result.Status {
	case agent.StatusCompleted:
		state.Say("✅ ¡Identidad verificada correctamente!\nAhora revisaremos sus documentos.")
		state.CurrentStep = StepDocumentAnalysis
	case agent.StatusNeedsInfo:
		state.Say("⚠️ " + result.Message + "\nPor favor, intente nuevamente.")
	default:
		state.fail(result.Message)
	}
	return nil
}

func (w *Workflow) handleDocuments(ctx context.Context, state *ProcedureState) error {
	if len(state.Documents) == 0 {
		state.Say("📄 Ahora necesito que tome una foto de su cédula.\nColóquela dentro del marco en la pantalla.")
		return nil
	}

	result, err := w.validator.Process(ctx, agent.Input{
		Documents:  state.Documents,
		Biometrics: state.Biometrics,
		FormData:   state.CitizenData,
	})
	if err != nil {
		return fmt.Errorf("validator: %w", err)
	}

	if result.Status == agent.StatusCompleted {
		state.Say("✅ Documentos verificados correctamente.\nRevisando requisitos legales...")
		state.CurrentStep = StepLegalReview
		return nil
	}

	var missing []string
	if data, ok := result.Data.(agent.ValidationData); ok {
		missing = data.DocumentCheck.Missing
	}
	if len(missing) > 0 {
		var b strings.Builder
		b.WriteString("📋 Necesito los siguientes documentos adicionales:\n")
		for i, doc := range missing {
			if i > 0 {
				b.WriteString("\n")
			}
			b.WriteString("  • " + doc)
		}
		state.Say(b.String())
	} else {
		state.Say("⚠️ " + result.Message)
	}
	return nil
}

func (w *Workflow) handleLegal(ctx context.Context, state *ProcedureState) error {
	result, err := w.legal.Process(ctx, agent.Input{
		ProcedureType: state.ProcedureType,
		CitizenData:   state.CitizenData,
		Documents:     state.Documents,
	})
	if err != nil {
		return fmt.Errorf("legal: %w", err)
	}
	if data, ok := result.Data.(agent.LegalData); ok {
		state.LegalResult = &data
	}

	switch result.Status {
	case agent.StatusCompleted:
		summary := ""
		if state.LegalResult != nil {
			summary = state.LegalResult.Summary
		}
		state.Say("✅ Análisis legal completado.\n\n" + summary + "\n\n¿Desea programar una cita?")
		state.CurrentStep = StepScheduling
	case agent.StatusNeedsInfo:
		state.Say("⚠️ " + result.Message)
	default:
		state.fail(result.Message)
	}
	return nil
}

func (w *Workflow) handleScheduling(ctx context.Context, state *ProcedureState) error {
	// Re-running after completion of scheduling must not double-book.
	if state.Appointment != nil {
		state.Say("🎉 ¡Excelente! Su trámite ha sido procesado.")
		state.CurrentStep = StepComplete
		return nil
	}

	preferences, _ := state.CitizenData["preferences"].(map[string]any)
	result, err := w.gestor.Process(ctx, agent.Input{
		Action:        "schedule",
		ProcedureType: state.ProcedureType,
		Preferences:   preferences,
	})
	if err != nil {
		return fmt.Errorf("gestor: %w", err)
	}

	switch result.Status {
	case agent.StatusCompleted:
		data, ok := result.Data.(agent.SchedulingData)
		if !ok {
			return fmt.Errorf("gestor returned unexpected payload %T", result.Data)
		}
		appt := data.Appointment
		if w.booker != nil {
			if bookErr := w.booker.Book(ctx, &appt, state.CitizenData); bookErr != nil {
				w.logger.Warn("calendar booking failed, keeping local confirmation",
					"procedure_id", state.ProcedureID, "error", bookErr)
			}
		}
		state.Appointment = &appt
		state.Say("🎉 ¡Excelente! Su trámite ha sido procesado.\n\n" + data.Instructions)
		state.CurrentStep = StepComplete
	case agent.StatusNeedsInfo:
		state.Say("⚠️ " + result.Message)
	default:
		// A procedure type no office serves cannot recover here.
		state.fail(result.Message)
	}
	return nil
}

func (w *Workflow) lockFor(procedureID string) *sync.Mutex {
	w.mu.Lock()
	defer w.mu.Unlock()
	lock, ok := w.locks[procedureID]
	if !ok {
		lock = &sync.Mutex{}
		w.locks[procedureID] = lock
	}
	return lock
}

func (w *Workflow) recordTransition(ctx context.Context, state *ProcedureState, from Step) {
	if state.CurrentStep == StepComplete && w.metrics != nil {
		w.metrics.IncrementCompleted()
	}
	if state.CurrentStep == StepError && w.metrics != nil {
		w.metrics.IncrementErrored()
	}
	if w.sink == nil {
		return
	}
	eventType := audit.EventStepTransition
	note := ""
	if state.CurrentStep == StepError {
		eventType = audit.EventProcedureError
		note = state.Error
	}
	w.sink.Emit(ctx, audit.Event{
		ProcedureID: state.ProcedureID,
		Type:        eventType,
		FromStep:    string(from),
		ToStep:      string(state.CurrentStep),
		Note:        note,
	})
}
