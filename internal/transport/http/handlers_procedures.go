package httptransport

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"identia/internal/platform/middleware"
	"identia/internal/tracking"
	"identia/internal/workflow"
	dErrors "identia/pkg/domain-errors"
	"identia/pkg/platform/httputil"
	"identia/pkg/platform/sentinel"
)

// stepActions maps each workflow step to the action the frontend should
// take next.
var stepActions = map[workflow.Step]string{
	workflow.StepStart:               "select_procedure",
	workflow.StepBiometricValidation: "capture_face",
	workflow.StepDocumentAnalysis:    "upload_document",
	workflow.StepLegalReview:         "review_requirements",
	workflow.StepScheduling:          "confirm_appointment",
	workflow.StepError:               "retry",
}

// estadoForStep maps a workflow step to the trámite estado that entering it
// implies. Steps with no mapping leave the estado unchanged.
func estadoForStep(step workflow.Step) (tracking.Estado, bool) {
	switch step {
	case workflow.StepDocumentAnalysis:
		return tracking.EstadoIdentidadVerificada, true
	case workflow.StepLegalReview:
		return tracking.EstadoDocumentosRevisados, true
	case workflow.StepScheduling:
		return tracking.EstadoEnRevisionLegal, true
	case workflow.StepComplete:
		return tracking.EstadoCitaAgendada, true
	case workflow.StepError:
		return tracking.EstadoRechazado, true
	}
	return "", false
}

func (h *Handler) handleProcedureStart(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := middleware.GetRequestID(ctx)

	req, ok := httputil.Decode[ProcedureRequest](w, r)
	if !ok {
		return
	}

	sess, err := h.sessions.EnsureSession(ctx, req.SessionID)
	if err != nil {
		h.logger.ErrorContext(ctx, "ensure session failed",
			"request_id", requestID, "error", err)
		httputil.WriteError(w, err)
		return
	}

	state := workflow.NewProcedureState(uuid.NewString(), req.ProcedureType)
	if req.CitizenData != nil {
		state.CitizenData = req.CitizenData
	}

	state = h.workflow.Run(ctx, state)

	// Register the trámite so the citizen can track it by PIN. A failure
	// here must not lose the procedure itself.
	if req.ProcedureType != "" {
		receipt, err := h.tracking.CrearTramite(ctx, req.ProcedureType, req.CitizenData, sess.ID)
		if err != nil {
			h.logger.ErrorContext(ctx, "register tramite failed",
				"request_id", requestID, "procedure_id", state.ProcedureID, "error", err)
		} else {
			state.TrackingPIN = receipt.PIN
			state.Say(receipt.Mensaje)
			h.syncTramite(r, state)
		}
	}

	if err := h.procedures.Save(ctx, state); err != nil {
		h.logger.ErrorContext(ctx, "save procedure failed",
			"request_id", requestID, "procedure_id", state.ProcedureID, "error", err)
		httputil.WriteError(w, err)
		return
	}

	token, err := h.sessions.BindProcedure(ctx, sess.ID, state.ProcedureID)
	if err != nil {
		h.logger.ErrorContext(ctx, "bind procedure to session failed",
			"request_id", requestID, "error", err)
		httputil.WriteError(w, err)
		return
	}

	message := state.LastMessage()
	if message == "" {
		message = "Procesando su solicitud..."
	}
	httputil.WriteJSON(w, http.StatusOK, AssistantResponse{
		Message:     message,
		SessionID:   sess.ID,
		ProcedureID: state.ProcedureID,
		CurrentStep: string(state.CurrentStep),
		NextAction:  stepActions[state.CurrentStep],
		Data: map[string]any{
			"state": state,
			"token": token,
		},
	})
}

func (h *Handler) handleProcedureGet(w http.ResponseWriter, r *http.Request) {
	procedureID := chi.URLParam(r, "procedureID")

	state, ok := h.loadOwnedProcedure(w, r, procedureID)
	if !ok {
		return
	}

	httputil.WriteJSON(w, http.StatusOK, map[string]any{
		"procedure_id": procedureID,
		"status":       string(state.CurrentStep),
		"messages":     state.Messages,
		"data":         state,
	})
}

func (h *Handler) handleProcedureStep(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	procedureID := chi.URLParam(r, "procedureID")

	// The ownership check reads its own copy; the mutating sequence below
	// runs under the procedure lock inside Advance.
	if _, ok := h.loadOwnedProcedure(w, r, procedureID); !ok {
		return
	}

	req, ok := httputil.Decode[StepRequest](w, r)
	if !ok {
		return
	}

	var previous workflow.Step
	state, err := h.workflow.Advance(ctx, h.procedures, procedureID, func(state *workflow.ProcedureState) {
		previous = state.CurrentStep
		if req.Biometrics != nil {
			state.Biometrics = *req.Biometrics
		}
		for docType, doc := range req.Documents {
			state.Documents[docType] = doc
		}
		for key, value := range req.CitizenData {
			state.CitizenData[key] = value
		}
	})
	if err != nil {
		h.logger.ErrorContext(ctx, "advance procedure failed",
			"request_id", middleware.GetRequestID(ctx), "procedure_id", procedureID, "error", err)
		httputil.WriteError(w, err)
		return
	}
	if state.CurrentStep != previous {
		h.syncTramite(r, state)
	}

	message := state.LastMessage()
	if message == "" {
		message = "Procesando..."
	}
	httputil.WriteJSON(w, http.StatusOK, AssistantResponse{
		Message:     message,
		SessionID:   middleware.GetSessionID(ctx),
		ProcedureID: procedureID,
		CurrentStep: string(state.CurrentStep),
		NextAction:  stepActions[state.CurrentStep],
		Data:        map[string]any{"state": state},
	})
}

func (h *Handler) handleProcedureAudit(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	procedureID := chi.URLParam(r, "procedureID")

	if _, ok := h.loadOwnedProcedure(w, r, procedureID); !ok {
		return
	}

	events, err := h.audit.List(ctx, procedureID)
	if err != nil {
		httputil.WriteError(w, dErrors.Wrap(err, dErrors.CodeInternal, "list audit events"))
		return
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]any{
		"procedure_id": procedureID,
		"events":       events,
	})
}

// loadOwnedProcedure fetches the procedure and enforces that the session
// token was issued for it.
func (h *Handler) loadOwnedProcedure(w http.ResponseWriter, r *http.Request, procedureID string) (*workflow.ProcedureState, bool) {
	ctx := r.Context()

	state, err := h.procedures.Find(ctx, procedureID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			httputil.WriteError(w, dErrors.New(dErrors.CodeNotFound, "Trámite no encontrado"))
			return nil, false
		}
		httputil.WriteError(w, dErrors.Wrap(err, dErrors.CodeInternal, "load procedure"))
		return nil, false
	}

	if bound := middleware.GetProcedureID(ctx); bound != "" && bound != procedureID {
		h.logger.WarnContext(ctx, "session token bound to different procedure",
			"request_id", middleware.GetRequestID(ctx),
			"bound_procedure", bound, "requested_procedure", procedureID)
		httputil.WriteError(w, dErrors.New(dErrors.CodeForbidden, "token not valid for this procedure"))
		return nil, false
	}
	return state, true
}

// syncTramite mirrors the workflow step into the tracking registry. Tracking
// is advisory: failures are logged, never surfaced to the citizen.
func (h *Handler) syncTramite(r *http.Request, state *workflow.ProcedureState) {
	if state.TrackingPIN == "" {
		return
	}
	estado, ok := estadoForStep(state.CurrentStep)
	if !ok {
		return
	}
	ctx := r.Context()

	nota := ""
	if state.CurrentStep == workflow.StepError && state.Error != "" {
		nota = state.Error
	}
	err := h.tracking.ActualizarEstado(ctx, state.TrackingPIN, estado, nota, state.Appointment)
	if err != nil {
		h.logger.WarnContext(ctx, "sync tramite estado failed",
			"request_id", middleware.GetRequestID(ctx),
			"pin", state.TrackingPIN, "estado", string(estado), "error", err)
	}
}
