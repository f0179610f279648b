package httptransport

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"identia/internal/tracking"
	dErrors "identia/pkg/domain-errors"
	"identia/pkg/platform/httputil"
)

func (h *Handler) handleTrackingLookup(w http.ResponseWriter, r *http.Request) {
	report, err := h.tracking.ConsultarEstado(r.Context(), chi.URLParam(r, "pin"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	status := http.StatusOK
	if !report.Found {
		status = http.StatusNotFound
	}
	httputil.WriteJSON(w, status, report)
}

func (h *Handler) handleTrackingActive(w http.ResponseWriter, r *http.Request) {
	active, err := h.tracking.ListarActivos(r.Context())
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]any{
		"tramites": active,
		"total":    len(active),
	})
}

func (h *Handler) handleTrackingUpdate(w http.ResponseWriter, r *http.Request) {
	pin := chi.URLParam(r, "pin")

	req, ok := httputil.Decode[EstadoUpdateRequest](w, r)
	if !ok {
		return
	}

	err := h.tracking.ActualizarEstado(r.Context(), pin, tracking.Estado(req.Estado), req.Nota, req.Cita)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) handleCalendarSlots(w http.ResponseWriter, r *http.Request) {
	fecha := r.URL.Query().Get("fecha")
	if fecha == "" {
		httputil.WriteError(w, dErrors.New(dErrors.CodeInvalidInput, "parámetro fecha requerido (YYYY-MM-DD)"))
		return
	}
	result := h.calendar.AvailableSlots(fecha, r.URL.Query().Get("ciudad"))
	httputil.WriteJSON(w, http.StatusOK, result)
}
