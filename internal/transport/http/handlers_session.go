package httptransport

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"identia/internal/platform/middleware"
	"identia/pkg/platform/httputil"
)

func (h *Handler) handleSessionStart(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	sess, token, err := h.sessions.Start(ctx)
	if err != nil {
		h.logger.ErrorContext(ctx, "start session failed",
			"request_id", middleware.GetRequestID(ctx), "error", err)
		httputil.WriteError(w, err)
		return
	}
	if h.metrics != nil {
		h.metrics.IncrementSessionsOpened()
	}

	httputil.WriteJSON(w, http.StatusOK, map[string]any{
		"session_id": sess.ID,
		"token":      token,
		"message":    "¡Bienvenido a IDENTIA! ¿En qué puedo ayudarle hoy?",
		"available_procedures": []map[string]string{
			{"id": "cedula_renovation", "name": "Renovación de Cédula"},
			{"id": "acta_nacimiento", "name": "Acta de Nacimiento"},
			{"id": "licencia_conducir", "name": "Licencia de Conducir"},
		},
	})
}

func (h *Handler) handleSessionGet(w http.ResponseWriter, r *http.Request) {
	sess, err := h.sessions.Get(r.Context(), chi.URLParam(r, "sessionID"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, sess)
}
