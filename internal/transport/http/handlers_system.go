package httptransport

import (
	"net/http"
	"time"

	"identia/pkg/platform/httputil"
)

func (h *Handler) handleRoot(w http.ResponseWriter, _ *http.Request) {
	httputil.WriteJSON(w, http.StatusOK, map[string]any{
		"name":        "IDENTIA API",
		"version":     "1.0.0",
		"status":      "operational",
		"description": "Ecosistema de Identidad y Asistencia Ciudadana",
		"endpoints": map[string]string{
			"health":     "/health",
			"metrics":    "/metrics",
			"procedures": "/api/procedures",
			"assistant":  "/api/assistant",
			"tracking":   "/api/tracking",
		},
	})
}

func (h *Handler) handleHealth(w http.ResponseWriter, _ *http.Request) {
	httputil.WriteJSON(w, http.StatusOK, map[string]any{
		"status":    "healthy",
		"timestamp": time.Now().Format(time.RFC3339),
		"services": map[string]any{
			"anonymizer": "active",
			"workflow":   "active",
			"tracking":   "active",
			"agents": map[string]string{
				"validator": "ready",
				"legal":     "ready",
				"gestor":    "ready",
			},
		},
	})
}
