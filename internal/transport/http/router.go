// Package httptransport is the thin HTTP layer over the assistant services.
// Handlers delegate to domain services and keep transport concerns isolated.
package httptransport

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"identia/internal/anonymizer"
	"identia/internal/audit"
	"identia/internal/calendar"
	"identia/internal/intent"
	"identia/internal/platform/metrics"
	"identia/internal/platform/middleware"
	"identia/internal/platform/ratelimit"
	"identia/internal/session"
	"identia/internal/tracking"
	"identia/internal/workflow"
)

// Handler owns the HTTP endpoints of the assistant.
type Handler struct {
	logger     *slog.Logger
	metrics    *metrics.Metrics
	sessions   *session.Service
	validator  middleware.TokenValidator
	workflow   *workflow.Workflow
	procedures workflow.Store
	tracking   *tracking.Service
	anonymizer *anonymizer.Anonymizer
	responder  *intent.Responder
	calendar   *calendar.Service
	audit      *audit.Recorder
	limiter    *ratelimit.Limiter
}

// Config collects the services the handler delegates to.
type Config struct {
	Logger     *slog.Logger
	Metrics    *metrics.Metrics
	Sessions   *session.Service
	Validator  middleware.TokenValidator
	Workflow   *workflow.Workflow
	Procedures workflow.Store
	Tracking   *tracking.Service
	Anonymizer *anonymizer.Anonymizer
	Responder  *intent.Responder
	Calendar   *calendar.Service
	Audit      *audit.Recorder

	// Limiter is optional; nil disables API rate limiting.
	Limiter *ratelimit.Limiter
}

// New creates the HTTP handler.
func New(cfg Config) *Handler {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{
		logger:     logger,
		metrics:    cfg.Metrics,
		sessions:   cfg.Sessions,
		validator:  cfg.Validator,
		workflow:   cfg.Workflow,
		procedures: cfg.Procedures,
		tracking:   cfg.Tracking,
		anonymizer: cfg.Anonymizer,
		responder:  cfg.Responder,
		calendar:   cfg.Calendar,
		audit:      cfg.Audit,
		limiter:    cfg.Limiter,
	}
}

// Router wires all endpoints behind the platform middleware chain.
func (h *Handler) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recovery(h.logger))
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger(h.logger))
	r.Use(middleware.LatencyMiddleware(h.metrics))
	r.Use(securityHeaders)

	r.Get("/", h.handleRoot)
	r.Get("/health", h.handleHealth)
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	r.Route("/api", func(api chi.Router) {
		api.Use(middleware.Timeout(30 * time.Second))
		api.Use(middleware.ContentTypeJSON)
		api.Use(ratelimit.Middleware(h.limiter, h.logger))

		api.Post("/session/start", h.handleSessionStart)
		api.Get("/session/{sessionID}", h.handleSessionGet)

		api.Post("/procedures/start", h.handleProcedureStart)
		api.Post("/assistant/message", h.handleAssistantMessage)
		api.Post("/security/anonymize", h.handleAnonymize)

		api.Get("/tracking/{pin}", h.handleTrackingLookup)
		api.Get("/tracking", h.handleTrackingActive)
		api.Post("/tracking/{pin}/estado", h.handleTrackingUpdate)
		api.Get("/calendar/slots", h.handleCalendarSlots)

		// Endpoints below act on an existing procedure and require the
		// session token issued when it was started.
		api.Group(func(protected chi.Router) {
			protected.Use(middleware.RequireSession(h.validator, h.logger))
			protected.Get("/procedures/{procedureID}", h.handleProcedureGet)
			protected.Post("/procedures/{procedureID}/step", h.handleProcedureStep)
			protected.Get("/procedures/{procedureID}/audit", h.handleProcedureAudit)
			protected.Post("/documents/upload", h.handleDocumentUpload)
			protected.Post("/biometric/verify", h.handleBiometricVerify)
		})
	})

	return r
}

// securityHeaders marks responses as PII-protected and disables sniffing
// and framing for the kiosk frontend.
func securityHeaders(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Header().Set("X-Frame-Options", "DENY")
		w.Header().Set("X-IDENTIA-Security", "PII-Protected")
		next.ServeHTTP(w, r)
	})
}
