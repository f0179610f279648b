package tracking

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"identia/internal/anonymizer"
	"identia/internal/audit"
	"identia/internal/domain"
	"identia/internal/regulations"
	"identia/internal/tracking/metrics"
	dErrors "identia/pkg/domain-errors"
	"identia/pkg/platform/sentinel"
)

// maxPINAttempts bounds retries against PIN collisions. With a 32^6 space
// collisions are rare; hitting the bound means the store is misbehaving.
const maxPINAttempts = 5

// AuditSink receives tracking state-change events.
type AuditSink interface {
	Emit(ctx context.Context, event audit.Event)
}

// Service owns trámite registration and status queries.
type Service struct {
	store   Store
	logger  *slog.Logger
	metrics *metrics.Metrics
	sink    AuditSink
	now     func() time.Time
}

// Option configures a Service.
type Option func(*Service)

// WithLogger sets the service logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) { s.logger = logger }
}

// WithMetrics sets the tracking metrics.
func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) { s.metrics = m }
}

// WithAuditSink sets the sink receiving state-change events.
func WithAuditSink(sink AuditSink) Option {
	return func(s *Service) { s.sink = sink }
}

// WithClock overrides the time source, for tests.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// NewService creates a tracking Service over the given store.
func NewService(store Store, opts ...Option) *Service {
	s := &Service{
		store:  store,
		logger: slog.Default(),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Receipt is what the citizen gets back after registering a trámite.
type Receipt struct {
	PIN      string    `json:"pin"`
	Radicado string    `json:"radicado"`
	Estado   Estado    `json:"estado"`
	Tipo     string    `json:"tipo"`
	Mensaje  string    `json:"mensaje"`
	CreadoEn time.Time `json:"creado_en"`
}

// CrearTramite registers a new trámite and hands back its tracking PIN.
// The citizen's cédula is masked before storage; the full value is never
// persisted here.
func (s *Service) CrearTramite(ctx context.Context, tipo string, citizen map[string]any, sessionID string) (Receipt, error) {
	if tipo == "" {
		return Receipt{}, dErrors.New(dErrors.CodeInvalidInput, "tipo de trámite requerido")
	}

	nombre := "Ciudadano"
	if v, ok := citizen["nombre"].(string); ok && v != "" {
		nombre = v
	}
	cedula, _ := citizen["cedula"].(string)

	now := s.now()
	tramite := Tramite{
		Radicado:    newRadicado(now),
		Tipo:        tipo,
		TipoLegible: regulations.LegibleName(tipo),
		Citizen: Citizen{
			Nombre:       nombre,
			CedulaMasked: anonymizer.MaskCedula(cedula),
		},
		Estado: EstadoIniciado,
		History: []HistoryEntry{{
			Estado:    EstadoIniciado,
			Timestamp: now,
			Note:      "Trámite iniciado desde IDENTIA",
		}},
		SessionID: sessionID,
		CreatedAt: now,
		UpdatedAt: now,
	}

	for attempt := 0; attempt < maxPINAttempts; attempt++ {
		pin, err := newPIN()
		if err != nil {
			return Receipt{}, dErrors.Wrap(err, dErrors.CodeInternal, "generate tracking PIN")
		}
		tramite.PIN = pin
		err = s.store.Create(ctx, tramite)
		if err == nil {
			break
		}
		if errors.Is(err, sentinel.ErrConflict) {
			tramite.PIN = ""
			continue
		}
		return Receipt{}, dErrors.Wrap(err, dErrors.CodeInternal, "create tramite")
	}
	if tramite.PIN == "" {
		return Receipt{}, dErrors.New(dErrors.CodeInternal, "exhausted PIN generation attempts")
	}

	if s.metrics != nil {
		s.metrics.IncrementCreated()
	}
	s.logger.Info("tramite created",
		"pin", tramite.PIN, "radicado", tramite.Radicado, "tipo", tipo)

	return Receipt{
		PIN:      tramite.PIN,
		Radicado: tramite.Radicado,
		Estado:   tramite.Estado,
		Tipo:     tramite.TipoLegible,
		Mensaje: fmt.Sprintf(
			"✅ Trámite iniciado. Su PIN de seguimiento es: **%s**\n\nGuárdelo para consultar el estado de su trámite en cualquier momento.",
			tramite.PIN),
		CreadoEn: tramite.CreatedAt,
	}, nil
}

// StatusReport answers a citizen PIN lookup. Found is false for unknown
// PINs; that is an answer, not an error.
type StatusReport struct {
	Found         bool                `json:"encontrado"`
	PIN           string              `json:"pin,omitempty"`
	Radicado      string              `json:"radicado,omitempty"`
	Tipo          string              `json:"tipo,omitempty"`
	Estado        Estado              `json:"estado,omitempty"`
	Progreso      int                 `json:"porcentaje"`
	Mensaje       string              `json:"mensaje"`
	Cita          *domain.Appointment `json:"cita,omitempty"`
	Historial     []HistoryEntry      `json:"historial,omitempty"`
	ActualizadoEn time.Time           `json:"actualizado_en,omitzero"`
}

// ConsultarEstado looks up a trámite by PIN and builds the citizen-facing
// status message. Only the last three history entries are exposed.
func (s *Service) ConsultarEstado(ctx context.Context, pin string) (StatusReport, error) {
	start := s.now()
	pin = NormalizePIN(pin)

	tramite, err := s.store.FindByPIN(ctx, pin)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			if s.metrics != nil {
				s.metrics.IncrementLookup(false)
				s.metrics.ObserveLookup(start)
			}
			return StatusReport{
				Found: false,
				Mensaje: fmt.Sprintf(
					"No encontré ningún trámite con el PIN **%s**. Por favor verifique que el PIN sea correcto (6 caracteres, ej: A3K7P2). Si necesita ayuda, llame al 01 8000 111 555.",
					pin),
			}, nil
		}
		return StatusReport{}, dErrors.Wrap(err, dErrors.CodeInternal, "find tramite")
	}

	if s.metrics != nil {
		s.metrics.IncrementLookup(true)
		s.metrics.ObserveLookup(start)
	}

	progreso := tramite.Estado.Progress()
	history := tramite.History
	if len(history) > 3 {
		history = history[len(history)-3:]
	}

	return StatusReport{
		Found:    true,
		PIN:      pin,
		Radicado: tramite.Radicado,
		Tipo:     tramite.TipoLegible,
		Estado:   tramite.Estado,
		Progreso: progreso,
		Mensaje: fmt.Sprintf(
			"📋 **Estado de su trámite de %s**\n\n📌 PIN: `%s` | Radicado: `%s`\n\n🔄 **Estado actual:** %s\n\n📊 **Progreso:** %d%%",
			tramite.TipoLegible, pin, tramite.Radicado, tramite.Estado.Message(), progreso),
		Cita:          tramite.Cita,
		Historial:     history,
		ActualizadoEn: tramite.UpdatedAt,
	}, nil
}

// ActualizarEstado moves a trámite to a new estado, appending to its
// history and optionally attaching appointment details.
func (s *Service) ActualizarEstado(ctx context.Context, pin string, estado Estado, nota string, cita *domain.Appointment) error {
	if !estado.Valid() {
		return dErrors.New(dErrors.CodeInvalidInput, fmt.Sprintf("estado desconocido: %s", estado))
	}
	pin = NormalizePIN(pin)

	tramite, err := s.store.FindByPIN(ctx, pin)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return dErrors.New(dErrors.CodeNotFound, "trámite no encontrado")
		}
		return dErrors.Wrap(err, dErrors.CodeInternal, "find tramite")
	}

	from := tramite.Estado
	now := s.now()
	if nota == "" {
		nota = fmt.Sprintf("Estado actualizado a: %s", estado)
	}
	tramite.Estado = estado
	tramite.UpdatedAt = now
	tramite.History = append(tramite.History, HistoryEntry{
		Estado:    estado,
		Timestamp: now,
		Note:      nota,
	})
	if cita != nil {
		tramite.Cita = cita
	}

	if err := s.store.Update(ctx, tramite); err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "update tramite")
	}

	if s.sink != nil {
		s.sink.Emit(ctx, audit.Event{
			ProcedureID: tramite.Radicado,
			Type:        audit.EventStateChange,
			FromStep:    string(from),
			ToStep:      string(estado),
			Note:        nota,
		})
	}
	s.logger.Info("tramite estado updated",
		"pin", pin, "from", string(from), "to", string(estado))
	return nil
}

// ListarActivos returns the admin listing of non-terminal trámites.
func (s *Service) ListarActivos(ctx context.Context) ([]Summary, error) {
	tramites, err := s.store.ListActive(ctx)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "list active tramites")
	}
	summaries := make([]Summary, 0, len(tramites))
	for _, tramite := range tramites {
		summaries = append(summaries, Summary{
			PIN:       tramite.PIN,
			Tipo:      tramite.TipoLegible,
			Estado:    tramite.Estado,
			Ciudadano: tramite.Citizen.Nombre,
			CreadoEn:  tramite.CreatedAt,
		})
	}
	return summaries, nil
}
