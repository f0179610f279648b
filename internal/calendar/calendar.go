// Package calendar books procedure appointments against an external calendar
// service. Without a configured endpoint, or when the endpoint fails, it
// degrades to a simulated confirmation so scheduling never blocks a
// procedure.
package calendar

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"hash/fnv"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"identia/internal/domain"
	"identia/internal/regulations"
	"identia/pkg/platform/circuit"
)

const timezone = "America/Bogota"

const defaultOffice = "Registraduría Nacional — Sede Central"

// Attention runs 8AM-4PM in one-hour slots with a midday break.
var availableSlots = []string{
	"08:00", "09:00", "10:00", "11:00",
	"14:00", "15:00", "16:00",
}

// Modes of a confirmation.
const (
	ModeReal      = "real"
	ModeSimulated = "simulado"
)

// Request describes the appointment to book.
type Request struct {
	TipoTramite     string
	NombreCiudadano string
	Fecha           string // YYYY-MM-DD
	Hora            string // HH:MM
	Oficina         string
	Email           string
	PIN             string
}

// Confirmation is the outcome of a booking attempt. Exito is always true:
// failures fall back to the simulated mode.
type Confirmation struct {
	Exito     bool   `json:"exito"`
	EventID   string `json:"event_id"`
	EventLink string `json:"event_link,omitempty"`
	Titulo    string `json:"titulo"`
	Fecha     string `json:"fecha"`
	Hora      string `json:"hora"`
	Oficina   string `json:"oficina"`
	Duracion  string `json:"duracion"`
	Modo      string `json:"modo"`
	Mensaje   string `json:"mensaje"`
}

// SlotsResult lists free slots for a date.
type SlotsResult struct {
	Disponible bool     `json:"disponible"`
	Fecha      string   `json:"fecha,omitempty"`
	Ciudad     string   `json:"ciudad,omitempty"`
	Slots      []string `json:"slots"`
	Mensaje    string   `json:"mensaje"`
}

// Service books appointments over HTTP with a simulated fallback. A circuit
// breaker stops hammering the remote service while it is down.
type Service struct {
	baseURL string
	client  *http.Client
	logger  *slog.Logger
	breaker *circuit.Breaker
}

// Option configures a Service.
type Option func(*Service)

// WithLogger sets the service logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) { s.logger = logger }
}

// WithHTTPClient overrides the HTTP client, for tests.
func WithHTTPClient(client *http.Client) Option {
	return func(s *Service) { s.client = client }
}

// New creates a calendar Service. An empty baseURL forces simulated mode.
func New(baseURL string, timeout time.Duration, opts ...Option) *Service {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	s := &Service{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  &http.Client{Timeout: timeout},
		logger:  slog.Default(),
		breaker: circuit.New("calendar", circuit.WithFailureThreshold(3)),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Schedule books the appointment, trying the external calendar first.
func (s *Service) Schedule(ctx context.Context, req Request) Confirmation {
	if req.Oficina == "" {
		req.Oficina = defaultOffice
	}
	if req.NombreCiudadano == "" {
		req.NombreCiudadano = "Ciudadano"
	}

	if s.baseURL != "" && !s.breaker.IsOpen() {
		conf, err := s.scheduleRemote(ctx, req)
		if err == nil {
			s.breaker.RecordSuccess()
			return conf
		}
		if _, change := s.breaker.RecordFailure(); change.Opened {
			s.logger.Error("calendar circuit opened", "base_url", s.baseURL)
		}
		s.logger.Warn("calendar service unreachable, falling back to simulated booking",
			"error", err)
	}
	return s.scheduleSimulated(req)
}

// Book implements the workflow booker: it schedules the appointment and
// attaches the resulting event reference.
func (s *Service) Book(ctx context.Context, appt *domain.Appointment, citizen map[string]any) error {
	nombre, _ := citizen["nombre"].(string)
	email, _ := citizen["email"].(string)

	conf := s.Schedule(ctx, Request{
		TipoTramite:     regulations.LegibleName(appt.Procedure),
		NombreCiudadano: nombre,
		Fecha:           appt.Date,
		Hora:            appt.Time,
		Oficina:         appt.Office,
		Email:           email,
		PIN:             appt.ConfirmationCode,
	})
	appt.EventID = conf.EventID
	appt.EventLink = conf.EventLink
	appt.Mode = conf.Modo
	return nil
}

// AvailableSlots returns the bookable slots for a date. Weekends have no
// attention; a couple of weekday slots are already taken.
func (s *Service) AvailableSlots(fecha, ciudad string) SlotsResult {
	parsed, err := time.Parse("2006-01-02", fecha)
	if err == nil && (parsed.Weekday() == time.Saturday || parsed.Weekday() == time.Sunday) {
		return SlotsResult{
			Disponible: false,
			Slots:      []string{},
			Mensaje:    "No hay atención los fines de semana. Por favor seleccione un día hábil (lunes a viernes).",
		}
	}
	if ciudad == "" {
		ciudad = "Bogotá"
	}

	occupied := occupiedSlots(fecha)
	free := make([]string, 0, len(availableSlots))
	for _, slot := range availableSlots {
		if !occupied[slot] {
			free = append(free, slot)
		}
	}

	return SlotsResult{
		Disponible: true,
		Fecha:      fecha,
		Ciudad:     ciudad,
		Slots:      free,
		Mensaje:    fmt.Sprintf("Hay %d horarios disponibles para el %s.", len(free), fechaLegible(fecha)),
	}
}

// Cancel removes a booked event. Remote failures degrade to a simulated
// acknowledgement, mirroring Schedule.
func (s *Service) Cancel(ctx context.Context, eventID string) (string, error) {
	if s.baseURL != "" {
		req, err := http.NewRequestWithContext(ctx, http.MethodDelete,
			s.baseURL+"/events/"+eventID, nil)
		if err == nil {
			resp, err := s.client.Do(req)
			if err == nil {
				defer resp.Body.Close()
				if resp.StatusCode < 300 {
					return "Cita cancelada exitosamente.", nil
				}
			}
			s.logger.Warn("calendar cancel failed, acknowledging locally",
				"event_id", eventID, "error", err)
		}
	}
	return "Cita cancelada (modo simulado).", nil
}

type remoteEvent struct {
	Summary     string `json:"summary"`
	Location    string `json:"location"`
	Description string `json:"description"`
	Start       string `json:"start"`
	End         string `json:"end"`
	Timezone    string `json:"timezone"`
	Attendee    string `json:"attendee,omitempty"`
}

type remoteEventResponse struct {
	ID       string `json:"id"`
	HTMLLink string `json:"html_link"`
}

func (s *Service) scheduleRemote(ctx context.Context, req Request) (Confirmation, error) {
	titulo := eventTitle(req)
	start, end := eventWindow(req.Fecha, req.Hora)

	body, err := json.Marshal(remoteEvent{
		Summary:     titulo,
		Location:    req.Oficina,
		Description: eventDescription(req),
		Start:       start,
		End:         end,
		Timezone:    timezone,
		Attendee:    req.Email,
	})
	if err != nil {
		return Confirmation{}, fmt.Errorf("encode event: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost,
		s.baseURL+"/events", bytes.NewReader(body))
	if err != nil {
		return Confirmation{}, fmt.Errorf("build event request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(httpReq)
	if err != nil {
		return Confirmation{}, fmt.Errorf("post event: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		return Confirmation{}, fmt.Errorf("calendar service returned %d", resp.StatusCode)
	}

	var created remoteEventResponse
	if err := json.NewDecoder(resp.Body).Decode(&created); err != nil {
		return Confirmation{}, fmt.Errorf("decode event response: %w", err)
	}

	return Confirmation{
		Exito:     true,
		EventID:   created.ID,
		EventLink: created.HTMLLink,
		Titulo:    titulo,
		Fecha:     req.Fecha,
		Hora:      req.Hora,
		Oficina:   req.Oficina,
		Duracion:  "1 hora",
		Modo:      ModeReal,
		Mensaje: fmt.Sprintf(
			"📅 **¡Cita agendada en el calendario!**\n\n📋 **%s**\n📆 **Fecha:** %s\n🕐 **Hora:** %s\n🏢 **Oficina:** %s\n\n✉️ Recibirá un recordatorio por email 24 horas antes.\n🔗 [Ver en el calendario](%s)",
			titulo, fechaLegible(req.Fecha), req.Hora, req.Oficina, created.HTMLLink),
	}, nil
}

func (s *Service) scheduleSimulated(req Request) Confirmation {
	eventID := "IDENTIA-" + strings.ToUpper(uuid.NewString()[:8])
	titulo := eventTitle(req)

	return Confirmation{
		Exito:    true,
		EventID:  eventID,
		Titulo:   titulo,
		Fecha:    req.Fecha,
		Hora:     req.Hora,
		Oficina:  req.Oficina,
		Duracion: "1 hora",
		Modo:     ModeSimulated,
		Mensaje: fmt.Sprintf(
			"📅 **¡Cita confirmada!**\n\n📋 **%s**\n📆 **Fecha:** %s\n🕐 **Hora:** %s\n🏢 **Oficina:** %s\n\n🎫 **Código de confirmación:** `%s`\n\n⚠️ **Recuerde llevar:**\n   • Cédula de identidad original\n   • Todos los documentos del trámite\n   • Este código de confirmación\n\n📞 Para cancelar o reprogramar: 01 8000 111 555",
			titulo, fechaLegible(req.Fecha), req.Hora, req.Oficina, eventID),
	}
}

func eventTitle(req Request) string {
	return fmt.Sprintf("[IDENTIA] Cita de %s - %s", req.TipoTramite, req.NombreCiudadano)
}

func eventDescription(req Request) string {
	var b strings.Builder
	b.WriteString("Cita agendada a través de IDENTIA — Registraduría Nacional de Colombia\n\n")
	fmt.Fprintf(&b, "📋 Trámite: %s\n", req.TipoTramite)
	fmt.Fprintf(&b, "👤 Ciudadano: %s\n", req.NombreCiudadano)
	fmt.Fprintf(&b, "🏢 Oficina: %s\n", req.Oficina)
	if req.PIN != "" {
		fmt.Fprintf(&b, "📌 PIN de seguimiento: %s\n", req.PIN)
	}
	b.WriteString("\n⚠️ Recuerde llevar su cédula original y todos los documentos del trámite.")
	return b.String()
}

// eventWindow builds the one-hour event window; unparseable inputs pass
// through so the remote service can reject them.
func eventWindow(fecha, hora string) (string, string) {
	start, err := time.Parse("2006-01-02T15:04", fecha+"T"+hora)
	if err != nil {
		return fecha + "T" + hora, ""
	}
	return start.Format("2006-01-02T15:04:05"), start.Add(time.Hour).Format("2006-01-02T15:04:05")
}

// occupiedSlots derives two taken slots from the date, so availability is
// stable across calls for the same day.
func occupiedSlots(fecha string) map[string]bool {
	h := fnv.New32a()
	h.Write([]byte(fecha))
	seed := int(h.Sum32())

	occupied := make(map[string]bool, 2)
	first := seed % len(availableSlots)
	second := (seed/7 + 1 + first) % len(availableSlots)
	if second == first {
		second = (second + 1) % len(availableSlots)
	}
	occupied[availableSlots[first]] = true
	occupied[availableSlots[second]] = true
	return occupied
}

var spanishDays = []string{"lunes", "martes", "miércoles", "jueves", "viernes", "sábado", "domingo"}

var spanishMonths = []string{
	"", "enero", "febrero", "marzo", "abril", "mayo", "junio",
	"julio", "agosto", "septiembre", "octubre", "noviembre", "diciembre",
}

// fechaLegible renders YYYY-MM-DD as "lunes 18 de febrero de 2026",
// returning the input unchanged when it does not parse.
func fechaLegible(fecha string) string {
	parsed, err := time.Parse("2006-01-02", fecha)
	if err != nil {
		return fecha
	}
	// time.Weekday starts on Sunday; the Spanish list starts on Monday.
	dayIdx := (int(parsed.Weekday()) + 6) % 7
	return fmt.Sprintf("%s %d de %s de %d",
		spanishDays[dayIdx], parsed.Day(), spanishMonths[parsed.Month()], parsed.Year())
}
