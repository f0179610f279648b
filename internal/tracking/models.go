// Package tracking issues citizen-facing tracking PINs and answers status
// queries for procedures. PINs are short, human-readable handles; the
// radicado is the formal filing number.
package tracking

import (
	"time"

	"identia/internal/domain"
)

// Estado is the citizen-visible lifecycle state of a trámite.
type Estado string

const (
	EstadoIniciado            Estado = "iniciado"
	EstadoIdentidadVerificada Estado = "identidad_verificada"
	EstadoDocumentosRevisados Estado = "documentos_revisados"
	EstadoEnRevisionLegal     Estado = "en_revision_legal"
	EstadoCitaAgendada        Estado = "cita_agendada"
	EstadoListoParaRecoger    Estado = "listo_para_recoger"
	EstadoEntregado           Estado = "entregado"
	EstadoRechazado           Estado = "rechazado"
)

// estadoOrder is the canonical progression. Rechazado sits last and is
// excluded from progress math.
var estadoOrder = []Estado{
	EstadoIniciado,
	EstadoIdentidadVerificada,
	EstadoDocumentosRevisados,
	EstadoEnRevisionLegal,
	EstadoCitaAgendada,
	EstadoListoParaRecoger,
	EstadoEntregado,
	EstadoRechazado,
}

var estadoMessages = map[Estado]string{
	EstadoIniciado:            "Tu trámite fue recibido y está en espera de verificación de identidad.",
	EstadoIdentidadVerificada: "Tu identidad fue verificada exitosamente. Estamos revisando tus documentos.",
	EstadoDocumentosRevisados: "Tus documentos fueron revisados. Tu caso está en revisión legal.",
	EstadoEnRevisionLegal:     "Tu trámite está en revisión legal. Tiempo estimado: 3-5 días hábiles.",
	EstadoCitaAgendada:        "¡Tu cita está agendada! Recuerda llevar los documentos originales.",
	EstadoListoParaRecoger:    "🎉 ¡Tu documento está LISTO para recoger! Visita la oficina con tu cédula.",
	EstadoEntregado:           "Tu documento fue entregado exitosamente. ¡Gracias por usar IDENTIA!",
	EstadoRechazado:           "Tu trámite fue rechazado. Por favor visita la oficina para más información.",
}

// Valid reports whether e is a known estado.
func (e Estado) Valid() bool {
	_, ok := estadoMessages[e]
	return ok
}

// Message returns the friendly citizen message for the estado.
func (e Estado) Message() string {
	if msg, ok := estadoMessages[e]; ok {
		return msg
	}
	return "Estado en proceso."
}

// Terminal reports whether the estado ends the trámite.
func (e Estado) Terminal() bool {
	return e == EstadoEntregado || e == EstadoRechazado
}

// Progress converts an estado to a completion percentage. The denominator
// excludes rechazado so entregado lands at 100.
func (e Estado) Progress() int {
	idx := 0
	for i, candidate := range estadoOrder {
		if candidate == e {
			idx = i
			break
		}
	}
	pct := int(float64(idx)/float64(len(estadoOrder)-2)*100 + 0.5)
	if pct > 100 {
		pct = 100
	}
	return pct
}

// HistoryEntry is one state change in a trámite's trail.
type HistoryEntry struct {
	Estado    Estado    `json:"estado"`
	Timestamp time.Time `json:"timestamp"`
	Note      string    `json:"nota"`
}

// Citizen is the minimal holder data stored with a trámite. The cédula is
// masked before it ever reaches this struct.
type Citizen struct {
	Nombre       string `json:"nombre"`
	CedulaMasked string `json:"cedula_anonimizada"`
}

// Tramite is one tracked procedure filing.
type Tramite struct {
	PIN         string              `json:"pin"`
	Radicado    string              `json:"radicado"`
	Tipo        string              `json:"tipo"`
	TipoLegible string              `json:"tipo_legible"`
	Citizen     Citizen             `json:"ciudadano"`
	Estado      Estado              `json:"estado"`
	History     []HistoryEntry      `json:"historial"`
	Cita        *domain.Appointment `json:"cita,omitempty"`
	SessionID   string              `json:"session_id,omitempty"`
	CreatedAt   time.Time           `json:"creado_en"`
	UpdatedAt   time.Time           `json:"actualizado_en"`
}

// Active reports whether the trámite still needs attention.
func (t Tramite) Active() bool {
	return !t.Estado.Terminal()
}

// Summary is the admin listing row for a trámite.
type Summary struct {
	PIN       string    `json:"pin"`
	Tipo      string    `json:"tipo"`
	Estado    Estado    `json:"estado"`
	Ciudadano string    `json:"ciudadano"`
	CreadoEn  time.Time `json:"creado_en"`
}
