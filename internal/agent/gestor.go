package agent

import (
	"context"
	"fmt"
	"hash/fnv"
	"sort"
	"strings"

	"identia/internal/directory"
	"identia/internal/domain"
)

// SchedulingData is the Gestor's result payload for schedule actions.
type SchedulingData struct {
	Appointment         domain.Appointment `json:"appointment"`
	Instructions        string             `json:"instructions"`
	AvailableProcedures []string           `json:"available_procedures,omitempty"`
}

// StatusData is the simulated case-status payload.
type StatusData struct {
	CaseID     string `json:"case_id"`
	Status     string `json:"status"`
	Step       int    `json:"step"`
	TotalSteps int    `json:"total_steps"`
	LastUpdate string `json:"last_update"`
}

// Gestor allocates appointment slots and manages case-level actions.
type Gestor struct {
	offices []directory.Office
}

// NewGestor creates a Gestor over the given office directory.
func NewGestor(offices []directory.Office) *Gestor {
	return &Gestor{offices: offices}
}

// Process dispatches on the requested action.
func (g *Gestor) Process(ctx context.Context, input Input) (Result, error) {
	action := input.Action
	if action == "" {
		action = "schedule"
	}

	switch action {
	case "schedule":
		return g.schedule(input), nil
	case "status":
		return g.caseStatus(input.CaseID), nil
	case "notify":
		return g.notify(input.Notification), nil
	default:
		return Result{
			Status:     StatusFailed,
			Message:    fmt.Sprintf("Acción no reconocida: %s", action),
			Confidence: 1.0,
		}, nil
	}
}

// schedule selects the first office offering the procedure and books the
// citizen's preferred slot when available, else the office's first slot.
// Selection is deterministic; there is no load balancing.
func (g *Gestor) schedule(input Input) Result {
	var selected *directory.Office
	for i := range g.offices {
		if g.offices[i].Offers(input.ProcedureType) {
			selected = &g.offices[i]
			break
		}
	}

	if selected == nil {
		services := directory.AllServices(g.offices)
		sort.Strings(services)
		return Result{
			Status:     StatusFailed,
			Message:    fmt.Sprintf("No se encontró oficina disponible para el trámite: %s", input.ProcedureType),
			Data:       SchedulingData{AvailableProcedures: services},
			Confidence: 1.0,
		}
	}

	slot := selected.AvailableSlots[0]
	if preferred, _ := input.Preferences["preferred_time"].(string); preferred != "" {
		for _, available := range selected.AvailableSlots {
			if available == preferred {
				slot = preferred
				break
			}
		}
	}

	appointment := domain.Appointment{
		Office:           selected.Name,
		OfficeID:         selected.ID,
		Date:             "próximo día hábil disponible",
		Time:             slot,
		Procedure:        input.ProcedureType,
		ConfirmationCode: confirmationCode(input.ProcedureType),
	}

	return Result{
		Status:  StatusCompleted,
		Message: fmt.Sprintf("Cita programada exitosamente en %s", selected.Name),
		Data: SchedulingData{
			Appointment:  appointment,
			Instructions: appointmentInstructions(appointment),
		},
		NextAction: "confirm_appointment",
		Confidence: 0.95,
	}
}

// caseStatus returns a simulated fixed-shape status; not decision-bearing.
func (g *Gestor) caseStatus(caseID string) Result {
	return Result{
		Status:  StatusCompleted,
		Message: fmt.Sprintf("Estado del caso %s: En procesamiento", caseID),
		Data: StatusData{
			CaseID:     caseID,
			Status:     "processing",
			Step:       2,
			TotalSteps: 4,
			LastUpdate: "hace 2 horas",
		},
		Confidence: 0.9,
	}
}

// notify returns a simulated notification receipt; not decision-bearing.
func (g *Gestor) notify(notification map[string]any) Result {
	return Result{
		Status:     StatusCompleted,
		Message:    "Notificación enviada exitosamente",
		Data:       map[string]string{"notification_id": fmt.Sprintf("NOTIF-%04d", fnvMod(fmt.Sprint(notification), 10000))},
		Confidence: 1.0,
	}
}

func confirmationCode(procedureType string) string {
	return fmt.Sprintf("IDENTIA-%04d", fnvMod(procedureType, 10000))
}

func fnvMod(s string, mod uint32) uint32 {
	h := fnv.New32a()
	_, _ = h.Write([]byte(s))
	return h.Sum32() % mod
}

func appointmentInstructions(appointment domain.Appointment) string {
	var b strings.Builder
	b.WriteString("📅 **Detalles de su cita:**\n\n")
	fmt.Fprintf(&b, "🏢 **Oficina:** %s\n", appointment.Office)
	fmt.Fprintf(&b, "📆 **Fecha:** %s\n", appointment.Date)
	fmt.Fprintf(&b, "🕐 **Hora:** %s\n", appointment.Time)
	fmt.Fprintf(&b, "🎫 **Código de confirmación:** %s\n\n", appointment.ConfirmationCode)
	b.WriteString("📋 **Recuerde traer:**\n")
	b.WriteString("   • Cédula de identidad original\n")
	b.WriteString("   • Documentos mencionados en los requisitos\n")
	b.WriteString("   • Este código de confirmación\n\n")
	b.WriteString("⚠️ **Importante:** Llegue 15 minutos antes de su cita.")
	return b.String()
}
