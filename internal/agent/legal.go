package agent

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"identia/internal/regulations"
)

// EligibilityResult reports whether the citizen meets a regulation's
// eligibility rules.
type EligibilityResult struct {
	Eligible bool     `json:"eligible"`
	Issues   []string `json:"issues"`
}

// LegalData is the Legal agent's result payload.
type LegalData struct {
	Eligibility         EligibilityResult      `json:"eligibility"`
	Regulation          regulations.Regulation `json:"regulations,omitempty"`
	MissingDocuments    []string               `json:"missing_documents,omitempty"`
	Summary             string                 `json:"summary"`
	AvailableProcedures []string               `json:"available_procedures,omitempty"`
}

// Legal checks procedure-specific eligibility rules and required-document
// lists against the regulations table.
type Legal struct {
	regulations regulations.Table
}

// NewLegal creates a Legal agent over the given regulations table.
func NewLegal(table regulations.Table) *Legal {
	return &Legal{regulations: table}
}

// Process looks up the regulation for the procedure type and evaluates
// eligibility and required documents.
func (l *Legal) Process(ctx context.Context, input Input) (Result, error) {
	regulation, ok := l.regulations[input.ProcedureType]
	if !ok {
		known := l.regulations.Known()
		sort.Strings(known)
		return Result{
			Status:     StatusFailed,
			Message:    fmt.Sprintf("No se encontró información legal para el trámite: %s", input.ProcedureType),
			Data:       LegalData{AvailableProcedures: known},
			Confidence: 1.0,
		}, nil
	}

	eligibility := checkEligibility(input.CitizenData, regulation.Eligibility)

	var missingDocs []string
	for _, required := range regulation.Requirements {
		if _, ok := input.Documents[required]; !ok {
			missingDocs = append(missingDocs, required)
		}
	}

	summary := legalSummary(input.ProcedureType, regulation)

	if eligibility.Eligible && len(missingDocs) == 0 {
		return Result{
			Status:     StatusCompleted,
			Message:    "Análisis legal completado. El ciudadano cumple con todos los requisitos.",
			Data:       LegalData{Eligibility: eligibility, Regulation: regulation, Summary: summary},
			NextAction: "schedule_appointment",
			Confidence: 0.92,
		}, nil
	}

	issues := append([]string{}, eligibility.Issues...)
	if len(missingDocs) > 0 {
		issues = append(issues, fmt.Sprintf("Documentos faltantes: %s", strings.Join(missingDocs, ", ")))
	}

	return Result{
		Status:     StatusNeedsInfo,
		Message:    fmt.Sprintf("Se identificaron los siguientes requisitos pendientes: %s", strings.Join(issues, "; ")),
		Data:       LegalData{Eligibility: eligibility, MissingDocuments: missingDocs, Summary: summary},
		NextAction: "request_info",
		Confidence: 0.85,
	}, nil
}

func checkEligibility(citizenData map[string]any, rules regulations.Eligibility) EligibilityResult {
	result := EligibilityResult{Issues: []string{}}

	if rules.AgeMin > 0 {
		if citizenAge(citizenData) < rules.AgeMin {
			result.Issues = append(result.Issues, fmt.Sprintf("Edad mínima requerida: %d años", rules.AgeMin))
		}
	}
	if rules.ResidencyRequired {
		if resident, _ := citizenData["is_resident"].(bool); !resident {
			result.Issues = append(result.Issues, "Se requiere residencia en el país")
		}
	}

	result.Eligible = len(result.Issues) == 0
	return result
}

// citizenAge tolerates the numeric types JSON decoding and direct callers
// produce.
func citizenAge(citizenData map[string]any) int {
	switch age := citizenData["age"].(type) {
	case int:
		return age
	case float64:
		return int(age)
	default:
		return 0
	}
}

func legalSummary(procedureType string, regulation regulations.Regulation) string {
	var b strings.Builder
	fmt.Fprintf(&b, "📋 **Resumen de su trámite: %s**\n\n", regulations.LegibleName(procedureType))
	b.WriteString("📄 **Documentos necesarios:**\n")
	for _, doc := range regulation.Requirements {
		fmt.Fprintf(&b, "   • %s\n", regulations.LegibleName(doc))
	}
	fmt.Fprintf(&b, "\n⏱️ **Tiempo de procesamiento:** %s\n\n", regulation.ProcessingTime)
	fmt.Fprintf(&b, "💰 **Costo:** RD$%.2f\n\n", regulation.Cost)
	fmt.Fprintf(&b, "📚 **Base legal:** %s", regulation.LegalReference)
	return b.String()
}
