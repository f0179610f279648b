// Package regulations holds the static legal tables procedures are checked
// against. The tables are configuration data swappable per jurisdiction; the
// checking behavior lives in the legal agent.
package regulations

import "strings"

// Eligibility captures the rule knobs a regulation can require.
type Eligibility struct {
	AgeMin            int
	ResidencyRequired bool
}

// Regulation describes one procedure type's legal requirements.
type Regulation struct {
	Requirements   []string
	Eligibility    Eligibility
	ProcessingTime string
	Cost           float64
	LegalReference string
}

// Table maps procedure types to their regulations.
type Table map[string]Regulation

// Default returns the built-in regulations table.
func Default() Table {
	return Table{
		"cedula_renovation": {
			Requirements:   []string{"cedula_anterior", "foto_reciente", "comprobante_pago"},
			Eligibility:    Eligibility{AgeMin: 18, ResidencyRequired: true},
			ProcessingTime: "5-10 días hábiles",
			Cost:           500.00,
			LegalReference: "Ley 6125 de Cédula de Identidad Personal",
		},
		"acta_nacimiento": {
			Requirements:   []string{"cedula_solicitante", "datos_titular"},
			Eligibility:    Eligibility{},
			ProcessingTime: "3-5 días hábiles",
			Cost:           200.00,
			LegalReference: "Ley 659 sobre Actos del Estado Civil",
		},
		"licencia_conducir": {
			Requirements:   []string{"cedula", "examen_medico", "curso_aprobado", "foto"},
			Eligibility:    Eligibility{AgeMin: 18},
			ProcessingTime: "1-3 días hábiles",
			Cost:           1500.00,
			LegalReference: "Ley 63-17 de Movilidad y Seguridad Vial",
		},
	}
}

// Known returns the procedure types present in the table, for recovery
// messages when a citizen asks for an unknown procedure.
func (t Table) Known() []string {
	known := make([]string, 0, len(t))
	for procedureType := range t {
		known = append(known, procedureType)
	}
	return known
}

// legibleNames maps procedure type ids to citizen-facing names.
var legibleNames = map[string]string{
	"cedula_primera_vez":     "Cédula de Ciudadanía — Primera Vez",
	"cedula_duplicado":       "Cédula de Ciudadanía — Duplicado",
	"cedula_rectificacion":   "Cédula de Ciudadanía — Rectificación",
	"cedula_renovacion":      "Cédula de Ciudadanía — Renovación",
	"cedula_renovation":      "Cédula de Ciudadanía — Renovación",
	"tarjeta_identidad":      "Tarjeta de Identidad",
	"inscripcion_nacimiento": "Registro Civil — Inscripción de Nacimiento",
	"copia_nacimiento":       "Registro Civil — Copia de Nacimiento",
	"acta_nacimiento":        "Registro Civil — Copia de Nacimiento",
	"copia_matrimonio":       "Registro Civil — Copia de Matrimonio",
	"copia_defuncion":        "Registro Civil — Copia de Defunción",
	"apostilla":              "Apostilla de Documentos",
	"licencia_conducir":      "Licencia de Conducir",
	"agendar_cita":           "Agendamiento de Cita",
	"estado_documento":       "Consulta de Estado",
}

// LegibleName converts a procedure type id to a citizen-facing name, falling
// back to a title-cased form of the id.
func LegibleName(procedureType string) string {
	if name, ok := legibleNames[procedureType]; ok {
		return name
	}
	words := strings.Split(strings.ReplaceAll(procedureType, "_", " "), " ")
	for i, w := range words {
		if w == "" {
			continue
		}
		words[i] = strings.ToUpper(w[:1]) + w[1:]
	}
	return strings.Join(words, " ")
}
