package agent

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"identia/internal/domain"
	"identia/internal/regulations"
)

func eligibleLegalInput() Input {
	return Input{
		ProcedureType: "cedula_renovation",
		CitizenData:   map[string]any{"age": 34, "is_resident": true},
		Documents: map[string]domain.Document{
			"cedula_anterior":  {Type: "cedula_anterior", Verified: true},
			"foto_reciente":    {Type: "foto_reciente", Verified: true},
			"comprobante_pago": {Type: "comprobante_pago", Verified: true},
		},
	}
}

func TestLegalEligibleWithAllDocuments(t *testing.T) {
	result, err := NewLegal(regulations.Default()).Process(context.Background(), eligibleLegalInput())
	require.NoError(t, err)

	assert.Equal(t, StatusCompleted, result.Status)
	assert.Equal(t, "Análisis legal completado. El ciudadano cumple con todos los requisitos.", result.Message)
	assert.Equal(t, "schedule_appointment", result.NextAction)

	data, ok := result.Data.(LegalData)
	require.True(t, ok)
	assert.True(t, data.Eligibility.Eligible)
	assert.Empty(t, data.Eligibility.Issues)
	assert.Contains(t, data.Summary, "Cédula de Ciudadanía — Renovación")
	assert.Contains(t, data.Summary, "Base legal")
}

func TestLegalUnknownProcedure(t *testing.T) {
	input := eligibleLegalInput()
	input.ProcedureType = "visa_trabajo"

	result, err := NewLegal(regulations.Default()).Process(context.Background(), input)
	require.NoError(t, err)

	assert.Equal(t, StatusFailed, result.Status)
	assert.Contains(t, result.Message, "visa_trabajo")

	data := result.Data.(LegalData)
	assert.Equal(t, []string{"acta_nacimiento", "cedula_renovation", "licencia_conducir"}, data.AvailableProcedures)
}

func TestLegalUnderAge(t *testing.T) {
	input := eligibleLegalInput()
	input.CitizenData["age"] = 16

	result, err := NewLegal(regulations.Default()).Process(context.Background(), input)
	require.NoError(t, err)

	assert.Equal(t, StatusNeedsInfo, result.Status)
	assert.Equal(t, "request_info", result.NextAction)

	data := result.Data.(LegalData)
	assert.False(t, data.Eligibility.Eligible)
	assert.Contains(t, data.Eligibility.Issues, "Edad mínima requerida: 18 años")
}

func TestLegalNonResident(t *testing.T) {
	input := eligibleLegalInput()
	input.CitizenData["is_resident"] = false

	result, err := NewLegal(regulations.Default()).Process(context.Background(), input)
	require.NoError(t, err)

	assert.Equal(t, StatusNeedsInfo, result.Status)
	data := result.Data.(LegalData)
	assert.Contains(t, data.Eligibility.Issues, "Se requiere residencia en el país")
}

func TestLegalMissingRequiredDocuments(t *testing.T) {
	input := eligibleLegalInput()
	delete(input.Documents, "foto_reciente")
	delete(input.Documents, "comprobante_pago")

	result, err := NewLegal(regulations.Default()).Process(context.Background(), input)
	require.NoError(t, err)

	assert.Equal(t, StatusNeedsInfo, result.Status)
	assert.Contains(t, result.Message, "Documentos faltantes: foto_reciente, comprobante_pago")

	data := result.Data.(LegalData)
	assert.Equal(t, []string{"foto_reciente", "comprobante_pago"}, data.MissingDocuments)
}

func TestLegalAgeToleratesJSONNumbers(t *testing.T) {
	input := eligibleLegalInput()
	input.CitizenData["age"] = float64(21)

	result, err := NewLegal(regulations.Default()).Process(context.Background(), input)
	require.NoError(t, err)
	assert.Equal(t, StatusCompleted, result.Status)
}

func TestLegalMissingAgeFailsMinimum(t *testing.T) {
	input := eligibleLegalInput()
	delete(input.CitizenData, "age")

	result, err := NewLegal(regulations.Default()).Process(context.Background(), input)
	require.NoError(t, err)

	assert.Equal(t, StatusNeedsInfo, result.Status)
	data := result.Data.(LegalData)
	assert.Contains(t, data.Eligibility.Issues, "Edad mínima requerida: 18 años")
}
