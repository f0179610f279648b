package agent

import (
	"context"
	"fmt"
	"strings"

	platformstrings "identia/pkg/platform/strings"
)

// Biometric acceptance thresholds. Voice match is recorded for audit but does
// not gate acceptance.
const (
	faceThreshold  = 0.85
	voiceThreshold = 0.80
)

// DocumentCheck reports which required documents are present and valid.
type DocumentCheck struct {
	Passed    bool     `json:"passed"`
	Validated []string `json:"validated"`
	Missing   []string `json:"missing"`
}

// BiometricCheck reports the biometric gate outcome.
type BiometricCheck struct {
	Passed     bool     `json:"passed"`
	FaceMatch  float64  `json:"face_match"`
	VoiceMatch float64  `json:"voice_match"`
	Liveness   bool     `json:"liveness"`
	Missing    []string `json:"missing"`
}

// FormCheck reports form completeness.
type FormCheck struct {
	Passed  bool     `json:"passed"`
	Missing []string `json:"missing"`
}

// ValidationData is the Validator's result payload.
type ValidationData struct {
	DocumentCheck  DocumentCheck  `json:"document_check"`
	BiometricCheck BiometricCheck `json:"biometric_check"`
	FormCheck      FormCheck      `json:"form_check"`
}

// Validator checks document presence and validity, biometric thresholds, and
// form completeness.
type Validator struct {
	requiredDocuments []string
	requiredFields    []string
}

// NewValidator creates a Validator with the standard requirement lists.
func NewValidator() *Validator {
	return &Validator{
		requiredDocuments: []string{"cedula", "proof_of_address", "photo"},
		requiredFields:    []string{"nombre", "cedula", "direccion", "telefono", "tipo_tramite"},
	}
}

// Process runs the three independent checks and aggregates. COMPLETED only if
// all pass; otherwise NEEDS_INFO listing every missing item.
func (v *Validator) Process(ctx context.Context, input Input) (Result, error) {
	data := ValidationData{
		DocumentCheck:  v.checkDocuments(input),
		BiometricCheck: v.checkBiometrics(input),
		FormCheck:      v.checkForm(input),
	}

	// "cedula" can fail both the document and the form check; report it once.
	var missing []string
	missing = append(missing, data.DocumentCheck.Missing...)
	missing = append(missing, data.BiometricCheck.Missing...)
	missing = append(missing, data.FormCheck.Missing...)
	missing = platformstrings.DedupeAndTrim(missing)

	if data.DocumentCheck.Passed && data.BiometricCheck.Passed && data.FormCheck.Passed {
		return Result{
			Status:     StatusCompleted,
			Message:    "Todos los documentos y datos han sido validados correctamente.",
			Data:       data,
			NextAction: "legal_review",
			Confidence: 0.95,
		}, nil
	}

	return Result{
		Status:     StatusNeedsInfo,
		Message:    fmt.Sprintf("Se requiere información adicional: %s", strings.Join(missing, ", ")),
		Data:       data,
		NextAction: "request_documents",
		Confidence: 0.8,
	}, nil
}

func (v *Validator) checkDocuments(input Input) DocumentCheck {
	check := DocumentCheck{Validated: []string{}, Missing: []string{}}
	for _, docType := range v.requiredDocuments {
		doc, ok := input.Documents[docType]
		if !ok {
			check.Missing = append(check.Missing, docType)
			continue
		}
		if doc.Valid() {
			check.Validated = append(check.Validated, docType)
		} else {
			check.Missing = append(check.Missing, docType+" (documento inválido)")
		}
	}
	check.Passed = len(check.Missing) == 0
	return check
}

func (v *Validator) checkBiometrics(input Input) BiometricCheck {
	bio := input.Biometrics
	check := BiometricCheck{
		FaceMatch:  bio.FaceMatchScore,
		VoiceMatch: bio.VoiceMatchScore,
		Liveness:   bio.LivenessCheck,
		Missing:    []string{},
	}
	if bio.FaceMatchScore < faceThreshold {
		check.Missing = append(check.Missing, "verificación facial")
	}
	if !bio.LivenessCheck {
		check.Missing = append(check.Missing, "prueba de vida")
	}
	check.Passed = len(check.Missing) == 0
	return check
}

func (v *Validator) checkForm(input Input) FormCheck {
	check := FormCheck{Missing: []string{}}
	for _, field := range v.requiredFields {
		value, ok := input.FormData[field]
		if !ok || value == nil || value == "" {
			check.Missing = append(check.Missing, field)
		}
	}
	check.Passed = len(check.Missing) == 0
	return check
}
