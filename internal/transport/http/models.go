package httptransport

import "identia/internal/domain"

// ProcedureRequest starts a new procedure for a citizen.
type ProcedureRequest struct {
	ProcedureType string         `json:"procedure_type"`
	CitizenData   map[string]any `json:"citizen_data"`
	SessionID     string         `json:"session_id,omitempty"`
}

// StepRequest carries new citizen input for the next workflow step.
type StepRequest struct {
	Biometrics  *domain.Biometrics         `json:"biometric_data,omitempty"`
	Documents   map[string]domain.Document `json:"documents,omitempty"`
	CitizenData map[string]any             `json:"citizen_data,omitempty"`
}

// AssistantResponse is the uniform reply envelope for assistant and
// procedure endpoints.
type AssistantResponse struct {
	Message     string `json:"message"`
	SessionID   string `json:"session_id"`
	ProcedureID string `json:"procedure_id,omitempty"`
	CurrentStep string `json:"current_step,omitempty"`
	NextAction  string `json:"next_action,omitempty"`
	Data        any    `json:"data,omitempty"`
}

// DocumentUpload carries one document image for processing.
type DocumentUpload struct {
	DocumentType string `json:"document_type"`
	ImageData    string `json:"image_data,omitempty"`
	SessionID    string `json:"session_id,omitempty"`
}

// BiometricRequest carries a biometric capture for verification.
type BiometricRequest struct {
	FaceImage   string `json:"face_image,omitempty"`
	VoiceSample string `json:"voice_sample,omitempty"`
	SessionID   string `json:"session_id,omitempty"`
}

// CitizenMessage is a free-text (or transcribed voice) message from the
// citizen.
type CitizenMessage struct {
	Text      string `json:"text"`
	SessionID string `json:"session_id,omitempty"`
}

// AnonymizeRequest asks for PII anonymization of arbitrary text.
type AnonymizeRequest struct {
	Text string `json:"text"`
}

// EstadoUpdateRequest moves a trámite to a new estado.
type EstadoUpdateRequest struct {
	Estado string              `json:"estado"`
	Nota   string              `json:"nota,omitempty"`
	Cita   *domain.Appointment `json:"cita,omitempty"`
}
