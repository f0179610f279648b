// Package domain holds the shared types that cross feature boundaries:
// documents, biometric captures, and appointments.
package domain

import "time"

// Document is one captured document supplied by the citizen. A document is
// considered valid when it is explicitly verified or carries extracted data.
type Document struct {
	Type       string         `json:"type"`
	Verified   bool           `json:"verified"`
	Data       map[string]any `json:"data,omitempty"`
	UploadedAt time.Time      `json:"uploaded_at,omitempty"`
}

// Valid reports whether the document passes the presence/validity check.
func (d Document) Valid() bool {
	return d.Verified || len(d.Data) > 0
}

// Biometrics is the capture result handed in by the biometric collaborator.
type Biometrics struct {
	FaceMatchScore  float64 `json:"face_match_score"`
	VoiceMatchScore float64 `json:"voice_match_score"`
	LivenessCheck   bool    `json:"liveness_check"`
}

// Empty reports whether no biometric capture has been supplied yet.
func (b Biometrics) Empty() bool {
	return b.FaceMatchScore == 0 && b.VoiceMatchScore == 0 && !b.LivenessCheck
}

// Appointment is the booked slot for a procedure.
type Appointment struct {
	Office           string `json:"office"`
	OfficeID         string `json:"office_id"`
	Date             string `json:"date"`
	Time             string `json:"time"`
	Procedure        string `json:"procedure"`
	ConfirmationCode string `json:"confirmation_code"`
	EventID          string `json:"event_id,omitempty"`
	EventLink        string `json:"event_link,omitempty"`
	Mode             string `json:"mode,omitempty"`
}
