// Package intent classifies citizen messages into assistant intents and
// produces the canned replies. Classification runs on anonymized text only,
// so keyword rules never see raw PII.
package intent

import (
	"context"
	"log/slog"
	"strings"

	platformstrings "identia/pkg/platform/strings"
)

// Kind is the coarse intent family of a message.
type Kind string

const (
	KindProcedure Kind = "procedure"
	KindGreeting  Kind = "greeting"
	KindHelp      Kind = "help"
	KindUnknown   Kind = "unknown"
)

// Intent is the outcome of classifying one message.
type Intent struct {
	Kind          Kind   `json:"intent"`
	ProcedureType string `json:"type,omitempty"`
	NextAction    string `json:"next_action"`
}

type rule struct {
	keywords      []string
	kind          Kind
	procedureType string
	nextAction    string
}

// Rules are ordered: the first match wins, so cédula keywords shadow the
// generic greeting words.
var defaultRules = []rule{
	{[]string{"cédula", "cedula", "renovar", "renovación"}, KindProcedure, "cedula_renovation", "start_procedure"},
	{[]string{"licencia", "conducir", "manejar"}, KindProcedure, "licencia_conducir", "start_procedure"},
	{[]string{"nacimiento", "acta"}, KindProcedure, "acta_nacimiento", "start_procedure"},
	{[]string{"hola", "buenos", "saludos"}, KindGreeting, "", "show_options"},
	{[]string{"ayuda", "help", "no entiendo"}, KindHelp, "", "show_help"},
}

// Classifier maps free text to intents with keyword rules. It stands in for
// an LLM classifier and shares its interface shape.
type Classifier struct {
	rules []rule
}

// NewClassifier creates the default keyword classifier. Keyword tables are
// hand-maintained, so each rule's list is normalized before matching.
func NewClassifier() *Classifier {
	rules := make([]rule, len(defaultRules))
	for i, r := range defaultRules {
		r.keywords = platformstrings.DedupeAndTrimLower(r.keywords)
		rules[i] = r
	}
	return &Classifier{rules: rules}
}

// Detect classifies one message.
func (c *Classifier) Detect(text string) Intent {
	lower := strings.ToLower(text)
	for _, r := range c.rules {
		for _, keyword := range r.keywords {
			if strings.Contains(lower, keyword) {
				return Intent{Kind: r.kind, ProcedureType: r.procedureType, NextAction: r.nextAction}
			}
		}
	}
	return Intent{Kind: KindUnknown, NextAction: "clarify"}
}

var cannedResponses = map[Kind]string{
	KindGreeting: "¡Hola! 👋 Soy IDENTIA, su asistente virtual del gobierno.\n\n" +
		"Puedo ayudarle con:\n" +
		"• 🪪 Renovación de Cédula\n" +
		"• 📄 Actas de Nacimiento\n" +
		"• 🚗 Licencia de Conducir\n\n" +
		"¿Qué trámite necesita realizar hoy?",
	KindHelp: "No se preocupe, estoy aquí para ayudarle. 😊\n\n" +
		"Puede decirme qué trámite necesita, por ejemplo:\n" +
		"• \"Quiero renovar mi cédula\"\n" +
		"• \"Necesito un acta de nacimiento\"\n\n" +
		"También puede tocar los botones en pantalla.",
	KindProcedure: "¡Perfecto! Vamos a iniciar su trámite.\n" +
		"Primero, necesito verificar su identidad.\n\n" +
		"Por favor, presione el botón de la cámara.",
	KindUnknown: "Disculpe, no entendí bien su solicitud. 🤔\n\n" +
		"¿Podría decirme qué trámite necesita?\n" +
		"Por ejemplo: \"renovar cédula\" o \"licencia de conducir\".",
}

// Response returns the canned citizen reply for an intent.
func Response(i Intent) string {
	if msg, ok := cannedResponses[i.Kind]; ok {
		return msg
	}
	return cannedResponses[KindUnknown]
}

// TextGenerator produces a free-form reply for a citizen message. Backed by
// an LLM in deployments that have one.
type TextGenerator interface {
	Generate(ctx context.Context, message string) (string, error)
}

// Responder combines classification with optional generated replies.
type Responder struct {
	classifier *Classifier
	generator  TextGenerator
	logger     *slog.Logger
}

// ResponderOption configures a Responder.
type ResponderOption func(*Responder)

// WithGenerator sets the reply generator.
func WithGenerator(g TextGenerator) ResponderOption {
	return func(r *Responder) { r.generator = g }
}

// WithLogger sets the responder logger.
func WithLogger(logger *slog.Logger) ResponderOption {
	return func(r *Responder) { r.logger = logger }
}

// NewResponder creates a Responder over the default classifier.
func NewResponder(opts ...ResponderOption) *Responder {
	r := &Responder{
		classifier: NewClassifier(),
		logger:     slog.Default(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Reply classifies the message and builds the citizen reply. Generator
// failures fall back to the canned response for the detected intent.
func (r *Responder) Reply(ctx context.Context, text string) (Intent, string) {
	detected := r.classifier.Detect(text)
	if r.generator != nil {
		reply, err := r.generator.Generate(ctx, text)
		if err == nil && reply != "" {
			return detected, reply
		}
		if err != nil {
			r.logger.Warn("reply generation failed, using canned response", "error", err)
		}
	}
	return detected, Response(detected)
}
