package intent

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDetect(t *testing.T) {
	c := NewClassifier()

	tests := []struct {
		name string
		text string
		want Intent
	}{
		{
			name: "cedula renewal",
			text: "Quiero renovar mi cédula",
			want: Intent{Kind: KindProcedure, ProcedureType: "cedula_renovation", NextAction: "start_procedure"},
		},
		{
			name: "unaccented cedula",
			text: "necesito la cedula",
			want: Intent{Kind: KindProcedure, ProcedureType: "cedula_renovation", NextAction: "start_procedure"},
		},
		{
			name: "driving licence",
			text: "una licencia para manejar",
			want: Intent{Kind: KindProcedure, ProcedureType: "licencia_conducir", NextAction: "start_procedure"},
		},
		{
			name: "birth certificate",
			text: "Necesito un acta de nacimiento",
			want: Intent{Kind: KindProcedure, ProcedureType: "acta_nacimiento", NextAction: "start_procedure"},
		},
		{
			name: "greeting",
			text: "Hola, buenos días",
			want: Intent{Kind: KindGreeting, NextAction: "show_options"},
		},
		{
			name: "help",
			text: "no entiendo nada",
			want: Intent{Kind: KindHelp, NextAction: "show_help"},
		},
		{
			name: "unknown",
			text: "quiero pagar impuestos",
			want: Intent{Kind: KindUnknown, NextAction: "clarify"},
		},
		{
			name: "empty",
			text: "",
			want: Intent{Kind: KindUnknown, NextAction: "clarify"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, c.Detect(tt.text))
		})
	}
}

func TestDetectProcedureShadowsGreeting(t *testing.T) {
	c := NewClassifier()

	got := c.Detect("Hola, quiero renovar mi cédula")

	assert.Equal(t, KindProcedure, got.Kind)
	assert.Equal(t, "cedula_renovation", got.ProcedureType)
}

func TestResponderCannedReplies(t *testing.T) {
	r := NewResponder()

	detected, reply := r.Reply(context.Background(), "hola")
	assert.Equal(t, KindGreeting, detected.Kind)
	assert.Contains(t, reply, "Soy IDENTIA")

	detected, reply = r.Reply(context.Background(), "xyz")
	assert.Equal(t, KindUnknown, detected.Kind)
	assert.Contains(t, reply, "no entendí")
}

type staticGenerator struct {
	reply string
	err   error
}

func (g staticGenerator) Generate(context.Context, string) (string, error) {
	return g.reply, g.err
}

func TestResponderPrefersGenerator(t *testing.T) {
	r := NewResponder(WithGenerator(staticGenerator{reply: "respuesta generada"}))

	detected, reply := r.Reply(context.Background(), "quiero renovar mi cédula")

	assert.Equal(t, KindProcedure, detected.Kind)
	assert.Equal(t, "respuesta generada", reply)
}

func TestResponderFallsBackOnGeneratorError(t *testing.T) {
	r := NewResponder(WithGenerator(staticGenerator{err: errors.New("model unavailable")}))

	_, reply := r.Reply(context.Background(), "hola")

	assert.Contains(t, reply, "Soy IDENTIA")
}
