package strings

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDedupeAndTrim(t *testing.T) {
	tests := []struct {
		name     string
		input    []string
		expected []string
	}{
		{
			name:     "nil input",
			input:    nil,
			expected: nil,
		},
		{
			name:     "empty input",
			input:    []string{},
			expected: []string{},
		},
		{
			name:     "trims each element",
			input:    []string{"  cedula  ", "photo  ", "  telefono"},
			expected: []string{"cedula", "photo", "telefono"},
		},
		{
			name:     "first occurrence wins",
			input:    []string{"cedula", "photo", "cedula", "telefono", "photo"},
			expected: []string{"cedula", "photo", "telefono"},
		},
		{
			name:     "drops blanks",
			input:    []string{"cedula", "", "  ", "photo"},
			expected: []string{"cedula", "photo"},
		},
		{
			name:     "is case sensitive",
			input:    []string{"Cedula", "cedula"},
			expected: []string{"Cedula", "cedula"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, DedupeAndTrim(tt.input))
		})
	}
}

func TestDedupeAndTrimLower(t *testing.T) {
	tests := []struct {
		name     string
		input    []string
		expected []string
	}{
		{
			name:     "nil input",
			input:    nil,
			expected: nil,
		},
		{
			name:     "folds case before deduping",
			input:    []string{"Ayuda", "ayuda", "AYUDA"},
			expected: []string{"ayuda"},
		},
		{
			name:     "trims then folds",
			input:    []string{"  HOLA ", "buenos", "Hola", "BUENOS"},
			expected: []string{"hola", "buenos"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, DedupeAndTrimLower(tt.input))
		})
	}
}
