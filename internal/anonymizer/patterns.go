package anonymizer

import "regexp"

// PIIType classifies a detected entity.
type PIIType string

const (
	PIITypeCedula      PIIType = "cedula"
	PIITypeName        PIIType = "name"
	PIITypeEmail       PIIType = "email"
	PIITypePhone       PIIType = "phone"
	PIITypeDateOfBirth PIIType = "date_of_birth"
	PIITypeCreditCard  PIIType = "credit_card"
)

// patternSet binds one PII category to its detection patterns. Patterns are
// configuration, not behavior: a different locale swaps this table out via
// WithPatterns.
type patternSet struct {
	Type     PIIType
	Patterns []*regexp.Regexp
}

// defaultPatterns covers Spanish / Latin American identifier formats. Order is
// fixed so detection is deterministic when confidences tie.
func defaultPatterns() []patternSet {
	return []patternSet{
		{Type: PIITypeCedula, Patterns: []*regexp.Regexp{
			regexp.MustCompile(`\b\d{3}-?\d{7}-?\d\b`),      // Dominican cedula
			regexp.MustCompile(`\b\d{1,2}\.\d{3}\.\d{3}\b`), // Colombian cedula
			regexp.MustCompile(`\b\d{8,11}\b`),              // generic ID number
		}},
		{Type: PIITypeEmail, Patterns: []*regexp.Regexp{
			regexp.MustCompile(`\b[A-Za-z0-9._%+-]+@[A-Za-z0-9.-]+\.[A-Za-z]{2,}\b`),
		}},
		{Type: PIITypePhone, Patterns: []*regexp.Regexp{
			regexp.MustCompile(`\b\+?1?[-.\s]?\(?[0-9]{3}\)?[-.\s]?[0-9]{3}[-.\s]?[0-9]{4}\b`),
			regexp.MustCompile(`\b\d{3}[-.\s]?\d{3}[-.\s]?\d{4}\b`),
			regexp.MustCompile(`\(\d{3}\)\s?\d{3}[-.\s]?\d{4}\b`),
		}},
		{Type: PIITypeCreditCard, Patterns: []*regexp.Regexp{
			regexp.MustCompile(`\b(?:\d{4}[-\s]?){3}\d{4}\b`),
		}},
		{Type: PIITypeDateOfBirth, Patterns: []*regexp.Regexp{
			regexp.MustCompile(`\b\d{1,2}[/-]\d{1,2}[/-]\d{2,4}\b`),
			regexp.MustCompile(`\b\d{4}[/-]\d{1,2}[/-]\d{1,2}\b`),
		}},
	}
}

// defaultNames is the name dictionary for word-based detection. Lower-cased
// given and family names common in the service's locale.
func defaultNames() map[string]struct{} {
	names := []string{
		"juan", "maría", "carlos", "ana", "josé", "pedro", "luis",
		"carmen", "antonio", "rosa", "miguel", "sofia", "diego",
		"fernandez", "rodriguez", "martinez", "garcia", "lopez",
	}
	set := make(map[string]struct{}, len(names))
	for _, n := range names {
		set[n] = struct{}{}
	}
	return set
}
