// Package anonymizer detects and reversibly tokenizes personally identifiable
// information. No citizen text may leave the local boundary without passing
// through Anonymize first.
package anonymizer

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"sort"
	"strings"
	"unicode"

	"github.com/google/uuid"
)

const (
	patternConfidence = 0.9
	nameConfidence    = 0.7
)

// DetectedPII records one detected entity with its span in the source text.
type DetectedPII struct {
	Type          PIIType `json:"type"`
	OriginalValue string  `json:"original_value"`
	Start         int     `json:"start"`
	End           int     `json:"end"`
	Confidence    float64 `json:"confidence"`
}

// Result bundles the outcome of one anonymization call. Mapping goes
// token -> original, ReverseMapping original -> token. Both are scoped to the
// call (optionally cached per session for later reversal).
type Result struct {
	AnonymizedText   string            `json:"anonymized_text"`
	DetectedEntities []DetectedPII     `json:"detected_entities"`
	Mapping          map[string]string `json:"mapping"`
	ReverseMapping   map[string]string `json:"reverse_mapping"`
}

// SessionStore caches anonymization results per session id so a later request
// can reverse tokens issued earlier in the conversation.
type SessionStore interface {
	Save(ctx context.Context, sessionID string, result *Result) error
	Find(ctx context.Context, sessionID string) (*Result, error)
	Delete(ctx context.Context, sessionID string) error
}

// Anonymizer detects PII by regex patterns and a name dictionary, replacing
// matches with deterministic salted tokens.
type Anonymizer struct {
	salt     string
	patterns []patternSet
	names    map[string]struct{}
	sessions SessionStore
}

// Option configures an Anonymizer.
type Option func(*Anonymizer)

// WithPatterns swaps the detection pattern table, e.g. for another locale.
func WithPatterns(patterns []patternSet) Option {
	return func(a *Anonymizer) {
		a.patterns = patterns
	}
}

// WithNames swaps the name dictionary.
func WithNames(names map[string]struct{}) Option {
	return func(a *Anonymizer) {
		a.names = names
	}
}

// WithSessionStore enables per-session caching of anonymization results.
func WithSessionStore(store SessionStore) Option {
	return func(a *Anonymizer) {
		a.sessions = store
	}
}

// New constructs an Anonymizer. An empty salt selects a random per-process
// salt; tokens then stay consistent within the process only.
func New(salt string, opts ...Option) *Anonymizer {
	if salt == "" {
		salt = uuid.NewString()
	}
	a := &Anonymizer{
		salt:     salt,
		patterns: defaultPatterns(),
		names:    defaultNames(),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// token derives the replacement for a value. Same (salt, type, value) always
// yields the same token, giving consistent pseudonymization of a repeated
// identifier without storing the mapping server-side.
func (a *Anonymizer) token(piiType PIIType, value string) string {
	sum := sha256.Sum256([]byte(fmt.Sprintf("%s:%s:%s", a.salt, piiType, value)))
	return fmt.Sprintf("[%s_%s]", strings.ToUpper(string(piiType)), hex.EncodeToString(sum[:])[:8])
}

// Detect returns all PII entities found in text, with non-overlapping spans in
// ascending order. Malformed input is treated as opaque text, never an error.
func (a *Anonymizer) Detect(text string) []DetectedPII {
	var detected []DetectedPII

	for _, set := range a.patterns {
		for _, re := range set.Patterns {
			for _, loc := range re.FindAllStringIndex(text, -1) {
				detected = append(detected, DetectedPII{
					Type:          set.Type,
					OriginalValue: text[loc[0]:loc[1]],
					Start:         loc[0],
					End:           loc[1],
					Confidence:    patternConfidence,
				})
			}
		}
	}

	detected = append(detected, a.detectNames(text)...)

	return resolveOverlaps(detected)
}

// detectNames performs dictionary lookup over lower-cased whitespace-split
// tokens, stripping punctuation before the lookup but keeping the original
// span for replacement.
func (a *Anonymizer) detectNames(text string) []DetectedPII {
	var detected []DetectedPII

	offset := 0
	for _, field := range strings.Fields(text) {
		start := strings.Index(text[offset:], field) + offset
		offset = start + len(field)

		clean := strings.TrimFunc(field, func(r rune) bool {
			return !unicode.IsLetter(r) && !unicode.IsNumber(r)
		})
		if clean == "" {
			continue
		}
		if _, ok := a.names[strings.ToLower(clean)]; !ok {
			continue
		}

		inner := strings.Index(field, clean)
		detected = append(detected, DetectedPII{
			Type:          PIITypeName,
			OriginalValue: clean,
			Start:         start + inner,
			End:           start + inner + len(clean),
			Confidence:    nameConfidence,
		})
	}
	return detected
}

// resolveOverlaps keeps a non-overlapping subset of detections. Candidates are
// ordered by ascending start, ties by descending confidence; a detection
// overlapping the last kept one wins only with strictly higher confidence.
// Replacement over overlapping spans would corrupt the offsets of the
// remaining matches, so this must run before any substitution.
func resolveOverlaps(entities []DetectedPII) []DetectedPII {
	if len(entities) == 0 {
		return nil
	}

	sort.SliceStable(entities, func(i, j int) bool {
		if entities[i].Start != entities[j].Start {
			return entities[i].Start < entities[j].Start
		}
		return entities[i].Confidence > entities[j].Confidence
	})

	result := entities[:1:1]
	for _, entity := range entities[1:] {
		last := result[len(result)-1]
		if entity.Start >= last.End {
			result = append(result, entity)
		} else if entity.Confidence > last.Confidence {
			result[len(result)-1] = entity
		}
	}
	return result
}

// Anonymize replaces every detected entity in text with its token. The
// returned detections are in original left-to-right order. When sessionID is
// non-empty and a session store is configured, the result is cached for later
// reversal.
func (a *Anonymizer) Anonymize(ctx context.Context, text, sessionID string) (*Result, error) {
	detected := a.Detect(text)

	result := &Result{
		AnonymizedText:   text,
		DetectedEntities: detected,
		Mapping:          map[string]string{},
		ReverseMapping:   map[string]string{},
	}

	// Replace right to left so earlier replacements do not shift the offsets
	// still to be processed.
	for i := len(detected) - 1; i >= 0; i-- {
		entity := detected[i]
		token := a.token(entity.Type, entity.OriginalValue)
		result.AnonymizedText = result.AnonymizedText[:entity.Start] + token + result.AnonymizedText[entity.End:]
		result.Mapping[token] = entity.OriginalValue
		result.ReverseMapping[entity.OriginalValue] = token
	}

	if sessionID != "" && a.sessions != nil && len(detected) > 0 {
		if err := a.sessions.Save(ctx, sessionID, result); err != nil {
			return nil, fmt.Errorf("save session mapping: %w", err)
		}
	}

	return result, nil
}

// Deanonymize restores original values by literal token substitution. Exact
// only when no token collides with content coincidentally present in text.
func Deanonymize(text string, mapping map[string]string) string {
	for token, original := range mapping {
		text = strings.ReplaceAll(text, token, original)
	}
	return text
}

// SessionMapping returns the cached anonymization result for a session, or
// nil when none is stored.
func (a *Anonymizer) SessionMapping(ctx context.Context, sessionID string) (*Result, error) {
	if a.sessions == nil {
		return nil, nil
	}
	return a.sessions.Find(ctx, sessionID)
}

// ClearSession drops the cached mapping for a session.
func (a *Anonymizer) ClearSession(ctx context.Context, sessionID string) error {
	if a.sessions == nil {
		return nil
	}
	return a.sessions.Delete(ctx, sessionID)
}

// MaskCedula masks an identity number for safe storage, keeping the last four
// characters.
func MaskCedula(cedula string) string {
	if len(cedula) < 4 {
		return "***"
	}
	return "***" + cedula[len(cedula)-4:]
}
