package tracking

import (
	"crypto/rand"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// pinAlphabet excludes the easily confused O, 0, I and 1. 32 symbols keeps
// modulo sampling over random bytes unbiased.
const pinAlphabet = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"

const pinLength = 6

// newPIN draws a random 6-character PIN, e.g. A3K7P2. Uniqueness against
// existing trámites is the caller's job.
func newPIN() (string, error) {
	buf := make([]byte, pinLength)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("read random bytes: %w", err)
	}
	pin := make([]byte, pinLength)
	for i, b := range buf {
		pin[i] = pinAlphabet[int(b)%len(pinAlphabet)]
	}
	return string(pin), nil
}

// newRadicado builds the formal filing number, e.g. IDENTIA-20260829-3FA09C.
func newRadicado(now time.Time) string {
	suffix := strings.ToUpper(uuid.NewString()[:6])
	return fmt.Sprintf("IDENTIA-%s-%s", now.Format("20060102"), suffix)
}

// NormalizePIN uppercases and trims citizen-typed PINs.
func NormalizePIN(pin string) string {
	return strings.ToUpper(strings.TrimSpace(pin))
}
