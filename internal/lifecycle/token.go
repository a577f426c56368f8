package lifecycle

import (
	"crypto/rand"
	"fmt"
	"time"
)

const tokenAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

// NewQRToken mints the single-use capability token a task carries for its
// whole lifecycle: GLS-<unix millis>-<6 random chars>. The random suffix
// comes from crypto/rand so tokens are unguessable.
func NewQRToken(at time.Time) (string, error) {
	buf := make([]byte, 6)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("qr token entropy: %w", err)
	}
	for i, b := range buf {
		buf[i] = tokenAlphabet[int(b)%len(tokenAlphabet)]
	}
	return fmt.Sprintf("GLS-%d-%s", at.UnixMilli(), buf), nil
}
