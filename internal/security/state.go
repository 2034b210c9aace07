package security

import (
	"crypto/rand"
	"encoding/hex"
	"io"
)

// GenerateState creates the random state nonce used for CSRF protection
// in the OAuth authorization-code flow.
func GenerateState() (string, error) {
	b := make([]byte, 32)
	if _, err := io.ReadFull(rand.Reader, b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}
