package token

import (
	"crypto/rand"
	"encoding/base64"
)

// NewOpaque returns a random, dot-free bearer value of the kind regex-mode
// policies are written for.
func NewOpaque() (string, error) {
	raw := make([]byte, 32)
	if _, err := rand.Read(raw); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(raw), nil
}
