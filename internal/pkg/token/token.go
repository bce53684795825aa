package token

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
)

// confirmationBytes gives 256 bits of entropy per token.
const confirmationBytes = 32

// Random mints email confirmation tokens from crypto/rand.
// Every call is independent of the previous ones.
type Random struct{}

// Generate returns a 64-character hex token.
func (Random) Generate() (string, error) {
	return New(confirmationBytes)
}

// New returns n random bytes hex-encoded.
func New(n int) (string, error) {
	if n <= 0 {
		return "", fmt.Errorf("generate token: invalid length %d", n)
	}
	b := make([]byte, n)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("generate token: %w", err)
	}
	return hex.EncodeToString(b), nil
}
