// Package crypto generates the random secrets handed to puppet class parameters.
package crypto

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"io"
)

// DefaultSecretBytes yields 32 hex characters per secret.
const DefaultSecretBytes = 16

// SecretGenerator produces one independent secret per call.
type SecretGenerator interface {
	Generate() (string, error)
}

// HexSecretGenerator draws Bytes random bytes and hex-encodes them.
type HexSecretGenerator struct {
	Bytes  int
	Source io.Reader // nil means crypto/rand
}

var _ SecretGenerator = (*HexSecretGenerator)(nil)

// NewHexSecretGenerator returns a generator of 32-character hex secrets.
func NewHexSecretGenerator() *HexSecretGenerator {
	return &HexSecretGenerator{Bytes: DefaultSecretBytes}
}

func (g *HexSecretGenerator) Generate() (string, error) {
	n := g.Bytes
	if n <= 0 {
		n = DefaultSecretBytes
	}
	src := g.Source
	if src == nil {
		src = rand.Reader
	}

	buf := make([]byte, n)
	if _, err := io.ReadFull(src, buf); err != nil {
		return "", fmt.Errorf("failed to read random bytes: %w", err)
	}
	return hex.EncodeToString(buf), nil
}
