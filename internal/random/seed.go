// Package random produces high-entropy seeds for pseudo-random generators.
package random

import (
	crand "crypto/rand"
	"encoding/binary"
	"fmt"
)

// NewSeed draws eight bytes from crypto/rand and folds them into an int64.
// Callers seed deterministic generators with it when no explicit seed is
// given, so repeated runs diverge while seeded runs stay reproducible.
func NewSeed() (int64, error) {
	var raw [8]byte
	if _, err := crand.Read(raw[:]); err != nil {
		return 0, fmt.Errorf("draw entropy: %w", err)
	}
	return int64(binary.BigEndian.Uint64(raw[:])), nil
}
