package simulation

import (
	crand "crypto/rand"
	"encoding/binary"
	"fmt"
)

// NewSeed draws a seed from crypto/rand for runs that did not pin one.
func NewSeed() (int64, error) {
	var b [8]byte
	if _, err := crand.Read(b[:]); err != nil {
		return 0, fmt.Errorf("read random seed: %w", err)
	}
	seed := int64(binary.LittleEndian.Uint64(b[:]) >> 1)
	if seed == 0 {
		seed = 1
	}
	return seed, nil
}
