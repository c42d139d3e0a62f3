// Package candidate produces the random short-link codes fed into the probe
// pipeline. Generation is cheap and collision-agnostic; the orchestrator
// filters repeats against its seen-set before enqueueing.
package candidate

import (
	"math/rand/v2"
	"strings"
)

const charset = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

// DefaultLength matches the code length used by the short-link service.
const DefaultLength = 6

// Generator emits an infinite stream of fixed-length alphanumeric codes.
// It carries no state beyond its RNG, so it is trivially restartable.
type Generator struct {
	length int
	rng    *rand.Rand
}

// NewGenerator returns a generator for codes of the given length. A
// non-positive length falls back to DefaultLength. The RNG is seeded from
// ambient entropy via the runtime's ChaCha8 source.
func NewGenerator(length int) *Generator {
	if length <= 0 {
		length = DefaultLength
	}
	return &Generator{
		length: length,
		rng:    rand.New(rand.NewChaCha8(seed())),
	}
}

// Next returns one random code. Not safe for concurrent use; the single
// generation loop is the only caller.
func (g *Generator) Next() string {
	var b strings.Builder
	b.Grow(g.length)
	for i := 0; i < g.length; i++ {
		b.WriteByte(charset[g.rng.IntN(len(charset))])
	}
	return b.String()
}

// Length reports the configured code length.
func (g *Generator) Length() int {
	return g.length
}

func seed() [32]byte {
	var s [32]byte
	for i := 0; i < len(s); i += 8 {
		v := rand.Uint64()
		for j := 0; j < 8 && i+j < len(s); j++ {
			s[i+j] = byte(v >> (8 * j))
		}
	}
	return s
}
