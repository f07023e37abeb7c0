package corpus

import (
	"encoding/binary"
	"math/rand/v2"

	"github.com/jihwankim/nado/pkg/constraints"
)

// sampler wraps a seeded ChaCha8 stream, mirroring the reference
// implementation's use of a seeded ChaCha-family generator for the random
// phase. Cross-implementation byte-for-byte equivalence with the
// reference generator is not required (§4.2); only within-run,
// within-implementation determinism given the same seed is.
type sampler struct {
	rng *rand.Rand
}

// newSampler derives a 32-byte ChaCha8 seed deterministically from a u64
// seed via a splitmix64 expansion, so the same u64 seed always yields the
// same stream.
func newSampler(seed uint64) *sampler {
	var key [32]byte
	state := seed
	for i := 0; i < 4; i++ {
		state += 0x9E3779B97F4A7C15
		z := state
		z = (z ^ (z >> 30)) * 0xBF58476D1CE4E5B9
		z = (z ^ (z >> 27)) * 0x94D049BB133111EB
		z = z ^ (z >> 31)
		binary.LittleEndian.PutUint64(key[i*8:], z)
	}
	return &sampler{rng: rand.New(rand.NewChaCha8(key))}
}

// uniform draws a value uniformly from the closed interval [b.Lo, b.Hi].
func (s *sampler) uniform(b constraints.Bounds) int64 {
	if b.Lo == b.Hi {
		return b.Lo
	}
	diff := uint64(b.Hi - b.Lo) // exact via two's-complement wraparound; fits in uint64
	if diff == ^uint64(0) {
		// Full int64 range: no span+1 representation, draw directly.
		return int64(s.rng.Uint64())
	}
	return b.Lo + int64(s.rng.Uint64N(diff+1))
}
