// Package entropy provides the seeded deterministic random streams that drive
// each city's market. Every city gets its own Source derived from the session's
// first-load seed and the city's fixed map position.
package entropy

import (
	"encoding/base64"
	"fmt"
	"math/rand/v2"
)

// Position hash multipliers for per-city seed offsets.
const (
	seedMulX = 92821
	seedMulY = 68917
)

// streamSalt is the second PCG word. Fixed so a seed alone reproduces a stream.
const streamSalt = 0x9e3779b97f4a7c15

// CitySeed derives a city's seed from the global seed and its map coordinates.
// Coordinates are truncated toward zero and arithmetic wraps, so negative
// positions are valid and still deterministic.
func CitySeed(global uint64, x, y float64) uint64 {
	return global + uint64(int64(x))*seedMulX + uint64(int64(y))*seedMulY
}

// Source is a deterministic pseudo-random generator. It is not safe for
// concurrent use; each simulator owns exactly one.
type Source struct {
	seed uint64
	pcg  *rand.PCG
	rng  *rand.Rand
}

// New creates a Source seeded with seed.
func New(seed uint64) *Source {
	pcg := rand.NewPCG(seed, streamSalt)
	return &Source{
		seed: seed,
		pcg:  pcg,
		rng:  rand.New(pcg),
	}
}

// Seed returns the seed the Source was created with.
func (s *Source) Seed() uint64 {
	return s.seed
}

// Float returns a uniform float64 in [0, 1).
func (s *Source) Float() float64 {
	return s.rng.Float64()
}

// Range returns a uniform float64 in [lo, hi].
func (s *Source) Range(lo, hi float64) float64 {
	return lo + s.rng.Float64()*(hi-lo)
}

// IntRange returns a uniform int in [lo, hi], inclusive on both ends.
// Reversed bounds are swapped.
func (s *Source) IntRange(lo, hi int) int {
	if hi < lo {
		lo, hi = hi, lo
	}
	return lo + s.rng.IntN(hi-lo+1)
}

// IntN returns a uniform int in [0, n). It panics if n <= 0.
func (s *Source) IntN(n int) int {
	return s.rng.IntN(n)
}

// Sign returns +1 or -1 with equal probability.
func (s *Source) Sign() float64 {
	if s.rng.IntN(2) == 0 {
		return -1
	}
	return 1
}

// Shuffle permutes n elements in place with an unbiased Fisher–Yates pass,
// calling swap for each exchange.
func (s *Source) Shuffle(n int, swap func(i, j int)) {
	for i := n - 1; i > 0; i-- {
		j := s.rng.IntN(i + 1)
		swap(i, j)
	}
}

// State encodes the current generator position so a restored Source
// continues the exact same stream.
func (s *Source) State() string {
	b, err := s.pcg.MarshalBinary()
	if err != nil {
		// PCG marshaling cannot fail.
		panic(fmt.Sprintf("entropy: marshal pcg: %v", err))
	}
	return base64.StdEncoding.EncodeToString(b)
}

// Restore recreates a Source from its seed and an encoded State.
func Restore(seed uint64, state string) (*Source, error) {
	s := New(seed)
	b, err := base64.StdEncoding.DecodeString(state)
	if err != nil {
		return nil, fmt.Errorf("decode rng state: %w", err)
	}
	if err := s.pcg.UnmarshalBinary(b); err != nil {
		return nil, fmt.Errorf("restore rng state: %w", err)
	}
	return s, nil
}
