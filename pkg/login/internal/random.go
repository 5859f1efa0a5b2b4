// Package internal provides internal utilities for the login package.
package internal

import (
	"math/rand/v2"
	"sync"
)

// Source is an interface for obtaining uniformly distributed random choices.
// This abstraction allows for deterministic testing of randomized scenarios.
type Source interface {
	// IntN returns a uniformly distributed value in [0, n). n must be positive.
	IntN(n int) int

	// Bool returns true or false with equal probability.
	Bool() bool
}

// RandSource is a Source backed by math/rand/v2. It is safe for concurrent use.
type RandSource struct {
	mu  sync.Mutex
	rng *rand.Rand
}

// NewRandSource creates a RandSource seeded with seed.
// A zero seed draws a seed from the runtime's random generator.
func NewRandSource(seed uint64) *RandSource {
	if seed == 0 {
		seed = rand.Uint64()
	}
	return &RandSource{rng: rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))}
}

// IntN returns a uniformly distributed value in [0, n).
func (s *RandSource) IntN(n int) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.rng.IntN(n)
}

// Bool returns true or false with equal probability.
func (s *RandSource) Bool() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.rng.IntN(2) == 1
}

// FixedSource is a Source for testing that always returns the configured
// values. It is not safe for concurrent use.
type FixedSource struct {
	Index int
	Flag  bool
}

// NewFixedSource creates a FixedSource returning index and flag on every draw.
func NewFixedSource(index int, flag bool) *FixedSource {
	return &FixedSource{Index: index, Flag: flag}
}

// IntN returns the fixed index, ignoring n. Callers bounds-check the result.
func (f *FixedSource) IntN(_ int) int {
	return f.Index
}

// Bool returns the fixed flag.
func (f *FixedSource) Bool() bool {
	return f.Flag
}
