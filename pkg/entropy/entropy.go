// Package entropy provides a deterministic replacement for the random number
// backend of a vendored crypto library, so that fuzzing runs replay exactly.
//
// A Generator is a 64-bit linear congruential generator. Each output byte
// advances the state as s = 6364136223846793005*s + 1 (mod 2^64) and emits
// bits 33..40 of the new state. The sequence depends only on the seed.
//
// The output is NOT cryptographically secure. It exists for reproducible
// testing only.
package entropy

import "encoding/binary"

// DefaultSeed is the state of a fresh or reset generator
const DefaultSeed uint64 = 42

// SeedLen is the minimum seed buffer length accepted by Seed
const SeedLen = 8

const (
	multiplier uint64 = 6364136223846793005
	increment  uint64 = 1
)

// Generator is a deterministic byte source.
//
// A Generator is not safe for concurrent use; callers serialize access, or
// wrap it with Synchronized or NewReader. The zero value starts from state 0,
// use New for DefaultSeed.
type Generator struct {
	state uint64
}

// New returns a generator seeded with DefaultSeed
func New() *Generator {
	return &Generator{state: DefaultSeed}
}

// NewSeeded returns a generator starting from seed
func NewSeeded(seed uint64) *Generator {
	return &Generator{state: seed}
}

// State returns the current generator state
func (g *Generator) State() uint64 {
	return g.state
}

// Seed sets the state from the first 8 bytes of buf, read little-endian.
// Shorter buffers are rejected and leave the state unchanged.
func (g *Generator) Seed(buf []byte) bool {
	if len(buf) < SeedLen {
		return false
	}
	g.state = binary.LittleEndian.Uint64(buf[:SeedLen])
	return true
}

// SeedUint64 sets the state directly
func (g *Generator) SeedUint64(seed uint64) {
	g.state = seed
}

// Reset restores DefaultSeed
func (g *Generator) Reset() {
	g.state = DefaultSeed
}

func (g *Generator) next() byte {
	g.state = multiplier*g.state + increment
	return byte(g.state >> 33)
}

// Bytes fills buf and always succeeds
func (g *Generator) Bytes(buf []byte) bool {
	for i := range buf {
		buf[i] = g.next()
	}
	return true
}

// PseudoBytes draws from the same sequence as Bytes
func (g *Generator) PseudoBytes(buf []byte) bool {
	return g.Bytes(buf)
}

// Cleanup does nothing
func (g *Generator) Cleanup() {}

// Add ignores mixed-in entropy and reports success
func (g *Generator) Add(_ []byte, _ float64) bool {
	return true
}

// Status always reports the generator as ready
func (g *Generator) Status() bool {
	return true
}
