// Package entropy provides the random sources behind the simulation's
// stochastic draws. The default source is a PCG generator seeded from
// crypto/rand; tests inject fixed sources for deterministic draws.
package entropy

import (
	crand "crypto/rand"
	"encoding/binary"
	"math/rand/v2"
	"time"
)

// Source yields the two kinds of random values the models consume.
type Source interface {
	// Float64 returns a uniform value in [0, 1).
	Float64() float64
	// NormFloat64 returns a standard-normal value.
	NormFloat64() float64
}

// New returns a Source backed by a crypto-seeded PCG generator.
// Not safe for concurrent use; the engine serializes all draws
// under its own lock.
func New() Source {
	return rand.New(rand.NewPCG(cryptoSeed(), cryptoSeed()))
}

// cryptoSeed reads 8 bytes from crypto/rand, falling back to the
// wall clock if the system entropy pool is unreadable.
func cryptoSeed() uint64 {
	var buf [8]byte
	if _, err := crand.Read(buf[:]); err != nil {
		return uint64(time.Now().UnixNano())
	}
	return binary.LittleEndian.Uint64(buf[:])
}
