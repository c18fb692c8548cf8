package game

import (
	crand "crypto/rand"
	"encoding/binary"
	"math/rand"
	"sync"
)

// Source is the randomness used for shuffling and room codes.
// *rand.Rand satisfies it, so tests can pass rand.New(rand.NewSource(seed)).
type Source interface {
	Intn(n int) int
}

// lockedSource makes a *rand.Rand safe to share between rooms.
type lockedSource struct {
	mu  sync.Mutex
	rng *rand.Rand
}

func (s *lockedSource) Intn(n int) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.rng.Intn(n)
}

// NewSource returns a goroutine-safe source seeded from crypto/rand.
func NewSource() Source {
	var b [8]byte
	seed := int64(0)
	if _, err := crand.Read(b[:]); err == nil {
		seed = int64(binary.LittleEndian.Uint64(b[:]))
	}
	return NewSeededSource(seed)
}

// NewSeededSource returns a goroutine-safe source with a fixed seed.
func NewSeededSource(seed int64) Source {
	return &lockedSource{rng: rand.New(rand.NewSource(seed))}
}
