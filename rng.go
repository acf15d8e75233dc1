package respondsdk

import (
	"math/rand"
	"sync"
)

// ──────────────────────────────────────────────
// RNG — injectable random source
// ──────────────────────────────────────────────

// RNG is the random source used by the decision engine and the delay
// synthesizer. Inject a seeded instance in tests for reproducible runs.
type RNG interface {
	// Float64 returns a uniform value in [0.0, 1.0).
	Float64() float64
	// IntN returns a uniform int in [0, n). Panics if n <= 0.
	IntN(n int) int
}

// seededRNG wraps math/rand with a mutex so a single source can be shared
// across chats processed concurrently.
type seededRNG struct {
	mu  sync.Mutex
	rng *rand.Rand
}

// NewSeededRNG creates a deterministic RNG from a seed.
func NewSeededRNG(seed int64) RNG {
	return &seededRNG{rng: rand.New(rand.NewSource(seed))}
}

func (s *seededRNG) Float64() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.rng.Float64()
}

func (s *seededRNG) IntN(n int) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.rng.Intn(n)
}
