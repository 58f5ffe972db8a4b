package deck

import (
	"fmt"
	"math/rand/v2"

	"github.com/phrazzld/arcana/internal/domain"
)

// RNG abstracts random number generation for deterministic testing.
type RNG interface {
	// Intn returns a non-negative random int in [0, n).
	Intn(n int) int
}

type systemRNG struct{}

func (systemRNG) Intn(n int) int { return rand.IntN(n) }

// SystemRNG returns an RNG backed by math/rand/v2. It is safe for concurrent use.
func SystemRNG() RNG {
	return systemRNG{}
}

type seededRNG struct{ r *rand.Rand }

func (s seededRNG) Intn(n int) int { return s.r.IntN(n) }

// SeededRNG returns a reproducible PCG-backed RNG. It is not safe for concurrent use.
func SeededRNG(seed1, seed2 uint64) RNG {
	return seededRNG{r: rand.New(rand.NewPCG(seed1, seed2))}
}

// Sampler draws cards from a deck of a fixed size.
type Sampler struct {
	size int
	rng  RNG
}

// NewSampler creates a Sampler over identifiers [0, size). A nil rng uses SystemRNG.
func NewSampler(size int, rng RNG) *Sampler {
	if rng == nil {
		rng = SystemRNG()
	}
	return &Sampler{size: size, rng: rng}
}

// DrawCards selects count distinct cards uniformly at random, each with an
// independent 50/50 orientation.
func (s *Sampler) DrawCards(count int) ([]domain.DrawnCard, error) {
	return DrawCards(s.size, count, s.rng)
}

// DrawCardsExcluding is DrawCards restricted to identifiers not in excluded.
func (s *Sampler) DrawCardsExcluding(count int, excluded []int) ([]domain.DrawnCard, error) {
	return DrawCardsExcluding(s.size, count, excluded, s.rng)
}

// DrawCards draws count distinct cards from [0, size).
func DrawCards(size, count int, rng RNG) ([]domain.DrawnCard, error) {
	return DrawCardsExcluding(size, count, nil, rng)
}

// DrawCardsExcluding draws count distinct cards from [0, size) minus excluded.
// Out-of-range or repeated exclusions are ignored.
func DrawCardsExcluding(size, count int, excluded []int, rng RNG) ([]domain.DrawnCard, error) {
	skip := make(map[int]struct{}, len(excluded))
	for _, id := range excluded {
		if id >= 0 && id < size {
			skip[id] = struct{}{}
		}
	}

	pool := make([]int, 0, size-len(skip))
	for id := 0; id < size; id++ {
		if _, ok := skip[id]; !ok {
			pool = append(pool, id)
		}
	}

	if count < 0 || count > len(pool) {
		return nil, fmt.Errorf("%w: requested %d cards, %d available", domain.ErrInvalidCardCount, count, len(pool))
	}

	// Fisher-Yates partial shuffle: only the first count slots are needed.
	for i := 0; i < count; i++ {
		j := i + rng.Intn(len(pool)-i)
		pool[i], pool[j] = pool[j], pool[i]
	}

	cards := make([]domain.DrawnCard, count)
	for i := range count {
		orientation := domain.Upright
		if rng.Intn(2) == 1 {
			orientation = domain.Reversed
		}
		cards[i] = domain.DrawnCard{CardID: pool[i], Orientation: orientation}
	}
	return cards, nil
}
