package draw

import (
	"errors"
	"math/rand/v2"
)

var ErrPoolExhausted = errors.New("number pool exhausted")

// Sampler returns a value in [0, n).
type Sampler interface {
	IntN(n int) int
}

type randSampler struct{}

func (randSampler) IntN(n int) int { return rand.IntN(n) }

// DefaultSampler draws from math/rand/v2's global source.
func DefaultSampler() Sampler { return randSampler{} }

type Coordinator struct {
	history *History
	sampler Sampler
}

func NewCoordinator(h *History, s Sampler) *Coordinator {
	if s == nil {
		s = DefaultSampler()
	}
	return &Coordinator{history: h, sampler: s}
}

// Draw picks a number not yet drawn in the room, records it and returns it.
// The check, sample and insert happen under the room's lock.
func (c *Coordinator) Draw(code string) (int, error) {
	rec := c.history.record(code)
	rec.mu.Lock()
	defer rec.mu.Unlock()

	pool := c.history.poolSize
	if c.history.stateLocked(rec) == StateExhausted {
		return 0, ErrPoolExhausted
	}

	n := c.sample(rec, pool)
	rec.drawn[n] = struct{}{}
	rec.last = n
	return n, nil
}

// sample rejection-samples [1, pool]. After pool rejected candidates it
// picks uniformly among the remaining values instead, so a draw never
// needs more than pool+1 sampler calls.
func (c *Coordinator) sample(rec *record, pool int) int {
	for range pool {
		n := c.sampler.IntN(pool) + 1
		if _, taken := rec.drawn[n]; !taken {
			return n
		}
	}

	k := c.sampler.IntN(pool - len(rec.drawn))
	for n := 1; n <= pool; n++ {
		if _, taken := rec.drawn[n]; taken {
			continue
		}
		if k == 0 {
			return n
		}
		k--
	}
	// unreachable while the pool is not exhausted
	return 0
}
