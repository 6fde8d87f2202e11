package draw

import (
	"slices"
	"sync"

	"github.com/samber/lo"
)

type State string

const (
	StateFresh     = State("fresh")
	StateActive    = State("active")
	StateExhausted = State("exhausted")
)

type record struct {
	mu    sync.Mutex
	drawn map[int]struct{}
	last  int // 0 until the first draw
}

// History holds, per room code, the numbers already drawn from [1, PoolSize].
// Records are created lazily and never removed.
type History struct {
	mu       sync.Mutex
	rooms    map[string]*record
	poolSize int
}

func NewHistory(poolSize int) *History {
	if poolSize < 1 {
		poolSize = 1
	}
	return &History{
		rooms:    make(map[string]*record),
		poolSize: poolSize,
	}
}

func (h *History) PoolSize() int {
	return h.poolSize
}

func (h *History) record(code string) *record {
	h.mu.Lock()
	defer h.mu.Unlock()
	rec, ok := h.rooms[code]
	if !ok {
		rec = &record{drawn: make(map[int]struct{})}
		h.rooms[code] = rec
	}
	return rec
}

// Touch creates the room's record if it does not exist yet.
func (h *History) Touch(code string) {
	h.record(code)
}

// lookup returns the room's record without creating it.
func (h *History) lookup(code string) *record {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.rooms[code]
}

// Known reports whether the room has a record, i.e. it was joined or drawn in.
func (h *History) Known(code string) bool {
	return h.lookup(code) != nil
}

func (h *History) State(code string) State {
	rec := h.lookup(code)
	if rec == nil {
		return StateFresh
	}
	rec.mu.Lock()
	defer rec.mu.Unlock()
	return h.stateLocked(rec)
}

func (h *History) stateLocked(rec *record) State {
	switch n := len(rec.drawn); {
	case n == 0:
		return StateFresh
	case n >= h.poolSize:
		return StateExhausted
	default:
		return StateActive
	}
}

// Drawn returns the room's drawn numbers in ascending order.
func (h *History) Drawn(code string) []int {
	rec := h.lookup(code)
	if rec == nil {
		return []int{}
	}
	rec.mu.Lock()
	nums := lo.Keys(rec.drawn)
	rec.mu.Unlock()
	slices.Sort(nums)
	return nums
}

func (h *History) LastDrawn(code string) (int, bool) {
	rec := h.lookup(code)
	if rec == nil {
		return 0, false
	}
	rec.mu.Lock()
	defer rec.mu.Unlock()
	return rec.last, rec.last != 0
}

func (h *History) Remaining(code string) int {
	rec := h.lookup(code)
	if rec == nil {
		return h.poolSize
	}
	rec.mu.Lock()
	defer rec.mu.Unlock()
	return h.poolSize - len(rec.drawn)
}
