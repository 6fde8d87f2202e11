package rooms

import (
	"drawroom/internal/wshub"
	"sync"

	"github.com/samber/lo"
)

type members struct {
	mu      sync.Mutex
	clients map[*wshub.Client]struct{}
}

// Registry tracks which open connections are joined to which room.
// A connection is a member of at most one room at a time.
//
// Lock order is always Registry.mu before members.mu.
type Registry struct {
	mu    sync.Mutex
	rooms map[string]*members
}

func NewRegistry() *Registry {
	return &Registry{
		rooms: make(map[string]*members),
	}
}

// Join adds c to the room and records the code on c. If c was in another
// room it is removed from it first.
func (r *Registry) Join(c *wshub.Client, code string) {
	if prev := c.Room(); prev != "" && prev != code {
		r.remove(c, prev)
	}

	r.mu.Lock()
	m, ok := r.rooms[code]
	if !ok {
		m = &members{clients: make(map[*wshub.Client]struct{})}
		r.rooms[code] = m
	}
	m.mu.Lock()
	r.mu.Unlock()

	m.clients[c] = struct{}{}
	m.mu.Unlock()

	c.SetRoom(code)
}

// Leave removes c from its room. Safe to call more than once.
func (r *Registry) Leave(c *wshub.Client) {
	code := c.Room()
	if code == "" {
		return
	}
	r.remove(c, code)
	c.SetRoom("")
}

func (r *Registry) remove(c *wshub.Client, code string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	m, ok := r.rooms[code]
	if !ok {
		return
	}
	m.mu.Lock()
	delete(m.clients, c)
	if len(m.clients) == 0 {
		delete(r.rooms, code)
	}
	m.mu.Unlock()
}

func (r *Registry) lookup(code string) *members {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.rooms[code]
}

// MembersOf returns a snapshot of the room's connections. Unknown codes
// yield an empty slice.
func (r *Registry) MembersOf(code string) []*wshub.Client {
	m := r.lookup(code)
	if m == nil {
		return []*wshub.Client{}
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	return lo.Keys(m.clients)
}

func (r *Registry) Count(code string) int {
	m := r.lookup(code)
	if m == nil {
		return 0
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.clients)
}

// Rooms reports how many rooms currently have at least one member.
func (r *Registry) Rooms() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.rooms)
}
