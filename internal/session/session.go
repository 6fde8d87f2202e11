package session

import (
	"drawroom/internal/broadcast"
	"drawroom/internal/draw"
	"drawroom/internal/events"
	"drawroom/internal/rooms"
	"drawroom/internal/wshub"
	"errors"
	"log"
	"sync"
	"time"
)

type State string

const (
	StateConnected = State("connected")
	StateJoined    = State("joined")
	StateClosed    = State("closed")
)

// Deps are the process-wide services every session shares.
type Deps struct {
	Rooms       *rooms.Registry
	History     *draw.History
	Coordinator *draw.Coordinator
	Broadcaster *broadcast.Broadcaster
	Bus         *events.Bus
}

// Session drives one connection through connected → joined → closed.
type Session struct {
	client *wshub.Client
	deps   Deps

	mu    sync.Mutex
	state State
	room  string

	closeOnce sync.Once
}

func New(c *wshub.Client, deps Deps) *Session {
	return &Session{
		client: c,
		deps:   deps,
		state:  StateConnected,
	}
}

func (s *Session) Client() *wshub.Client {
	return s.client
}

func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

func (s *Session) Room() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.room
}

// HandleRaw parses an inbound payload and dispatches it. Malformed
// payloads are logged and leave the session untouched.
func (s *Session) HandleRaw(raw []byte) {
	cmd, err := wshub.ParseCommand(raw)
	if err != nil {
		log.Printf("[Session] %s: %v\n", s.client.ID, err)
		return
	}
	s.Handle(cmd)
}

func (s *Session) Handle(cmd wshub.Command) {
	switch c := cmd.(type) {
	case wshub.JoinRoom:
		s.join(c.Code)
	case wshub.DrawNumber:
		s.draw()
	case wshub.Disconnect:
		s.Close()
	}
}

func (s *Session) join(code string) {
	s.mu.Lock()
	if s.state == StateClosed || !s.client.IsOpen() {
		s.mu.Unlock()
		return
	}
	s.deps.Rooms.Join(s.client, code)
	s.state = StateJoined
	s.room = code
	s.mu.Unlock()

	s.deps.History.Touch(code)
	log.Printf("[Session] %s joined room %s\n", s.client.ID, code)

	if err := s.deps.Broadcaster.SendTo(s.client, wshub.Joined(code, s.deps.History.Drawn(code))); err != nil {
		log.Printf("[Session] %v\n", err)
	}
}

func (s *Session) draw() {
	s.mu.Lock()
	state, code := s.state, s.room
	s.mu.Unlock()

	// An evicted client is closed before its read loop notices.
	if state == StateClosed || !s.client.IsOpen() {
		return
	}
	if state != StateJoined {
		// Draws before joining are dropped without a reply.
		log.Printf("[Session] %s requested a draw without joining a room; ignored\n", s.client.ID)
		return
	}

	n, err := s.deps.Coordinator.Draw(code)
	if errors.Is(err, draw.ErrPoolExhausted) {
		if err := s.deps.Broadcaster.SendTo(s.client, wshub.ErrorMessage(err.Error())); err != nil {
			log.Printf("[Session] %v\n", err)
		}
		return
	}
	if err != nil {
		log.Printf("[Session] draw in room %s failed: %v\n", code, err)
		return
	}

	if s.deps.Bus != nil {
		if !s.deps.Bus.PublishDraw(events.DrawEvent{RoomCode: code, Number: n, DrawnAt: time.Now()}) {
			log.Printf("[Session] persist buffer full, last drawn %d for room %s not saved\n", n, code)
		}
	}

	delivered := s.deps.Broadcaster.Broadcast(code, wshub.NewNumber(n))
	log.Printf("[Session] number %d sent to %d member(s) of room %s\n", n, delivered, code)
}

// Close tears the session down. Only the first call has any effect.
func (s *Session) Close() {
	s.closeOnce.Do(func() {
		s.mu.Lock()
		s.state = StateClosed
		s.room = ""
		s.mu.Unlock()

		s.deps.Rooms.Leave(s.client)
		s.client.Close()
		log.Printf("[Session] %s disconnected\n", s.client.ID)
	})
}
