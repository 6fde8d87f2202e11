package store

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

// MemoryStore keeps records for the lifetime of the process.
type MemoryStore struct {
	mu           sync.Mutex
	rooms        map[string]*Room
	participants map[string][]Participant
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		rooms:        make(map[string]*Room),
		participants: make(map[string][]Participant),
	}
}

func (s *MemoryStore) FindRoom(code string) (*Room, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.rooms[code]
	if !ok {
		return nil, ErrRoomNotFound
	}
	cp := *r
	return &cp, nil
}

func (s *MemoryStore) CreateRoom(code string) (*Room, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.rooms[code]; exists {
		return nil, ErrRoomExists
	}
	r := &Room{Code: code, CreatedAt: time.Now()}
	s.rooms[code] = r
	cp := *r
	return &cp, nil
}

func (s *MemoryStore) UpdateLastDrawn(code string, number int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.rooms[code]
	if !ok {
		return ErrRoomNotFound
	}
	n := number
	r.DrawnNumber = &n
	return nil
}

func (s *MemoryStore) AddParticipant(roomCode, username string) (*Participant, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.rooms[roomCode]; !ok {
		return nil, ErrRoomNotFound
	}
	p := Participant{
		ID:       uuid.New().String(),
		RoomCode: roomCode,
		Username: username,
		JoinedAt: time.Now(),
	}
	s.participants[roomCode] = append(s.participants[roomCode], p)
	return &p, nil
}

func (s *MemoryStore) Participants(roomCode string) ([]Participant, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Participant{}, s.participants[roomCode]...), nil
}

func (s *MemoryStore) Ping() error  { return nil }
func (s *MemoryStore) Close() error { return nil }
