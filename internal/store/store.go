// Package store defines the persistence collaborator for room and
// participant records, with in-memory and Badger implementations. The
// Postgres implementation lives in internal/db.
package store

import (
	"errors"
	"time"
)

//go:generate mockgen -destination=../mocks/mock_store.go -package=mocks . Store

var (
	ErrRoomNotFound = errors.New("room not found")
	ErrRoomExists   = errors.New("room code already exists")
)

type Room struct {
	Code string `json:"code"`
	// DrawnNumber is the last number drawn, nil before the first draw.
	DrawnNumber *int      `json:"drawnNumber"`
	CreatedAt   time.Time `json:"createdAt"`
}

type Participant struct {
	ID       string    `json:"id"`
	RoomCode string    `json:"roomCode"`
	Username string    `json:"username"`
	JoinedAt time.Time `json:"joinedAt"`
}

type Store interface {
	FindRoom(code string) (*Room, error)
	CreateRoom(code string) (*Room, error)
	UpdateLastDrawn(code string, number int) error
	AddParticipant(roomCode, username string) (*Participant, error)
	// Participants lists a room's participants in join order. An unknown
	// room has none.
	Participants(roomCode string) ([]Participant, error)
	Ping() error
	Close() error
}
