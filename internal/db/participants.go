package db

import (
	"drawroom/internal/store"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/lib/pq"
)

const foreignKeyViolation = "23503"

func (d *DB) AddParticipant(roomCode, username string) (*store.Participant, error) {
	p := store.Participant{
		ID:       uuid.New().String(),
		RoomCode: roomCode,
		Username: username,
	}
	err := d.conn.QueryRow(`
		INSERT INTO participants (id, room_code, username)
		VALUES ($1, $2, $3)
		RETURNING joined_at
	`, p.ID, roomCode, username).Scan(&p.JoinedAt)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == foreignKeyViolation {
			return nil, store.ErrRoomNotFound
		}
		return nil, fmt.Errorf("adding participant: %w", err)
	}
	return &p, nil
}

func (d *DB) Participants(roomCode string) ([]store.Participant, error) {
	rows, err := d.conn.Query(`
		SELECT id, room_code, username, joined_at
		FROM participants WHERE room_code = $1 ORDER BY joined_at
	`, roomCode)
	if err != nil {
		return nil, fmt.Errorf("listing participants: %w", err)
	}
	defer rows.Close()

	out := []store.Participant{}
	for rows.Next() {
		var p store.Participant
		if err := rows.Scan(&p.ID, &p.RoomCode, &p.Username, &p.JoinedAt); err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

var _ store.Store = (*DB)(nil)
