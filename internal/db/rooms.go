package db

import (
	"database/sql"
	"drawroom/internal/store"
	"errors"
	"fmt"
)

func (d *DB) FindRoom(code string) (*store.Room, error) {
	var r store.Room
	var drawn sql.NullInt64
	err := d.conn.QueryRow(`
		SELECT code, drawn_number, created_at FROM rooms WHERE code = $1
	`, code).Scan(&r.Code, &drawn, &r.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, store.ErrRoomNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("finding room: %w", err)
	}
	if drawn.Valid {
		n := int(drawn.Int64)
		r.DrawnNumber = &n
	}
	return &r, nil
}

func (d *DB) CreateRoom(code string) (*store.Room, error) {
	r := store.Room{Code: code}
	err := d.conn.QueryRow(`
		INSERT INTO rooms (code)
		VALUES ($1)
		ON CONFLICT (code) DO NOTHING
		RETURNING created_at
	`, code).Scan(&r.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, store.ErrRoomExists
	}
	if err != nil {
		return nil, fmt.Errorf("creating room: %w", err)
	}
	return &r, nil
}

func (d *DB) UpdateLastDrawn(code string, number int) error {
	res, err := d.conn.Exec(`
		UPDATE rooms SET drawn_number = $2 WHERE code = $1
	`, code, number)
	if err != nil {
		return fmt.Errorf("updating last drawn: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("updating last drawn: %w", err)
	}
	if n == 0 {
		return store.ErrRoomNotFound
	}
	return nil
}
