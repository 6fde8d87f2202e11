package store

import (
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"slices"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/google/uuid"
)

const (
	roomPrefix        = "room/"
	participantPrefix = "participant/"
	maxTxnRetries     = 3
)

// BadgerStore persists records in an embedded Badger database.
type BadgerStore struct {
	db *badger.DB
}

// OpenBadger opens (or creates) a store at path. An empty path opens an
// in-memory database.
func OpenBadger(path string) (*BadgerStore, error) {
	opts := badger.DefaultOptions(path).WithLogger(nil)
	if path == "" {
		opts = opts.WithInMemory(true)
	}
	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("opening badger at %q: %w", path, err)
	}
	log.Printf("[Store] Badger opened at %q\n", path)
	return &BadgerStore{db: db}, nil
}

func roomKey(code string) []byte {
	return []byte(roomPrefix + code)
}

func participantKey(roomCode, id string) []byte {
	return []byte(participantPrefix + roomCode + "/" + id)
}

func getRoom(txn *badger.Txn, code string) (*Room, error) {
	item, err := txn.Get(roomKey(code))
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, ErrRoomNotFound
	}
	if err != nil {
		return nil, err
	}
	var r Room
	if err := item.Value(func(val []byte) error {
		return json.Unmarshal(val, &r)
	}); err != nil {
		return nil, fmt.Errorf("decoding room %s: %w", code, err)
	}
	return &r, nil
}

func putJSON(txn *badger.Txn, key []byte, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return txn.Set(key, data)
}

// update retries fn when a concurrent transaction wrote the same keys.
func (s *BadgerStore) update(fn func(txn *badger.Txn) error) error {
	var err error
	for range maxTxnRetries {
		err = s.db.Update(fn)
		if !errors.Is(err, badger.ErrConflict) {
			return err
		}
	}
	return err
}

func (s *BadgerStore) FindRoom(code string) (*Room, error) {
	var r *Room
	err := s.db.View(func(txn *badger.Txn) error {
		var err error
		r, err = getRoom(txn, code)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("finding room: %w", err)
	}
	return r, nil
}

func (s *BadgerStore) CreateRoom(code string) (*Room, error) {
	r := &Room{Code: code, CreatedAt: time.Now().UTC()}
	err := s.update(func(txn *badger.Txn) error {
		if _, err := getRoom(txn, code); err == nil {
			return ErrRoomExists
		} else if !errors.Is(err, ErrRoomNotFound) {
			return err
		}
		return putJSON(txn, roomKey(code), r)
	})
	if err != nil {
		return nil, fmt.Errorf("creating room: %w", err)
	}
	return r, nil
}

func (s *BadgerStore) UpdateLastDrawn(code string, number int) error {
	err := s.update(func(txn *badger.Txn) error {
		r, err := getRoom(txn, code)
		if err != nil {
			return err
		}
		r.DrawnNumber = &number
		return putJSON(txn, roomKey(code), r)
	})
	if err != nil {
		return fmt.Errorf("updating last drawn: %w", err)
	}
	return nil
}

func (s *BadgerStore) AddParticipant(roomCode, username string) (*Participant, error) {
	p := &Participant{
		ID:       uuid.New().String(),
		RoomCode: roomCode,
		Username: username,
		JoinedAt: time.Now().UTC(),
	}
	err := s.update(func(txn *badger.Txn) error {
		if _, err := getRoom(txn, roomCode); err != nil {
			return err
		}
		return putJSON(txn, participantKey(roomCode, p.ID), p)
	})
	if err != nil {
		return nil, fmt.Errorf("adding participant: %w", err)
	}
	return p, nil
}

// Participants lists a room's participants. Keys are ordered by id, so
// the result is re-sorted by join time.
func (s *BadgerStore) Participants(roomCode string) ([]Participant, error) {
	out := []Participant{}
	prefix := []byte(participantPrefix + roomCode + "/")
	err := s.db.View(func(txn *badger.Txn) error {
		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			var p Participant
			if err := it.Item().Value(func(val []byte) error {
				return json.Unmarshal(val, &p)
			}); err != nil {
				return err
			}
			out = append(out, p)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("listing participants: %w", err)
	}
	slices.SortStableFunc(out, func(a, b Participant) int {
		return a.JoinedAt.Compare(b.JoinedAt)
	})
	return out, nil
}

func (s *BadgerStore) Ping() error {
	if s.db.IsClosed() {
		return errors.New("badger is closed")
	}
	return nil
}

func (s *BadgerStore) Close() error {
	return s.db.Close()
}
