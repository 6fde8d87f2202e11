package server

import (
	"drawroom/internal/rooms"
	"drawroom/internal/store"
	"drawroom/internal/wshub"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
)

const maxBodyBytes = 1 << 12

// Room codes are checked with wshub.ValidRoomCode so HTTP and websocket
// accept the same codes.
type createRoomRequest struct {
	Code string `json:"code"`
}

type joinRoomRequest struct {
	RoomCode string `json:"roomCode" validate:"required"`
	Username string `json:"username" validate:"required,max=64"`
}

type joinRoomResponse struct {
	Success       bool   `json:"success"`
	Message       string `json:"message"`
	ParticipantID string `json:"participantId"`
}

type roomResponse struct {
	Code         string              `json:"code"`
	DrawnNumber  *int                `json:"drawnNumber"`
	DrawnNumbers []int               `json:"drawnNumbers"`
	Remaining    int                 `json:"remaining"`
	Members      int                 `json:"members"`
	Participants []store.Participant `json:"participants"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("[Server] Encode response: %v\n", err)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// decode reads a JSON body into v. An empty body leaves v untouched.
func decode(r *http.Request, v any) error {
	err := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes)).Decode(v)
	if errors.Is(err, io.EOF) {
		return nil
	}
	return err
}

func (s *Server) handleCreateRoom(w http.ResponseWriter, r *http.Request) {
	var req createRoomRequest
	if err := decode(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	req.Code = rooms.NormalizeCode(req.Code)
	if req.Code != "" && !wshub.ValidRoomCode(req.Code) {
		writeError(w, http.StatusBadRequest, "invalid room code")
		return
	}

	if req.Code != "" {
		room, err := s.Store.CreateRoom(req.Code)
		if errors.Is(err, store.ErrRoomExists) {
			writeError(w, http.StatusConflict, "room code already exists")
			return
		}
		if err != nil {
			log.Printf("[DB] CreateRoom error: %v\n", err)
			writeError(w, http.StatusInternalServerError, "failed to create room")
			return
		}
		log.Printf("[Server] Created room %s\n", room.Code)
		writeJSON(w, http.StatusOK, map[string]string{"code": room.Code})
		return
	}

	room, err := s.createGeneratedRoom()
	if err != nil {
		log.Printf("[Server] %v\n", err)
		writeError(w, http.StatusInternalServerError, "failed to create room")
		return
	}
	log.Printf("[Server] Created room %s\n", room.Code)
	writeJSON(w, http.StatusOK, map[string]string{"code": room.Code})
}

func (s *Server) createGeneratedRoom() (*store.Room, error) {
	// Try up to 10 times to generate a unique code
	for range 10 {
		code, err := rooms.GenerateCode()
		if err != nil {
			return nil, fmt.Errorf("generating room code: %w", err)
		}
		room, err := s.Store.CreateRoom(code)
		if errors.Is(err, store.ErrRoomExists) {
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("creating room %s: %w", code, err)
		}
		return room, nil
	}
	return nil, fmt.Errorf("failed to generate unique room code after 10 attempts")
}

func (s *Server) handleJoinRoom(w http.ResponseWriter, r *http.Request) {
	var req joinRoomRequest
	if err := decode(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	req.RoomCode = rooms.NormalizeCode(req.RoomCode)
	if err := s.Validate.Struct(req); err != nil {
		writeError(w, http.StatusBadRequest, "roomCode and username are required")
		return
	}
	if !wshub.ValidRoomCode(req.RoomCode) {
		writeError(w, http.StatusBadRequest, "invalid room code")
		return
	}

	p, err := s.Store.AddParticipant(req.RoomCode, req.Username)
	if errors.Is(err, store.ErrRoomNotFound) {
		writeError(w, http.StatusNotFound, "room not found")
		return
	}
	if err != nil {
		log.Printf("[DB] AddParticipant error: %v\n", err)
		writeError(w, http.StatusInternalServerError, "failed to join room")
		return
	}

	writeJSON(w, http.StatusOK, joinRoomResponse{
		Success:       true,
		Message:       "joined room",
		ParticipantID: p.ID,
	})
}

func (s *Server) handleGetRoom(w http.ResponseWriter, r *http.Request) {
	code := rooms.NormalizeCode(r.PathValue("code"))
	room, err := s.Store.FindRoom(code)
	if errors.Is(err, store.ErrRoomNotFound) {
		writeError(w, http.StatusNotFound, "room not found")
		return
	}
	if err != nil {
		log.Printf("[DB] FindRoom error: %v\n", err)
		writeError(w, http.StatusInternalServerError, "failed to load room")
		return
	}

	participants, err := s.Store.Participants(code)
	if err != nil {
		log.Printf("[DB] Participants error: %v\n", err)
		writeError(w, http.StatusInternalServerError, "failed to load room")
		return
	}

	// The write of lastDrawn is asynchronous, so prefer the live value.
	drawn := room.DrawnNumber
	if last, ok := s.History.LastDrawn(code); ok {
		drawn = &last
	}

	writeJSON(w, http.StatusOK, roomResponse{
		Code:         room.Code,
		DrawnNumber:  drawn,
		DrawnNumbers: s.History.Drawn(code),
		Remaining:    s.History.Remaining(code),
		Members:      s.Rooms.Count(code),
		Participants: participants,
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if err := s.Store.Ping(); err != nil {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{
			"status": "db_error",
			"error":  err.Error(),
		})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"status": "ok",
		"rooms":  s.Rooms.Rooms(),
	})
}
