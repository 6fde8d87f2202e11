package server

import (
	"drawroom/internal/broadcast"
	"drawroom/internal/config"
	"drawroom/internal/draw"
	"drawroom/internal/events"
	"drawroom/internal/rooms"
	"drawroom/internal/session"
	"drawroom/internal/store"
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/rs/cors"
)

type Server struct {
	Config      config.Config
	Store       store.Store
	Rooms       *rooms.Registry
	History     *draw.History
	Coordinator *draw.Coordinator
	Broadcaster *broadcast.Broadcaster
	Bus         *events.Bus
	Validate    *validator.Validate
}

// New wires the in-memory room state around st. A nil sampler uses the
// default random source.
func New(cfg config.Config, st store.Store, sampler draw.Sampler) *Server {
	registry := rooms.NewRegistry()
	history := draw.NewHistory(cfg.PoolSize)
	return &Server{
		Config:      cfg,
		Store:       st,
		Rooms:       registry,
		History:     history,
		Coordinator: draw.NewCoordinator(history, sampler),
		Broadcaster: broadcast.NewBroadcaster(registry),
		Bus:         events.NewBus(cfg.PersistBuffer),
		Validate:    validator.New(validator.WithRequiredStructEnabled()),
	}
}

func (s *Server) sessionDeps() session.Deps {
	return session.Deps{
		Rooms:       s.Rooms,
		History:     s.History,
		Coordinator: s.Coordinator,
		Broadcaster: s.Broadcaster,
		Bus:         s.Bus,
	}
}

func (s *Server) Routes() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /create-room", s.handleCreateRoom)
	mux.HandleFunc("POST /join-room", s.handleJoinRoom)
	mux.HandleFunc("GET /room/{code}", s.handleGetRoom)
	mux.HandleFunc("GET /health", s.handleHealth)
	mux.HandleFunc("GET /ws", s.handleWS)

	c := cors.New(cors.Options{
		AllowedOrigins: s.Config.AllowedOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Content-Type"},
	})
	return c.Handler(mux)
}
