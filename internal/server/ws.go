package server

import (
	"context"
	"drawroom/internal/session"
	"drawroom/internal/wshub"
	"errors"
	"log"
	"net/http"

	"github.com/coder/websocket"
)

func (s *Server) handleWS(w http.ResponseWriter, r *http.Request) {
	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		OriginPatterns: s.Config.AllowedOrigins,
	})
	if err != nil {
		log.Printf("[WS] Accept error: %v\n", err)
		return
	}
	defer conn.CloseNow()
	conn.SetReadLimit(s.Config.MaxMessageSize)

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	client := wshub.NewClient(conn, s.Config.SendBuffer)
	sess := session.New(client, s.sessionDeps())
	defer sess.Handle(wshub.Disconnect{})
	log.Printf("[WS] Client %s connected from %s\n", client.ID, r.RemoteAddr)

	go client.WritePump(ctx)

	for {
		_, data, err := conn.Read(ctx)
		if err != nil {
			logReadError(client.ID, err)
			return
		}
		sess.HandleRaw(data)
	}
}

func logReadError(id string, err error) {
	switch status := websocket.CloseStatus(err); {
	case status == websocket.StatusNormalClosure || status == websocket.StatusGoingAway:
		return
	case errors.Is(err, context.Canceled):
		return
	case status != -1:
		log.Printf("[WS] Client %s closed with %v\n", id, status)
	default:
		log.Printf("[WS] Read from %s failed: %v\n", id, err)
	}
}
