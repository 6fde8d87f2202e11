package wshub

import (
	"context"
	"errors"
	"log"
	"sync"

	"github.com/coder/websocket"
	"github.com/google/uuid"
)

var (
	ErrClientClosed   = errors.New("client closed")
	ErrSendBufferFull = errors.New("client send buffer full")
)

type State int

const (
	Open State = iota
	Closed
)

func (s State) String() string {
	if s == Open {
		return "open"
	}
	return "closed"
}

// Client is one websocket connection. Conn may be nil in tests, in which
// case queued messages are only observable through Send.
type Client struct {
	ID   string
	Conn *websocket.Conn
	Send chan []byte

	mu     sync.Mutex
	state  State
	roomID string
}

func NewClient(conn *websocket.Conn, bufferSize int) *Client {
	if bufferSize <= 0 {
		bufferSize = 1
	}
	return &Client{
		ID:   uuid.New().String(),
		Conn: conn,
		Send: make(chan []byte, bufferSize),
	}
}

func (c *Client) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

func (c *Client) IsOpen() bool {
	return c.State() == Open
}

// Room returns the room code recorded on the client, or "" before any join.
func (c *Client) Room() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.roomID
}

func (c *Client) SetRoom(code string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.roomID = code
}

// Enqueue queues data for the write pump without blocking.
func (c *Client) Enqueue(data []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state == Closed {
		return ErrClientClosed
	}
	select {
	case c.Send <- data:
		return nil
	default:
		return ErrSendBufferFull
	}
}

// Close marks the client closed and closes Send. Only the first call
// returns true.
func (c *Client) Close() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state == Closed {
		return false
	}
	c.state = Closed
	close(c.Send)
	return true
}

// WritePump reads from the Send channel and writes to the WebSocket connection.
func (c *Client) WritePump(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-c.Send:
			if !ok {
				if c.Conn != nil {
					c.Conn.Close(websocket.StatusNormalClosure, "")
				}
				return
			}
			if c.Conn == nil {
				continue
			}
			if err := c.Conn.Write(ctx, websocket.MessageText, msg); err != nil {
				log.Printf("[WS] Write to %s failed: %v\n", c.ID, err)
				return
			}
		}
	}
}
