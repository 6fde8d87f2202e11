package broadcast

import (
	"drawroom/internal/rooms"
	"drawroom/internal/wshub"
	"encoding/json"
	"errors"
	"fmt"
	"log"
)

type Broadcaster struct {
	Rooms *rooms.Registry
}

func NewBroadcaster(registry *rooms.Registry) *Broadcaster {
	return &Broadcaster{Rooms: registry}
}

// Broadcast queues msg for every open member of the room and returns how
// many members it was queued for. A failing member never stops delivery
// to the rest. A member whose send buffer is full has fallen behind and is
// evicted: its connection is closed so it reconnects and resyncs from the
// joined reply.
func (b *Broadcaster) Broadcast(code string, msg wshub.ServerMessage) int {
	data, err := json.Marshal(msg)
	if err != nil {
		log.Printf("[Broadcast] Marshal error: %v\n", err)
		return 0
	}

	delivered := 0
	for _, c := range b.Rooms.MembersOf(code) {
		if !c.IsOpen() {
			continue
		}
		if err := c.Enqueue(data); err != nil {
			log.Printf("[Broadcast] %s to %s in room %s: %v\n", msg.Event, c.ID, code, err)
			if errors.Is(err, wshub.ErrSendBufferFull) {
				b.evict(c, code)
			}
			continue
		}
		delivered++
	}
	return delivered
}

func (b *Broadcaster) evict(c *wshub.Client, code string) {
	c.Close()
	b.Rooms.Leave(c)
	log.Printf("[Broadcast] Evicted %s from room %s\n", c.ID, code)
}

// SendTo delivers msg to a single connection.
func (b *Broadcaster) SendTo(c *wshub.Client, msg wshub.ServerMessage) error {
	data, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("marshalling %s: %w", msg.Event, err)
	}
	if err := c.Enqueue(data); err != nil {
		return fmt.Errorf("sending %s to %s: %w", msg.Event, c.ID, err)
	}
	return nil
}
