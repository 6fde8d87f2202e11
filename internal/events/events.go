package events

import "time"

// DrawEvent is a draw that still has to reach the persistence layer.
type DrawEvent struct {
	RoomCode string
	Number   int
	DrawnAt  time.Time
}

type Bus struct {
	Draws chan DrawEvent
}

func NewBus(size int) *Bus {
	if size <= 0 {
		size = 1
	}
	return &Bus{
		Draws: make(chan DrawEvent, size),
	}
}

// PublishDraw never blocks. It returns false when the buffer is full and
// the event was dropped.
func (b *Bus) PublishDraw(ev DrawEvent) bool {
	select {
	case b.Draws <- ev:
		return true
	default:
		return false
	}
}
