package server

import (
	"context"
	"drawroom/internal/events"
	"drawroom/internal/store"
	"errors"
	"log"
	"time"
)

const flushInterval = 250 * time.Millisecond

// lastDrawnWriter persists draws off the real-time path. Draws for the same
// room that arrive within one flush window collapse to the latest one.
func lastDrawnWriter(ctx context.Context, st store.Store, draws <-chan events.DrawEvent, every time.Duration) {
	ticker := time.NewTicker(every)
	defer ticker.Stop()

	pending := make(map[string]events.DrawEvent)

	flush := func() {
		for code, ev := range pending {
			if err := st.UpdateLastDrawn(code, ev.Number); err != nil {
				if errors.Is(err, store.ErrRoomNotFound) {
					log.Printf("[DB] UpdateLastDrawn skipped, room %s has no record\n", code)
				} else {
					log.Printf("[DB] UpdateLastDrawn(%s, %d) error: %v\n", code, ev.Number, err)
				}
			}
			delete(pending, code)
		}
	}

	for {
		select {
		case <-ctx.Done():
			// Drain whatever is already buffered before exiting.
			for {
				select {
				case ev := <-draws:
					pending[ev.RoomCode] = ev
				default:
					flush()
					return
				}
			}
		case ev := <-draws:
			pending[ev.RoomCode] = ev
			if len(pending) >= 50 {
				flush()
			}
		case <-ticker.C:
			if len(pending) > 0 {
				flush()
			}
		}
	}
}

// persister runs lastDrawnWriter on a lifetime of its own. Websocket
// connections are hijacked and outlive http.Server.Shutdown, so the writer
// must keep draining until it is stopped explicitly.
type persister struct {
	cancel context.CancelFunc
	done   chan struct{}
}

func startPersister(st store.Store, draws <-chan events.DrawEvent, every time.Duration) *persister {
	ctx, cancel := context.WithCancel(context.Background())
	p := &persister{cancel: cancel, done: make(chan struct{})}
	go func() {
		defer close(p.done)
		lastDrawnWriter(ctx, st, draws, every)
	}()
	return p
}

// Stop flushes whatever is buffered and waits for the writer to exit.
func (p *persister) Stop() {
	p.cancel()
	<-p.done
}
