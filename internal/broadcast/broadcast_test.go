package broadcast

import (
	"drawroom/internal/rooms"
	"drawroom/internal/wshub"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setup(t *testing.T) (*Broadcaster, *rooms.Registry) {
	t.Helper()
	reg := rooms.NewRegistry()
	return NewBroadcaster(reg), reg
}

func receive(t *testing.T, c *wshub.Client) string {
	t.Helper()
	select {
	case data, ok := <-c.Send:
		require.True(t, ok, "send channel of %s closed", c.ID)
		return string(data)
	case <-time.After(1 * time.Second):
		t.Fatalf("client %s timed out", c.ID)
		return ""
	}
}

func expectNothing(t *testing.T, c *wshub.Client) {
	t.Helper()
	select {
	case data, ok := <-c.Send:
		if ok {
			t.Fatalf("client %s should not receive anything, got %s", c.ID, data)
		}
	default:
	}
}

func TestNewBroadcaster(t *testing.T) {
	b, reg := setup(t)
	require.NotNil(t, b)
	assert.Same(t, reg, b.Rooms)
}

func TestBroadcast_DeliversToRoomOnly(t *testing.T) {
	b, reg := setup(t)

	c1 := wshub.NewClient(nil, 4)
	c2 := wshub.NewClient(nil, 4)
	outsider := wshub.NewClient(nil, 4)
	reg.Join(c1, "BINGO1")
	reg.Join(c2, "BINGO1")
	reg.Join(outsider, "OTHER1")

	assert.Equal(t, 2, b.Broadcast("BINGO1", wshub.NewNumber(17)))

	want := `{"event":"new-number","data":17}`
	assert.Equal(t, want, receive(t, c1))
	assert.Equal(t, want, receive(t, c2))
	expectNothing(t, outsider)
}

func TestBroadcast_SkipsClosedMembers(t *testing.T) {
	b, reg := setup(t)

	open := wshub.NewClient(nil, 4)
	closed := wshub.NewClient(nil, 4)
	reg.Join(open, "BINGO1")
	reg.Join(closed, "BINGO1")
	closed.Close()

	assert.Equal(t, 1, b.Broadcast("BINGO1", wshub.NewNumber(3)))
	receive(t, open)
}

func TestBroadcast_FullMemberIsEvicted(t *testing.T) {
	b, reg := setup(t)

	full := wshub.NewClient(nil, 1)
	full.Send <- []byte("filler")
	ok := wshub.NewClient(nil, 4)
	reg.Join(full, "BINGO1")
	reg.Join(ok, "BINGO1")

	done := make(chan int)
	go func() {
		done <- b.Broadcast("BINGO1", wshub.NewNumber(9))
	}()

	select {
	case n := <-done:
		assert.Equal(t, 1, n)
	case <-time.After(1 * time.Second):
		t.Fatal("Broadcast blocked on full channel")
	}
	assert.Equal(t, `{"event":"new-number","data":9}`, receive(t, ok))

	assert.False(t, full.IsOpen())
	assert.Equal(t, "", full.Room())
	assert.Equal(t, []*wshub.Client{ok}, reg.MembersOf("BINGO1"))

	// Later numbers still reach the remaining member.
	assert.Equal(t, 1, b.Broadcast("BINGO1", wshub.NewNumber(10)))
	receive(t, ok)
}

func TestBroadcast_UnknownRoom(t *testing.T) {
	b, _ := setup(t)
	assert.Zero(t, b.Broadcast("NOPE42", wshub.NewNumber(1)))
}

func TestSendTo(t *testing.T) {
	b, reg := setup(t)

	requester := wshub.NewClient(nil, 4)
	peer := wshub.NewClient(nil, 4)
	reg.Join(requester, "BINGO1")
	reg.Join(peer, "BINGO1")

	require.NoError(t, b.SendTo(requester, wshub.ErrorMessage("number pool exhausted")))

	assert.Equal(t, `{"event":"error","data":"number pool exhausted"}`, receive(t, requester))
	expectNothing(t, peer)
}

func TestSendTo_ClosedClient(t *testing.T) {
	b, _ := setup(t)
	c := wshub.NewClient(nil, 4)
	c.Close()

	assert.ErrorIs(t, b.SendTo(c, wshub.ErrorMessage("x")), wshub.ErrClientClosed)
}
