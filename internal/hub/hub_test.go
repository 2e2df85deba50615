package hub

import (
	"context"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/pkozlov/meme-battle-backend/internal/room"
)

func newTestHub(t *testing.T, idleTTL time.Duration) *Hub {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	return NewHub(ctx, zap.NewNop(), idleTTL)
}

func ensure(t *testing.T, h *Hub, key string) *room.Room {
	t.Helper()
	reply := make(chan *room.Room, 1)
	h.Inbox() <- EnsureRoom{Key: key, Reply: reply}
	select {
	case rm := <-reply:
		return rm
	case <-time.After(time.Second):
		t.Fatalf("timed out resolving room %q", key)
		return nil // unreachable
	}
}

func TestNormalizeKey(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"abc ", "ABC"},
		{"ABC", "ABC"},
		{"Abc", "ABC"},
		{"  x1\t", "X1"},
		{"", ""},
	}
	for _, tc := range cases {
		if got := NormalizeKey(tc.in); got != tc.want {
			t.Fatalf("NormalizeKey(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestHub_EnsureGetSamePointer(t *testing.T) {
	h := newTestHub(t, 0)

	rm1 := ensure(t, h, "x1")
	reply := make(chan *room.Room, 1)
	h.Inbox() <- GetRoom{Key: "x1", Reply: reply}
	rm2 := <-reply

	if rm1 == nil || rm2 == nil || rm1 != rm2 {
		t.Fatalf("expected same room pointer")
	}
}

// Joining "abc ", "ABC", and "Abc" must all land in the same room.
func TestHub_KeyVariantsResolveToOneRoom(t *testing.T) {
	h := newTestHub(t, 0)

	rm1 := ensure(t, h, "abc ")
	rm2 := ensure(t, h, "ABC")
	rm3 := ensure(t, h, "Abc")

	if rm1 != rm2 || rm2 != rm3 {
		t.Fatalf("key variants should resolve to one room")
	}
	if rm1.ID() != "ABC" {
		t.Fatalf("want normalized id ABC, got %q", rm1.ID())
	}
}

func TestHub_GetUnknownRoomIsNil(t *testing.T) {
	h := newTestHub(t, 0)

	reply := make(chan *room.Room, 1)
	h.Inbox() <- GetRoom{Key: "NOPE", Reply: reply}
	if rm := <-reply; rm != nil {
		t.Fatalf("expected nil for unknown room, got %v", rm)
	}
}

func TestHub_BindUnbind(t *testing.T) {
	h := newTestHub(t, 0)

	prev := make(chan string, 1)
	h.Inbox() <- BindSocket{SocketID: "s1", RoomID: "X1", Prev: prev}
	if p := <-prev; p != "" {
		t.Fatalf("first bind should have no previous room, got %q", p)
	}

	// Re-binding overwrites and reports the displaced room.
	h.Inbox() <- BindSocket{SocketID: "s1", RoomID: "Y2", Prev: prev}
	if p := <-prev; p != "X1" {
		t.Fatalf("want displaced X1, got %q", p)
	}

	reply := make(chan string, 1)
	h.Inbox() <- UnbindSocket{SocketID: "s1", Reply: reply}
	if p := <-reply; p != "Y2" {
		t.Fatalf("unbind should return Y2, got %q", p)
	}

	// Unbinding an unbound socket is a no-op returning "".
	h.Inbox() <- UnbindSocket{SocketID: "s1", Reply: reply}
	if p := <-reply; p != "" {
		t.Fatalf("second unbind should return empty, got %q", p)
	}
}

func TestHub_IdleEviction(t *testing.T) {
	h := newTestHub(t, 50*time.Millisecond)

	rm := ensure(t, h, "IDLE1")
	if rm == nil {
		t.Fatalf("expected room")
	}

	// Busy room: one subscriber keeps it alive regardless of idleness.
	busy := ensure(t, h, "BUSY1")
	out := make(chan room.Snapshot, 2)
	busy.Inbox() <- room.Subscribe{SocketID: "s1", Outbox: out}
	<-out

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		reply := make(chan *room.Room, 1)
		h.Inbox() <- GetRoom{Key: "IDLE1", Reply: reply}
		if <-reply == nil {
			// Evicted. The busy room must still be there.
			reply = make(chan *room.Room, 1)
			h.Inbox() <- GetRoom{Key: "BUSY1", Reply: reply}
			if <-reply == nil {
				t.Fatalf("room with a subscriber must not be evicted")
			}
			return
		}
		time.Sleep(20 * time.Millisecond)
	}
	t.Fatalf("idle room was never evicted")
}
