package ws

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/coder/websocket"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/pkozlov/meme-battle-backend/internal/engine"
	"github.com/pkozlov/meme-battle-backend/internal/hub"
	"github.com/pkozlov/meme-battle-backend/internal/room"
	"github.com/pkozlov/meme-battle-backend/internal/types"
)

const writeTimeout = 3 * time.Second

// Handler is the connection lifecycle glue: accept the socket, feed
// inbound frames into the room the frame names, stream snapshots back
// out, and run leave cleanup when the socket goes away. A socket may
// re-join into a different room mid-life; the most recent join wins.
func Handler(h *hub.Hub, log *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
			// In dev ONLY, you can loosen origin checks:
			// OriginPatterns: []string{"http://localhost:*", "http://127.0.0.1:*"},
		})
		if err != nil {
			return
		}
		defer conn.Close(websocket.StatusNormalClosure, "bye")

		socketID := uuid.NewString()
		// Every join_room gets a fresh outbox (a room may have dropped a
		// previous one as slow); the writer picks up the current channel
		// through swap.
		swap := make(chan chan room.Snapshot, 1)
		log.Info("socket connected", zap.String("socket", socketID))

		defer func() {
			reply := make(chan string, 1)
			h.Inbox() <- hub.UnbindSocket{SocketID: socketID, Reply: reply}
			if roomID := <-reply; roomID != "" {
				rm := ensureRoom(h, roomID)
				rm.Inbox() <- room.Disconnect{SocketID: socketID}
			}
			log.Info("socket disconnected", zap.String("socket", socketID))
		}()

		// Writer goroutine
		writeCtx, writeCancel := context.WithCancel(r.Context())
		defer writeCancel()
		go func() {
			var out chan room.Snapshot // nil until the first join
			for {
				select {
				case out = <-swap:
				case snap, ok := <-out:
					if !ok {
						// Closed by room shutdown; wait for the next swap.
						out = nil
						continue
					}
					msg := types.ServerMessage{Type: "room_state", State: &snap}
					payload, _ := json.Marshal(msg)
					ctx, cancel := context.WithTimeout(writeCtx, writeTimeout)
					_ = conn.Write(ctx, websocket.MessageText, payload)
					cancel()
				case <-writeCtx.Done():
					return
				}
			}
		}()

		// Reader loop
		for {
			_, data, err := conn.Read(r.Context())
			if err != nil {
				// Treat clean close/going-away as normal:
				switch websocket.CloseStatus(err) {
				case websocket.StatusNormalClosure, websocket.StatusGoingAway:
					return
				}
				// Otherwise, just exit (cleanup in defer):
				return
			}

			var cm types.ClientMessage
			if err := json.Unmarshal(data, &cm); err != nil {
				// Malformed frames are dropped; the socket stays up.
				continue
			}

			dispatch(h, socketID, swap, cm)
		}
	}
}

// dispatch routes one client frame. Every malformed or out-of-order
// frame degrades to a no-op: no state change, no broadcast, no error
// back to the client.
func dispatch(h *hub.Hub, socketID string, swap chan<- chan room.Snapshot, cm types.ClientMessage) {
	switch cm.Type {
	case "join_room":
		if cm.RoomID == "" {
			return
		}
		rm := ensureRoom(h, cm.RoomID)

		prevCh := make(chan string, 1)
		h.Inbox() <- hub.BindSocket{SocketID: socketID, RoomID: rm.ID(), Prev: prevCh}
		if prev := <-prevCh; prev != "" && prev != rm.ID() {
			// One room at a time: stop listening to the old one. Its
			// player entry stays until this socket actually disconnects.
			if old := getRoom(h, prev); old != nil {
				old.Inbox() <- room.Unsubscribe{SocketID: socketID}
			}
		}

		out := make(chan room.Snapshot, 8)
		swap <- out
		rm.Inbox() <- room.Subscribe{SocketID: socketID, Outbox: out}
		rm.Inbox() <- room.FromClient{Cmd: engine.Command{
			Type:     engine.CmdJoin,
			SocketID: socketID,
			Name:     cm.Name,
			Role:     engine.Role(cm.Role),
		}}

	case "submit_meme":
		if cm.RoomID == "" || cm.URL == "" {
			return
		}
		rm := ensureRoom(h, cm.RoomID)
		rm.Inbox() <- room.FromClient{Cmd: engine.Command{
			Type:       engine.CmdSubmit,
			SocketID:   socketID,
			PlayerName: cm.PlayerName,
			URL:        cm.URL,
			Caption:    cm.Caption,
		}}

	case "vote":
		if cm.RoomID == "" || cm.MemeID == "" {
			return
		}
		rm := ensureRoom(h, cm.RoomID)
		rm.Inbox() <- room.FromClient{Cmd: engine.Command{
			Type:     engine.CmdVote,
			SocketID: socketID,
			MemeID:   cm.MemeID,
		}}

	case "clear_memes":
		if cm.RoomID == "" {
			return
		}
		rm := ensureRoom(h, cm.RoomID)
		rm.Inbox() <- room.FromClient{Cmd: engine.Command{
			Type:     engine.CmdClear,
			SocketID: socketID,
		}}
	}
}

func ensureRoom(h *hub.Hub, key string) *room.Room {
	reply := make(chan *room.Room, 1)
	h.Inbox() <- hub.EnsureRoom{Key: key, Reply: reply}
	return <-reply
}

func getRoom(h *hub.Hub, key string) *room.Room {
	reply := make(chan *room.Room, 1)
	h.Inbox() <- hub.GetRoom{Key: key, Reply: reply}
	return <-reply
}
