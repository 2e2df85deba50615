package hub

import (
	"context"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/pkozlov/meme-battle-backend/internal/room"
)

type HubMsg interface{ isHubMsg() }

// EnsureRoom resolves a raw room key to its room, creating an empty one
// on first reference. The key is normalized first; callers reject empty
// keys before they get here.
type EnsureRoom struct {
	Key   string
	Reply chan *room.Room
}

type GetRoom struct {
	Key   string
	Reply chan *room.Room
}

type RemoveRoom struct {
	Key string
}

// BindSocket records which room a socket belongs to, overwriting any
// previous binding. Prev receives the displaced room id ("" if none).
type BindSocket struct {
	SocketID string
	RoomID   string
	Prev     chan string
}

// UnbindSocket removes and returns the socket's binding. Unbinding an
// unbound socket replies "" and changes nothing.
type UnbindSocket struct {
	SocketID string
	Reply    chan string
}

type ShutdownHub struct{}

func (EnsureRoom) isHubMsg()   {}
func (GetRoom) isHubMsg()      {}
func (RemoveRoom) isHubMsg()   {}
func (BindSocket) isHubMsg()   {}
func (UnbindSocket) isHubMsg() {}
func (ShutdownHub) isHubMsg()  {}

// NormalizeKey folds user-typed room codes onto one key: "abc " and
// "Abc" are the same room.
func NormalizeKey(raw string) string {
	return strings.ToUpper(strings.TrimSpace(raw))
}

// Hub owns the room map and the socket-to-room index. Both are touched
// only from the hub loop, which is the whole serialization story for
// this process: rooms get their own loops, the registry gets this one.
type Hub struct {
	inbox   chan HubMsg
	rooms   map[string]*room.Room
	sockets map[string]string // socket id -> room id, for disconnect cleanup
	idleTTL time.Duration     // 0 = rooms live for the process lifetime
	log     *zap.Logger
	ctx     context.Context
	cancel  context.CancelFunc
}

func NewHub(parent context.Context, log *zap.Logger, idleTTL time.Duration) *Hub {
	ctx, cancel := context.WithCancel(parent)
	h := &Hub{
		inbox:   make(chan HubMsg, 64),
		rooms:   make(map[string]*room.Room),
		sockets: make(map[string]string),
		idleTTL: idleTTL,
		log:     log,
		ctx:     ctx,
		cancel:  cancel,
	}
	go h.loop()
	return h
}

func (h *Hub) Inbox() chan<- HubMsg { return h.inbox }

func (h *Hub) loop() {
	var evict <-chan time.Time
	if h.idleTTL > 0 {
		t := time.NewTicker(h.idleTTL / 2)
		defer t.Stop()
		evict = t.C
	}

	for {
		select {
		case <-h.ctx.Done():
			h.shutdown()
			return

		case <-evict:
			h.evictIdle()

		case m := <-h.inbox:
			switch msg := m.(type) {
			case EnsureRoom:
				key := NormalizeKey(msg.Key)
				rm := h.rooms[key]
				if rm == nil {
					rm = room.NewRoom(h.ctx, key, h.log)
					h.rooms[key] = rm
					h.log.Info("room created", zap.String("room", key))
				}
				msg.Reply <- rm

			case GetRoom:
				msg.Reply <- h.rooms[NormalizeKey(msg.Key)] // May be nil

			case RemoveRoom:
				key := NormalizeKey(msg.Key)
				if rm := h.rooms[key]; rm != nil {
					rm.Inbox() <- room.Shutdown{}
					delete(h.rooms, key)
				}

			case BindSocket:
				prev := h.sockets[msg.SocketID]
				h.sockets[msg.SocketID] = msg.RoomID
				msg.Prev <- prev

			case UnbindSocket:
				prev := h.sockets[msg.SocketID]
				delete(h.sockets, msg.SocketID)
				msg.Reply <- prev

			case ShutdownHub:
				h.shutdown()
				return
			}
		}
	}
}

// evictIdle removes rooms nobody is subscribed to and nothing has
// touched for idleTTL. Bound sockets always hold a subscription, so an
// evicted room cannot be one a live socket still points at.
func (h *Hub) evictIdle() {
	cutoff := time.Now().Add(-h.idleTTL)
	for key, rm := range h.rooms {
		reply := make(chan room.View, 1)
		select {
		case rm.Inbox() <- room.GetState{Reply: reply}:
		default:
			// Inbox backed up means the room is busy, not idle; skip it
			// this tick instead of blocking the hub loop behind it.
			continue
		}
		v := <-reply
		if v.NumClients == 0 && v.LastActive.Before(cutoff) {
			rm.Inbox() <- room.Shutdown{}
			delete(h.rooms, key)
			h.log.Info("idle room evicted", zap.String("room", key))
		}
	}
}

func (h *Hub) shutdown() {
	for _, rm := range h.rooms {
		rm.Inbox() <- room.Shutdown{}
	}
	clear(h.rooms)
	clear(h.sockets)
	h.cancel()
}
