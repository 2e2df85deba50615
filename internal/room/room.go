package room

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/pkozlov/meme-battle-backend/internal/engine"
)

type Msg interface{ isRoomMsg() }

type FromClient struct {
	Cmd engine.Command
}

func (FromClient) isRoomMsg() {}

// Subscribe registers an outbox for snapshot delivery. It does not touch
// room state; joining as host/player/spectator is a separate FromClient.
type Subscribe struct {
	SocketID string
	Outbox   chan Snapshot // where this socket wants to receive snapshots
}

func (Subscribe) isRoomMsg() {}

type Unsubscribe struct{ SocketID string }

func (Unsubscribe) isRoomMsg() {}

// Disconnect is the transport telling us a socket is gone for good:
// drop its subscription, run the leave transition, broadcast.
type Disconnect struct{ SocketID string }

func (Disconnect) isRoomMsg() {}

type Shutdown struct{}

func (Shutdown) isRoomMsg() {}

type GetState struct {
	Reply chan View
}

func (GetState) isRoomMsg() {}

// Snapshot is the externally visible projection of the room. Vote and
// host bookkeeping stay out of it so nobody can learn who voted for what.
type Snapshot struct {
	RoomID  string          `json:"roomId"`
	Memes   []engine.Meme   `json:"memes"`
	Players []engine.Player `json:"players"`
}

type View struct {
	NumClients int
	LastActive time.Time
	State      engine.State
}

type Room struct {
	id      string
	inbox   chan Msg
	state   engine.State
	clients map[string]chan Snapshot
	active  time.Time
	log     *zap.Logger
	ctx     context.Context
	cancel  context.CancelFunc
}

func NewRoom(parent context.Context, id string, log *zap.Logger) *Room {
	ctx, cancel := context.WithCancel(parent)

	r := &Room{
		id:      id,
		inbox:   make(chan Msg, 64), // Small buffer
		state:   engine.NewEmptyState(),
		clients: make(map[string]chan Snapshot),
		active:  time.Now(),
		log:     log.With(zap.String("room", id)),
		ctx:     ctx,
		cancel:  cancel,
	}

	go r.loop()
	return r
}

func (r *Room) ID() string { return r.id }

// Expose the inbox so tests or the WS layer can send messages.
func (r *Room) Inbox() chan<- Msg { return r.inbox }

func (r *Room) loop() {
	for {
		select {
		case <-r.ctx.Done():
			r.shutdown()
			return

		case m := <-r.inbox:
			switch msg := m.(type) {
			case Subscribe:
				// Register the socket + send the current snapshot immediately
				// so a late joiner renders without waiting for a mutation.
				// Same drop policy as broadcast: a subscriber arriving with
				// a full outbox is dropped rather than waited on, so one
				// stuck socket cannot stall the room.
				r.clients[msg.SocketID] = msg.Outbox
				r.active = time.Now()
				select {
				case msg.Outbox <- r.snapshot():
					//ok
				default:
					r.log.Warn("dropping subscriber with full outbox", zap.String("socket", msg.SocketID))
					delete(r.clients, msg.SocketID)
				}

			case Unsubscribe:
				delete(r.clients, msg.SocketID)

			case Disconnect:
				delete(r.clients, msg.SocketID)
				r.apply(engine.Command{Type: engine.CmdLeave, SocketID: msg.SocketID})

			case FromClient:
				r.apply(msg.Cmd)

			case GetState:
				// test/eviction hook: reflect internal state without data races
				msg.Reply <- View{
					NumClients: len(r.clients),
					LastActive: r.active,
					State:      r.state,
				}

			case Shutdown:
				r.shutdown()
				return
			}
		}
	}
}

// apply runs one engine transition. Rejected commands are dropped
// without a broadcast; that silence is the protocol, not an oversight.
func (r *Room) apply(cmd engine.Command) {
	newState, err := engine.Apply(r.state, cmd)
	if err != nil {
		r.log.Debug("command ignored",
			zap.String("cmd", string(cmd.Type)),
			zap.String("socket", cmd.SocketID),
			zap.Error(err))
		return
	}
	r.state = newState
	r.active = time.Now()
	r.broadcast(r.snapshot())
}

func (r *Room) snapshot() Snapshot {
	// Copy the meme list: snapshots outlive this loop iteration and a
	// later vote increments counters in place.
	memes := make([]engine.Meme, len(r.state.Memes))
	copy(memes, r.state.Memes)
	return Snapshot{
		RoomID:  r.id,
		Memes:   memes,
		Players: engine.PlayerList(r.state),
	}
}

func (r *Room) broadcast(snap Snapshot) {
	for id, ch := range r.clients {
		select {
		case ch <- snap:
			//ok
		default:
			// Client is slow/full - drop them. The outbox stays open:
			// only shutdown closes outboxes, so the same channel can
			// safely show up in a later Subscribe.
			r.log.Warn("dropping slow client", zap.String("socket", id))
			delete(r.clients, id)
		}
	}
}

func (r *Room) shutdown() {
	for id, ch := range r.clients {
		close(ch) // Tell client no more snapshots
		delete(r.clients, id)
	}
	r.cancel()
}
