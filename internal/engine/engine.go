package engine

import (
	"errors"

	"github.com/google/uuid"
)

var ErrMissingMediaURL = errors.New("missing media url")
var ErrAlreadyVoted = errors.New("already voted this round")
var ErrUnknownMeme = errors.New("unknown meme")
var ErrUnsupportedCommand = errors.New("unsupported command")

type Role string

const (
	RoleHost   Role = "host"
	RolePlayer Role = "player"
)

// DefaultName stands in for players who never typed one.
const DefaultName = "Player"

type Player struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

type Meme struct {
	ID         string `json:"id"`
	PlayerName string `json:"playerName"`
	URL        string `json:"url"`
	Caption    string `json:"caption"`
	Votes      int    `json:"votes"`
}

// State is one room's authoritative state. HostID and VotesBySocket are
// internal bookkeeping and never leave the server; clients only ever see
// vote totals through each meme's Votes counter.
type State struct {
	HostID        string
	Memes         []Meme
	VotesBySocket map[string]string
	Players       map[string]Player
}

func NewEmptyState() State {
	return State{
		Memes:         []Meme{},
		VotesBySocket: map[string]string{},
		Players:       map[string]Player{},
	}
}

type CommandType string

const (
	CmdJoin   CommandType = "Join"
	CmdSubmit CommandType = "Submit"
	CmdVote   CommandType = "Vote"
	CmdClear  CommandType = "Clear"
	CmdLeave  CommandType = "Leave"
)

type Command struct {
	Type       CommandType
	SocketID   string
	Name       string
	Role       Role
	PlayerName string
	URL        string
	Caption    string
	MemeID     string
}

// Apply runs one transition against the room state. Rejections return the
// input state untouched together with the reason; the caller decides what
// to do with it (the room loop drops the command without broadcasting).
// A nil error always means a broadcast-worthy state, even when nothing
// changed (a spectator join mutates nothing but still announces the room).
func Apply(s State, cmd Command) (State, error) {
	newState := s

	switch cmd.Type {
	case CmdJoin:
		switch cmd.Role {
		case RoleHost:
			// Last writer wins. A displaced host is not notified.
			newState.HostID = cmd.SocketID
		case RolePlayer:
			name := cmd.Name
			if name == "" {
				name = DefaultName
			}
			newState.Players[cmd.SocketID] = Player{ID: cmd.SocketID, Name: name}
		default:
			// Spectator: subscribed upstream, owns no room state.
		}
		return newState, nil

	case CmdSubmit:
		if cmd.URL == "" {
			return s, ErrMissingMediaURL
		}
		playerName := cmd.PlayerName
		if playerName == "" {
			playerName = DefaultName
		}
		meme := Meme{
			ID:         uuid.NewString(),
			PlayerName: playerName,
			URL:        cmd.URL,
			Caption:    cmd.Caption,
			Votes:      0,
		}
		newState.Memes = append(newState.Memes, meme)
		return newState, nil

	case CmdVote:
		// One vote per socket per round, checked before anything mutates.
		if _, voted := s.VotesBySocket[cmd.SocketID]; voted {
			return s, ErrAlreadyVoted
		}
		idx := memeIndex(s, cmd.MemeID)
		if idx < 0 {
			return s, ErrUnknownMeme
		}
		newState.VotesBySocket[cmd.SocketID] = cmd.MemeID
		newState.Memes[idx].Votes++
		return newState, nil

	case CmdClear:
		// New round: memes and votes go together, players and host stay.
		newState.Memes = []Meme{}
		newState.VotesBySocket = map[string]string{}
		return newState, nil

	case CmdLeave:
		delete(newState.Players, cmd.SocketID)
		delete(newState.VotesBySocket, cmd.SocketID)
		if newState.HostID == cmd.SocketID {
			newState.HostID = ""
		}
		// Memes submitted by this socket outlive it on purpose.
		return newState, nil

	default:
		return s, ErrUnsupportedCommand
	}
}

func memeIndex(s State, memeID string) int {
	for i := range s.Memes {
		if s.Memes[i].ID == memeID {
			return i
		}
	}
	return -1
}

// PlayerList flattens the player map for snapshots. Order carries no
// meaning; consumers must not rely on it.
func PlayerList(s State) []Player {
	players := make([]Player, 0, len(s.Players))
	for _, p := range s.Players {
		players = append(players, p)
	}
	return players
}
