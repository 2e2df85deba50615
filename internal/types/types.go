package types

import "github.com/pkozlov/meme-battle-backend/internal/room"

type ClientMessage struct {
	Type       string `json:"type"`
	RoomID     string `json:"roomId,omitempty"`
	Name       string `json:"name,omitempty"`
	Role       string `json:"role,omitempty"`
	PlayerName string `json:"playerName,omitempty"`
	URL        string `json:"url,omitempty"`
	Caption    string `json:"caption,omitempty"`
	MemeID     string `json:"memeId,omitempty"`
}

type ServerMessage struct {
	Type  string         `json:"type"` // "room_state"
	State *room.Snapshot `json:"state,omitempty"`
}
