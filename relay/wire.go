// Package relay speaks the lobby relay protocol: a websocket carrying
// JSON envelopes of named broadcast events plus presence tracking, one
// channel per lobby.
package relay

import (
	"encoding/json"
	"fmt"
)

const (
	TypeBroadcast = "broadcast"
	TypePresence  = "presence"

	EventPlayerMove = "player-move"
	EventChat       = "chat"
	EventCollect    = "collect"
	EventTrack      = "track"
	EventSync       = "sync"
	EventLeave      = "leave"
)

// ChannelName scopes a relay channel to one lobby.
func ChannelName(lobbyID string) string {
	return "lobby:" + lobbyID
}

type Envelope struct {
	Type    string          `json:"type"`
	Event   string          `json:"event"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

func NewEnvelope(typ, event string, payload interface{}) (Envelope, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return Envelope{}, fmt.Errorf("encode %s/%s payload: %w", typ, event, err)
	}
	return Envelope{Type: typ, Event: event, Payload: raw}, nil
}

type Position struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
}

type Rotation struct {
	Y float64 `json:"y"`
}

type Quaternion struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
	W float64 `json:"w"`
}

// MovePayload is one movement snapshot. Quaternion is optional: legacy
// senders carry only the yaw in Rotation. Animation and Username default on
// the receiving side when absent.
type MovePayload struct {
	ID         string      `json:"id"`
	Position   Position    `json:"position"`
	Rotation   Rotation    `json:"rotation"`
	Quaternion *Quaternion `json:"quaternion,omitempty"`
	Animation  string      `json:"animation,omitempty"`
	Username   string      `json:"username,omitempty"`
}

type ChatPayload struct {
	ID       string `json:"id"`
	Username string `json:"username"`
	Message  string `json:"message"`
	TS       int64  `json:"ts"`
}

type CollectPayload struct {
	GemID    string `json:"gemId"`
	Username string `json:"username"`
}

// PresenceRecord is one connected client as tracked by the relay.
type PresenceRecord struct {
	ID       string `json:"id"`
	Username string `json:"username"`
	LobbyID  string `json:"lobbyId"`
	OnlineAt string `json:"online_at"`
}

// SyncPayload carries the full current presence set for the channel.
type SyncPayload struct {
	Presences []PresenceRecord `json:"presences"`
}

// LeavePayload lists clients that just departed the channel.
type LeavePayload struct {
	LeftPresences []PresenceRecord `json:"leftPresences"`
}
