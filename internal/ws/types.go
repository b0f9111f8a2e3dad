package ws

import "github.com/chancov/WebAppMiningGameTG/internal/events"

const (
	// client - server
	MsgPing = "ping"

	// server - client
	MsgReady = "ready"
	MsgPong  = "pong"
	MsgEvent = "event"
)

// Message is the envelope of every frame the server sends.
type Message struct {
	Type  string        `json:"type"`
	Event *events.Event `json:"event,omitempty"`
}
