package ws

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/chancov/WebAppMiningGameTG/internal/events"
	"github.com/chancov/WebAppMiningGameTG/internal/logger"
)

// Hub tracks connected clients per account identity and pushes each
// committed economy event to the connections of the account it concerns.
type Hub struct {
	mu      sync.RWMutex
	clients map[string]map[*Client]struct{}
}

func NewHub() *Hub {
	return &Hub{clients: make(map[string]map[*Client]struct{})}
}

func (h *Hub) Register(c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	set, ok := h.clients[c.Identity]
	if !ok {
		set = make(map[*Client]struct{})
		h.clients[c.Identity] = set
	}
	set[c] = struct{}{}
	logger.Debug("ws client registered", "telegram_id", c.Identity, "connections", len(set))
}

func (h *Hub) OnDisconnect(c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	set, ok := h.clients[c.Identity]
	if !ok {
		return
	}
	if _, ok := set[c]; ok {
		delete(set, c)
		close(c.Send)
	}
	if len(set) == 0 {
		delete(h.clients, c.Identity)
	}
}

// Connections returns how many sockets identity has open.
func (h *Hub) Connections(identity string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients[identity])
}

// Publish implements events.Publisher. Slow clients whose buffer is full
// miss the event rather than block the caller.
func (h *Hub) Publish(_ context.Context, e events.Event) {
	msg, err := json.Marshal(Message{Type: MsgEvent, Event: &e})
	if err != nil {
		logger.Error("ws encode event", "error", err)
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()

	for c := range h.clients[e.Identity] {
		select {
		case c.Send <- msg:
		default:
			logger.Warn("ws send buffer full, dropping event", "telegram_id", e.Identity, "type", e.Type)
		}
	}
}

var _ events.Publisher = (*Hub)(nil)
