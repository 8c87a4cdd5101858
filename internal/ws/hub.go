package ws

import (
	"encoding/json"
	"sync"

	"microwallet/internal/domain"
	"microwallet/internal/logger"
)

// Hub tracks open sessions per user and fans balance events out to them
type Hub struct {
	mu      sync.RWMutex
	clients map[int64]map[*Client]struct{}
}

func NewHub() *Hub {
	return &Hub{clients: make(map[int64]map[*Client]struct{})}
}

func (h *Hub) Register(c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	set, ok := h.clients[c.UserID]
	if !ok {
		set = make(map[*Client]struct{})
		h.clients[c.UserID] = set
	}
	set[c] = struct{}{}
	logger.Debug("ws session opened", "user_id", c.UserID, "sessions", len(set))
}

// Unregister removes c and closes its send queue. Safe to call twice.
func (h *Hub) Unregister(c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	set, ok := h.clients[c.UserID]
	if !ok {
		return
	}
	if _, ok := set[c]; !ok {
		return
	}
	delete(set, c)
	close(c.Send)
	if len(set) == 0 {
		delete(h.clients, c.UserID)
	}
	logger.Debug("ws session closed", "user_id", c.UserID)
}

// Sessions returns the number of open sessions for userID
func (h *Hub) Sessions(userID int64) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients[userID])
}

// Publish delivers each event to the owning user's sessions. A session whose
// queue is full is dropped rather than blocking the caller.
func (h *Hub) Publish(events ...domain.BalanceEvent) {
	for _, ev := range events {
		msg, err := json.Marshal(newBalanceUpdate(ev))
		if err != nil {
			logger.Error("ws marshal balance update", "error", err)
			continue
		}
		h.send(ev.UserID, msg)
	}
}

func (h *Hub) send(userID int64, msg []byte) {
	var slow []*Client

	h.mu.RLock()
	for c := range h.clients[userID] {
		select {
		case c.Send <- msg:
		default:
			slow = append(slow, c)
		}
	}
	h.mu.RUnlock()

	for _, c := range slow {
		logger.Warn("ws send queue full, dropping session", "user_id", userID)
		h.Unregister(c)
	}
}
