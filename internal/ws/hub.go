package ws

import (
	"encoding/json"
	"sync"
	"time"

	"github.com/poderjkapk-ux/cur-sub000/internal/structs"

	"go.uber.org/fx"
)

var Module = fx.Provide(NewHub)

// Sender is one live connection. *Client implements it over a websocket.
type Sender interface {
	Send(b []byte) error
	Close()
}

type identity struct {
	role structs.Role
	id   string
}

// Hub maps a courier or partner identity to at most one live connection.
type Hub struct {
	mu    sync.RWMutex
	conns map[identity]Sender
}

func NewHub() *Hub {
	return &Hub{
		conns: make(map[identity]Sender),
	}
}

// Register binds the identity to conn, replacing and closing any prior
// connection (last-connect-wins, no multi-device fan-out).
func (h *Hub) Register(role structs.Role, id string, conn Sender) {
	key := identity{role: role, id: id}

	h.mu.Lock()
	prev := h.conns[key]
	h.conns[key] = conn
	h.mu.Unlock()

	if prev != nil && prev != conn {
		prev.Close()
	}
}

// Unregister removes the mapping if it still points at conn. Idempotent.
func (h *Hub) Unregister(role structs.Role, id string, conn Sender) {
	key := identity{role: role, id: id}

	h.mu.Lock()
	defer h.mu.Unlock()

	if cur, ok := h.conns[key]; ok && cur == conn {
		delete(h.conns, key)
	}
}

// Send delivers the event best-effort. A dead connection is unregistered
// so stale entries never leak; the event is dropped when nobody listens.
func (h *Hub) Send(role structs.Role, id string, evt structs.Event) bool {
	key := identity{role: role, id: id}

	h.mu.RLock()
	conn, ok := h.conns[key]
	h.mu.RUnlock()
	if !ok {
		return false
	}

	evt.TS = time.Now().UTC()
	b, err := json.Marshal(evt)
	if err != nil {
		return false
	}

	if err := conn.Send(b); err != nil {
		h.Unregister(role, id, conn)
		conn.Close()
		return false
	}
	return true
}

// Online reports whether the identity currently holds a live connection.
func (h *Hub) Online(role structs.Role, id string) bool {
	h.mu.RLock()
	defer h.mu.RUnlock()

	_, ok := h.conns[identity{role: role, id: id}]
	return ok
}
