package server

import (
	"encoding/json"
	"sync"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/topoview/pkg/observability"
)

// hub tracks connected clients and fans frames out to them.
type hub struct {
	mu      sync.RWMutex
	clients map[*client]struct{}
	logger  *log.Logger
}

func newHub(logger *log.Logger) *hub {
	return &hub{clients: map[*client]struct{}{}, logger: logger}
}

func (h *hub) register(c *client) {
	h.mu.Lock()
	h.clients[c] = struct{}{}
	n := len(h.clients)
	h.mu.Unlock()
	observability.Session().OnSessionChange(n)
	h.logger.Info("client connected", "id", c.id, "clients", n)
}

// unregister removes c and closes its send queue. It is idempotent.
func (h *hub) unregister(c *client) {
	h.mu.Lock()
	_, ok := h.clients[c]
	if ok {
		delete(h.clients, c)
		close(c.send)
	}
	n := len(h.clients)
	h.mu.Unlock()
	if ok {
		observability.Session().OnSessionChange(n)
		h.logger.Info("client disconnected", "id", c.id, "clients", n)
	}
}

func (h *hub) count() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// broadcast queues msg for every client. A client whose queue is full
// misses the frame; the next one supersedes it.
func (h *hub) broadcast(msg serverMessage) {
	data, err := json.Marshal(msg)
	if err != nil {
		h.logger.Error("encode message", "err", err)
		return
	}
	dropped := 0
	h.mu.RLock()
	for c := range h.clients {
		select {
		case c.send <- data:
		default:
			dropped++
			h.logger.Warn("dropped frame for slow client", "id", c.id)
		}
	}
	h.mu.RUnlock()
	if msg.Type == msgFrame {
		observability.Session().OnFrame(len(data), dropped)
	}
}

// sendTo queues msg for c only.
func (h *hub) sendTo(c *client, msg serverMessage) {
	data, err := json.Marshal(msg)
	if err != nil {
		h.logger.Error("encode message", "err", err)
		return
	}
	h.mu.RLock()
	defer h.mu.RUnlock()
	if _, ok := h.clients[c]; !ok {
		return
	}
	select {
	case c.send <- data:
	default:
		h.logger.Warn("dropped message for slow client", "id", c.id, "type", msg.Type)
	}
}

func (h *hub) closeAll() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for c := range h.clients {
		delete(h.clients, c)
		close(c.send)
	}
}
