package ws

import (
	"context"
	"fmt"
	"sync"

	"github.com/Wyydra/huddle/internal/core/domain"
	"github.com/Wyydra/huddle/internal/core/port"
	"github.com/rs/zerolog/log"
)

// Hub maps connection ids to live transport endpoints.
// implements port.RealTimeGateway
type Hub struct {
	mu      sync.RWMutex
	clients map[domain.ConnID]port.Connection
}

func NewHub() *Hub {
	return &Hub{
		clients: make(map[domain.ConnID]port.Connection),
	}
}

// Deliver queues ev on the connection. An unknown or closed connection is
// reported as domain.ErrStaleConnection.
func (h *Hub) Deliver(ctx context.Context, conn domain.ConnID, ev domain.Event) error {
	h.mu.RLock()
	client, ok := h.clients[conn]
	h.mu.RUnlock()
	if !ok {
		return fmt.Errorf("deliver to %s: %w", conn, domain.ErrStaleConnection)
	}
	return client.Send(ev)
}

func (h *Hub) Register(c port.Connection) {
	h.mu.Lock()
	h.clients[c.ID()] = c
	n := len(h.clients)
	h.mu.Unlock()
	log.Debug().Int("count", n).Str("conn_id", c.ID().String()).Msg("Client registered")
}

func (h *Hub) Unregister(c port.Connection) {
	h.mu.Lock()
	if cur, ok := h.clients[c.ID()]; ok && cur == c {
		delete(h.clients, c.ID())
	}
	n := len(h.clients)
	h.mu.Unlock()
	log.Debug().Int("count", n).Str("conn_id", c.ID().String()).Msg("Client unregistered")
}

func (h *Hub) Len() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// CloseAll closes every registered connection and empties the hub.
func (h *Hub) CloseAll() {
	h.mu.Lock()
	clients := h.clients
	h.clients = make(map[domain.ConnID]port.Connection)
	h.mu.Unlock()

	for id, client := range clients {
		if err := client.Close(); err != nil {
			log.Error().Err(err).Str("conn_id", id.String()).Msg("Error closing client connection")
		}
	}
}
