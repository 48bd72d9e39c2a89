// Package live pushes order changes to connected admin dashboards over websockets.
package live

import (
	"context"
	"encoding/json"

	"annies-bakery/internal/metrics"

	"github.com/rs/zerolog"
)

// Event is one order change as seen by the admin dashboard.
type Event struct {
	Type          string `json:"type"`
	OrderID       string `json:"order_id"`
	Status        string `json:"status"`
	PaymentStatus string `json:"payment_status"`
	UpdatedAt     string `json:"updated_at,omitempty"`
}

// Event types.
const (
	EventOrderCreated = "order.created"
	EventOrderUpdated = "order.updated"
	EventOrderDeleted = "order.deleted"
)

type client struct {
	send chan []byte
}

// Hub fans events out to every registered client.
type Hub struct {
	register   chan *client
	unregister chan *client
	broadcast  chan Event
	done       chan struct{}
	clients    map[*client]bool
	metrics    *metrics.Metrics
	logger     zerolog.Logger
}

// NewHub creates a hub. Run must be started before clients connect.
func NewHub(m *metrics.Metrics, logger zerolog.Logger) *Hub {
	return &Hub{
		register:   make(chan *client),
		unregister: make(chan *client),
		broadcast:  make(chan Event, 64),
		done:       make(chan struct{}),
		clients:    make(map[*client]bool),
		metrics:    m,
		logger:     logger.With().Str("component", "live").Logger(),
	}
}

// Run serves registrations and broadcasts until ctx is cancelled. It must be
// called once.
func (h *Hub) Run(ctx context.Context) {
	defer close(h.done)
	for {
		select {
		case c := <-h.register:
			h.clients[c] = true
			h.metrics.LiveClients(1)
		case c := <-h.unregister:
			h.drop(c)
		case ev := <-h.broadcast:
			msg, err := json.Marshal(ev)
			if err != nil {
				h.logger.Error().Err(err).Msg("failed to encode live event")
				continue
			}
			for c := range h.clients {
				select {
				case c.send <- msg:
				default:
					h.logger.Warn().Msg("dropping slow live client")
					h.drop(c)
				}
			}
		case <-ctx.Done():
			for c := range h.clients {
				h.drop(c)
			}
			return
		}
	}
}

// Publish queues ev for broadcast. It never blocks: when the queue is full
// the event is discarded.
func (h *Hub) Publish(ev Event) {
	select {
	case h.broadcast <- ev:
	default:
		h.logger.Warn().Str("order_id", ev.OrderID).Msg("live event queue full, event dropped")
	}
}

// leave unregisters c unless ctx ends first or the hub has stopped.
func (h *Hub) leave(ctx context.Context, c *client) {
	select {
	case h.unregister <- c:
	case <-h.done:
	case <-ctx.Done():
	}
}

func (h *Hub) drop(c *client) {
	if _, ok := h.clients[c]; !ok {
		return
	}
	delete(h.clients, c)
	close(c.send)
	h.metrics.LiveClients(-1)
}
