package realtime

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/neboloop/outfitswitch/internal/events"
	"github.com/neboloop/outfitswitch/internal/issuer"
	"github.com/neboloop/outfitswitch/internal/logging"
)

// ErrNoClients is returned when a costume command has nowhere to go.
var ErrNoClients = errors.New("no host connected")

// Message is the wire frame exchanged with hosts.
type Message struct {
	Type      string          `json:"type"`
	ID        string          `json:"id,omitempty"` // echoed in ack/error replies
	Topic     string          `json:"topic,omitempty"`
	Args      json.RawMessage `json:"args,omitempty"`
	Data      any             `json:"data,omitempty"`
	Timestamp time.Time       `json:"timestamp,omitempty"`
}

// Hub tracks connected hosts. Inbound lifecycle events are posted to the
// subject; outbound costume commands go to every client.
type Hub struct {
	subject *events.Subject

	register   chan *Client
	unregister chan *Client
	done       chan struct{}

	mu      sync.RWMutex
	clients map[string]*Client
}

// NewHub creates a hub that posts inbound events to subject.
func NewHub(subject *events.Subject) *Hub {
	return &Hub{
		subject:    subject,
		register:   make(chan *Client),
		unregister: make(chan *Client),
		done:       make(chan struct{}),
		clients:    make(map[string]*Client),
	}
}

// Run processes registrations until ctx is done, then closes every client.
func (h *Hub) Run(ctx context.Context) {
	defer close(h.done)
	for {
		select {
		case c := <-h.register:
			h.mu.Lock()
			h.clients[c.ID] = c
			h.mu.Unlock()
			logging.L().Info("host connected", zap.String("client", c.ID))

		case c := <-h.unregister:
			h.mu.Lock()
			if cur, ok := h.clients[c.ID]; ok && cur == c {
				delete(h.clients, c.ID)
			}
			h.mu.Unlock()
			c.Close()
			logging.L().Info("host disconnected", zap.String("client", c.ID))

		case <-ctx.Done():
			h.mu.Lock()
			for id, c := range h.clients {
				c.Close()
				delete(h.clients, id)
			}
			h.mu.Unlock()
			return
		}
	}
}

// ClientCount reports how many hosts are connected.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// Broadcast sends msg to every client. It returns how many accepted it.
func (h *Hub) Broadcast(msg *Message) int {
	h.mu.RLock()
	clients := make([]*Client, 0, len(h.clients))
	for _, c := range h.clients {
		clients = append(clients, c)
	}
	h.mu.RUnlock()

	sent := 0
	for _, c := range clients {
		if err := c.SendMessage(msg); err != nil {
			logging.L().Warn("dropping frame for host", zap.String("client", c.ID), zap.Error(err))
			continue
		}
		sent++
	}
	return sent
}

// Execute delivers a costume command to connected hosts. It fails when no
// host accepted it.
func (h *Hub) Execute(_ context.Context, cmd issuer.Command) error {
	sent := h.Broadcast(&Message{Type: "costume", Data: cmd, Timestamp: time.Now()})
	if sent == 0 {
		return fmt.Errorf("deliver %s: %w", cmd.Text, ErrNoClients)
	}
	return nil
}
