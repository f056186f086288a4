package realtime

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/neboloop/outfitswitch/internal/events"
	"github.com/neboloop/outfitswitch/internal/logging"
	"github.com/neboloop/outfitswitch/internal/payload"
)

const (
	// Time allowed to write a message to the peer.
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer.
	pongWait = 60 * time.Second

	// Send pings to peer with this period. Must be less than pongWait.
	pingPeriod = (pongWait * 9) / 10

	// Stream token batches can be large.
	maxMessageSize = 256 * 1024
)

var (
	ErrClientSendBufferFull = errors.New("client send buffer full")
	ErrClientClosed         = errors.New("client connection closed")
)

// Client is one connected host.
type Client struct {
	conn *websocket.Conn
	send chan []byte
	hub  *Hub

	ID string

	ctx    context.Context
	cancel context.CancelFunc

	closed   bool
	closedMu sync.RWMutex
}

func NewClient(conn *websocket.Conn, hub *Hub, id string) *Client {
	ctx, cancel := context.WithCancel(context.Background())
	return &Client{
		conn:   conn,
		hub:    hub,
		send:   make(chan []byte, 256),
		ID:     id,
		ctx:    ctx,
		cancel: cancel,
	}
}

// readPump reads frames until the connection drops.
func (c *Client) readPump() {
	defer func() {
		select {
		case c.hub.unregister <- c:
		case <-c.hub.done:
			c.Close()
		}
	}()

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, msg, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				logging.Errorf("WebSocket read error: %v", err)
			}
			return
		}
		c.handleTextMessage(msg)
	}
}

// writePump sends queued frames and keeps the connection alive with pings.
func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}

		case <-c.ctx.Done():
			return
		}
	}
}

func (c *Client) handleTextMessage(msg []byte) {
	var message Message
	if err := json.Unmarshal(msg, &message); err != nil {
		logging.L().Debug("ignoring malformed frame", zap.String("client", c.ID), zap.Error(err))
		return
	}
	c.handleMessage(&message)
}

func (c *Client) handleMessage(msg *Message) {
	switch msg.Type {
	case "ping":
		c.SendMessage(&Message{Type: "pong", Timestamp: time.Now()})
	case "event":
		c.handleEvent(msg)
	default:
		logging.L().Debug("unknown frame type", zap.String("type", msg.Type), zap.String("client", c.ID))
	}
}

// handleEvent posts a host lifecycle event. Frames carrying an id get an
// "ack" or "error" reply; others are fire-and-forget.
func (c *Client) handleEvent(msg *Message) {
	err := c.emitEvent(msg)
	if err != nil {
		logging.L().Debug("event dropped", zap.String("client", c.ID), zap.String("topic", msg.Topic), zap.Error(err))
	}
	if msg.ID == "" {
		return
	}
	reply := &Message{Type: "ack", ID: msg.ID, Topic: msg.Topic, Timestamp: time.Now()}
	if err != nil {
		reply.Type = "error"
		reply.Data = err.Error()
	}
	c.SendMessage(reply)
}

func (c *Client) emitEvent(msg *Message) error {
	if msg.Topic == "" {
		return errors.New("event frame without topic")
	}
	args, err := payload.ParseArgs(msg.Args)
	if err != nil {
		return fmt.Errorf("args are not JSON: %w", err)
	}
	return events.EmitHost(c.hub.subject, msg.Topic, args)
}

// SendMessage queues msg for the client.
func (c *Client) SendMessage(msg *Message) (err error) {
	// The channel may be closed between the check and the send.
	defer func() {
		if r := recover(); r != nil {
			err = ErrClientClosed
		}
	}()

	c.closedMu.RLock()
	if c.closed {
		c.closedMu.RUnlock()
		return ErrClientClosed
	}
	c.closedMu.RUnlock()

	data, err := json.Marshal(msg)
	if err != nil {
		return err
	}

	select {
	case c.send <- data:
		return nil
	default:
		return ErrClientSendBufferFull
	}
}

func (c *Client) IsClosed() bool {
	c.closedMu.RLock()
	defer c.closedMu.RUnlock()
	return c.closed
}

// Close closes the client connection. Safe to call more than once.
func (c *Client) Close() {
	c.closedMu.Lock()
	if c.closed {
		c.closedMu.Unlock()
		return
	}
	c.closed = true
	c.closedMu.Unlock()

	c.cancel()
	close(c.send)
	c.conn.Close()
}

// ServeWS registers conn with the hub and starts its pumps.
func ServeWS(hub *Hub, conn *websocket.Conn, clientID string) {
	client := NewClient(conn, hub, clientID)
	select {
	case hub.register <- client:
	case <-hub.done:
		conn.Close()
		return
	}

	go client.writePump()
	go client.readPump()
}
