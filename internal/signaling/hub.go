package signaling

import (
	"context"
	"fmt"
	"net/http"
	"runtime/debug"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
)

const (
	// Time allowed to write a message to the peer.
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer.
	pongWait = 60 * time.Second

	// Send pings to peer with this period. Must be less than pongWait.
	pingPeriod = (pongWait * 9) / 10

	// JPEG frames arrive base64 encoded over the same socket.
	maxMessageSize = 2 << 20

	sendBufferSize = 64

	panicRecoveryDelay = 100 * time.Millisecond
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  4096,
	WriteBufferSize: 4096,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// Client is one WebSocket connection.
type Client struct {
	id   string
	conn *websocket.Conn
	send chan []byte
	hub  *Hub

	closeOnce sync.Once
	closed    atomic.Bool
}

// SafeSend queues data without blocking. It returns false when the client is
// gone or its buffer is full.
func (c *Client) SafeSend(data []byte) (sent bool) {
	defer func() {
		if r := recover(); r != nil {
			sent = false
		}
	}()

	if c.closed.Load() {
		return false
	}
	select {
	case c.send <- data:
		return true
	default:
		return false
	}
}

// Close closes the send channel exactly once.
func (c *Client) Close() {
	c.closeOnce.Do(func() {
		c.closed.Store(true)
		close(c.send)
	})
}

type inboundMessage struct {
	client *Client
	data   []byte
}

// Hub owns the WebSocket clients and feeds every event into the relay from a
// single goroutine, so relay transitions are ordered per session.
type Hub struct {
	registry *Registry
	relay    *Relay
	logger   zerolog.Logger

	// Only touched by the run loop.
	clients map[string]*Client

	register   chan *Client
	unregister chan *Client
	inbound    chan inboundMessage
	done       chan struct{}
}

func NewHub(registry *Registry, logger zerolog.Logger) *Hub {
	h := &Hub{
		registry:   registry,
		logger:     logger.With().Str("component", "hub").Logger(),
		clients:    make(map[string]*Client),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		inbound:    make(chan inboundMessage, 256),
		done:       make(chan struct{}),
	}
	h.relay = NewRelay(registry, h, logger)
	return h
}

func (h *Hub) Registry() *Registry {
	return h.registry
}

// Send implements Sender. Called from the run loop only.
func (h *Hub) Send(sessionID string, payload []byte) bool {
	client, ok := h.clients[sessionID]
	if !ok {
		return false
	}
	return client.SafeSend(payload)
}

// Run processes hub events until ctx is cancelled, restarting the loop after a panic.
func (h *Hub) Run(ctx context.Context) {
	defer close(h.done)
	defer h.closeAll()

	for {
		if err := h.runLoop(ctx); err != nil {
			if err == context.Canceled || err == context.DeadlineExceeded {
				h.logger.Info().Msg("Hub shutting down")
				return
			}
			h.logger.Error().Err(err).Msg("Hub loop crashed, restarting")
			time.Sleep(panicRecoveryDelay)
		}
	}
}

func (h *Hub) runLoop(ctx context.Context) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("hub panic: %v\n%s", r, debug.Stack())
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case client := <-h.register:
			h.clients[client.id] = client
			h.relay.Connect(client.id)
			h.logger.Debug().Str("session_id", client.id).Msg("Client connected")

		case client := <-h.unregister:
			if _, ok := h.clients[client.id]; ok {
				delete(h.clients, client.id)
				h.relay.Disconnect(client.id)
				client.Close()
				h.logger.Debug().Str("session_id", client.id).Msg("Client disconnected")
			}

		case msg := <-h.inbound:
			if _, ok := h.clients[msg.client.id]; ok {
				h.relay.Handle(msg.client.id, msg.data)
			}
		}
	}
}

func (h *Hub) closeAll() {
	for id, client := range h.clients {
		h.registry.OnDisconnect(id)
		client.Close()
		delete(h.clients, id)
	}
}

// ServeWS upgrades the request and attaches the connection to the hub.
func (h *Hub) ServeWS(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn().Err(err).Msg("WebSocket upgrade failed")
		return
	}

	client := &Client{
		id:   uuid.NewString(),
		conn: conn,
		send: make(chan []byte, sendBufferSize),
		hub:  h,
	}

	select {
	case h.register <- client:
	case <-h.done:
		conn.Close()
		return
	}

	go client.writePump()
	go client.readPump()
}

func (c *Client) readPump() {
	defer func() {
		select {
		case c.hub.unregister <- c:
		case <-c.hub.done:
		}
		c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				c.hub.logger.Debug().Err(err).Str("session_id", c.id).Msg("Unexpected close")
			}
			return
		}

		select {
		case c.hub.inbound <- inboundMessage{client: c, data: data}:
		case <-c.hub.done:
			return
		}
	}
}

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
		}
	}
}
