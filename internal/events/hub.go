package events

import (
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"

	"github.com/RobeHGC/proyecto-nadia-sub001/internal/models"
)

const (
	writeWait      = 5 * time.Second
	clientBuffer   = 16
	pingInterval   = 30 * time.Second
	maxMessageSize = 512
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		// Origin checking is the deployment's concern; the dashboard sits
		// behind the same gateway as this API.
		return true
	},
}

// Publisher is the interface services use to emit notification events
type Publisher interface {
	Publish(event models.NotificationEvent)
}

// Hub fans notification events out to connected dashboard subscribers.
// Delivery is best-effort: a subscriber that cannot keep up is dropped,
// and the audit log remains the source of truth for missed events.
type Hub struct {
	mu      sync.RWMutex
	clients map[*client]struct{}
	logger  *logrus.Logger
	closed  bool
}

type client struct {
	conn *websocket.Conn
	send chan models.NotificationEvent
}

// NewHub creates a new event hub
func NewHub(logger *logrus.Logger) *Hub {
	return &Hub{
		clients: make(map[*client]struct{}),
		logger:  logger,
	}
}

// Publish delivers an event to every connected subscriber without blocking.
// Events for subscribers with a full send buffer are dropped.
func (h *Hub) Publish(event models.NotificationEvent) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	if h.closed {
		return
	}

	for c := range h.clients {
		select {
		case c.send <- event:
		default:
			h.logger.WithField("event_type", event.EventType).Warn("Dropping event for slow subscriber")
		}
	}
}

// Subscribe upgrades an HTTP request to a websocket connection and streams
// events to it until the client disconnects or the hub shuts down
func (h *Hub) Subscribe(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.WithError(err).Warn("Websocket upgrade failed")
		return
	}

	c := &client{
		conn: conn,
		send: make(chan models.NotificationEvent, clientBuffer),
	}

	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		_ = conn.Close()
		return
	}
	h.clients[c] = struct{}{}
	subscribers := len(h.clients)
	h.mu.Unlock()

	h.logger.WithField("subscribers", subscribers).Info("Dashboard subscriber connected")

	go h.writeLoop(c)
	go h.readLoop(c)
}

func (h *Hub) writeLoop(c *client) {
	ticker := time.NewTicker(pingInterval)
	defer func() {
		ticker.Stop()
		h.remove(c)
	}()

	for {
		select {
		case event, ok := <-c.send:
			if !ok {
				_ = c.conn.WriteControl(websocket.CloseMessage, nil, time.Now().Add(writeWait))
				return
			}
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteJSON(event); err != nil {
				return
			}
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// readLoop drains client frames so pings and close messages are handled
func (h *Hub) readLoop(c *client) {
	defer h.remove(c)

	c.conn.SetReadLimit(maxMessageSize)
	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			return
		}
	}
}

func (h *Hub) remove(c *client) {
	h.mu.Lock()
	if _, ok := h.clients[c]; ok {
		delete(h.clients, c)
	}
	h.mu.Unlock()

	_ = c.conn.Close()
}

// Close disconnects all subscribers and stops accepting new ones
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.closed {
		return
	}
	h.closed = true

	for c := range h.clients {
		_ = c.conn.Close()
		delete(h.clients, c)
	}

	h.logger.Info("Event hub closed")
}

// SubscriberCount returns the number of connected subscribers
func (h *Hub) SubscriberCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}
