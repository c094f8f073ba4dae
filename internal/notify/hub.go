// internal/notify/hub.go

package notify

import (
	"context"
	"sync"

	"github.com/sirupsen/logrus"
)

// Hub tracks the live websocket connection per user. One connection
// per user; a newer socket replaces the older one.
type Hub struct {
	clients    map[int64]*client
	clientsMux sync.RWMutex

	register   chan *client
	unregister chan *client

	ctx    context.Context
	cancel context.CancelFunc
}

func NewHub() *Hub {
	ctx, cancel := context.WithCancel(context.Background())
	return &Hub{
		clients:    make(map[int64]*client),
		register:   make(chan *client),
		unregister: make(chan *client),
		ctx:        ctx,
		cancel:     cancel,
	}
}

// Run processes connection lifecycle events until Shutdown.
func (h *Hub) Run() {
	defer h.cleanup()

	for {
		select {
		case c := <-h.register:
			h.registerClient(c)
		case c := <-h.unregister:
			h.unregisterClient(c)
		case <-h.ctx.Done():
			return
		}
	}
}

// Shutdown closes every connection and stops the run loop.
func (h *Hub) Shutdown() {
	h.cancel()
}

// Deliver queues a frame for a connected user. Returns false when the
// user has no live socket so the caller can fall back to push.
func (h *Hub) Deliver(userID int64, payload []byte) bool {
	h.clientsMux.RLock()
	c, ok := h.clients[userID]
	h.clientsMux.RUnlock()
	if !ok {
		return false
	}

	select {
	case c.send <- payload:
		return true
	default:
		// A blocked socket is a dead socket
		go func() { h.unregister <- c }()
		return false
	}
}

// Connected reports whether a user has a live socket.
func (h *Hub) Connected(userID int64) bool {
	h.clientsMux.RLock()
	defer h.clientsMux.RUnlock()
	_, ok := h.clients[userID]
	return ok
}

func (h *Hub) registerClient(c *client) {
	h.clientsMux.Lock()
	defer h.clientsMux.Unlock()

	if old, exists := h.clients[c.userID]; exists {
		old.close()
	}
	h.clients[c.userID] = c
	recordConnections(len(h.clients))

	logrus.WithFields(logrus.Fields{"user_id": c.userID, "clients": len(h.clients)}).Debug("websocket connected")
}

func (h *Hub) unregisterClient(c *client) {
	h.clientsMux.Lock()
	defer h.clientsMux.Unlock()

	if current, exists := h.clients[c.userID]; exists && current == c {
		c.close()
		delete(h.clients, c.userID)
		recordConnections(len(h.clients))

		logrus.WithFields(logrus.Fields{"user_id": c.userID, "clients": len(h.clients)}).Debug("websocket disconnected")
	}
}

func (h *Hub) cleanup() {
	h.clientsMux.Lock()
	defer h.clientsMux.Unlock()

	for _, c := range h.clients {
		c.close()
	}
	h.clients = make(map[int64]*client)
	recordConnections(0)
}
