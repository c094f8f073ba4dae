// internal/notify/client.go

package notify

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"
)

const (
	// Time allowed to write a frame to the peer
	writeWait = 10 * time.Second

	// Time allowed to read the next pong from the peer
	pongWait = 60 * time.Second

	// Ping cadence, must be shorter than pongWait
	pingPeriod = (pongWait * 9) / 10

	// Clients only send small read acks
	maxMessageSize = 4096
)

// client is one live websocket connection.
type client struct {
	hub     *Hub
	conn    *websocket.Conn
	send    chan []byte
	userID  int64
	service Service

	closeOnce sync.Once
}

func newClient(hub *Hub, conn *websocket.Conn, userID int64, service Service) *client {
	return &client{
		hub:     hub,
		conn:    conn,
		send:    make(chan []byte, 64),
		userID:  userID,
		service: service,
	}
}

func (c *client) start() {
	go c.writePump()
	go c.readPump()
}

func (c *client) close() {
	c.closeOnce.Do(func() {
		close(c.send)
	})
}

func (c *client) readPump() {
	defer func() {
		c.hub.unregister <- c
		c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, message, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				logrus.WithError(err).WithField("user_id", c.userID).Debug("websocket read error")
			}
			break
		}
		c.processMessage(message)
	}
}

func (c *client) writePump() {
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

			w, err := c.conn.NextWriter(websocket.TextMessage)
			if err != nil {
				return
			}
			w.Write(message)

			// Flush anything else already queued
			n := len(c.send)
			for i := 0; i < n; i++ {
				w.Write([]byte{'\n'})
				w.Write(<-c.send)
			}

			if err := w.Close(); err != nil {
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

func (c *client) processMessage(data []byte) {
	var msg Inbound
	if err := json.Unmarshal(data, &msg); err != nil {
		logrus.WithError(err).WithField("user_id", c.userID).Debug("unreadable websocket frame")
		return
	}

	switch msg.Type {
	case "read":
		if len(msg.IDs) == 0 {
			return
		}
		if err := c.service.MarkRead(context.Background(), c.userID, msg.IDs); err != nil {
			logrus.WithError(err).WithField("user_id", c.userID).Warn("websocket read ack failed")
		}
	default:
		logrus.WithField("type", msg.Type).Debug("unknown websocket frame type")
	}
}
