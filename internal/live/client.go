package live

import (
	"log"
	"time"

	"github.com/gorilla/websocket"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = (pongWait * 9) / 10
)

// Client is one websocket subscription to a view topic.
type Client struct {
	hub   *Hub
	conn  *websocket.Conn
	send  chan []byte
	topic string
}

// NewClient registers a subscription on the hub and starts its pumps.
// initial, when non-nil, is delivered before any broadcast so the
// subscriber starts from a complete snapshot.
func NewClient(hub *Hub, conn *websocket.Conn, topic string, initial []byte) *Client {
	c := &Client{
		hub:   hub,
		conn:  conn,
		send:  make(chan []byte, 8),
		topic: topic,
	}
	if initial != nil {
		c.send <- initial
	}
	hub.register <- c
	go c.writePump()
	go c.readPump()
	return c
}

// readPump discards inbound frames; it exists to notice the peer going
// away and to answer pings. Teardown happens here exactly once.
func (c *Client) readPump() {
	defer func() {
		c.hub.unregister <- c
		c.conn.Close()
	}()

	c.conn.SetReadLimit(512)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			if !websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				log.Printf("live: read error: %v", err)
			}
			break
		}
	}
}

// writePump delivers queued snapshots and keeps the connection alive.
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
				// Hub dropped us.
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
