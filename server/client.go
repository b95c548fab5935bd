package server

import (
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

const (
	// writeWait is the deadline for a single websocket write.
	writeWait = 10 * time.Second

	// pongWait is how long to wait for a pong before assuming the peer
	// is gone; pings go out at pingPeriod (< pongWait).
	pongWait   = 60 * time.Second
	pingPeriod = (pongWait * 9) / 10

	// maxMessageSize caps inbound frames. Cell values top out at the
	// text cap, so anything near this limit is garbage.
	maxMessageSize = 64 * 1024

	// sendBufferSize is the per-client outbound queue. A client that
	// falls this far behind is disconnected.
	sendBufferSize = 256
)

// Client is one websocket connection. It shuttles frames between the
// socket and the hub using the usual two-pump arrangement: readPump feeds
// the hub, writePump drains the send channel.
type Client struct {
	hub  *Hub
	conn *websocket.Conn
	send chan []byte

	closeOnce sync.Once
}

func newClient(hub *Hub, conn *websocket.Conn) *Client {
	return &Client{
		hub:  hub,
		conn: conn,
		send: make(chan []byte, sendBufferSize),
	}
}

func (c *Client) remoteAddr() string {
	return c.conn.RemoteAddr().String()
}

// trySend enqueues a frame without blocking. It reports false when the
// buffer is full, which the hub treats as a dead client.
func (c *Client) trySend(frame []byte) bool {
	select {
	case c.send <- frame:
		return true
	default:
		return false
	}
}

// close shuts the send channel exactly once, which stops the write pump
// and closes the underlying connection.
func (c *Client) close() {
	c.closeOnce.Do(func() {
		close(c.send)
	})
}

// run registers the client with the hub and starts both pumps. It is
// called from the websocket upgrade handler.
func (c *Client) run() {
	c.hub.register <- c
	go c.writePump()
	c.readPump()
}

// readPump reads frames off the socket and forwards them to the hub until
// the connection errors, then unregisters.
func (c *Client) readPump() {
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
		_, raw, err := c.conn.ReadMessage()
		if err != nil {
			return
		}
		c.hub.inbound <- inboundMessage{client: c, raw: raw}
	}
}

// writePump drains the send channel to the socket and keeps the
// connection alive with pings. It exits when the send channel is closed
// or a write fails.
func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case frame, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, frame); err != nil {
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
