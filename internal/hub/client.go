package hub

import (
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/ujjwalshri/CodeColab/internal/models"
)

const (
	// Time allowed to write a message to the peer.
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer.
	pongWait = 60 * time.Second

	// Send pings to peer with this period. Must be less than pongWait.
	pingPeriod = (pongWait * 9) / 10

	// Maximum message size allowed from peer. Documents and SDP payloads
	// both fit comfortably.
	maxMessageSize = 512 * 1024

	sendBufferSize = 256
)

// Client wraps one WebSocket connection. Every client has a unique
// connection id that stays stable for the connection's lifetime and doubles
// as the default user id until the client announces an identity.
type Client struct {
	ID   string
	hub  *Hub
	conn *websocket.Conn
	send chan models.Frame
}

func newClient(h *Hub, conn *websocket.Conn) *Client {
	return &Client{
		ID:   uuid.NewString(),
		hub:  h,
		conn: conn,
		send: make(chan models.Frame, sendBufferSize),
	}
}

// Send enqueues a frame for delivery without blocking. A client that cannot
// keep up loses frames rather than stalling the event loop.
func (c *Client) Send(frame models.Frame) {
	select {
	case c.send <- frame:
	default:
	}
}

// readPump pumps frames from the WebSocket into the hub. It runs on the
// handler goroutine; there is at most one reader per connection.
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
		var frame models.Frame
		if err := c.conn.ReadJSON(&frame); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure, websocket.CloseAbnormalClosure) {
				c.hub.log.Debug("websocket read error", zap.String("connId", c.ID), zap.Error(err))
			}
			return
		}
		c.hub.inbound <- inboundEvent{client: c, frame: frame}
	}
}

// writePump pumps frames from the send channel to the WebSocket. One
// goroutine per connection; all writes happen here.
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
				// Hub closed the channel on disconnect.
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteJSON(frame); err != nil {
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
