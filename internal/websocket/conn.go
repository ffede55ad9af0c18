package websocket

import (
	"context"
	"time"

	"github.com/gorilla/websocket"
	"github.com/ikkim/cosmetica-backend/pkg/logger"
)

const (
	// Time allowed to write a message to the peer.
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer.
	pongWait = 60 * time.Second

	// Send pings to peer with this period. Must be less than pongWait.
	pingPeriod = (pongWait * 9) / 10

	// Browsers only send small control frames.
	maxMessageSize = 4 * 1024
)

// Client is one browser tab watching a cart
type Client struct {
	hub     *Hub
	conn    *websocket.Conn
	CartKey string
	send    chan []byte

	// owned by ReadPump
	messageCount int
	lastReset    time.Time
}

func NewClient(hub *Hub, conn *websocket.Conn, cartKey string) *Client {
	return &Client{
		hub:     hub,
		conn:    conn,
		CartKey: cartKey,
		send:    make(chan []byte, sendBufferSize),
	}
}

// Serve registers the client and pumps frames until the connection drops
func (c *Client) Serve(ctx context.Context) error {
	if err := c.hub.Register(ctx, c); err != nil {
		c.conn.Close()
		return err
	}
	go c.WritePump()
	c.ReadPump(ctx)
	return nil
}

// ReadPump reads browser frames until the peer goes away
func (c *Client) ReadPump(ctx context.Context) {
	defer func() {
		c.hub.Unregister(c)
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
				logger.Error("WebSocket read error", err, map[string]interface{}{
					"cart_key": c.CartKey,
				})
			}
			return
		}

		logger.Debug("WebSocket message received", map[string]interface{}{
			"cart_key": c.CartKey,
			"size":     len(message),
		})
		c.hub.HandleClientMessage(ctx, c, message)
	}
}

// WritePump writes queued frames and keeps the connection alive with pings
func (c *Client) WritePump() {
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
				// hub closed the channel
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				logger.Error("Failed to write message", err, map[string]interface{}{
					"cart_key": c.CartKey,
				})
				return
			}

			// flush whatever queued up meanwhile
			n := len(c.send)
			for i := 0; i < n; i++ {
				msg, ok := <-c.send
				if !ok {
					c.conn.WriteMessage(websocket.CloseMessage, []byte{})
					return
				}
				if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
					logger.Error("Failed to write queued message", err, map[string]interface{}{
						"cart_key": c.CartKey,
					})
					return
				}
			}

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
