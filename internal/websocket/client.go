package websocket

import (
	"time"

	"github.com/gofiber/websocket/v2"
	"github.com/google/uuid"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 512
)

// Client is one browser connection of a user. The server only pushes
// visualization and credit events; anything the browser sends is discarded.
type Client struct {
	Hub *Hub

	Conn *websocket.Conn

	UserID uuid.UUID

	// Outbound events, each one a complete JSON document.
	Send chan []byte
}

func (c *Client) details(extra map[string]interface{}) map[string]interface{} {
	d := map[string]interface{}{"user_id": c.UserID}
	for k, v := range extra {
		d[k] = v
	}
	return d
}

// readPump keeps the read deadline alive via pongs and unregisters the
// client once the connection drops.
func (c *Client) readPump() {
	defer func() {
		c.Hub.unregister <- c
		c.Conn.Close()
	}()
	c.Conn.SetReadLimit(maxMessageSize)
	c.Conn.SetReadDeadline(time.Now().Add(pongWait))
	c.Conn.SetPongHandler(func(string) error {
		c.Conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		if _, _, err := c.Conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				c.Hub.logger.Warn("Client", "Connection closed unexpectedly", c.details(map[string]interface{}{"error": err.Error()}))
			} else {
				c.Hub.logger.Debug("Client", "Connection closed", c.details(nil))
			}
			return
		}
	}
}

// drainQueued returns first followed by whatever is already buffered in Send,
// without blocking. A closed channel ends the batch early.
func (c *Client) drainQueued(first []byte) [][]byte {
	batch := [][]byte{first}
	for n := len(c.Send); n > 0; n-- {
		msg, ok := <-c.Send
		if !ok {
			break
		}
		batch = append(batch, msg)
	}
	return batch
}

// writePump sends hub events and pings. Each event goes out as its own text
// frame so the browser can parse every frame as one JSON document.
func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.Conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.Send:
			c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.Conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			for _, msg := range c.drainQueued(message) {
				if err := c.Conn.WriteMessage(websocket.TextMessage, msg); err != nil {
					c.Hub.logger.Warn("Client", "Failed to write event", c.details(map[string]interface{}{"error": err.Error()}))
					return
				}
			}
		case <-ticker.C:
			c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.Conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				c.Hub.logger.Debug("Client", "Ping failed", c.details(map[string]interface{}{"error": err.Error()}))
				return
			}
		}
	}
}
