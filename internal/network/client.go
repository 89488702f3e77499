package network

import (
	"log"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

const (
	// Time allowed to write a message to the peer.
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer.
	pongWait = 60 * time.Second

	// Send pings to peer with this period. Must be less than pongWait.
	pingPeriod = (pongWait * 9) / 10
)

// Client is one connected player from the server's point of view. The id is
// minted per connection: a player who refreshes comes back as a new Client
// with a new id, and the session layer re-binds their stored identity to it.
type Client struct {
	id   string
	conn *websocket.Conn
	hub  *Hub

	// Buffered outbound channel. The hub goroutine writes here and the
	// client's writeLoop drains it, so a slow client never blocks the hub.
	send chan Message
}

func newClient(conn *websocket.Conn, hub *Hub) *Client {
	return &Client{
		id:   uuid.NewString(),
		conn: conn,
		hub:  hub,
		send: make(chan Message, 256),
	}
}

func (c *Client) ConnectionID() string {
	return c.id
}

func (c *Client) Send() chan<- Message {
	return c.send
}

// readLoop pumps messages from the websocket to the hub. One per client.
func (c *Client) readLoop() {
	defer func() {
		c.hub.unregister <- c
		c.conn.Close()
	}()

	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		var msg Message
		if err := c.conn.ReadJSON(&msg); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				log.Printf("[Network] unexpected close from %s: %v", c.id, err)
			}
			break
		}
		c.hub.incoming <- clientMessage{client: c, msg: msg}
	}
}

// writeLoop pumps messages from the send channel to the websocket. One per
// client. Closing the send channel is the hub's signal to stop.
func (c *Client) writeLoop() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case msg, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteJSON(msg); err != nil {
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
