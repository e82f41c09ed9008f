package ws

import (
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"realtime-service/internal/models"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 4096
)

// Client is one live websocket connection. Its outbound queue is the send
// channel; the hub never writes to the transport directly, so one slow
// connection cannot stall a fan-out to the others.
type Client struct {
	info      ConnInfo
	principal models.Principal
	conn      *websocket.Conn
	send      chan []byte
	done      chan struct{}
	closeOnce sync.Once
}

func newClient(conn *websocket.Conn, principal models.Principal, info ConnInfo, sendBuffer int) *Client {
	if sendBuffer <= 0 {
		sendBuffer = 256
	}
	return &Client{
		info:      info,
		principal: principal,
		conn:      conn,
		send:      make(chan []byte, sendBuffer),
		done:      make(chan struct{}),
	}
}

// Principal returns the identity the connection authenticated as.
func (c *Client) Principal() models.Principal { return c.principal }

// shutdown signals the write pump to close the transport. Safe to call more
// than once and from any goroutine; the send channel itself is never closed.
func (c *Client) shutdown() {
	c.closeOnce.Do(func() { close(c.done) })
}

// writePump drains the outbound queue onto the transport and keeps the
// connection alive with pings.
func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case payload := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.TextMessage, payload); err != nil {
				return
			}
		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		case <-c.done:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			_ = c.conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
			return
		}
	}
}

// readPump consumes inbound frames until the connection dies, then tears the
// client out of every group before anything else can target it. Returns the
// transport error that ended the loop, nil on a clean client close.
func (c *Client) readPump(hub *Hub, onMessage func([]byte)) error {
	defer func() {
		hub.DisconnectAll(c)
		c.shutdown()
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
			if websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				return nil
			}
			return err
		}
		if onMessage != nil {
			onMessage(data)
		}
	}
}
