package ws

import (
	"errors"
	"log"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = 30 * time.Second
	maxMessageSize = 4096
	sendBuffer     = 256
)

var (
	ErrClosed     = errors.New("connection closed")
	ErrBufferFull = errors.New("send buffer full")
)

// socket is the part of *websocket.Conn the pumps use.
type socket interface {
	WriteMessage(messageType int, data []byte) error
	ReadMessage() (int, []byte, error)
	SetWriteDeadline(t time.Time) error
	SetReadDeadline(t time.Time) error
	SetReadLimit(limit int64)
	SetPongHandler(h func(string) error)
	Close() error
}

// Client is one WebSocket connection. Send never blocks: a client that
// cannot keep up reports ErrBufferFull and the manager drops it.
type Client struct {
	conn     socket
	playerID atomic.Value // string, stored once registration succeeds
	send     chan []byte

	closeOnce   sync.Once
	closing     chan struct{}
	closeCode   int
	closeReason string
	done        chan struct{}
}

func newClient(conn socket) *Client {
	return &Client{
		conn:    conn,
		send:    make(chan []byte, sendBuffer),
		closing: make(chan struct{}),
		done:    make(chan struct{}),
	}
}

// Send queues a text frame for the write pump.
func (c *Client) Send(data []byte) error {
	select {
	case <-c.closing:
		return ErrClosed
	default:
	}
	select {
	case c.send <- data:
		return nil
	default:
		return ErrBufferFull
	}
}

func (c *Client) setPlayerID(id string) {
	c.playerID.Store(id)
}

// id is the registered player id, for logs. The write pump runs before
// registration finishes.
func (c *Client) id() string {
	if v, ok := c.playerID.Load().(string); ok {
		return v
	}
	return "(unregistered)"
}

// Close asks the write pump to flush queued frames, send a close frame with
// code and reason, and close the socket. Later calls are no-ops.
func (c *Client) Close(code int, reason string) error {
	c.closeOnce.Do(func() {
		c.closeCode = code
		c.closeReason = reason
		close(c.closing)
	})
	return nil
}

// writePump owns every write to the socket.
func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
		close(c.done)
	}()

	for {
		select {
		case message := <-c.send:
			if err := c.write(websocket.TextMessage, message); err != nil {
				log.Printf("[WS] write error for player %s: %v", c.id(), err)
				c.Close(websocket.CloseAbnormalClosure, "")
				return
			}

		case <-c.closing:
			if !c.drain() {
				return
			}
			if c.closeCode != websocket.CloseAbnormalClosure {
				c.write(websocket.CloseMessage, websocket.FormatCloseMessage(c.closeCode, c.closeReason))
			}
			return

		case <-ticker.C:
			if err := c.write(websocket.PingMessage, nil); err != nil {
				log.Printf("[WS] ping error for player %s: %v", c.id(), err)
				c.Close(websocket.CloseAbnormalClosure, "")
				return
			}
		}
	}
}

// drain writes whatever is still queued, reporting false on a write error.
func (c *Client) drain() bool {
	for {
		select {
		case message := <-c.send:
			if err := c.write(websocket.TextMessage, message); err != nil {
				return false
			}
		default:
			return true
		}
	}
}

func (c *Client) write(messageType int, data []byte) error {
	c.conn.SetWriteDeadline(time.Now().Add(writeWait))
	return c.conn.WriteMessage(messageType, data)
}

// readPump delivers inbound text frames to onMessage until the socket fails,
// then calls onClose once.
func (c *Client) readPump(onMessage func([]byte), onClose func()) {
	defer func() {
		onClose()
		c.Close(websocket.CloseNormalClosure, "")
	}()

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		messageType, message, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Printf("[WS] unexpected close for player %s: %v", c.id(), err)
			} else {
				log.Printf("[WS] player %s disconnected: %v", c.id(), err)
			}
			return
		}
		if messageType != websocket.TextMessage {
			continue
		}
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		onMessage(message)
	}
}
