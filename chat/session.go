package chat

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

const (
	writeWait     = 10 * time.Second
	pongWait      = 60 * time.Second
	pingPeriod    = 30 * time.Second
	sendQueueSize = 256
	maxFrameBytes = 1 << 20
)

// A session is the connection-scoped state of one authenticated client: the
// websocket, the identity established at handshake and the outbound queue
// drained by a single writer goroutine. Sessions are never persisted and die
// with the connection.
type session struct {
	id   string
	user Identity
	conn *websocket.Conn
	send chan []byte
}

func newSession(conn *websocket.Conn, user Identity) *session {
	return &session{
		id:   uuid.NewString(),
		user: user,
		conn: conn,
		send: make(chan []byte, sendQueueSize),
	}
}

// Deliver implements Subscriber. A client whose queue is full drops the
// event rather than blocking the publisher.
func (c *session) Deliver(payload []byte) {
	select {
	case c.send <- payload:
	default:
	}
}

func (c *session) ack(a ack) {
	b, err := json.Marshal(a)
	if err != nil {
		return
	}
	c.Deliver(b)
}

// writePump is the only goroutine allowed to write to the websocket. It
// drains the send queue and keeps the connection alive with periodic pings.
func (c *session) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = c.conn.Close()
	}()
	for {
		select {
		case payload, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, nil)
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, payload); err != nil {
				return
			}
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
