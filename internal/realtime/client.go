// Package realtime carries session events to connected candidates and recruiters.
package realtime

import (
	"sync"
	"time"

	"intervuex/internal/auth"

	"github.com/gorilla/websocket"
	"golang.org/x/time/rate"
)

// Frame is the envelope of every websocket message in both directions.
type Frame struct {
	Type string `json:"type"`
	Data any    `json:"data,omitempty"`
}

// Frame types.
const (
	FrameInit      = "init"
	FrameSignal    = "signal"
	FrameAck       = "ack"
	FrameViolation = "violation"
	FrameIntegrity = "integrity"
	FrameLifecycle = "lifecycle"
	FramePing      = "ping"
	FramePong      = "pong"
	FrameError     = "error"
)

// writeWait bounds a single frame write so one stalled peer cannot hold up a broadcast.
const writeWait = 10 * time.Second

type Client struct {
	Conn    *websocket.Conn
	Role    auth.Role
	mu      sync.Mutex
	hook    func(Frame)
	limiter *rate.Limiter
}

// NewClient wraps conn. A nil limiter lets every signal through.
func NewClient(conn *websocket.Conn, role auth.Role, limiter *rate.Limiter) *Client {
	return &Client{Conn: conn, Role: role, limiter: limiter}
}

// SetSendHook replaces the websocket sender (used in tests).
func (c *Client) SetSendHook(fn func(Frame)) {
	c.mu.Lock()
	c.hook = fn
	c.mu.Unlock()
}

// Send writes one frame. Writes are serialized because gorilla connections allow a single writer.
// A failed write closes the connection, which also ends the connection's read loop.
func (c *Client) Send(frame Frame) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.hook != nil {
		c.hook(frame)
		return nil
	}
	if c.Conn == nil {
		return nil
	}
	if err := c.Conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
		_ = c.Conn.Close()
		return err
	}
	if err := c.Conn.WriteJSON(frame); err != nil {
		_ = c.Conn.Close()
		return err
	}
	return nil
}

// Allow reports whether another signal fits in the client's token bucket.
func (c *Client) Allow() bool {
	if c.limiter == nil {
		return true
	}
	return c.limiter.Allow()
}

func (c *Client) IsRecruiter() bool {
	return c.Role == auth.RoleRecruiter
}
