package delivery

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

// WSChannel submits envelopes over a persistent WebSocket connection to the
// delivery endpoint. Writes are serialized by a mutex so concurrent requests
// interleave whole frames; each submission is one write followed by one ack
// frame carrying the delivery id. Any transport failure closes the connection
// and the next submission re-dials.
type WSChannel struct {
	url    string
	log    *slog.Logger
	dialer *websocket.Dialer

	mu   sync.Mutex
	conn *websocket.Conn
}

type ackFrame struct {
	MessageID string `json:"messageId"`
}

func NewWSChannel(url string, logger *slog.Logger) *WSChannel {
	return &WSChannel{
		url:    url,
		log:    logger,
		dialer: websocket.DefaultDialer,
	}
}

// Submit sends one envelope and waits for its ack. The context deadline
// bounds the dial, the write, and the ack read.
func (c *WSChannel) Submit(ctx context.Context, payload []byte) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	conn, err := c.connLocked(ctx)
	if err != nil {
		return "", fmt.Errorf("dial delivery channel: %w", err)
	}

	deadline := time.Time{}
	if d, ok := ctx.Deadline(); ok {
		deadline = d
	}
	_ = conn.SetWriteDeadline(deadline)
	_ = conn.SetReadDeadline(deadline)

	if err := conn.WriteMessage(websocket.TextMessage, payload); err != nil {
		c.closeLocked()
		return "", fmt.Errorf("submit envelope: %w", err)
	}

	var ack ackFrame
	if err := conn.ReadJSON(&ack); err != nil {
		c.closeLocked()
		return "", fmt.Errorf("read delivery ack: %w", err)
	}
	if ack.MessageID == "" {
		c.closeLocked()
		return "", errors.New("delivery ack missing message id")
	}
	return ack.MessageID, nil
}

func (c *WSChannel) connLocked(ctx context.Context) (*websocket.Conn, error) {
	if c.conn != nil {
		return c.conn, nil
	}
	conn, _, err := c.dialer.DialContext(ctx, c.url, nil)
	if err != nil {
		return nil, err
	}
	c.log.Info("delivery channel connected", "url", c.url)
	c.conn = conn
	return conn, nil
}

func (c *WSChannel) closeLocked() {
	if c.conn != nil {
		_ = c.conn.Close()
		c.conn = nil
	}
}

// Close tears down the persistent connection.
func (c *WSChannel) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closeLocked()
	return nil
}
