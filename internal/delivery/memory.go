package delivery

import (
	"context"
	"sync"

	"github.com/google/uuid"
)

// MemoryChannel is an in-process delivery channel used in dev mode and tests.
// Submissions are retained in order so consumers (or assertions) can drain
// them.
type MemoryChannel struct {
	mu       sync.Mutex
	payloads [][]byte
}

func NewMemoryChannel() *MemoryChannel {
	return &MemoryChannel{}
}

func (c *MemoryChannel) Submit(ctx context.Context, payload []byte) (string, error) {
	buf := make([]byte, len(payload))
	copy(buf, payload)

	c.mu.Lock()
	c.payloads = append(c.payloads, buf)
	c.mu.Unlock()
	return uuid.NewString(), nil
}

// Drain returns and clears all submitted payloads in submission order.
func (c *MemoryChannel) Drain() [][]byte {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := c.payloads
	c.payloads = nil
	return out
}
