package memory

import (
	"context"
	"sync"
	"time"

	"github.com/jhoicas/Biblioteca-api/internal/application/ratelimit"
)

var _ ratelimit.Counter = (*Counter)(nil)

// Counter contador con expiración en memoria (un solo proceso). Sustituye a Redis en desarrollo.
type Counter struct {
	mu      sync.Mutex
	entries map[string]counterEntry
	now     func() time.Time
}

type counterEntry struct {
	n        int64
	expireAt time.Time
}

// NewCounter crea un contador vacío.
func NewCounter() *Counter {
	return &Counter{entries: map[string]counterEntry{}, now: time.Now}
}

// Incr incrementa key; una clave expirada vuelve a empezar en 1. Purga claves vencidas de paso.
func (c *Counter) Incr(_ context.Context, key string, expireAt time.Time) (int64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	for k, e := range c.entries {
		if !now.Before(e.expireAt) {
			delete(c.entries, k)
		}
	}
	e := c.entries[key]
	e.n++
	e.expireAt = expireAt
	c.entries[key] = e
	return e.n, nil
}
