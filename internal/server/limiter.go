package server

import (
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// clientIdleTTL is how long an idle client's bucket is kept.
const clientIdleTTL = 10 * time.Minute

// ClientLimiter enforces a token bucket per client key (the remote IP).
type ClientLimiter struct {
	limit rate.Limit
	burst int
	now   func() time.Time

	mu        sync.Mutex
	clients   map[string]*clientBucket
	lastSweep time.Time
}

type clientBucket struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// NewClientLimiter creates a limiter allowing rps requests per second with
// the given burst for each client. It returns nil when rps <= 0, and a nil
// limiter allows everything.
func NewClientLimiter(rps float64, burst int) *ClientLimiter {
	if rps <= 0 {
		return nil
	}
	if burst <= 0 {
		burst = 1
	}
	return &ClientLimiter{
		limit:   rate.Limit(rps),
		burst:   burst,
		now:     time.Now,
		clients: make(map[string]*clientBucket),
	}
}

// Allow reports whether a request from key may proceed now.
func (c *ClientLimiter) Allow(key string) bool {
	if c == nil {
		return true
	}
	now := c.now()

	c.mu.Lock()
	c.sweepLocked(now)
	b, ok := c.clients[key]
	if !ok {
		b = &clientBucket{limiter: rate.NewLimiter(c.limit, c.burst)}
		c.clients[key] = b
	}
	b.lastSeen = now
	limiter := b.limiter
	c.mu.Unlock()

	return limiter.AllowN(now, 1)
}

// Len returns the number of tracked clients.
func (c *ClientLimiter) Len() int {
	if c == nil {
		return 0
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.clients)
}

// sweepLocked drops buckets idle for longer than clientIdleTTL.
// It runs at most once per TTL.
func (c *ClientLimiter) sweepLocked(now time.Time) {
	if now.Sub(c.lastSweep) < clientIdleTTL {
		return
	}
	c.lastSweep = now
	for key, b := range c.clients {
		if now.Sub(b.lastSeen) > clientIdleTTL {
			delete(c.clients, key)
		}
	}
}
