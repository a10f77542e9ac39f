package broker

import (
	"sync"
	"time"
)

// rateWindow tracks the message count for one client's current window.
type rateWindow struct {
	count int
	start time.Time
}

// RateLimiter enforces a fixed-size reset window per client: the count
// resets entirely at the window boundary rather than decaying
// continuously. Disabled until Configure is called with a positive limit.
type RateLimiter struct {
	mu     sync.Mutex
	max    int
	window time.Duration

	now func() time.Time
}

// NewRateLimiter returns a limiter with no policy; all checks pass.
func NewRateLimiter() *RateLimiter {
	return &RateLimiter{now: time.Now}
}

// Configure sets the global policy. A non-positive maxMessages or
// window disables the limiter.
func (l *RateLimiter) Configure(maxMessages int, window time.Duration) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.max = maxMessages
	l.window = window
}

// Allow counts one inbound frame for the client and reports whether it
// may be processed. When the window has elapsed, the count restarts
// before the frame is counted.
func (l *RateLimiter) Allow(c *Client) bool {
	l.mu.Lock()
	max, window := l.max, l.window
	now := l.now()
	l.mu.Unlock()

	if max <= 0 || window <= 0 {
		return true
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.window.start.IsZero() || now.Sub(c.window.start) >= window {
		c.window = rateWindow{start: now}
	}
	c.window.count++
	return c.window.count <= max
}
