package broker

import (
	"sync"
	"time"

	"github.com/PolycarpusTack/Alexandria-sub001/internal/proto"
)

// Identity is the resolved user attached to an authenticated client.
type Identity struct {
	ID       int64
	Username string
	IsGuest  bool
}

// Client is one live connection as seen by the broker. The transport
// layer owns the socket; the broker owns this record. Outbound frames
// go through a bounded channel drained by the transport's write loop,
// so one slow connection never blocks another.
type Client struct {
	ID         string
	AdmittedAt time.Time

	mu            sync.Mutex
	authenticated bool
	identity      *Identity
	lastActivity  time.Time
	window        rateWindow
	dropped       uint64
	closed        bool

	send chan proto.Outbound
	done chan struct{}
	once sync.Once
}

// NewClient constructs a client with a send queue of the given size.
func NewClient(id string, sendBuffer int) *Client {
	if sendBuffer <= 0 {
		sendBuffer = 16
	}
	now := time.Now()
	return &Client{
		ID:           id,
		AdmittedAt:   now,
		lastActivity: now,
		send:         make(chan proto.Outbound, sendBuffer),
		done:         make(chan struct{}),
	}
}

// Send queues a frame for delivery. It never blocks: when the client is
// closed or its queue is full the frame is dropped and false is returned.
func (c *Client) Send(frame proto.Outbound) bool {
	select {
	case <-c.done:
		return false
	default:
	}

	select {
	case c.send <- frame:
		return true
	default:
		c.mu.Lock()
		c.dropped++
		c.mu.Unlock()
		return false
	}
}

// Outbox is drained by the transport write loop. Frames are delivered
// in the order they were queued.
func (c *Client) Outbox() <-chan proto.Outbound {
	return c.send
}

// Done is closed exactly once, when the client is removed. The
// transport watches it to release the underlying connection.
func (c *Client) Done() <-chan struct{} {
	return c.done
}

// Close marks the client as closed. Safe to call multiple times.
func (c *Client) Close() {
	c.once.Do(func() {
		c.mu.Lock()
		c.closed = true
		c.mu.Unlock()
		close(c.done)
	})
}

// SetIdentity transitions the client to the authenticated state.
// There is no transition back except disconnection.
func (c *Client) SetIdentity(id *Identity) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.authenticated = true
	c.identity = id
}

// Authenticated reports whether the handshake has completed.
func (c *Client) Authenticated() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.authenticated
}

// Identity returns the resolved user, or nil before the handshake.
func (c *Client) Identity() *Identity {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.identity
}

// Touch records inbound activity.
func (c *Client) Touch() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.lastActivity = time.Now()
}

// LastActivity returns the time of the last successfully processed frame.
func (c *Client) LastActivity() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lastActivity
}

// Dropped returns the number of frames discarded because the send
// queue was full.
func (c *Client) Dropped() uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.dropped
}
