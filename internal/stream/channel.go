package stream

import (
	"context"
	"errors"
	"sync"
)

// ErrClosed is returned by Emit after the channel has been closed.
var ErrClosed = errors.New("stream: channel closed")

// defaultBuffer absorbs bursts from tool handlers so producers rarely block
// on a slow consumer.
const defaultBuffer = 256

// Channel is a single-turn event stream. One producer side (the orchestrator
// and any tools it runs) emits tagged events; one consumer drains Events()
// until it is closed. Close is idempotent and safe to race with Emit.
type Channel struct {
	mu     sync.Mutex
	ch     chan Event
	closed bool
	once   sync.Once
}

// NewChannel returns a Channel with the default buffer size.
func NewChannel() *Channel {
	return &Channel{ch: make(chan Event, defaultBuffer)}
}

// Emit queues an event for the consumer. It returns ErrClosed if the channel
// has been closed, and blocks if the buffer is full.
func (c *Channel) Emit(ev Event) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return ErrClosed
	}
	c.ch <- ev
	return nil
}

// Close marks the channel closed and closes the underlying event stream.
// Subsequent Emit calls return ErrClosed; subsequent Close calls are no-ops.
func (c *Channel) Close() {
	c.once.Do(func() {
		c.mu.Lock()
		c.closed = true
		close(c.ch)
		c.mu.Unlock()
	})
}

// Events returns the receive side of the stream. It is closed by Close.
func (c *Channel) Events() <-chan Event {
	return c.ch
}

// channelKey is the context key for the per-turn channel.
type channelKey struct{}

// ContextWith returns a context carrying the turn's event channel.
func ContextWith(ctx context.Context, c *Channel) context.Context {
	return context.WithValue(ctx, channelKey{}, c)
}

// FromContext returns the turn's event channel, or nil if none is attached.
// Tool handlers use this to stream progress to the client mid-turn.
func FromContext(ctx context.Context) *Channel {
	c, _ := ctx.Value(channelKey{}).(*Channel)
	return c
}
