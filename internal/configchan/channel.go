// Package configchan broadcasts the current value of a configuration to
// any number of subscribers. A new subscriber first receives the current
// value, then later updates.
package configchan

import (
	"context"
	"sync"
)

// Channel holds exactly one current value. Slow subscribers only ever see
// the latest value; intermediate ones are dropped for them.
type Channel[T any] struct {
	mu      sync.Mutex
	current T
	subs    map[chan T]struct{}
	done    chan struct{}
	closed  bool
}

func New[T any](initial T) *Channel[T] {
	return &Channel[T]{
		current: initial,
		subs:    make(map[chan T]struct{}),
		done:    make(chan struct{}),
	}
}

func (c *Channel[T]) Current() T {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.current
}

// Publish replaces the current value and hands it to every subscriber.
// It never blocks on a subscriber. Publishing on a closed channel is a no-op.
func (c *Channel[T]) Publish(v T) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	c.current = v
	for ch := range c.subs {
		offer(ch, v)
	}
}

// offer replaces any undelivered value in ch with v. Callers hold c.mu, so
// nothing else sends on ch meanwhile.
func offer[T any](ch chan T, v T) {
	select {
	case <-ch:
	default:
	}
	select {
	case ch <- v:
	default:
	}
}

// Subscribe returns a channel primed with the current value. It is closed
// when ctx is done or the Channel is closed.
func (c *Channel[T]) Subscribe(ctx context.Context) <-chan T {
	ch := make(chan T, 1)

	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		close(ch)
		return ch
	}
	ch <- c.current
	c.subs[ch] = struct{}{}
	c.mu.Unlock()

	go func() {
		select {
		case <-ctx.Done():
		case <-c.done:
			return
		}
		c.mu.Lock()
		defer c.mu.Unlock()
		if _, ok := c.subs[ch]; ok {
			delete(c.subs, ch)
			close(ch)
		}
	}()
	return ch
}

// Close ends every subscription.
func (c *Channel[T]) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	c.closed = true
	close(c.done)
	for ch := range c.subs {
		delete(c.subs, ch)
		close(ch)
	}
}
