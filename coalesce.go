package collage

import "sync"

// Coalescer keeps only the latest offered value and hands it out at most once.
// It replaces per animation frame throttling: producers offer as often as
// they like, and the consumer flushes once per tick.
type Coalescer[T any] struct {
	mu      sync.Mutex
	pending T
	ok      bool
}

// Offer replaces any pending value with v.
func (c *Coalescer[T]) Offer(v T) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.pending = v
	c.ok = true
}

// Pending reports whether a value is waiting to be flushed.
func (c *Coalescer[T]) Pending() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.ok
}

// Flush applies the pending value, if any, and reports whether it did.
func (c *Coalescer[T]) Flush(apply func(T)) bool {
	c.mu.Lock()
	v, ok := c.pending, c.ok
	var zero T
	c.pending, c.ok = zero, false
	c.mu.Unlock()

	if ok {
		apply(v)
	}
	return ok
}

// Cancel drops the pending value without applying it.
func (c *Coalescer[T]) Cancel() {
	c.mu.Lock()
	defer c.mu.Unlock()
	var zero T
	c.pending, c.ok = zero, false
}
