package queue

import "sync"

// Ring is a thread-safe ring buffer that doubles its capacity when it
// reaches 70% full, so Push never blocks.
type Ring[T any] struct {
	mu       sync.Mutex
	cond     *sync.Cond
	buf      []T
	head     int // read position
	tail     int // write position
	count    int
	capacity int
	closed   bool

	// Stats
	totalPushed int64
	totalPopped int64
	resizeCount int
}

// NewRing creates a ring with the given initial capacity.
func NewRing[T any](initialCapacity int) *Ring[T] {
	if initialCapacity < 1 {
		initialCapacity = 1
	}
	r := &Ring[T]{
		buf:      make([]T, initialCapacity),
		capacity: initialCapacity,
	}
	r.cond = sync.NewCond(&r.mu)
	return r
}

// Push adds an item, growing the ring if at 70% capacity.
// Returns false if the ring is closed.
func (r *Ring[T]) Push(item T) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closed {
		return false
	}

	threshold := (r.capacity * 70) / 100
	if threshold < 1 {
		threshold = 1
	}
	if r.count+1 >= threshold {
		r.grow()
	}

	r.buf[r.tail] = item
	r.tail = (r.tail + 1) % r.capacity
	r.count++
	r.totalPushed++

	r.cond.Signal()
	return true
}

// Pop removes and returns an item, blocking until one is available or the
// ring is closed. Returns the zero value and false when closed and empty.
func (r *Ring[T]) Pop() (T, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for r.count == 0 && !r.closed {
		r.cond.Wait()
	}

	if r.count == 0 {
		var zero T
		return zero, false
	}
	return r.pop(), true
}

// TryPop removes and returns an item without blocking.
func (r *Ring[T]) TryPop() (T, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.count == 0 {
		var zero T
		return zero, false
	}
	return r.pop(), true
}

// Drain removes up to max items at once (all of them when max <= 0).
func (r *Ring[T]) Drain(max int) []T {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.count == 0 {
		return nil
	}

	n := r.count
	if max > 0 && max < n {
		n = max
	}

	out := make([]T, n)
	for i := range out {
		out[i] = r.pop()
	}
	return out
}

// Close closes the ring. Pushes are rejected afterwards; consumers still
// drain the remaining items before seeing the closed signal.
func (r *Ring[T]) Close() {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.closed = true
	r.cond.Broadcast()
}

// Len returns the number of buffered items.
func (r *Ring[T]) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.count
}

// Cap returns the current capacity.
func (r *Ring[T]) Cap() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.capacity
}

// Stats holds ring counters.
type Stats struct {
	Count       int
	Capacity    int
	TotalPushed int64
	TotalPopped int64
	ResizeCount int
}

// Stats returns a snapshot of the ring's counters.
func (r *Ring[T]) Stats() Stats {
	r.mu.Lock()
	defer r.mu.Unlock()
	return Stats{
		Count:       r.count,
		Capacity:    r.capacity,
		TotalPushed: r.totalPushed,
		TotalPopped: r.totalPopped,
		ResizeCount: r.resizeCount,
	}
}

// pop removes the head item. Caller holds the lock and has checked count.
func (r *Ring[T]) pop() T {
	item := r.buf[r.head]
	var zero T
	r.buf[r.head] = zero // release for GC
	r.head = (r.head + 1) % r.capacity
	r.count--
	r.totalPopped++
	return item
}

// grow doubles the capacity, compacting the ring to the front. Caller
// holds the lock.
func (r *Ring[T]) grow() {
	newBuf := make([]T, r.capacity*2)
	if r.count > 0 {
		if r.head < r.tail {
			copy(newBuf, r.buf[r.head:r.tail])
		} else {
			n := copy(newBuf, r.buf[r.head:])
			copy(newBuf[n:], r.buf[:r.tail])
		}
	}
	r.buf = newBuf
	r.head = 0
	r.tail = r.count
	r.capacity = len(newBuf)
	r.resizeCount++
}
