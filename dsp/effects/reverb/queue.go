package reverb

import (
	"fmt"
	"sync/atomic"
)

// RetireQueue is a lock-free single-producer single-consumer ring of rooms.
// One goroutine may Push while another Pops.
type RetireQueue struct {
	slots []atomic.Pointer[Room]
	mask  uint64

	head atomic.Uint64 // next slot to read
	tail atomic.Uint64 // next slot to write
}

// NewRetireQueue returns a queue holding up to capacity rooms. Capacity is
// rounded up to a power of two.
func NewRetireQueue(capacity int) (*RetireQueue, error) {
	if capacity <= 0 {
		return nil, fmt.Errorf("retire queue capacity must be > 0: %d", capacity)
	}

	size := 1
	for size < capacity {
		size <<= 1
	}

	return &RetireQueue{
		slots: make([]atomic.Pointer[Room], size),
		mask:  uint64(size - 1),
	}, nil
}

// Push enqueues r and reports false when the queue is full.
func (q *RetireQueue) Push(r *Room) bool {
	tail := q.tail.Load()
	if tail-q.head.Load() >= uint64(len(q.slots)) {
		return false
	}

	q.slots[tail&q.mask].Store(r)
	q.tail.Store(tail + 1)

	return true
}

// Pop dequeues the oldest room, or returns nil when empty.
func (q *RetireQueue) Pop() *Room {
	head := q.head.Load()
	if head == q.tail.Load() {
		return nil
	}

	slot := &q.slots[head&q.mask]
	r := slot.Load()
	slot.Store(nil)
	q.head.Store(head + 1)

	return r
}

// Len returns the number of queued rooms.
func (q *RetireQueue) Len() int {
	return int(q.tail.Load() - q.head.Load())
}

// Cap returns the queue capacity.
func (q *RetireQueue) Cap() int { return len(q.slots) }
