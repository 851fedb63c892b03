// Package queue provides the hand-off FIFO between a capture goroutine and
// its consumer.
//
// Push never blocks and never discards: the buffer grows as needed, so a
// chatty build cannot stall its reader and a slow consumer cannot lose lines.
// Consumers either poll with DrainAll from a timer or block in Wait.
package queue

import (
	"context"
	"sync"
)

// Queue is an unbounded, goroutine-safe FIFO
type Queue[T any] struct {
	mu    sync.Mutex
	items []T
	ready chan struct{}
}

// New creates a queue with room for capacityHint items before growing
func New[T any](capacityHint int) *Queue[T] {
	if capacityHint < 0 {
		capacityHint = 0
	}
	return &Queue[T]{
		items: make([]T, 0, capacityHint),
		ready: make(chan struct{}, 1),
	}
}

// Push appends an item
func (q *Queue[T]) Push(item T) {
	q.mu.Lock()
	q.items = append(q.items, item)
	q.mu.Unlock()

	select {
	case q.ready <- struct{}{}:
	default:
	}
}

// DrainAll removes and returns every pending item, oldest first.
// Returns nil when the queue is empty.
func (q *Queue[T]) DrainAll() []T {
	q.mu.Lock()
	defer q.mu.Unlock()

	if len(q.items) == 0 {
		return nil
	}

	out := q.items
	q.items = make([]T, 0, cap(out))
	return out
}

// Len returns the number of pending items
func (q *Queue[T]) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.items)
}

// Ready signals that items may be pending. The signal is level-triggered
// per push but coalesced, so receivers must drain and re-check.
func (q *Queue[T]) Ready() <-chan struct{} {
	return q.ready
}

// Wait blocks until at least one item is pending, then drains the queue
func (q *Queue[T]) Wait(ctx context.Context) ([]T, error) {
	for {
		if items := q.DrainAll(); items != nil {
			return items, nil
		}
		select {
		case <-q.ready:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
}
