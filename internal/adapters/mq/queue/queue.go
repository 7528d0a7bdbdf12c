// Package queue buffers practice outcomes between score ingestion and the
// workers that apply them to bandit arms.
package queue

import (
	"context"
	"sync"

	"github.com/okian/cogtrain/internal/domain/model"
	"github.com/okian/cogtrain/pkg/metrics"
)

const defaultQueueCapacity = 10_000

// Queue provides non-blocking enqueue and channel-based dequeue semantics.
type Queue interface {
	// Enqueue adds an outcome. Returns false if the queue is full or closed.
	Enqueue(ctx context.Context, o model.Outcome) bool

	// Dequeue returns the channel outcomes are delivered on. It is closed
	// once the queue is closed and drained.
	Dequeue() <-chan model.Outcome

	// Len returns the current number of queued outcomes.
	Len() int

	// Close stops accepting outcomes; queued ones remain readable.
	Close() error

	IsClosed() bool
}

// InMemoryQueue implements Queue using a buffered channel.
type InMemoryQueue struct {
	outcomes chan model.Outcome
	capacity int

	mu     sync.RWMutex
	closed bool
}

// NewInMemoryQueue creates a new in-memory queue.
func NewInMemoryQueue(opts ...Option) *InMemoryQueue {
	q := &InMemoryQueue{capacity: defaultQueueCapacity}
	for _, opt := range opts {
		opt(q)
	}
	q.outcomes = make(chan model.Outcome, q.capacity)

	metrics.UpdateQueueCapacity(q.capacity)
	metrics.UpdateQueueSize(0)
	return q
}

// Enqueue implements Queue.
func (q *InMemoryQueue) Enqueue(ctx context.Context, o model.Outcome) bool {
	q.mu.RLock()
	defer q.mu.RUnlock()

	if q.closed {
		metrics.RecordQueueRejected("closed")
		return false
	}

	select {
	case q.outcomes <- o:
		metrics.RecordQueueEnqueue()
		metrics.UpdateQueueSize(len(q.outcomes))
		return true
	case <-ctx.Done():
		metrics.RecordQueueRejected("context_cancelled")
		return false
	default:
		metrics.RecordQueueRejected("full")
		return false
	}
}

// Dequeue implements Queue.
func (q *InMemoryQueue) Dequeue() <-chan model.Outcome {
	return q.outcomes
}

// Len implements Queue.
func (q *InMemoryQueue) Len() int {
	size := len(q.outcomes)
	metrics.UpdateQueueSize(size)
	return size
}

// Close implements Queue. Closing twice is a no-op.
func (q *InMemoryQueue) Close() error {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return nil
	}
	close(q.outcomes)
	q.closed = true
	return nil
}

// IsClosed implements Queue.
func (q *InMemoryQueue) IsClosed() bool {
	q.mu.RLock()
	defer q.mu.RUnlock()
	return q.closed
}
