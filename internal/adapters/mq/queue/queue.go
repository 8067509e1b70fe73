// Package queue buffers prediction records between request handlers and
// the recorder workers.
//
// Enqueue never blocks: a full or closed queue rejects the record so the
// serving path is never slowed down by history persistence.
package queue

import (
	"context"
	"sync"

	"github.com/Jagmohan-Prajapati/Smart-Agriculture/internal/domain/model"
	"github.com/Jagmohan-Prajapati/Smart-Agriculture/pkg/metrics"
)

const defaultQueueCapacity = 1024

// Record is the payload type flowing through the queue.
type Record = model.Record

// Queue provides non-blocking enqueue and channel-based dequeue semantics.
type Queue interface {
	// Enqueue adds a record. It returns ErrFull, ErrClosed or the context
	// error when the record was not accepted.
	Enqueue(ctx context.Context, r Record) error

	// Dequeue returns a channel that receives records as they become available.
	// The channel is closed once the queue is closed and drained.
	Dequeue(ctx context.Context) <-chan Record

	// Len returns the current number of queued records.
	Len(ctx context.Context) int

	// Close stops accepting records. Records already queued stay readable.
	Close() error

	// IsClosed returns true if the queue has been closed.
	IsClosed() bool
}

// InMemoryQueue implements Queue using a buffered channel.
type InMemoryQueue struct {
	records  chan Record
	capacity int
	mu       sync.RWMutex
	closed   bool
}

// NewInMemoryQueue creates a new in-memory queue with configuration options.
func NewInMemoryQueue(opts ...Option) *InMemoryQueue {
	q := &InMemoryQueue{capacity: defaultQueueCapacity}
	for _, opt := range opts {
		opt(q)
	}
	q.records = make(chan Record, q.capacity)
	metrics.UpdateRecordQueueSize(0)
	return q
}

// Enqueue adds a record to the queue.
func (q *InMemoryQueue) Enqueue(ctx context.Context, r Record) error { //nolint:gocritic // hugeParam: Record is passed by value for channel semantics
	q.mu.RLock()
	defer q.mu.RUnlock()

	if q.closed {
		metrics.RecordRecordDropped()
		return ErrClosed
	}
	if err := ctx.Err(); err != nil {
		metrics.RecordRecordDropped()
		return err
	}

	select {
	case q.records <- r:
		metrics.UpdateRecordQueueSize(len(q.records))
		return nil
	default:
		metrics.RecordRecordDropped()
		return ErrFull
	}
}

// Dequeue returns a channel that will receive records as they become available.
func (q *InMemoryQueue) Dequeue(ctx context.Context) <-chan Record {
	out := make(chan Record)
	go func() {
		defer close(out)
		for r := range q.records {
			select {
			case out <- r:
				metrics.UpdateRecordQueueSize(len(q.records))
			case <-ctx.Done():
				return
			}
		}
	}()
	return out
}

// Len returns the current number of queued records.
func (q *InMemoryQueue) Len(_ context.Context) int {
	size := len(q.records)
	metrics.UpdateRecordQueueSize(size)
	return size
}

// Close stops the queue. It is safe to call more than once.
func (q *InMemoryQueue) Close() error {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return nil
	}
	close(q.records)
	q.closed = true
	return nil
}

// IsClosed returns true if the queue has been closed.
func (q *InMemoryQueue) IsClosed() bool {
	q.mu.RLock()
	defer q.mu.RUnlock()
	return q.closed
}
