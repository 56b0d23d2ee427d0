// Package queue buffers votes between the HTTP layer and the worker pool.
//
// Enqueue never blocks: a full queue is reported to the caller so it can
// apply backpressure instead of holding the request open.
package queue

import (
	"context"
	"sync"
	"time"

	"github.com/okian/scout/internal/domain/model"
	"github.com/okian/scout/pkg/metrics"
)

const defaultQueueCapacity = 10000

// Queue provides non-blocking enqueue and channel-based dequeue semantics.
type Queue interface {
	// Enqueue adds a vote. It returns ErrFull when at capacity and ErrClosed
	// after Close.
	Enqueue(ctx context.Context, v model.Vote) error

	// Dequeue returns a channel of votes. The channel is closed when the queue
	// is closed and drained, or when ctx is done.
	Dequeue(ctx context.Context) <-chan model.Vote

	Len(ctx context.Context) int
	Capacity() int

	// Close stops accepting votes. Queued votes remain available to Dequeue.
	Close() error
	IsClosed() bool
}

type envelope struct {
	vote     model.Vote
	enqueued time.Time
}

// InMemoryQueue implements Queue using a buffered channel.
type InMemoryQueue struct {
	items    chan envelope
	capacity int
	mu       sync.RWMutex
	closed   bool
}

// NewInMemoryQueue creates a new in-memory queue.
func NewInMemoryQueue(opts ...Option) *InMemoryQueue {
	q := &InMemoryQueue{capacity: defaultQueueCapacity}
	for _, opt := range opts {
		opt(q)
	}
	q.items = make(chan envelope, q.capacity)

	metrics.UpdateQueueCapacity(q.capacity)
	metrics.UpdateQueueSize(0)
	metrics.UpdateQueueUtilization(0)
	return q
}

func (q *InMemoryQueue) Enqueue(ctx context.Context, v model.Vote) error {
	q.mu.RLock()
	defer q.mu.RUnlock()

	if q.closed {
		metrics.RecordQueueEnqueueError()
		metrics.RecordErrorByComponent("queue", "closed")
		return ErrClosed
	}
	if err := ctx.Err(); err != nil {
		metrics.RecordQueueEnqueueError()
		metrics.RecordErrorByComponent("queue", "context_cancelled")
		return err
	}

	select {
	case q.items <- envelope{vote: v, enqueued: time.Now()}:
		metrics.RecordQueueEnqueue()
		q.publishSize()
		return nil
	default:
		metrics.RecordQueueEnqueueError()
		metrics.RecordErrorByComponent("queue", "queue_full")
		return ErrFull
	}
}

func (q *InMemoryQueue) Dequeue(ctx context.Context) <-chan model.Vote {
	out := make(chan model.Vote)
	go func() {
		defer close(out)
		for {
			select {
			case <-ctx.Done():
				return
			case env, ok := <-q.items:
				if !ok {
					return
				}
				metrics.RecordQueueDequeue()
				metrics.RecordQueueProcessingLatency(float64(time.Since(env.enqueued).Microseconds()) / 1000)
				q.publishSize()
				select {
				case out <- env.vote:
				case <-ctx.Done():
					return
				}
			}
		}
	}()
	return out
}

func (q *InMemoryQueue) Len(context.Context) int {
	return len(q.items)
}

func (q *InMemoryQueue) Capacity() int {
	return q.capacity
}

func (q *InMemoryQueue) publishSize() {
	size := len(q.items)
	metrics.UpdateQueueSize(size)
	metrics.UpdateQueueUtilization(float64(size) / float64(q.capacity))
}

func (q *InMemoryQueue) Close() error {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.closed {
		return nil
	}
	close(q.items)
	q.closed = true
	return nil
}

func (q *InMemoryQueue) IsClosed() bool {
	q.mu.RLock()
	defer q.mu.RUnlock()
	return q.closed
}
