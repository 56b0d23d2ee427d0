// Package dedupe tracks vote IDs so each vote is applied at most once.
package dedupe

import (
	"container/list"
	"context"
	"sync"
)

// DefaultMaxSize bounds the deduper when no size option is given.
const DefaultMaxSize = 100000

// Deduper records seen vote IDs.
type Deduper interface {
	// SeenAndRecord reports whether id was already recorded and records it if not.
	SeenAndRecord(ctx context.Context, id string) bool

	// Unrecord forgets id so a rejected submission can be retried.
	Unrecord(ctx context.Context, id string)

	Size() int64
}

// fifoDeduper keeps the most recent maxSize IDs and evicts the oldest first.
// A non-positive maxSize means unbounded.
type fifoDeduper struct {
	mu      sync.Mutex
	seen    map[string]*list.Element
	order   *list.List // front = oldest
	maxSize int
}

// NewInMemoryDeduper creates an in-memory deduper.
func NewInMemoryDeduper(opts ...Option) Deduper {
	d := &fifoDeduper{
		maxSize: DefaultMaxSize,
		seen:    make(map[string]*list.Element),
		order:   list.New(),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

func (d *fifoDeduper) SeenAndRecord(_ context.Context, id string) bool {
	d.mu.Lock()
	defer d.mu.Unlock()

	if _, ok := d.seen[id]; ok {
		return true
	}
	if d.maxSize > 0 && d.order.Len() >= d.maxSize {
		oldest := d.order.Front()
		d.order.Remove(oldest)
		delete(d.seen, oldest.Value.(string))
	}
	d.seen[id] = d.order.PushBack(id)
	return false
}

func (d *fifoDeduper) Unrecord(_ context.Context, id string) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if el, ok := d.seen[id]; ok {
		d.order.Remove(el)
		delete(d.seen, id)
	}
}

func (d *fifoDeduper) Size() int64 {
	d.mu.Lock()
	defer d.mu.Unlock()
	return int64(d.order.Len())
}
