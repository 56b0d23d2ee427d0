// Package worker applies queued votes to the store.
package worker

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"strconv"
	"sync/atomic"
	"time"

	"github.com/okian/scout/internal/domain/model"
	"github.com/okian/scout/pkg/logger"
	"github.com/okian/scout/pkg/metrics"
)

const poolShutdownTimeout = 30 * time.Second

// Applier records a vote against a project.
type Applier interface {
	ApplyVote(ctx context.Context, projectID string, dir model.Direction) (model.Project, error)
}

// Queue defines how workers receive votes.
type Queue interface {
	Dequeue(ctx context.Context) <-chan model.Vote
}

// Worker processes votes until its queue closes or it is shut down.
type Worker interface {
	Run(ctx context.Context)
	Shutdown(ctx context.Context) error
}

type stats struct {
	busy    atomic.Int64
	applied atomic.Int64
	failed  atomic.Int64
	workers int
}

func (s *stats) publish() {
	busy := int(s.busy.Load())
	metrics.UpdateWorkerActiveCount(busy)
	metrics.UpdateWorkerIdleCount(s.workers - busy)
}

// InMemoryWorker applies votes read from a Queue.
type InMemoryWorker struct {
	queue   Queue
	applier Applier
	name    string
	stats   *stats

	shutdown chan struct{}
	done     chan struct{}

	logger logger.Logger
}

// NewInMemoryWorker creates a worker.
func NewInMemoryWorker(queue Queue, applier Applier, opts ...Option) *InMemoryWorker {
	w := &InMemoryWorker{
		queue:    queue,
		applier:  applier,
		name:     "worker",
		stats:    &stats{workers: 1},
		shutdown: make(chan struct{}),
		done:     make(chan struct{}),
		logger:   logger.Get().Named("worker"),
	}
	for _, opt := range opts {
		opt(w)
	}
	if w.name != "worker" {
		w.logger = w.logger.Named(w.name)
	}
	return w
}

// Run applies votes until the queue channel closes, ctx is done or Shutdown
// is called.
func (w *InMemoryWorker) Run(ctx context.Context) {
	defer close(w.done)

	votes := w.queue.Dequeue(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-w.shutdown:
			return
		case v, ok := <-votes:
			if !ok {
				return
			}
			if err := w.process(ctx, v); err != nil {
				w.logger.Warn(ctx, "vote not applied", logger.String("vote_id", v.VoteID), logger.Error(err))
			}
		}
	}
}

// Shutdown stops the worker without draining and waits for it to exit.
func (w *InMemoryWorker) Shutdown(ctx context.Context) error {
	select {
	case <-w.shutdown:
	default:
		close(w.shutdown)
	}
	select {
	case <-w.done:
		return nil
	case <-ctx.Done():
		w.logger.Warn(ctx, "shutdown timed out")
		return fmt.Errorf("shutdown timed out: %w", ctx.Err())
	}
}

// Done is closed when Run returns.
func (w *InMemoryWorker) Done() <-chan struct{} {
	return w.done
}

func (w *InMemoryWorker) process(ctx context.Context, v model.Vote) error {
	start := time.Now()
	w.stats.busy.Add(1)
	w.stats.publish()
	defer func() {
		w.stats.busy.Add(-1)
		w.stats.publish()
		metrics.RecordWorkerProcessingLatency(float64(time.Since(start).Microseconds()) / 1000)
	}()

	if !v.Direction.Valid() {
		w.stats.failed.Add(1)
		metrics.RecordWorkerError()
		metrics.RecordErrorByComponent("worker", "invalid_direction")
		return fmt.Errorf("vote %s: invalid direction %q", v.VoteID, v.Direction)
	}

	if _, err := w.applier.ApplyVote(ctx, v.ProjectID, v.Direction); err != nil {
		w.stats.failed.Add(1)
		metrics.RecordWorkerError()
		kind := "apply_error"
		if errors.Is(err, context.Canceled) {
			kind = "cancelled"
		}
		metrics.RecordErrorByComponent("worker", kind)
		return fmt.Errorf("applying vote %s to %s: %w", v.VoteID, v.ProjectID, err)
	}

	w.stats.applied.Add(1)
	metrics.RecordVoteApplied()
	return nil
}

// Pool runs a fixed set of workers over one queue.
type Pool struct {
	workers []*InMemoryWorker
	queue   Queue
	stats   *stats
	cancel  context.CancelFunc
	logger  logger.Logger
}

// NewPool creates a pool. A workerCount below one uses runtime.NumCPU().
func NewPool(workerCount int, queue Queue, applier Applier) *Pool {
	if workerCount < 1 {
		workerCount = runtime.NumCPU()
	}
	p := &Pool{
		workers: make([]*InMemoryWorker, workerCount),
		queue:   queue,
		stats:   &stats{workers: workerCount},
		logger:  logger.Get().Named("worker-pool"),
	}
	for i := range p.workers {
		p.workers[i] = NewInMemoryWorker(queue, applier,
			WithName("worker-"+strconv.Itoa(i)),
			withStats(p.stats))
	}

	metrics.UpdateWorkerCount(workerCount)
	p.stats.publish()
	return p
}

// Start launches every worker. Workers stop when ctx is done.
func (p *Pool) Start(ctx context.Context) {
	ctx, p.cancel = context.WithCancel(ctx)
	for _, w := range p.workers {
		go w.Run(ctx)
	}
	p.logger.Info(ctx, "worker pool started", logger.Int("workers", len(p.workers)))
}

// Size returns the number of workers.
func (p *Pool) Size() int { return len(p.workers) }

// Applied returns how many votes were applied successfully.
func (p *Pool) Applied() int64 { return p.stats.applied.Load() }

// Failed returns how many votes could not be applied.
func (p *Pool) Failed() int64 { return p.stats.failed.Load() }

// Shutdown closes the queue, lets workers drain what is already queued and
// waits for them. Workers still running when ctx or the pool timeout expires
// are cancelled.
func (p *Pool) Shutdown(ctx context.Context) error {
	if closer, ok := p.queue.(interface{ Close() error }); ok {
		if err := closer.Close(); err != nil {
			p.logger.Error(ctx, "error closing queue", logger.Error(err))
		}
	}

	if p.cancel == nil {
		return nil
	}

	drainCtx, cancel := context.WithTimeout(ctx, poolShutdownTimeout)
	defer cancel()

	var timedOut bool
	for i, w := range p.workers {
		select {
		case <-w.done:
		case <-drainCtx.Done():
			timedOut = true
			p.logger.Warn(ctx, "worker drain timed out", logger.Int("worker_id", i))
		}
		if timedOut {
			break
		}
	}
	p.cancel()
	for _, w := range p.workers {
		<-w.done
	}
	p.logger.Info(ctx, "worker pool stopped",
		logger.Int64("applied", p.Applied()),
		logger.Int64("failed", p.Failed()))
	if timedOut {
		return fmt.Errorf("draining vote queue: %w", drainCtx.Err())
	}
	return nil
}
