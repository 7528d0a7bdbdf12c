// Package worker applies queued practice outcomes to bandit arms.
package worker

import (
	"context"
	"fmt"
	"runtime"
	"strconv"
	"sync"
	"time"

	"github.com/okian/cogtrain/internal/domain/model"
	"github.com/okian/cogtrain/pkg/logger"
	"github.com/okian/cogtrain/pkg/metrics"
)

const poolShutdownTimeout = 30 * time.Second

// Applier performs one arm update.
type Applier interface {
	ApplyReward(ctx context.Context, userID, gameID string, bucket model.Bucket, action model.Action, reward float64) (model.BanditArm, error)
}

// Queue defines how workers receive outcomes.
type Queue interface {
	Dequeue() <-chan model.Outcome
}

// InMemoryWorker drains outcomes from a queue until it is closed.
type InMemoryWorker struct {
	queue   Queue
	applier Applier
	name    string
	done    chan struct{}
	logger  logger.Logger
}

// NewInMemoryWorker creates a new worker.
func NewInMemoryWorker(queue Queue, applier Applier, opts ...Option) *InMemoryWorker {
	w := &InMemoryWorker{
		queue:   queue,
		applier: applier,
		name:    "worker",
		done:    make(chan struct{}),
		logger:  logger.Get(),
	}
	for _, opt := range opts {
		opt(w)
	}
	w.logger = w.logger.Named(w.name)
	return w
}

// Run processes outcomes until the queue channel closes or ctx is done.
func (w *InMemoryWorker) Run(ctx context.Context) {
	defer close(w.done)

	outcomes := w.queue.Dequeue()
	for {
		select {
		case <-ctx.Done():
			return
		case o, ok := <-outcomes:
			if !ok {
				return
			}
			if err := w.Apply(ctx, o); err != nil {
				w.logger.Error(ctx, "error applying outcome", logger.Error(err))
			}
		}
	}
}

// Done is closed when Run returns.
func (w *InMemoryWorker) Done() <-chan struct{} { return w.done }

// Apply writes one outcome to its arm.
func (w *InMemoryWorker) Apply(ctx context.Context, o model.Outcome) error {
	start := time.Now()
	defer func() { metrics.RecordWorkerLatency(time.Since(start)) }()

	arm, err := w.applier.ApplyReward(ctx, o.UserID, o.GameID, o.Context, o.Action, o.Reward)
	if err != nil {
		metrics.RecordWorkerError()
		return fmt.Errorf("apply outcome user=%s game=%s: %w", o.UserID, o.GameID, err)
	}
	metrics.RecordBanditUpdate(o.GameID, o.Reward)
	w.logger.Debug(ctx, "arm updated",
		logger.String("user_id", o.UserID),
		logger.String("game_id", o.GameID),
		logger.String("context", string(o.Context)),
		logger.String("action", string(o.Action)),
		logger.Int("count", arm.Count),
		logger.Float64("value", arm.Value))
	return nil
}

// Pool manages multiple workers over one queue.
type Pool struct {
	workers []*InMemoryWorker
	queue   Queue
	cancel  context.CancelFunc
	once    sync.Once
	logger  logger.Logger
}

// NewPool creates a worker pool. workerCount < 1 means one per CPU.
func NewPool(workerCount int, queue Queue, applier Applier, opts ...PoolOption) *Pool {
	if workerCount < 1 {
		workerCount = runtime.NumCPU()
	}
	p := &Pool{
		workers: make([]*InMemoryWorker, workerCount),
		queue:   queue,
		cancel:  func() {},
		logger:  logger.Get(),
	}
	for _, opt := range opts {
		opt(p)
	}
	for i := range p.workers {
		p.workers[i] = NewInMemoryWorker(queue, applier,
			WithName("worker-"+strconv.Itoa(i)), WithLogger(p.logger))
	}
	p.logger = p.logger.Named("worker-pool")
	return p
}

// Start launches the workers. They keep running after ctx is cancelled so
// that Shutdown can drain the queue; Shutdown stops them.
func (p *Pool) Start(ctx context.Context) {
	runCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	p.cancel = cancel
	for _, w := range p.workers {
		go w.Run(runCtx)
	}
	metrics.UpdateWorkerCount(len(p.workers))
}

// Shutdown closes the queue and waits for the workers to drain it. Workers
// still busy when ctx or the pool timeout expires are cancelled.
func (p *Pool) Shutdown(ctx context.Context) error {
	var err error
	p.once.Do(func() {
		if closer, ok := p.queue.(interface{ Close() error }); ok {
			if cerr := closer.Close(); cerr != nil {
				p.logger.Error(ctx, "error closing queue", logger.Error(cerr))
			}
		}

		waitCtx, cancel := context.WithTimeout(ctx, poolShutdownTimeout)
		defer cancel()
		for i, w := range p.workers {
			select {
			case <-w.Done():
			case <-waitCtx.Done():
				p.logger.Warn(ctx, "worker drain timed out", logger.Int("worker_id", i))
				err = fmt.Errorf("drain outcomes: %w", waitCtx.Err())
			}
			if err != nil {
				break
			}
		}
		p.cancel()
		metrics.UpdateWorkerCount(0)
	})
	return err
}
