// Package service wires the cognitive-training components together.
// It owns the bandit selector, the outcome queue and its worker pool, the
// submission deduper and the schedule pipeline.
package service

import (
	"context"
	"fmt"
	"math/rand"
	"runtime"
	"sync"
	"time"

	"github.com/okian/cogtrain/internal/adapters/llm"
	"github.com/okian/cogtrain/internal/adapters/mq/queue"
	"github.com/okian/cogtrain/internal/adapters/mq/worker"
	"github.com/okian/cogtrain/internal/adapters/repository"
	"github.com/okian/cogtrain/internal/domain/bandit"
	"github.com/okian/cogtrain/internal/domain/dedupe"
	"github.com/okian/cogtrain/internal/domain/model"
	"github.com/okian/cogtrain/pkg/logger"
)

// Defaults used when no option overrides them.
const (
	DefaultRecentScoresLimit = 10
	DefaultScheduleDays      = 7
	DefaultMaxScheduleDays   = 30
	DefaultQueueSize         = 10_000
	DefaultDedupeSize        = 100_000

	// averageWindow bounds how many recent scores feed domain averages.
	averageWindow = 200
)

// Service coordinates difficulty selection, score intake and schedules.
type Service struct {
	mu sync.RWMutex

	scores    repository.ScoreStore
	arms      repository.ArmStore
	schedules repository.ScheduleStore
	generator llm.Generator

	selector *bandit.Selector
	deduper  dedupe.Deduper
	queue    *queue.InMemoryQueue
	pool     *worker.Pool

	workerCount  int
	queueSize    int
	dedupeSize   int
	recentLimit  int
	epsilonFloor float64
	defaultDays  int
	maxDays      int
	loc          *time.Location
	now          func() time.Time

	rngMu sync.Mutex
	rng   *rand.Rand

	logger  logger.Logger
	started bool
}

// New creates a service. Without WithStore everything lives in memory.
func New(opts ...Option) *Service {
	s := &Service{
		workerCount:  runtime.NumCPU(),
		queueSize:    DefaultQueueSize,
		dedupeSize:   DefaultDedupeSize,
		recentLimit:  DefaultRecentScoresLimit,
		epsilonFloor: bandit.DefaultEpsilonFloor,
		defaultDays:  DefaultScheduleDays,
		maxDays:      DefaultMaxScheduleDays,
		loc:          time.UTC,
		now:          time.Now,
		rng:          rand.New(rand.NewSource(time.Now().UnixNano())), //nolint:gosec // not security sensitive
		logger:       logger.Get().Named("service"),
	}

	for _, opt := range opts {
		opt(s)
	}

	if s.scores == nil {
		mem := repository.NewMemoryStore()
		s.scores, s.schedules = mem, mem
		if s.arms == nil {
			s.arms = mem
		}
	}

	s.selector = bandit.NewSelector(s.arms,
		bandit.WithEpsilonFloor(s.epsilonFloor),
		bandit.WithRand(rand.New(rand.NewSource(s.int63()))), //nolint:gosec // not security sensitive
		bandit.WithLogger(s.logger.Named("bandit")),
	)
	s.deduper = dedupe.NewInMemoryDeduper(dedupe.WithMaxSize(s.dedupeSize))

	return s
}

// Start creates the outcome queue and starts the worker pool.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return fmt.Errorf("service already started")
	}

	s.queue = queue.NewInMemoryQueue(queue.WithCapacity(s.queueSize))
	s.pool = worker.NewPool(s.workerCount, s.queue, s.arms, worker.WithPoolLogger(s.logger))
	s.pool.Start(ctx)
	s.started = true

	s.logger.Info(ctx, "service started",
		logger.Int("workers", s.workerCount),
		logger.Int("queue_size", s.queueSize),
		logger.Int("dedupe_size", s.dedupeSize),
		logger.Float64("epsilon_floor", s.epsilonFloor))

	return nil
}

// Stop closes the queue and waits for pending outcomes to be applied.
func (s *Service) Stop(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.started {
		return nil
	}
	s.started = false

	err := s.pool.Shutdown(ctx)
	s.logger.Info(ctx, "service stopped")
	return err
}

// IsRunning reports whether the worker pool is active.
func (s *Service) IsRunning() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.started
}

// GetStats returns a snapshot of internal counters.
func (s *Service) GetStats() map[string]any {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stats := map[string]any{
		"running":       s.started,
		"worker_count":  s.workerCount,
		"queue_size":    s.queueSize,
		"dedupe_size":   s.deduper.Size(),
		"epsilon_floor": s.epsilonFloor,
		"generator":     s.generator != nil,
		"default_days":  s.defaultDays,
		"max_days":      s.maxDays,
		"timezone":      s.loc.String(),
	}
	if s.queue != nil {
		stats["queue_length"] = s.queue.Len()
	}
	return stats
}

// enqueue hands an outcome to the pool. It applies inline when the pool is
// not running and reports whether the outcome was queued.
func (s *Service) enqueue(ctx context.Context, o model.Outcome) (bool, error) {
	s.mu.RLock()
	q, running := s.queue, s.started
	s.mu.RUnlock()

	if running && q.Enqueue(ctx, o) {
		return true, nil
	}
	if running {
		s.logger.Warn(ctx, "outcome queue full, applying inline",
			logger.String("user_id", o.UserID),
			logger.String("game_id", o.GameID))
	}
	if _, err := s.arms.ApplyReward(ctx, o.UserID, o.GameID, o.Context, o.Action, o.Reward); err != nil {
		return false, fmt.Errorf("apply reward: %w", err)
	}
	return false, nil
}

func (s *Service) today() model.Date {
	return model.DateOf(s.now().In(s.loc))
}

func (s *Service) int63() int64 {
	s.rngMu.Lock()
	defer s.rngMu.Unlock()
	return s.rng.Int63()
}

// withRand runs fn while holding the service rng.
func (s *Service) withRand(fn func(*rand.Rand)) {
	s.rngMu.Lock()
	defer s.rngMu.Unlock()
	fn(s.rng)
}
