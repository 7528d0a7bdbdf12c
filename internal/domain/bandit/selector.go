package bandit

import (
	"context"
	"math/rand"
	"sync"
	"time"

	"github.com/okian/cogtrain/internal/domain/model"
	"github.com/okian/cogtrain/pkg/logger"
	"github.com/okian/cogtrain/pkg/metrics"
)

// ArmReader loads the arms recorded for one (user, game, context).
type ArmReader interface {
	Arms(ctx context.Context, userID, gameID string, bucket model.Bucket) ([]model.BanditArm, error)
}

// Choice is a difficulty recommendation.
type Choice struct {
	Action   model.Action
	Context  model.Bucket
	Explored bool
	Epsilon  float64
	// Fallback is set when arms could not be read and the action is random.
	Fallback bool
}

// Selector picks difficulty actions from stored arm statistics.
type Selector struct {
	arms  ArmReader
	floor float64
	log   logger.Logger
	mu    sync.Mutex
	rng   *rand.Rand
}

// Option configures a Selector.
type Option func(*Selector)

// WithEpsilonFloor sets the minimum exploration probability.
func WithEpsilonFloor(floor float64) Option {
	return func(s *Selector) {
		if floor > 0 && floor <= 1 {
			s.floor = floor
		}
	}
}

// WithRand sets the random source, mainly for deterministic tests.
func WithRand(rng *rand.Rand) Option {
	return func(s *Selector) {
		if rng != nil {
			s.rng = rng
		}
	}
}

// WithLogger sets the logger used for fail-closed warnings.
func WithLogger(l logger.Logger) Option {
	return func(s *Selector) {
		if l != nil {
			s.log = l
		}
	}
}

// NewSelector creates a Selector reading arms from r.
func NewSelector(r ArmReader, opts ...Option) *Selector {
	s := &Selector{
		arms:  r,
		floor: DefaultEpsilonFloor,
		log:   logger.Get().Named("bandit"),
		rng:   rand.New(rand.NewSource(time.Now().UnixNano())), //nolint:gosec // not security sensitive
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Select recommends an action for the context. It never fails: if the arms
// cannot be read the action is uniformly random.
func (s *Selector) Select(ctx context.Context, userID, gameID string, bucket model.Bucket) Choice {
	arms, err := s.arms.Arms(ctx, userID, gameID, bucket)

	s.mu.Lock()
	defer s.mu.Unlock()

	if err != nil {
		s.log.Warn(ctx, "arm lookup failed, choosing random difficulty",
			logger.String("user_id", userID),
			logger.String("game_id", gameID),
			logger.String("context", string(bucket)),
			logger.Error(err))
		metrics.RecordSelectorFallback("store_error")
		return Choice{Action: Random(s.rng), Context: bucket, Explored: true, Epsilon: 1, Fallback: true}
	}

	d := Choose(arms, s.floor, s.rng)
	metrics.RecordDifficultySelection(gameID, string(bucket), string(d.Action), d.Explored)
	return Choice{Action: d.Action, Context: bucket, Explored: d.Explored, Epsilon: d.Epsilon}
}
