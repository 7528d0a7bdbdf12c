package service

import (
	"math/rand"
	"time"

	"github.com/okian/cogtrain/internal/adapters/llm"
	"github.com/okian/cogtrain/internal/adapters/repository"
	"github.com/okian/cogtrain/pkg/logger"
)

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithStore uses one store for scores, arms and schedules.
func WithStore(st repository.Store) Option {
	return func(s *Service) {
		if st != nil {
			s.scores, s.arms, s.schedules = st, st, st
		}
	}
}

// WithArmStore overrides where bandit arms live.
func WithArmStore(a repository.ArmStore) Option {
	return func(s *Service) {
		if a != nil {
			s.arms = a
		}
	}
}

// WithGenerator sets the external schedule generator. Without one every
// schedule comes from the fallback planner.
func WithGenerator(g llm.Generator) Option {
	return func(s *Service) {
		if c, ok := g.(*llm.Client); ok && c == nil {
			return
		}
		s.generator = g
	}
}

// WithWorkerCount sets the number of outcome workers.
func WithWorkerCount(count int) Option {
	return func(s *Service) {
		if count > 0 {
			s.workerCount = count
		}
	}
}

// WithQueueSize sets the outcome queue capacity.
func WithQueueSize(size int) Option {
	return func(s *Service) {
		if size > 0 {
			s.queueSize = size
		}
	}
}

// WithDedupeSize sets how many submission ids are remembered.
func WithDedupeSize(size int) Option {
	return func(s *Service) {
		if size > 0 {
			s.dedupeSize = size
		}
	}
}

// WithRecentScoresLimit sets how many recent scores feed the bucketer.
func WithRecentScoresLimit(n int) Option {
	return func(s *Service) {
		if n >= 3 {
			s.recentLimit = n
		}
	}
}

// WithEpsilonFloor sets the minimum exploration probability.
func WithEpsilonFloor(floor float64) Option {
	return func(s *Service) {
		if floor > 0 && floor <= 1 {
			s.epsilonFloor = floor
		}
	}
}

// WithScheduleDays sets the default and maximum schedule length.
func WithScheduleDays(def, max int) Option {
	return func(s *Service) {
		if max > 0 && def > 0 && def <= max {
			s.defaultDays, s.maxDays = def, max
		}
	}
}

// WithLocation sets the timezone that decides the current calendar day.
func WithLocation(loc *time.Location) Option {
	return func(s *Service) {
		if loc != nil {
			s.loc = loc
		}
	}
}

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		if now != nil {
			s.now = now
		}
	}
}

// WithRand seeds difficulty selection and fallback plans.
func WithRand(rng *rand.Rand) Option {
	return func(s *Service) {
		if rng != nil {
			s.rng = rng
		}
	}
}

// WithLogger sets a custom logger for the service.
func WithLogger(l logger.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}
