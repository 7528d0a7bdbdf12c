// Package simulate runs synthetic learners against the difficulty selector
// to check that it converges on the most rewarding action.
package simulate

import (
	"errors"
	"fmt"
	"time"

	"github.com/okian/cogtrain/internal/domain/bandit"
	"github.com/okian/cogtrain/internal/domain/model"
)

// ErrInvalidConfig is returned for unusable simulation parameters.
var ErrInvalidConfig = errors.New("invalid simulation config")

// Config holds configuration for a simulation run.
type Config struct {
	Trials       int   // selections per learner
	Window       int   // trailing selections scored for convergence
	Learners     int   // independent simulated users
	Workers      int   // learners simulated concurrently
	Seed         int64 // learner i uses Seed+i
	EpsilonFloor float64

	// RewardProbabilities is the chance each action yields an improvement.
	// Otherwise the session counts as worse.
	RewardProbabilities map[model.Action]float64
}

// DefaultConfig returns a run where hard is clearly the best action.
func DefaultConfig() Config {
	return Config{
		Trials:       1000,
		Window:       100,
		Learners:     1,
		Workers:      1,
		Seed:         42,
		EpsilonFloor: bandit.DefaultEpsilonFloor,
		RewardProbabilities: map[model.Action]float64{
			model.Easy:   0.2,
			model.Medium: 0.4,
			model.Hard:   0.8,
		},
	}
}

// Validate checks the configuration.
func (c Config) Validate() error {
	switch {
	case c.Trials < 1:
		return fmt.Errorf("%w: trials must be positive", ErrInvalidConfig)
	case c.Window < 1 || c.Window > c.Trials:
		return fmt.Errorf("%w: window must be in [1, trials]", ErrInvalidConfig)
	case c.Learners < 1:
		return fmt.Errorf("%w: learners must be positive", ErrInvalidConfig)
	case c.EpsilonFloor <= 0 || c.EpsilonFloor > 1:
		return fmt.Errorf("%w: epsilon floor must be in (0, 1]", ErrInvalidConfig)
	}
	for _, a := range model.Actions {
		p, ok := c.RewardProbabilities[a]
		if !ok {
			return fmt.Errorf("%w: missing reward probability for %s", ErrInvalidConfig, a)
		}
		if p < 0 || p > 1 {
			return fmt.Errorf("%w: reward probability for %s out of range", ErrInvalidConfig, a)
		}
	}
	return nil
}

// BestAction is the action with the highest reward probability. Ties go to
// the earlier action.
func (c Config) BestAction() model.Action {
	best := model.Actions[0]
	for _, a := range model.Actions[1:] {
		if c.RewardProbabilities[a] > c.RewardProbabilities[best] {
			best = a
		}
	}
	return best
}

// Stats holds simulation results.
type Stats struct {
	Trials       int
	Window       int
	Learners     int
	BestAction   model.Action
	BestInWindow int // selections of BestAction inside the window, all learners
	Explorations int
	ActionCounts map[model.Action]int
	StartTime    time.Time
	EndTime      time.Time
	Duration     time.Duration
}

// BestShare is the fraction of windowed selections that picked BestAction.
func (s Stats) BestShare() float64 {
	total := s.Window * s.Learners
	if total == 0 {
		return 0
	}
	return float64(s.BestInWindow) / float64(total)
}
