package simulate

import (
	"context"
	"fmt"
	"math/rand"
	"strconv"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/okian/cogtrain/internal/adapters/repository"
	"github.com/okian/cogtrain/internal/domain/bandit"
	"github.com/okian/cogtrain/internal/domain/model"
	"github.com/okian/cogtrain/pkg/logger"
)

const simGame = "simulated"

// learnerResult is one learner's tally.
type learnerResult struct {
	bestInWindow int
	explorations int
	counts       map[model.Action]int
}

// Run executes the simulation. Each learner has its own in-memory arm store
// and seeded random source, so results are reproducible for a given Seed.
func Run(ctx context.Context, cfg Config) (*Stats, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	workers := cfg.Workers
	if workers < 1 {
		workers = 1
	}

	stats := &Stats{
		Trials:       cfg.Trials,
		Window:       cfg.Window,
		Learners:     cfg.Learners,
		BestAction:   cfg.BestAction(),
		ActionCounts: make(map[model.Action]int, len(model.Actions)),
		StartTime:    time.Now(),
	}

	logger.Get().Info(ctx, "starting bandit simulation",
		logger.Int("trials", cfg.Trials),
		logger.Int("window", cfg.Window),
		logger.Int("learners", cfg.Learners),
		logger.Int("workers", workers),
		logger.Float64("epsilon_floor", cfg.EpsilonFloor),
		logger.String("best_action", string(stats.BestAction)))

	var mu sync.Mutex
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for i := 0; i < cfg.Learners; i++ {
		g.Go(func() error {
			res, err := runLearner(gctx, cfg, i, stats.BestAction)
			if err != nil {
				return err
			}
			mu.Lock()
			defer mu.Unlock()
			stats.BestInWindow += res.bestInWindow
			stats.Explorations += res.explorations
			for a, n := range res.counts {
				stats.ActionCounts[a] += n
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("simulation aborted: %w", err)
	}

	stats.EndTime = time.Now()
	stats.Duration = stats.EndTime.Sub(stats.StartTime)
	displayFinalStats(ctx, stats)
	return stats, nil
}

func runLearner(ctx context.Context, cfg Config, idx int, best model.Action) (learnerResult, error) {
	store := repository.NewMemoryStore()
	defer func() { _ = store.Close() }()

	rng := rand.New(rand.NewSource(cfg.Seed + int64(idx)))              //nolint:gosec // reproducible simulation
	outcomes := rand.New(rand.NewSource(cfg.Seed + int64(idx) + 1<<32)) //nolint:gosec // reproducible simulation
	sel := bandit.NewSelector(store,
		bandit.WithEpsilonFloor(cfg.EpsilonFloor),
		bandit.WithRand(rng),
		bandit.WithLogger(logger.NewNop()),
	)

	user := "learner-" + strconv.Itoa(idx)
	res := learnerResult{counts: make(map[model.Action]int, len(model.Actions))}
	windowStart := cfg.Trials - cfg.Window

	for t := 0; t < cfg.Trials; t++ {
		if err := ctx.Err(); err != nil {
			return learnerResult{}, err
		}
		choice := sel.Select(ctx, user, simGame, model.Mid)
		res.counts[choice.Action]++
		if choice.Explored {
			res.explorations++
		}
		if t >= windowStart && choice.Action == best {
			res.bestInWindow++
		}

		reward := bandit.Worsened
		if outcomes.Float64() < cfg.RewardProbabilities[choice.Action] {
			reward = bandit.Improved
		}
		if _, err := store.ApplyReward(ctx, user, simGame, model.Mid, choice.Action, reward); err != nil {
			return learnerResult{}, fmt.Errorf("apply reward: %w", err)
		}
	}
	return res, nil
}

// displayFinalStats logs the final simulation statistics.
func displayFinalStats(ctx context.Context, stats *Stats) {
	logger.Get().Info(ctx, "final statistics",
		logger.Int("trials", stats.Trials),
		logger.Int("learners", stats.Learners),
		logger.String("best_action", string(stats.BestAction)),
		logger.Float64("best_share", stats.BestShare()),
		logger.Int("explorations", stats.Explorations),
		logger.Int("easy", stats.ActionCounts[model.Easy]),
		logger.Int("medium", stats.ActionCounts[model.Medium]),
		logger.Int("hard", stats.ActionCounts[model.Hard]),
		logger.Duration("duration", stats.Duration))
}
