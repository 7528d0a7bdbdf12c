package simulate

import (
	"context"
	"errors"
	"testing"

	"github.com/okian/cogtrain/internal/domain/model"
	"github.com/okian/cogtrain/pkg/logger"
	. "github.com/smartystreets/goconvey/convey"
)

func init() {
	if err := logger.Init(); err != nil {
		panic(err)
	}
}

func TestConfig(t *testing.T) {
	Convey("Given the default config", t, func() {
		cfg := DefaultConfig()

		Convey("It is valid and prefers hard", func() {
			So(cfg.Validate(), ShouldBeNil)
			So(cfg.BestAction(), ShouldEqual, model.Hard)
		})

		Convey("A window larger than the run is rejected", func() {
			cfg.Window = cfg.Trials + 1
			So(errors.Is(cfg.Validate(), ErrInvalidConfig), ShouldBeTrue)
		})

		Convey("A missing probability is rejected", func() {
			cfg.RewardProbabilities = map[model.Action]float64{model.Easy: 1}
			So(errors.Is(cfg.Validate(), ErrInvalidConfig), ShouldBeTrue)
		})

		Convey("An out of range probability is rejected", func() {
			cfg.RewardProbabilities = map[model.Action]float64{model.Easy: 1, model.Medium: 0, model.Hard: 1.5}
			So(errors.Is(cfg.Validate(), ErrInvalidConfig), ShouldBeTrue)
		})

		Convey("A zero epsilon floor is rejected", func() {
			cfg.EpsilonFloor = 0
			So(errors.Is(cfg.Validate(), ErrInvalidConfig), ShouldBeTrue)
		})
	})
}

func TestRun(t *testing.T) {
	Convey("Given a seeded simulation with a clearly best action", t, func() {
		ctx := context.Background()
		cfg := DefaultConfig()

		Convey("The selector settles on it", func() {
			stats, err := Run(ctx, cfg)
			So(err, ShouldBeNil)
			So(stats.BestShare(), ShouldBeGreaterThan, 0.5)
			So(stats.ActionCounts[model.Hard], ShouldBeGreaterThan, stats.ActionCounts[model.Easy])
			total := stats.ActionCounts[model.Easy] + stats.ActionCounts[model.Medium] + stats.ActionCounts[model.Hard]
			So(total, ShouldEqual, cfg.Trials)
		})

		Convey("The same seed reproduces the same result", func() {
			a, err := Run(ctx, cfg)
			So(err, ShouldBeNil)
			b, err := Run(ctx, cfg)
			So(err, ShouldBeNil)
			So(a.BestInWindow, ShouldEqual, b.BestInWindow)
			So(a.ActionCounts, ShouldResemble, b.ActionCounts)
		})

		Convey("Several learners run concurrently", func() {
			cfg.Learners = 4
			cfg.Workers = 2
			cfg.Trials = 400
			cfg.Window = 50
			stats, err := Run(ctx, cfg)
			So(err, ShouldBeNil)
			So(stats.Learners, ShouldEqual, 4)
			So(stats.BestShare(), ShouldBeGreaterThan, 0.5)
		})

		Convey("A cancelled context aborts the run", func() {
			cctx, cancel := context.WithCancel(ctx)
			cancel()
			_, err := Run(cctx, cfg)
			So(errors.Is(err, context.Canceled), ShouldBeTrue)
		})

		Convey("An invalid config is rejected before running", func() {
			cfg.Trials = 0
			_, err := Run(ctx, cfg)
			So(errors.Is(err, ErrInvalidConfig), ShouldBeTrue)
		})
	})
}
