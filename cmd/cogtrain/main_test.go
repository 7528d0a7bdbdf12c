package main

import (
	"bytes"
	"context"
	"encoding/json"
	"path/filepath"
	"testing"

	"github.com/smartystreets/goconvey/convey"

	"github.com/okian/cogtrain/internal/config"
	"github.com/okian/cogtrain/internal/domain/model"
	"github.com/okian/cogtrain/pkg/logger"
)

func run(args ...string) (string, error) {
	root := newRootCMD()
	var out, errOut bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&errOut)
	root.SetArgs(args)
	err := root.Execute()
	return out.String(), err
}

func TestRootCommand(t *testing.T) {
	convey.Convey("Given the root command", t, func() {
		root := newRootCMD()

		convey.Convey("Then every subcommand is registered", func() {
			names := make([]string, 0, len(root.Commands()))
			for _, c := range root.Commands() {
				names = append(names, c.Name())
			}
			for _, want := range []string{"serve", "plan", "simulate", "migrate"} {
				convey.So(names, convey.ShouldContain, want)
			}
		})
	})
}

func TestPlanCommand(t *testing.T) {
	convey.Convey("Given the plan command", t, func() {
		convey.Convey("When asked for three days from a fixed start", func() {
			out, err := run("plan", "--days", "3", "--start", "2026-01-05", "--seed", "1", "--avg", "Memory=1.5")
			convey.So(err, convey.ShouldBeNil)

			var plan model.SchedulePlan
			convey.So(json.Unmarshal([]byte(out), &plan), convey.ShouldBeNil)

			convey.Convey("Then it prints a normalized plan", func() {
				convey.So(plan.NumDays, convey.ShouldEqual, 3)
				convey.So(plan.Days, convey.ShouldHaveLength, 3)
				convey.So(plan.StartDate.String(), convey.ShouldEqual, "2026-01-05")
				convey.So(plan.Days[2].Date.String(), convey.ShouldEqual, "2026-01-07")
				for _, d := range plan.Days {
					convey.So(len(d.Games), convey.ShouldBeBetweenOrEqual, 3, 5)
				}
			})
		})

		convey.Convey("When an average is not a number", func() {
			_, err := run("plan", "--avg", "Memory=high")
			convey.So(err, convey.ShouldNotBeNil)
		})

		convey.Convey("When days is not positive", func() {
			_, err := run("plan", "--days", "0")
			convey.So(err, convey.ShouldNotBeNil)
		})
	})
}

func TestSimulateCommand(t *testing.T) {
	convey.Convey("Given the simulate command", t, func() {
		out, err := run("simulate", "--trials", "500", "--window", "50", "--seed", "7")

		convey.Convey("Then it reports convergence on the best action", func() {
			convey.So(err, convey.ShouldBeNil)
			convey.So(out, convey.ShouldContainSubstring, "best action:   hard")
			convey.So(out, convey.ShouldContainSubstring, "last 50 of 500 trials")
		})
	})
}

func TestMigrateCommand(t *testing.T) {
	convey.Convey("Given an empty database path", t, func() {
		path := filepath.Join(t.TempDir(), "cogtrain.db")

		convey.Convey("Then migrate creates the schema", func() {
			out, err := run("migrate", "--db", path)
			convey.So(err, convey.ShouldBeNil)
			convey.So(out, convey.ShouldContainSubstring, "schema version 2")

			again, err := run("migrate", "--db", path)
			convey.So(err, convey.ShouldBeNil)
			convey.So(again, convey.ShouldEqual, out)
		})
	})
}

func TestServiceWiring(t *testing.T) {
	convey.Convey("Given a config with an in-memory arm store", t, func() {
		ctx := context.Background()
		cfg := config.New()
		cfg.DBPath = filepath.Join(t.TempDir(), "wiring.db")
		cfg.ArmStore = config.ArmStoreMemory
		cfg.OutcomeWorkers = 1

		b, err := openBackends(ctx, cfg)
		convey.So(err, convey.ShouldBeNil)
		defer func() { _ = b.Close() }()

		convey.Convey("Then the service starts, serves and stops", func() {
			svc, err := newService(cfg, b, logger.NewNop())
			convey.So(err, convey.ShouldBeNil)
			convey.So(svc.Start(ctx), convey.ShouldBeNil)

			choice, err := svc.SelectDifficulty(ctx, "u1", "trails_switch")
			convey.So(err, convey.ShouldBeNil)
			convey.So(choice.Context, convey.ShouldEqual, model.Mid)

			sched, err := svc.GenerateSchedule(ctx, "u1", 2)
			convey.So(err, convey.ShouldBeNil)
			convey.So(sched.Plan.Days, convey.ShouldHaveLength, 2)
			convey.So(svc.GetStats()["generator"], convey.ShouldEqual, false)

			convey.So(svc.Stop(ctx), convey.ShouldBeNil)
		})
	})
}
