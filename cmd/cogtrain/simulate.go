package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/okian/cogtrain/internal/domain/model"
	"github.com/okian/cogtrain/internal/simulate"
	"github.com/okian/cogtrain/pkg/logger"
)

func simulateCMD() *cobra.Command {
	cfg := simulate.DefaultConfig()
	var pEasy, pMedium, pHard float64

	sim := &cobra.Command{
		Use:   "simulate",
		Short: "Run synthetic learners against the difficulty selector",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := logger.InitWriter(cmd.ErrOrStderr()); err != nil {
				return err
			}
			cfg.RewardProbabilities = map[model.Action]float64{
				model.Easy:   pEasy,
				model.Medium: pMedium,
				model.Hard:   pHard,
			}
			stats, err := simulate.Run(cmd.Context(), cfg)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			_, _ = fmt.Fprintf(out, "best action:   %s\n", stats.BestAction)
			_, _ = fmt.Fprintf(out, "best share:    %.3f (last %d of %d trials, %d learners)\n",
				stats.BestShare(), stats.Window, stats.Trials, stats.Learners)
			_, _ = fmt.Fprintf(out, "explorations:  %d\n", stats.Explorations)
			for _, a := range model.Actions {
				_, _ = fmt.Fprintf(out, "%-14s %d\n", string(a)+":", stats.ActionCounts[a])
			}
			return nil
		},
	}

	f := sim.Flags()
	f.IntVar(&cfg.Trials, "trials", cfg.Trials, "selections per learner")
	f.IntVar(&cfg.Window, "window", cfg.Window, "trailing selections scored for convergence")
	f.IntVar(&cfg.Learners, "learners", cfg.Learners, "independent simulated users")
	f.IntVar(&cfg.Workers, "workers", cfg.Workers, "learners simulated concurrently")
	f.Int64Var(&cfg.Seed, "seed", cfg.Seed, "random seed")
	f.Float64Var(&cfg.EpsilonFloor, "epsilon", cfg.EpsilonFloor, "minimum exploration probability")
	f.Float64Var(&pEasy, "p-easy", cfg.RewardProbabilities[model.Easy], "improvement probability for easy")
	f.Float64Var(&pMedium, "p-medium", cfg.RewardProbabilities[model.Medium], "improvement probability for medium")
	f.Float64Var(&pHard, "p-hard", cfg.RewardProbabilities[model.Hard], "improvement probability for hard")
	return sim
}
