package main

import (
	"encoding/json"
	"fmt"
	"math/rand"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/okian/cogtrain/internal/domain/model"
	"github.com/okian/cogtrain/internal/domain/schedule"
)

func planCMD() *cobra.Command {
	var (
		days  int
		avgs  map[string]string
		seed  int64
		start string
	)
	plan := &cobra.Command{
		Use:   "plan",
		Short: "Print a fallback training plan as JSON",
		Example: `  cogtrain plan --days 5 --avg Memory=2.5 --avg Attention=7
  cogtrain plan --days 3 --start 2026-01-05 --seed 1`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if days < 1 {
				return fmt.Errorf("--days must be positive")
			}
			averages := make(map[string]float64, len(avgs))
			for domain, raw := range avgs {
				v, err := strconv.ParseFloat(raw, 64)
				if err != nil {
					return fmt.Errorf("--avg %s=%s: %w", domain, raw, err)
				}
				averages[domain] = v
			}

			today := model.DateOf(time.Now().UTC())
			if start != "" {
				d, err := model.ParseDate(start)
				if err != nil {
					return err
				}
				today = d
			}
			if seed == 0 {
				seed = time.Now().UnixNano()
			}

			rng := rand.New(rand.NewSource(seed)) //nolint:gosec // not security sensitive
			p, _, _ := schedule.BuildOrRepair(nil, days, averages, today, rng)

			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(p)
		},
	}
	plan.Flags().IntVar(&days, "days", 7, "number of days to plan")
	plan.Flags().StringToStringVar(&avgs, "avg", nil, "domain average score, e.g. Memory=3.5 (repeatable)")
	plan.Flags().Int64Var(&seed, "seed", 0, "random seed (0 = time based)")
	plan.Flags().StringVar(&start, "start", "", "first day as YYYY-MM-DD (default today, UTC)")
	return plan
}
