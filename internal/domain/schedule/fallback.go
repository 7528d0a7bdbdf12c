package schedule

import (
	"fmt"
	"math"
	"math/rand"
	"sort"

	"github.com/okian/cogtrain/internal/domain/games"
	"github.com/okian/cogtrain/internal/domain/model"
)

const (
	maxFocusDomains = 3
	minDailyGames   = 3
	maxDailyGames   = 5
)

// FocusDomains ranks domains by ascending average score, ties by name, and
// returns up to three of the weakest. Empty or all-NaN input yields the
// default focus domain.
func FocusDomains(averages map[string]float64) []string {
	type entry struct {
		domain string
		avg    float64
	}
	ranked := make([]entry, 0, len(averages))
	for d, avg := range averages {
		if d == "" || math.IsNaN(avg) {
			continue
		}
		ranked = append(ranked, entry{domain: d, avg: avg})
	}
	if len(ranked) == 0 {
		return []string{games.DefaultFocus}
	}
	sort.Slice(ranked, func(i, j int) bool {
		if ranked[i].avg != ranked[j].avg {
			return ranked[i].avg < ranked[j].avg
		}
		return ranked[i].domain < ranked[j].domain
	})
	if len(ranked) > maxFocusDomains {
		ranked = ranked[:maxFocusDomains]
	}
	out := make([]string, len(ranked))
	for i, e := range ranked {
		out[i] = e.domain
	}
	return out
}

// Fallback builds a plan of days entries from domain averages without any
// external generator. Day i (1-based) focuses on focus[i mod len(focus)] and
// gets three to five distinct catalog games.
func Fallback(days int, averages map[string]float64, today model.Date, rng *rand.Rand) model.SchedulePlan {
	if days < 0 {
		days = 0
	}
	focus := FocusDomains(averages)
	catalog := games.All()

	plan := model.SchedulePlan{
		StartDate: today,
		NumDays:   days,
		Days:      make([]model.DayPlan, days),
	}
	for i := range plan.Days {
		domain := focus[(i+1)%len(focus)]
		plan.Days[i] = model.DayPlan{
			Date:        today.AddDays(i),
			Focus:       domain,
			Description: fmt.Sprintf("Short mixed session with extra attention on %s.", domain),
			Games:       pickGames(catalog, domain, rng),
		}
	}
	return plan
}

func pickGames(catalog []games.Game, focus string, rng *rand.Rand) []model.GameTask {
	hi := maxDailyGames
	if hi > len(catalog) {
		hi = len(catalog)
	}
	lo := minDailyGames
	if lo > hi {
		lo = hi
	}
	n := lo + rng.Intn(hi-lo+1)

	tasks := make([]model.GameTask, 0, n)
	for _, idx := range rng.Perm(len(catalog))[:n] {
		g := catalog[idx]
		minutes := g.Minutes
		task := model.GameTask{ID: g.ID, Name: g.Name, Minutes: &minutes}
		if g.Domain == focus {
			task.Reason = "Targets today's focus domain."
		}
		tasks = append(tasks, task)
	}
	return tasks
}
