package schedule

import (
	"math"
	"math/rand"

	"github.com/okian/cogtrain/internal/domain/games"
	"github.com/okian/cogtrain/internal/domain/model"
)

// Source names where a persisted plan came from.
type Source string

// Plan sources.
const (
	SourceGenerator Source = "generator"
	SourceFallback  Source = "fallback"
)

// Usable reports whether raw carries at least one day object worth keeping.
// Anything else is replaced by the fallback plan rather than padded.
func Usable(raw any) bool {
	obj, ok := toGeneric(raw).(map[string]any)
	if !ok {
		return false
	}
	seq, ok := obj["days"].([]any)
	if !ok {
		return false
	}
	for _, d := range seq {
		if _, ok := d.(map[string]any); ok {
			return true
		}
	}
	return false
}

// BuildOrRepair normalizes raw when it is usable, otherwise normalizes a
// fallback plan built from averages. The result always has exactly days
// entries starting today.
func BuildOrRepair(raw any, days int, averages map[string]float64, today model.Date, rng *rand.Rand) (model.SchedulePlan, Source, Report) {
	if Usable(raw) {
		plan, rep := NormalizeWithReport(raw, days, today)
		return plan, SourceGenerator, rep
	}
	plan, rep := NormalizeWithReport(Fallback(days, averages, today, rng), days, today)
	return plan, SourceFallback, rep
}

// DomainAverages returns the mean value per domain with every game oriented
// so that higher is better: values of lower-is-better games are negated, as
// the bucketer does. Records without a domain or with a NaN value are skipped.
func DomainAverages(records []model.ScoreRecord) map[string]float64 {
	sums := make(map[string]float64)
	counts := make(map[string]int)
	for _, r := range records {
		if r.Domain == "" || math.IsNaN(r.Value) {
			continue
		}
		v := r.Value
		if games.LowerIsBetter(r.GameID) {
			v = -v
		}
		sums[r.Domain] += v
		counts[r.Domain]++
	}
	out := make(map[string]float64, len(sums))
	for d, s := range sums {
		out[d] = s / float64(counts[d])
	}
	return out
}
