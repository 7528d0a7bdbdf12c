// Package bucket maps a user's recent results for one game to a coarse
// performance tier.
package bucket

import (
	"math"
	"sort"

	"github.com/okian/cogtrain/internal/domain/model"
)

// MinSamples is the number of values needed before tiers are computed.
const MinSamples = 3

// Compute returns the tier of the newest value relative to the tertiles of
// all values. values are ordered newest first; NaN entries are ignored.
func Compute(values []float64, lowerIsBetter bool) model.Bucket {
	norm := make([]float64, 0, len(values))
	for _, v := range values {
		if math.IsNaN(v) {
			continue
		}
		if lowerIsBetter {
			v = -v
		}
		norm = append(norm, v)
	}
	n := len(norm)
	if n < MinSamples {
		return model.Mid
	}

	last := norm[0]
	sorted := append([]float64(nil), norm...)
	sort.Float64s(sorted)
	lowTh := sorted[n/3]
	highTh := sorted[2*n/3]

	switch {
	case last <= lowTh:
		return model.Low
	case last >= highTh:
		return model.High
	default:
		return model.Mid
	}
}

// FromScores is Compute over score records ordered newest first.
func FromScores(records []model.ScoreRecord, lowerIsBetter bool) model.Bucket {
	values := make([]float64, len(records))
	for i, r := range records {
		values[i] = r.Value
	}
	return Compute(values, lowerIsBetter)
}
