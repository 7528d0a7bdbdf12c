package bandit

import "github.com/okian/cogtrain/internal/domain/model"

// Reward values.
const (
	Improved  = 1.0
	Unchanged = 0.0
	Worsened  = -1.0
)

// Reward compares the two most recent results, newest first. Fewer than two
// records yield Unchanged so the arm count still advances.
func Reward(recent []model.ScoreRecord, lowerIsBetter bool) float64 {
	if len(recent) < 2 {
		return Unchanged
	}
	delta := recent[0].Value - recent[1].Value
	if lowerIsBetter {
		delta = -delta
	}
	switch {
	case delta > 0:
		return Improved
	case delta < 0:
		return Worsened
	default:
		return Unchanged
	}
}

// UpdateMean applies one online mean step and returns the new count and value.
func UpdateMean(count int, value, reward float64) (int, float64) {
	if count < 0 {
		count = 0
	}
	return count + 1, value + (reward-value)/float64(count+1)
}
