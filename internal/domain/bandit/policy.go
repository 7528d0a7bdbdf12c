// Package bandit implements the epsilon-greedy difficulty selector and the
// reward accounting that feeds it.
package bandit

import (
	"math"
	"math/rand"

	"github.com/okian/cogtrain/internal/domain/model"
)

// DefaultEpsilonFloor is the minimum exploration probability.
const DefaultEpsilonFloor = 0.1

// Epsilon returns max(floor, 1/sqrt(totalN+1)). Negative counts are treated
// as zero and the result is capped at 1.
func Epsilon(totalN int, floor float64) float64 {
	if totalN < 0 {
		totalN = 0
	}
	eps := 1 / math.Sqrt(float64(totalN)+1)
	if eps < floor {
		eps = floor
	}
	if eps > 1 {
		eps = 1
	}
	return eps
}

// Decision is the outcome of one policy step.
type Decision struct {
	Action   model.Action
	Explored bool
	Epsilon  float64
}

// Choose applies the epsilon-greedy policy to the arms of one context.
// Rows for unknown actions are ignored and the last row for an action wins,
// for both the value and the count that drives epsilon.
func Choose(arms []model.BanditArm, floor float64, rng *rand.Rand) Decision {
	latest := make(map[model.Action]model.BanditArm, len(model.Actions))
	for _, a := range arms {
		latest[a.Action] = a
	}
	values := make(map[model.Action]float64, len(model.Actions))
	total := 0
	for _, act := range model.Actions {
		if a, ok := latest[act]; ok {
			values[act] = a.Value
			total += a.Count
		}
	}
	eps := Epsilon(total, floor)

	if len(values) == 0 || rng.Float64() < eps {
		return Decision{Action: Random(rng), Explored: true, Epsilon: eps}
	}
	return Decision{Action: Greedy(values), Epsilon: eps}
}

// Greedy returns the action with the highest value. Ties go to the earliest
// action in declaration order; missing actions count as zero.
func Greedy(values map[model.Action]float64) model.Action {
	best := model.Actions[0]
	bestValue := values[best]
	for _, a := range model.Actions[1:] {
		if v := values[a]; v > bestValue {
			best, bestValue = a, v
		}
	}
	return best
}

// Random returns a uniformly random action.
func Random(rng *rand.Rand) model.Action {
	return model.Actions[rng.Intn(len(model.Actions))]
}
