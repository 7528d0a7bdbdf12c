// Package games holds the fixed catalog of assessment and practice games.
package games

import "sort"

// Domain names.
const (
	ExecutiveFunction = "Executive Function"
	Attention         = "Attention"
	Memory            = "Memory"
	MotorTiming       = "Motor Timing"
	Orientation       = "Orientation"
	Visuospatial      = "Visuospatial"
	Psychomotor       = "Psychomotor"
	Language          = "Language"
)

// DefaultFocus is the focus domain used when a user has no scores yet.
const DefaultFocus = Attention

// Game describes one catalog entry.
type Game struct {
	ID            string `json:"id"`
	Name          string `json:"name"`
	Domain        string `json:"domain"`
	Minutes       int    `json:"minutes"`
	LowerIsBetter bool   `json:"lower_is_better"`
	Practice      bool   `json:"practice"`
}

var catalog = []Game{ //nolint:gochecknoglobals // fixed vocabulary
	{ID: "stroop", Name: "Color Interference", Domain: ExecutiveFunction, Minutes: 2},
	{ID: "trails_switch", Name: "Trail Switching", Domain: ExecutiveFunction, Minutes: 3, Practice: true},
	{ID: "tapping", Name: "Finger Tapping", Domain: MotorTiming, Minutes: 1, LowerIsBetter: true},
	{ID: "recall", Name: "Word Recall", Domain: Memory, Minutes: 3},
	{ID: "orientation", Name: "Orientation Quiz", Domain: Orientation, Minutes: 2},
	{ID: "visual_puzzle", Name: "Visual Puzzle", Domain: Visuospatial, Minutes: 3, Practice: true},
	{ID: "typing-velocity", Name: "Typing Velocity", Domain: Psychomotor, Minutes: 2},
	{ID: "fluency", Name: "Verbal Fluency", Domain: Language, Minutes: 1},
	{ID: "focus", Name: "Focus Warm-up", Domain: Attention, Minutes: 1, Practice: true},
}

var byID = func() map[string]Game { //nolint:gochecknoglobals // index over catalog
	m := make(map[string]Game, len(catalog))
	for _, g := range catalog {
		m[g.ID] = g
	}
	return m
}()

// Lookup returns the game with the given id.
func Lookup(id string) (Game, bool) {
	g, ok := byID[id]
	return g, ok
}

// Known reports whether id is in the catalog.
func Known(id string) bool {
	_, ok := byID[id]
	return ok
}

// LowerIsBetter reports whether smaller raw values are better for id.
// Unknown games are treated as higher-is-better.
func LowerIsBetter(id string) bool {
	return byID[id].LowerIsBetter
}

// All returns a copy of the catalog in declaration order.
func All() []Game {
	out := make([]Game, len(catalog))
	copy(out, catalog)
	return out
}

// Domains returns the distinct domains in sorted order.
func Domains() []string {
	seen := make(map[string]struct{})
	var out []string
	for _, g := range catalog {
		if _, ok := seen[g.Domain]; ok {
			continue
		}
		seen[g.Domain] = struct{}{}
		out = append(out, g.Domain)
	}
	sort.Strings(out)
	return out
}
