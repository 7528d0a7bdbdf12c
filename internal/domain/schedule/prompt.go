package schedule

import (
	"fmt"
	"sort"
	"strings"

	"github.com/okian/cogtrain/internal/domain/games"
	"github.com/okian/cogtrain/internal/domain/model"
)

// BuildPrompt renders the instruction sent to the external text generator.
// The output is deterministic for the same inputs.
func BuildPrompt(days int, averages map[string]float64, today model.Date) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Create a %d-day cognitive training plan starting %s.\n", days, today)

	b.WriteString("Average scores by domain (lower means weaker):\n")
	if len(averages) == 0 {
		b.WriteString("- no scores recorded yet\n")
	}
	domains := make([]string, 0, len(averages))
	for d := range averages {
		domains = append(domains, d)
	}
	sort.Strings(domains)
	for _, d := range domains {
		fmt.Fprintf(&b, "- %s: %.2f\n", d, averages[d])
	}

	b.WriteString("Use only these game ids:\n")
	for _, g := range games.All() {
		fmt.Fprintf(&b, "- %s (%s, %s, about %d min)\n", g.ID, g.Name, g.Domain, g.Minutes)
	}

	b.WriteString("Reply with a single JSON object and nothing else, shaped like:\n")
	b.WriteString(`{"days":[{"focus":"Memory","description":"...","games":[{"id":"recall","minutes":3,"reason":"..."}]}]}`)
	b.WriteString("\nInclude 3 to 5 games per day and favour the weakest domains.\n")
	return b.String()
}
