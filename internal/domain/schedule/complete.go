package schedule

import (
	"time"

	"github.com/okian/cogtrain/internal/domain/model"
)

// MarkCompleted marks every task with gameID on today's entry as completed at
// now. Tasks that are already completed keep their timestamp. It reports
// whether anything changed.
func MarkCompleted(plan *model.SchedulePlan, gameID string, today model.Date, now time.Time) bool {
	if plan == nil {
		return false
	}
	changed := false
	for d := range plan.Days {
		if plan.Days[d].Date != today {
			continue
		}
		for g := range plan.Days[d].Games {
			task := &plan.Days[d].Games[g]
			if task.ID != gameID || task.Completed {
				continue
			}
			ts := now
			task.Completed = true
			task.CompletedAt = &ts
			changed = true
		}
	}
	return changed
}
