// Package schedule repairs, generates and annotates day-by-day practice
// plans. Everything here is pure: callers supply today's date, the clock and
// the random source.
package schedule

import (
	"encoding/json"
	"math"
	"strings"
	"time"

	"github.com/okian/cogtrain/internal/domain/games"
	"github.com/okian/cogtrain/internal/domain/model"
)

// Defaults for days that are missing or unusable.
const (
	DefaultFocus       = "Training"
	DefaultDescription = "Quick cognitive warm-up."
)

// Repair kinds reported by NormalizeWithReport.
const (
	RepairDaysMissing  = "days_missing"
	RepairTruncated    = "truncated"
	RepairPadded       = "padded"
	RepairDayReplaced  = "day_replaced"
	RepairGamesCoerced = "games_coerced"
	RepairGameDropped  = "game_dropped"
)

// Report lists the repairs applied by one normalization, one entry per event.
type Report struct {
	Repairs []string
}

func (r *Report) add(kind string) { r.Repairs = append(r.Repairs, kind) }

// Normalize repairs raw into a plan of exactly days entries starting today.
// raw may be nil, JSON text, decoded JSON, or any value that encodes to a
// JSON object, such as a SchedulePlan or a hand-built struct or map. It
// never panics on malformed input.
func Normalize(raw any, days int, today model.Date) model.SchedulePlan {
	plan, _ := NormalizeWithReport(raw, days, today)
	return plan
}

// NormalizeWithReport is Normalize that also reports what it repaired.
func NormalizeWithReport(raw any, days int, today model.Date) (model.SchedulePlan, Report) {
	var rep Report
	if days < 0 {
		days = 0
	}

	var source []any
	obj, _ := toGeneric(raw).(map[string]any)
	if seq, ok := obj["days"].([]any); ok {
		source = seq
	} else {
		rep.add(RepairDaysMissing)
	}

	switch {
	case len(source) > days:
		rep.add(RepairTruncated)
		source = source[:days]
	case len(source) < days:
		rep.add(RepairPadded)
	}

	plan := model.SchedulePlan{
		StartDate: today,
		NumDays:   days,
		Days:      make([]model.DayPlan, days),
	}
	for i := range plan.Days {
		var day model.DayPlan
		if i < len(source) {
			entry, ok := source[i].(map[string]any)
			if ok {
				day = normalizeDay(entry, &rep)
			} else {
				rep.add(RepairDayReplaced)
				day = defaultDay()
			}
		} else {
			day = defaultDay()
		}
		day.Date = today.AddDays(i)
		plan.Days[i] = day
	}
	return plan, rep
}

func defaultDay() model.DayPlan {
	return model.DayPlan{
		Focus:       DefaultFocus,
		Description: DefaultDescription,
		Games:       []model.GameTask{},
	}
}

func normalizeDay(entry map[string]any, rep *Report) model.DayPlan {
	day := defaultDay()
	if s, ok := entry["focus"].(string); ok && strings.TrimSpace(s) != "" {
		day.Focus = s
	}
	if s, ok := entry["description"].(string); ok && strings.TrimSpace(s) != "" {
		day.Description = s
	}

	list, ok := entry["games"].([]any)
	if !ok {
		if entry["games"] != nil {
			rep.add(RepairGamesCoerced)
		}
		return day
	}
	for _, item := range list {
		task, ok := normalizeTask(item)
		if !ok {
			rep.add(RepairGameDropped)
			continue
		}
		day.Games = append(day.Games, task)
	}
	return day
}

// normalizeTask accepts a task object or a bare game id. Unknown ids are
// rejected.
func normalizeTask(item any) (model.GameTask, bool) {
	var obj map[string]any
	switch v := item.(type) {
	case string:
		obj = map[string]any{"id": v}
	case map[string]any:
		obj = v
	default:
		return model.GameTask{}, false
	}

	id, _ := obj["id"].(string)
	id = strings.TrimSpace(id)
	game, ok := games.Lookup(id)
	if !ok {
		return model.GameTask{}, false
	}

	task := model.GameTask{ID: id, Name: game.Name}
	if name, ok := obj["name"].(string); ok && strings.TrimSpace(name) != "" {
		task.Name = name
	}
	if m, ok := toInt(obj["minutes"]); ok && m > 0 {
		task.Minutes = &m
	}
	if reason, ok := obj["reason"].(string); ok {
		task.Reason = reason
	}
	if done, ok := obj["completed"].(bool); ok && done {
		task.Completed = true
		if s, ok := obj["completed_at"].(string); ok {
			if ts, err := time.Parse(time.RFC3339Nano, s); err == nil {
				task.CompletedAt = &ts
			}
		}
	}
	return task, true
}

// toGeneric converts raw into decoded JSON values. Text is parsed; any other
// value, including maps holding typed slices or structs, is re-encoded so
// that only map[string]any and []any remain. A map that cannot be encoded is
// walked as is.
func toGeneric(raw any) any {
	switch v := raw.(type) {
	case nil:
		return nil
	case []byte:
		return decode(v)
	case json.RawMessage:
		return decode(v)
	case string:
		return decode([]byte(v))
	case map[string]any:
		if out, ok := roundTrip(v); ok {
			return out
		}
		return v
	default:
		out, _ := roundTrip(v)
		return out
	}
}

func roundTrip(v any) (any, bool) {
	b, err := json.Marshal(v)
	if err != nil {
		return nil, false
	}
	out := decode(b)
	return out, out != nil
}

func decode(b []byte) any {
	var out any
	if err := json.Unmarshal(b, &out); err != nil {
		return nil
	}
	return out
}

func toInt(v any) (int, bool) {
	var f float64
	switch n := v.(type) {
	case float64:
		f = n
	case float32:
		f = float64(n)
	case int:
		return n, true
	case int64:
		f = float64(n)
	case json.Number:
		parsed, err := n.Float64()
		if err != nil {
			return 0, false
		}
		f = parsed
	default:
		return 0, false
	}
	if math.IsNaN(f) || math.IsInf(f, 0) || f > math.MaxInt32 || f < math.MinInt32 {
		return 0, false
	}
	return int(math.Round(f)), true
}
