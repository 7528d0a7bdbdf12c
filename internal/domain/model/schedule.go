package model

import "time"

// SchedulePlan is a day-by-day practice plan. A normalized plan always has
// len(Days) == NumDays and Days[i].Date == StartDate+i.
type SchedulePlan struct {
	StartDate Date      `json:"start_date"`
	NumDays   int       `json:"num_days"`
	Days      []DayPlan `json:"days"`
}

// DayPlan is one day of a schedule.
type DayPlan struct {
	Date        Date       `json:"date"`
	Focus       string     `json:"focus"`
	Description string     `json:"description"`
	Games       []GameTask `json:"games"`
}

// GameTask is one game to play on a given day.
type GameTask struct {
	ID          string     `json:"id"`
	Name        string     `json:"name"`
	Minutes     *int       `json:"minutes,omitempty"`
	Reason      string     `json:"reason,omitempty"`
	Completed   bool       `json:"completed"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
}
