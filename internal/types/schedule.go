package types

import "time"

// ScheduleEntry is one slot of the day's plan. Start and End are wall-clock
// times in "HH:MM" form, as the planner emits them.
type ScheduleEntry struct {
	TaskID string `json:"task_id"`
	Title  string `json:"title,omitempty"`
	Start  string `json:"start,omitempty"`
	End    string `json:"end,omitempty"`
	Order  int    `json:"order"`
}

// StartTime resolves the entry's start against the given day. ok is false
// when the slot has no parseable start time.
func (e ScheduleEntry) StartTime(day time.Time) (time.Time, bool) {
	return resolveClock(e.Start, day)
}

// EndTime resolves the entry's end against the given day.
func (e ScheduleEntry) EndTime(day time.Time) (time.Time, bool) {
	return resolveClock(e.End, day)
}

func resolveClock(clock string, day time.Time) (time.Time, bool) {
	parsed, err := time.Parse("15:04", clock)
	if err != nil {
		return time.Time{}, false
	}
	resolved := time.Date(day.Year(), day.Month(), day.Day(),
		parsed.Hour(), parsed.Minute(), 0, 0, day.Location())
	return resolved, true
}
