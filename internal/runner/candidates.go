package runner

import (
	"time"

	"focusctl/internal/types"
)

// maxCandidates caps the next-task suggestions surfaced by the runner.
const maxCandidates = 3

// NextCandidates picks upcoming tasks from the day's schedule: the active
// task is excluded, slots already started are skipped, and slots without a
// parseable start time are kept rather than silently dropped. Schedule order
// is preserved.
func NextCandidates(entries []types.ScheduleEntry, activeTaskID string, now time.Time) []types.ScheduleEntry {
	out := make([]types.ScheduleEntry, 0, maxCandidates)
	for _, entry := range entries {
		if entry.TaskID == "" || entry.TaskID == activeTaskID {
			continue
		}
		if start, ok := entry.StartTime(now); ok && start.Before(now) {
			continue
		}
		out = append(out, entry)
		if len(out) == maxCandidates {
			break
		}
	}
	return out
}
