package countdown

import "time"

// Status is the derived countdown state for a session at a point in time.
type Status struct {
	Remaining time.Duration
	Overdue   bool
	Progress  float64
}

// Compute derives the countdown from the session timestamps. While the
// session is paused the reference clock is the pause instant, so the
// remaining time is frozen exactly where it was when the user paused; it must
// never drift with wall-clock time. A paused session is never overdue.
func Compute(target, start time.Time, pausedAt *time.Time, now time.Time) Status {
	reference := now
	paused := pausedAt != nil && !pausedAt.IsZero()
	if paused {
		reference = *pausedAt
	}

	remaining := target.Sub(reference)
	return Status{
		Remaining: remaining,
		Overdue:   remaining < 0 && !paused,
		Progress:  progress(target, start, reference),
	}
}

func progress(target, start, reference time.Time) float64 {
	if start.IsZero() || !target.After(start) {
		return 0
	}
	pct := float64(reference.Sub(start)) / float64(target.Sub(start)) * 100
	if pct < 0 {
		return 0
	}
	if pct > 100 {
		return 100
	}
	return pct
}
