package types

import "time"

// SnoozeLimit is the maximum number of times a single session's checkout
// reminder may be postponed.
const SnoozeLimit = 2

// DefaultSnoozeMinutes is applied when a snooze request does not name a
// duration.
const DefaultSnoozeMinutes = 5

type SessionDecision string

const (
	SessionDecisionComplete SessionDecision = "complete"
	SessionDecisionContinue SessionDecision = "continue"
	SessionDecisionStop     SessionDecision = "stop"
)

func (d SessionDecision) Valid() bool {
	switch d {
	case SessionDecisionComplete, SessionDecisionContinue, SessionDecisionStop:
		return true
	}
	return false
}

// WorkSession is one continuous focus period on a single task. The backend is
// authoritative: at most one session per user has a nil EndedAt, and clients
// reconcile on conflict instead of repairing state locally.
type WorkSession struct {
	ID                string     `json:"id"`
	TaskID            string     `json:"task_id"`
	StartedAt         time.Time  `json:"started_at"`
	PlannedCheckoutAt time.Time  `json:"planned_checkout_at"`
	PausedAt          *time.Time `json:"paused_at,omitempty"`
	EndedAt           *time.Time `json:"ended_at,omitempty"`
	SnoozeCount       int        `json:"snooze_count"`
	PlannedOutcome    string     `json:"planned_outcome,omitempty"`
}

func (s *WorkSession) Active() bool {
	return s != nil && s.EndedAt == nil
}

func (s *WorkSession) Paused() bool {
	return s != nil && s.EndedAt == nil && s.PausedAt != nil
}

func (s *WorkSession) SnoozeExhausted() bool {
	return s != nil && s.SnoozeCount >= SnoozeLimit
}

type SnoozeResponse struct {
	Session      *WorkSession `json:"session"`
	SnoozedUntil time.Time    `json:"snoozed_until"`
}

// WorkLog is the reflection record the backend generates from a checkout.
// Content is markdown.
type WorkLog struct {
	ID        string    `json:"id"`
	SessionID string    `json:"session_id"`
	TaskID    string    `json:"task_id,omitempty"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"created_at"`
}

func CloneWorkSession(in *WorkSession) *WorkSession {
	if in == nil {
		return nil
	}
	out := *in
	if in.PausedAt != nil {
		v := *in.PausedAt
		out.PausedAt = &v
	}
	if in.EndedAt != nil {
		v := *in.EndedAt
		out.EndedAt = &v
	}
	return &out
}
