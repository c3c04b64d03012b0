package types

import "time"

type RescheduleStatus string

const (
	ReschedulePending  RescheduleStatus = "pending"
	RescheduleAccepted RescheduleStatus = "accepted"
	RescheduleRejected RescheduleStatus = "rejected"
)

// RescheduleChange is one proposed slot adjustment within a suggestion.
type RescheduleChange struct {
	TaskID   string `json:"task_id"`
	Title    string `json:"title,omitempty"`
	OldStart string `json:"old_start,omitempty"`
	NewStart string `json:"new_start,omitempty"`
}

// RescheduleSuggestion is a proposed adjustment to the remaining plan,
// offered after checkout. Once accepted or rejected it is terminal.
type RescheduleSuggestion struct {
	ID        string             `json:"id"`
	Summary   string             `json:"summary,omitempty"`
	Changes   []RescheduleChange `json:"changes,omitempty"`
	Status    RescheduleStatus   `json:"status"`
	Reason    string             `json:"reason,omitempty"`
	CreatedAt time.Time          `json:"created_at,omitempty"`
	DecidedAt *time.Time         `json:"decided_at,omitempty"`
}

func (s *RescheduleSuggestion) Decided() bool {
	return s != nil && s.Status != ReschedulePending && s.Status != ""
}
