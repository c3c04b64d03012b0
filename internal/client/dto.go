package client

import "focusctl/internal/types"

type StartSessionRequest struct {
	TaskID            string `json:"task_id"`
	PlannedCheckoutAt string `json:"planned_checkout_at"`
	PlannedOutcome    string `json:"planned_outcome,omitempty"`
}

type CheckoutRequest struct {
	Decision               types.SessionDecision `json:"decision"`
	CheckoutType           string                `json:"checkout_type,omitempty"`
	ContinueReason         string                `json:"continue_reason,omitempty"`
	KPTKeep                string                `json:"kpt_keep,omitempty"`
	KPTProblem             string                `json:"kpt_problem,omitempty"`
	KPTTry                 string                `json:"kpt_try,omitempty"`
	RemainingEstimateHours *float64              `json:"remaining_estimate_hours,omitempty"`
	NextTaskID             string                `json:"next_task_id,omitempty"`
	IdempotencyKey         string                `json:"idempotency_key,omitempty"`
}

type CheckoutResponse struct {
	Session              *types.WorkSession          `json:"session"`
	GeneratedLog         *types.WorkLog              `json:"generated_log,omitempty"`
	RescheduleSuggestion *types.RescheduleSuggestion `json:"reschedule_suggestion,omitempty"`
}

type ResumeSessionRequest struct {
	ExtendCheckout bool `json:"extend_checkout"`
}

type SnoozeRequest struct {
	SnoozeMinutes int `json:"snooze_minutes"`
}

type SessionsResponse struct {
	Sessions []*types.WorkSession `json:"sessions"`
}

type ScheduleResponse struct {
	Date    string                `json:"date"`
	Entries []types.ScheduleEntry `json:"entries"`
}

type ReschedulesResponse struct {
	Suggestions []*types.RescheduleSuggestion `json:"suggestions"`
}

type RescheduleDecisionRequest struct {
	Reason string `json:"reason,omitempty"`
}

type HealthResponse struct {
	OK      bool   `json:"ok"`
	Version string `json:"version"`
}
