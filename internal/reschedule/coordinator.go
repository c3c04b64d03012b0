// Package reschedule tracks the single pending schedule-change suggestion
// and applies the user's accept/reject decision against the backend.
package reschedule

import (
	"context"
	"errors"
	"sync"

	"focusctl/internal/client"
	"focusctl/internal/logging"
	"focusctl/internal/types"
)

// ErrNoPendingSuggestion reports a decision attempted with nothing offered.
var ErrNoPendingSuggestion = errors.New("no pending reschedule suggestion")

// DecisionAPI is the slice of the backend client the coordinator needs.
type DecisionAPI interface {
	PendingReschedules(ctx context.Context) ([]*types.RescheduleSuggestion, error)
	GetReschedule(ctx context.Context, id string) (*types.RescheduleSuggestion, error)
	AcceptReschedule(ctx context.Context, id, reason string) (*types.RescheduleSuggestion, error)
	RejectReschedule(ctx context.Context, id, reason string) (*types.RescheduleSuggestion, error)
}

// Coordinator holds at most one pending suggestion at a time, sourced from a
// checkout response or from the pending query. Accept and reject are terminal
// per suggestion; either clears the slot, and accept marks the schedule view
// stale through the onAccepted hook.
type Coordinator struct {
	api        DecisionAPI
	logger     logging.Logger
	onAccepted func()

	mu      sync.Mutex
	pending *types.RescheduleSuggestion
}

func NewCoordinator(api DecisionAPI, onAccepted func(), logger logging.Logger) *Coordinator {
	if logger == nil {
		logger = logging.Nop()
	}
	return &Coordinator{
		api:        api,
		logger:     logger,
		onAccepted: onAccepted,
	}
}

// Offer places a suggestion in the slot, typically straight from a checkout
// response. Decided suggestions are ignored.
func (c *Coordinator) Offer(suggestion *types.RescheduleSuggestion) {
	if suggestion == nil || suggestion.Decided() {
		return
	}
	c.mu.Lock()
	c.pending = suggestion
	c.mu.Unlock()
	c.logger.Info("reschedule_offered", logging.F("id", suggestion.ID))
}

// Pending returns the current suggestion, or nil.
func (c *Coordinator) Pending() *types.RescheduleSuggestion {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.pending
}

// Refresh re-reads the pending set from the backend. The first pending
// suggestion fills the slot; an empty set clears it.
func (c *Coordinator) Refresh(ctx context.Context) error {
	suggestions, err := c.api.PendingReschedules(ctx)
	if err != nil {
		return err
	}
	var next *types.RescheduleSuggestion
	for _, s := range suggestions {
		if s != nil && !s.Decided() {
			next = s
			break
		}
	}
	c.mu.Lock()
	c.pending = next
	c.mu.Unlock()
	return nil
}

// Accept applies the terminal accept decision for the pending suggestion.
// On success the slot clears and the schedule view is marked stale.
func (c *Coordinator) Accept(ctx context.Context, reason string) (*types.RescheduleSuggestion, error) {
	return c.decide(ctx, reason, true)
}

// Reject applies the terminal reject decision for the pending suggestion.
func (c *Coordinator) Reject(ctx context.Context, reason string) (*types.RescheduleSuggestion, error) {
	return c.decide(ctx, reason, false)
}

func (c *Coordinator) decide(ctx context.Context, reason string, accept bool) (*types.RescheduleSuggestion, error) {
	c.mu.Lock()
	pending := c.pending
	c.mu.Unlock()
	if pending == nil {
		return nil, ErrNoPendingSuggestion
	}

	var (
		decided *types.RescheduleSuggestion
		err     error
	)
	if accept {
		decided, err = c.api.AcceptReschedule(ctx, pending.ID, reason)
	} else {
		decided, err = c.api.RejectReschedule(ctx, pending.ID, reason)
	}
	if err != nil {
		// A suggestion decided elsewhere is gone either way.
		if errors.Is(err, client.ErrNotFound) || errors.Is(err, client.ErrConflict) {
			c.clearIf(pending.ID)
		}
		return nil, err
	}

	c.clearIf(pending.ID)
	c.logger.Info("reschedule_decided",
		logging.F("id", pending.ID),
		logging.F("accepted", accept),
	)
	if accept && c.onAccepted != nil {
		c.onAccepted()
	}
	return decided, nil
}

func (c *Coordinator) clearIf(id string) {
	c.mu.Lock()
	if c.pending != nil && c.pending.ID == id {
		c.pending = nil
	}
	c.mu.Unlock()
}
