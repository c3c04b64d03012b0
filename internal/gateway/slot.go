package gateway

import (
	"errors"
	"sync"
	"time"

	"focusctl/internal/types"
)

// ErrChannelDown reports that the push channel could not be re-established
// within its retry budget.
var ErrChannelDown = errors.New("push channel unavailable after bounded reconnect attempts")

// Slot holds the single current reminder. A new message replaces whatever is
// showing; light-level messages clear themselves after a fixed interval
// unless superseded first.
type Slot struct {
	mu           sync.Mutex
	current      *types.NotificationMessage
	timer        *time.Timer
	dismissAfter time.Duration
	onChange     func(*types.NotificationMessage)
}

func NewSlot(onChange func(*types.NotificationMessage)) *Slot {
	return &Slot{
		dismissAfter: types.LightDismissAfter,
		onChange:     onChange,
	}
}

func (s *Slot) Set(msg *types.NotificationMessage) {
	if msg == nil {
		return
	}
	s.mu.Lock()
	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
	s.current = msg
	if msg.AutoDismiss() {
		id := msg.ID
		s.timer = time.AfterFunc(s.dismissAfter, func() {
			s.clearIf(id)
		})
	}
	s.mu.Unlock()
	s.notify(msg)
}

func (s *Slot) Dismiss() {
	s.mu.Lock()
	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
	s.current = nil
	s.mu.Unlock()
	s.notify(nil)
}

func (s *Slot) Current() *types.NotificationMessage {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.current
}

// clearIf dismisses only if the given message is still showing; a reminder
// that superseded it stays.
func (s *Slot) clearIf(id string) {
	s.mu.Lock()
	if s.current == nil || s.current.ID != id {
		s.mu.Unlock()
		return
	}
	s.current = nil
	s.timer = nil
	s.mu.Unlock()
	s.notify(nil)
}

func (s *Slot) notify(msg *types.NotificationMessage) {
	if s.onChange != nil {
		s.onChange(msg)
	}
}
