package runner

import (
	"sync"

	"focusctl/internal/types"
)

type EventKind string

const (
	EventViewUpdated      EventKind = "view_updated"
	EventSessionRecovered EventKind = "session_recovered"
	EventSyncError        EventKind = "sync_error"
)

type Event struct {
	Kind    EventKind
	View    *View
	Session *types.WorkSession
	Err     error
}

// Bus fans view updates out to subscribers. Delivery is best-effort: a slow
// subscriber drops events rather than stalling the poller or the ticker.
type Bus struct {
	mu   sync.Mutex
	subs map[int]chan Event
	next int
}

func NewBus() *Bus {
	return &Bus{subs: map[int]chan Event{}}
}

func (b *Bus) Subscribe() (<-chan Event, func()) {
	b.mu.Lock()
	defer b.mu.Unlock()
	id := b.next
	b.next++
	ch := make(chan Event, 16)
	b.subs[id] = ch
	return ch, func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		if sub, ok := b.subs[id]; ok {
			delete(b.subs, id)
			close(sub)
		}
	}
}

func (b *Bus) Publish(event Event) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, sub := range b.subs {
		select {
		case sub <- event:
		default:
		}
	}
}
