package countdown

import (
	"sync"
	"time"
)

const tickInterval = time.Second

// Ticker drives once-per-second countdown re-evaluation while a session is
// running. It is fully stopped while the session is paused: no goroutine
// wakeups, no callbacks, so a paused countdown cannot tick into overdue.
type Ticker struct {
	onTick func(now time.Time)

	mu      sync.Mutex
	stop    chan struct{}
	running bool
}

func NewTicker(onTick func(now time.Time)) *Ticker {
	return &Ticker{onTick: onTick}
}

func (t *Ticker) Start() {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.running {
		return
	}
	t.stop = make(chan struct{})
	t.running = true
	go t.run(t.stop)
}

func (t *Ticker) Stop() {
	t.mu.Lock()
	defer t.mu.Unlock()
	if !t.running {
		return
	}
	close(t.stop)
	t.stop = nil
	t.running = false
}

func (t *Ticker) Running() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.running
}

func (t *Ticker) run(stop chan struct{}) {
	ticker := time.NewTicker(tickInterval)
	defer ticker.Stop()
	for {
		select {
		case <-stop:
			return
		case now := <-ticker.C:
			if t.onTick != nil {
				t.onTick(now)
			}
		}
	}
}
