package runner

import (
	"context"
	"errors"
	"sync"
	"time"

	"focusctl/internal/client"
	"focusctl/internal/logging"
)

// pollInterval is the fixed cadence for refetching the current session; it
// catches server-side overdue transitions even with the push channel down.
const pollInterval = 60 * time.Second

// Poller periodically refreshes the orchestrator's session view. While no
// session is active it probes once for an unresponsive session left behind
// by a crashed client. Suspend stops the refresh cycle while the process is
// not the foreground context.
type Poller struct {
	orc      *Orchestrator
	logger   logging.Logger
	interval time.Duration

	mu        sync.Mutex
	suspended bool
	probed    bool
	stop      chan struct{}
	running   bool
}

func NewPoller(orc *Orchestrator, logger logging.Logger) *Poller {
	if logger == nil {
		logger = logging.Nop()
	}
	return &Poller{
		orc:      orc,
		logger:   logger,
		interval: pollInterval,
	}
}

func (p *Poller) Start(ctx context.Context) {
	p.mu.Lock()
	if p.running {
		p.mu.Unlock()
		return
	}
	p.stop = make(chan struct{})
	p.running = true
	stop := p.stop
	p.mu.Unlock()
	go p.run(ctx, stop)
}

func (p *Poller) Stop() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.running {
		return
	}
	close(p.stop)
	p.stop = nil
	p.running = false
}

// Suspend halts polling without tearing the loop down; Resume picks the
// cadence back up and forces an immediate refresh to catch up.
func (p *Poller) Suspend() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.suspended = true
}

func (p *Poller) Resume(ctx context.Context) {
	p.mu.Lock()
	p.suspended = false
	p.mu.Unlock()
	p.tick(ctx)
}

func (p *Poller) run(ctx context.Context, stop chan struct{}) {
	p.tick(ctx)
	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()
	for {
		select {
		case <-stop:
			return
		case <-ctx.Done():
			return
		case <-ticker.C:
			p.mu.Lock()
			suspended := p.suspended
			p.mu.Unlock()
			if suspended {
				continue
			}
			p.tick(ctx)
		}
	}
}

func (p *Poller) tick(ctx context.Context) {
	err := p.orc.Refresh(ctx)
	if err != nil {
		// Transient poll failures stay quiet; the next cycle retries.
		if errors.Is(err, client.ErrNetwork) {
			p.logger.Debug("poll_refresh_network_error", logging.F("err", err))
		} else {
			p.logger.Warn("poll_refresh_failed", logging.F("err", err))
		}
		return
	}

	view := p.orc.CachedView()
	p.mu.Lock()
	idle := view.State == StateIdle
	shouldProbe := idle && !p.probed
	if idle {
		p.probed = true
	} else {
		p.probed = false
	}
	p.mu.Unlock()

	if shouldProbe {
		if session, err := p.orc.ProbeUnresponsive(ctx); err != nil {
			p.logger.Debug("unresponsive_probe_failed", logging.F("err", err))
		} else if session != nil {
			p.logger.Info("unresponsive_session_found",
				logging.F("session_id", session.ID),
				logging.F("task_id", session.TaskID),
			)
		}
	}
}
