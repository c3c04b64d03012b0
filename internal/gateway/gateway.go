package gateway

import (
	"context"
	"sync"
	"time"

	"focusctl/internal/client"
	"focusctl/internal/logging"
	"focusctl/internal/types"
)

const (
	reconnectDelay       = 2 * time.Second
	maxReconnectAttempts = 10
	heartbeatInterval    = 30 * time.Second
)

type ConnState string

const (
	ConnDisconnected ConnState = "disconnected"
	ConnConnecting   ConnState = "connecting"
	ConnConnected    ConnState = "connected"
	// ConnFailed is terminal for a Run call: the retry budget is spent and
	// the sustained failure should now be user-visible.
	ConnFailed ConnState = "failed"
)

// StreamAPI is the slice of the backend client the gateway needs.
type StreamAPI interface {
	NotificationStream(ctx context.Context) (<-chan client.StreamFrame, func(), error)
	Heartbeat(ctx context.Context) error
}

// Gateway keeps the push channel alive: it reconnects dropped streams on a
// fixed delay up to a bounded attempt count, heartbeats while connected, and
// funnels incoming reminders into the single current-notification slot.
// Individual drops are logged, never surfaced; only the exhausted retry
// budget is.
type Gateway struct {
	api    StreamAPI
	slot   *Slot
	logger logging.Logger

	delay         time.Duration
	heartbeatEach time.Duration
	maxAttempts   int

	onNotification func(*types.NotificationMessage)

	mu       sync.Mutex
	state    ConnState
	attempts int
}

func New(api StreamAPI, slot *Slot, logger logging.Logger) *Gateway {
	if logger == nil {
		logger = logging.Nop()
	}
	if slot == nil {
		slot = NewSlot(nil)
	}
	return &Gateway{
		api:           api,
		slot:          slot,
		logger:        logger,
		delay:         reconnectDelay,
		heartbeatEach: heartbeatInterval,
		maxAttempts:   maxReconnectAttempts,
		state:         ConnDisconnected,
	}
}

func (g *Gateway) Slot() *Slot {
	return g.slot
}

// OnNotification registers an extra sink for delivered reminders, e.g. the
// local snapshot store. Must be set before Run.
func (g *Gateway) OnNotification(fn func(*types.NotificationMessage)) {
	g.onNotification = fn
}

func (g *Gateway) State() ConnState {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.state
}

func (g *Gateway) Attempts() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.attempts
}

func (g *Gateway) setState(state ConnState) {
	g.mu.Lock()
	g.state = state
	g.mu.Unlock()
}

// Run connects and keeps the channel alive until ctx is done or the retry
// budget is exhausted. Returns nil on ctx cancellation, ErrChannelDown after
// sustained failure.
func (g *Gateway) Run(ctx context.Context) error {
	for {
		if ctx.Err() != nil {
			g.setState(ConnDisconnected)
			return nil
		}

		g.setState(ConnConnecting)
		frames, cancelStream, err := g.api.NotificationStream(ctx)
		if err != nil {
			if done := g.recordDrop(ctx, err); done != nil {
				return done
			}
			continue
		}

		g.mu.Lock()
		g.state = ConnConnected
		g.attempts = 0
		g.mu.Unlock()
		g.logger.Info("push_channel_connected")

		g.consume(ctx, frames)
		cancelStream()

		if ctx.Err() != nil {
			g.setState(ConnDisconnected)
			return nil
		}
		if done := g.recordDrop(ctx, nil); done != nil {
			return done
		}
	}
}

// recordDrop counts a failed connect or a dropped stream, waits the fixed
// delay, and reports ErrChannelDown once the budget is spent.
func (g *Gateway) recordDrop(ctx context.Context, cause error) error {
	g.mu.Lock()
	g.attempts++
	attempts := g.attempts
	exhausted := attempts >= g.maxAttempts
	if exhausted {
		g.state = ConnFailed
	} else {
		g.state = ConnDisconnected
	}
	g.mu.Unlock()

	g.logger.Warn("push_channel_dropped",
		logging.F("attempt", attempts),
		logging.F("err", cause),
	)
	if exhausted {
		g.logger.Error("push_channel_unavailable", logging.F("attempts", attempts))
		return ErrChannelDown
	}

	select {
	case <-ctx.Done():
		// The top of the Run loop turns cancellation into a clean return.
		return nil
	case <-time.After(g.delay):
		return nil
	}
}

func (g *Gateway) consume(ctx context.Context, frames <-chan client.StreamFrame) {
	heartbeatCtx, stopHeartbeat := context.WithCancel(ctx)
	defer stopHeartbeat()
	go g.heartbeatLoop(heartbeatCtx)

	for {
		select {
		case <-ctx.Done():
			return
		case frame, ok := <-frames:
			if !ok {
				return
			}
			g.handleFrame(frame)
		}
	}
}

func (g *Gateway) handleFrame(frame client.StreamFrame) {
	if frame.Err != nil {
		g.logger.Warn("push_frame_invalid", logging.F("err", frame.Err))
		return
	}
	if frame.Type != "notification" || frame.Notification == nil {
		return
	}
	g.slot.Set(frame.Notification)
	if g.onNotification != nil {
		g.onNotification(frame.Notification)
	}
}

func (g *Gateway) heartbeatLoop(ctx context.Context) {
	ticker := time.NewTicker(g.heartbeatEach)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := g.api.Heartbeat(ctx); err != nil {
				g.logger.Debug("heartbeat_failed", logging.F("err", err))
			}
		}
	}
}
