package gateway

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"focusctl/internal/client"
	"focusctl/internal/types"
)

// fakeStream hands out scripted connections. A nil script entry fails the
// connect; an entry with frames delivers them then closes.
type fakeStream struct {
	mu         sync.Mutex
	connects   int
	frames     [][]client.StreamFrame
	failAlways bool
	heartbeats int
}

func (f *fakeStream) NotificationStream(ctx context.Context) (<-chan client.StreamFrame, func(), error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.connects++
	if f.failAlways {
		return nil, nil, client.ErrNetwork
	}
	var script []client.StreamFrame
	if len(f.frames) > 0 {
		script = f.frames[0]
		f.frames = f.frames[1:]
	}
	ch := make(chan client.StreamFrame, len(script))
	for _, frame := range script {
		ch <- frame
	}
	close(ch)
	return ch, func() {}, nil
}

func (f *fakeStream) Heartbeat(ctx context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.heartbeats++
	return nil
}

func (f *fakeStream) connectCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.connects
}

func newTestGateway(api StreamAPI) *Gateway {
	g := New(api, NewSlot(nil), nil)
	g.delay = 5 * time.Millisecond
	g.heartbeatEach = 10 * time.Millisecond
	return g
}

func TestReconnectStopsAtBudget(t *testing.T) {
	api := &fakeStream{failAlways: true}
	g := newTestGateway(api)

	err := g.Run(context.Background())
	if !errors.Is(err, ErrChannelDown) {
		t.Fatalf("want ErrChannelDown, got %v", err)
	}
	if api.connectCount() != maxReconnectAttempts {
		t.Fatalf("connect attempts = %d, want %d", api.connectCount(), maxReconnectAttempts)
	}
	if g.State() != ConnFailed {
		t.Fatalf("state = %s, want failed", g.State())
	}

	// No further attempts after the budget is spent.
	at := api.connectCount()
	time.Sleep(50 * time.Millisecond)
	if api.connectCount() != at {
		t.Fatalf("reconnects continued past the budget")
	}
}

func TestSuccessfulConnectResetsAttempts(t *testing.T) {
	api := &fakeStream{
		frames: [][]client.StreamFrame{
			{{Type: "notification", Notification: &types.NotificationMessage{ID: "n-1", Level: types.ReminderLevelNormal}}},
		},
	}
	g := newTestGateway(api)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- g.Run(ctx) }()

	deadline := time.Now().Add(2 * time.Second)
	for g.Slot().Current() == nil && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	if current := g.Slot().Current(); current == nil || current.ID != "n-1" {
		t.Fatalf("notification not delivered: %+v", current)
	}

	cancel()
	if err := <-done; err != nil {
		t.Fatalf("Run after cancel: %v", err)
	}
	if g.State() != ConnDisconnected {
		t.Fatalf("state after cancel = %s", g.State())
	}
}

func TestMalformedFrameLoggedNotFatal(t *testing.T) {
	api := &fakeStream{
		frames: [][]client.StreamFrame{{
			{Err: client.ErrProtocol},
			{Type: "notification", Notification: &types.NotificationMessage{ID: "n-2", Level: types.ReminderLevelNormal}},
		}},
	}
	g := newTestGateway(api)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() { _ = g.Run(ctx) }()

	deadline := time.Now().Add(2 * time.Second)
	for g.Slot().Current() == nil && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	if current := g.Slot().Current(); current == nil || current.ID != "n-2" {
		t.Fatalf("frame after protocol error not delivered: %+v", current)
	}
}

func TestHeartbeatSentWhileConnected(t *testing.T) {
	// A connection that stays open: unbuffered channel never closed until
	// cancel.
	open := make(chan client.StreamFrame)
	api := &heartbeatStream{frames: open}
	g := New(api, NewSlot(nil), nil)
	g.delay = 5 * time.Millisecond
	g.heartbeatEach = 10 * time.Millisecond

	ctx, cancel := context.WithCancel(context.Background())
	go func() { _ = g.Run(ctx) }()

	deadline := time.Now().Add(2 * time.Second)
	for api.heartbeatCount() < 2 && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	cancel()
	if api.heartbeatCount() < 2 {
		t.Fatalf("heartbeats = %d, want >= 2", api.heartbeatCount())
	}
}

type heartbeatStream struct {
	mu         sync.Mutex
	frames     chan client.StreamFrame
	heartbeats int
}

func (s *heartbeatStream) NotificationStream(ctx context.Context) (<-chan client.StreamFrame, func(), error) {
	return s.frames, func() {}, nil
}

func (s *heartbeatStream) Heartbeat(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.heartbeats++
	return nil
}

func (s *heartbeatStream) heartbeatCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.heartbeats
}
