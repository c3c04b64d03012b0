package client

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestNotificationStreamDeliversFrames(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Accept") != "text/event-stream" {
			t.Errorf("missing event-stream accept header")
		}
		w.Header().Set("Content-Type", "text/event-stream")
		flusher := w.(http.Flusher)
		fmt.Fprint(w, "data: {\"type\":\"notification\",\"notification\":{\"id\":\"n-1\",\"level\":\"light\",\"title\":\"checkout soon\"}}\n\n")
		flusher.Flush()
		fmt.Fprint(w, "data: {not json}\n\n")
		flusher.Flush()
	}))
	defer server.Close()

	ch, cancel, err := newTestClient(server).NotificationStream(context.Background())
	if err != nil {
		t.Fatalf("NotificationStream error: %v", err)
	}
	defer cancel()

	frame := recvFrame(t, ch)
	if frame.Type != "notification" || frame.Notification == nil || frame.Notification.ID != "n-1" {
		t.Fatalf("unexpected frame: %+v", frame)
	}

	frame = recvFrame(t, ch)
	if !errors.Is(frame.Err, ErrProtocol) {
		t.Fatalf("malformed frame should carry ErrProtocol, got %+v", frame)
	}
}

func TestNotificationStreamAuthFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"error":"token expired"}`))
	}))
	defer server.Close()

	_, _, err := newTestClient(server).NotificationStream(context.Background())
	if !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("want ErrUnauthorized, got %v", err)
	}
}

func TestNotificationStreamClosesOnServerEnd(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/event-stream")
	}))
	defer server.Close()

	ch, cancel, err := newTestClient(server).NotificationStream(context.Background())
	if err != nil {
		t.Fatalf("NotificationStream error: %v", err)
	}
	defer cancel()

	select {
	case _, ok := <-ch:
		if ok {
			t.Fatalf("expected closed channel")
		}
	case <-time.After(2 * time.Second):
		t.Fatalf("stream did not close")
	}
}

func TestHeartbeatPostsFrame(t *testing.T) {
	var seenPath string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seenPath = r.Method + " " + r.URL.Path
		w.WriteHeader(http.StatusNoContent)
	}))
	defer server.Close()

	if err := newTestClient(server).Heartbeat(context.Background()); err != nil {
		t.Fatalf("Heartbeat error: %v", err)
	}
	if seenPath != "POST /v1/notifications/heartbeat" {
		t.Fatalf("unexpected request: %s", seenPath)
	}
}

func recvFrame(t *testing.T, ch <-chan StreamFrame) StreamFrame {
	t.Helper()
	select {
	case frame := <-ch:
		return frame
	case <-time.After(2 * time.Second):
		t.Fatalf("timed out waiting for frame")
		return StreamFrame{}
	}
}
