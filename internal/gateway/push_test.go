package gateway

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"

	"focusctl/internal/types"
)

type fakeSubscriptionAPI struct {
	mu       sync.Mutex
	created  []*types.PushSubscription
	deleted  []string
	createFn func(*types.PushSubscription) error
}

func (f *fakeSubscriptionAPI) CreatePushSubscription(_ context.Context, sub *types.PushSubscription) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.createFn != nil {
		if err := f.createFn(sub); err != nil {
			return err
		}
	}
	f.created = append(f.created, sub)
	return nil
}

func (f *fakeSubscriptionAPI) DeletePushSubscription(_ context.Context, endpoint string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.deleted = append(f.deleted, endpoint)
	return nil
}

type fakePlatform struct {
	permission Permission
	sub        *types.PushSubscription
}

func (f *fakePlatform) RequestPermission(_ context.Context) (Permission, error) {
	return f.permission, nil
}

func (f *fakePlatform) Subscribe(_ context.Context, _ string) (*types.PushSubscription, error) {
	sub := *f.sub
	return &sub, nil
}

func TestSubscribeNoopWithoutPublicKey(t *testing.T) {
	api := &fakeSubscriptionAPI{}
	m := NewPushManager(api, &fakePlatform{}, "", types.DeviceTypeDesktop, nil)

	sub, err := m.Subscribe(context.Background())
	if err != nil {
		t.Fatalf("Subscribe without key should be a no-op, got %v", err)
	}
	if sub != nil || len(api.created) != 0 {
		t.Fatalf("no-op subscribe still registered: %+v", sub)
	}
}

func TestSubscribeRegistersWithServer(t *testing.T) {
	api := &fakeSubscriptionAPI{}
	platform := &fakePlatform{
		permission: PermissionGranted,
		sub: &types.PushSubscription{
			Endpoint: "https://push.example.com/reg/1",
			Keys:     types.PushKeys{P256dh: "p", Auth: "a"},
		},
	}
	m := NewPushManager(api, platform, "BKey", types.DeviceTypeTablet, nil)

	sub, err := m.Subscribe(context.Background())
	if err != nil {
		t.Fatalf("Subscribe error: %v", err)
	}
	if sub.DeviceType != types.DeviceTypeTablet || sub.UserAgent == "" {
		t.Fatalf("device metadata not filled: %+v", sub)
	}
	if len(api.created) != 1 {
		t.Fatalf("server registration missing")
	}
	if m.Subscription() == nil {
		t.Fatalf("subscription not cached")
	}

	// A second subscribe reuses the registration.
	if _, err := m.Subscribe(context.Background()); err != nil {
		t.Fatalf("re-subscribe: %v", err)
	}
	if len(api.created) != 1 {
		t.Fatalf("duplicate registration")
	}
}

func TestSubscribeDeniedPermission(t *testing.T) {
	m := NewPushManager(&fakeSubscriptionAPI{}, &fakePlatform{permission: PermissionDenied}, "BKey", types.DeviceTypeDesktop, nil)
	_, err := m.Subscribe(context.Background())
	if !errors.Is(err, ErrPermissionDenied) {
		t.Fatalf("want ErrPermissionDenied, got %v", err)
	}
	if m.Permission() != PermissionDenied {
		t.Fatalf("permission state = %s", m.Permission())
	}
}

func TestUnsubscribeDeregisters(t *testing.T) {
	api := &fakeSubscriptionAPI{}
	platform := &fakePlatform{
		permission: PermissionGranted,
		sub:        &types.PushSubscription{Endpoint: "https://push.example.com/reg/2"},
	}
	m := NewPushManager(api, platform, "BKey", types.DeviceTypeDesktop, nil)

	if _, err := m.Subscribe(context.Background()); err != nil {
		t.Fatalf("subscribe: %v", err)
	}
	if err := m.Unsubscribe(context.Background()); err != nil {
		t.Fatalf("unsubscribe: %v", err)
	}
	if len(api.deleted) != 1 || api.deleted[0] != "https://push.example.com/reg/2" {
		t.Fatalf("deregistration missing: %v", api.deleted)
	}
	if m.Subscription() != nil {
		t.Fatalf("subscription not cleared")
	}

	// Unsubscribing again is harmless.
	if err := m.Unsubscribe(context.Background()); err != nil {
		t.Fatalf("second unsubscribe: %v", err)
	}
}

func TestTerminalPlatformMintsRelayEndpoint(t *testing.T) {
	platform := TerminalPlatform{RelayBaseURL: "http://127.0.0.1:8600"}
	sub, err := platform.Subscribe(context.Background(), "BKey")
	if err != nil {
		t.Fatalf("Subscribe error: %v", err)
	}
	if !strings.HasPrefix(sub.Endpoint, "http://127.0.0.1:8600/push/relay/") {
		t.Fatalf("endpoint = %s", sub.Endpoint)
	}
	if sub.Keys.P256dh == "" || sub.Keys.Auth == "" {
		t.Fatalf("keys not generated: %+v", sub.Keys)
	}
}
