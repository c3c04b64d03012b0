package gateway

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"runtime"
	"strings"
	"sync"

	"github.com/google/uuid"

	"focusctl/internal/logging"
	"focusctl/internal/types"
)

type Permission string

const (
	PermissionDefault Permission = "default"
	PermissionGranted Permission = "granted"
	PermissionDenied  Permission = "denied"
)

var ErrPermissionDenied = errors.New("notification permission denied")

// Platform supplies the device-side half of an out-of-band push
// registration: a permission decision and a subscription endpoint with keys.
type Platform interface {
	RequestPermission(ctx context.Context) (Permission, error)
	Subscribe(ctx context.Context, publicKey string) (*types.PushSubscription, error)
}

// SubscriptionAPI is the slice of the backend client the push manager needs.
type SubscriptionAPI interface {
	CreatePushSubscription(ctx context.Context, sub *types.PushSubscription) error
	DeletePushSubscription(ctx context.Context, endpoint string) error
}

// PushManager owns the out-of-band push subscription lifecycle. Push is an
// enhancement over the always-available push channel: with no public key
// configured, Subscribe succeeds as a no-op instead of failing.
type PushManager struct {
	api        SubscriptionAPI
	platform   Platform
	publicKey  string
	deviceType types.DeviceType
	userAgent  string
	logger     logging.Logger

	mu           sync.Mutex
	permission   Permission
	subscription *types.PushSubscription
}

func NewPushManager(api SubscriptionAPI, platform Platform, publicKey string, deviceType types.DeviceType, logger logging.Logger) *PushManager {
	if logger == nil {
		logger = logging.Nop()
	}
	return &PushManager{
		api:        api,
		platform:   platform,
		publicKey:  strings.TrimSpace(publicKey),
		deviceType: deviceType,
		userAgent:  "focusctl/" + runtime.GOOS,
		logger:     logger,
		permission: PermissionDefault,
	}
}

func (m *PushManager) Permission() Permission {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.permission
}

func (m *PushManager) Subscription() *types.PushSubscription {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.subscription
}

// Subscribe registers this device for out-of-band push. Returns nil, nil
// when push is unconfigured.
func (m *PushManager) Subscribe(ctx context.Context) (*types.PushSubscription, error) {
	if m.publicKey == "" {
		m.logger.Debug("push_unconfigured_skipping_subscribe")
		return nil, nil
	}

	m.mu.Lock()
	if m.subscription != nil {
		sub := m.subscription
		m.mu.Unlock()
		return sub, nil
	}
	permission := m.permission
	m.mu.Unlock()

	if permission != PermissionGranted {
		granted, err := m.platform.RequestPermission(ctx)
		if err != nil {
			return nil, err
		}
		m.mu.Lock()
		m.permission = granted
		m.mu.Unlock()
		if granted != PermissionGranted {
			return nil, ErrPermissionDenied
		}
	}

	sub, err := m.platform.Subscribe(ctx, m.publicKey)
	if err != nil {
		return nil, err
	}
	sub.UserAgent = m.userAgent
	sub.DeviceType = m.deviceType

	if err := m.api.CreatePushSubscription(ctx, sub); err != nil {
		return nil, err
	}
	m.mu.Lock()
	m.subscription = sub
	m.mu.Unlock()
	m.logger.Info("push_subscribed", logging.F("device_type", string(m.deviceType)))
	return sub, nil
}

// Unsubscribe deregisters the device. A missing subscription is not an
// error.
func (m *PushManager) Unsubscribe(ctx context.Context) error {
	m.mu.Lock()
	sub := m.subscription
	m.mu.Unlock()
	if sub == nil {
		return nil
	}
	if err := m.api.DeletePushSubscription(ctx, sub.Endpoint); err != nil {
		return err
	}
	m.mu.Lock()
	m.subscription = nil
	m.mu.Unlock()
	m.logger.Info("push_unsubscribed")
	return nil
}

// TerminalPlatform registers through the backend's push relay: a terminal
// process has no browser push service, so it mints a relay endpoint and a
// key pair the backend forwards through.
type TerminalPlatform struct {
	RelayBaseURL string
}

func (p TerminalPlatform) RequestPermission(_ context.Context) (Permission, error) {
	// The user launched the client themselves; there is no separate prompt
	// surface in a terminal.
	return PermissionGranted, nil
}

func (p TerminalPlatform) Subscribe(_ context.Context, _ string) (*types.PushSubscription, error) {
	base := strings.TrimRight(p.RelayBaseURL, "/")
	if base == "" {
		return nil, errors.New("relay base url is required")
	}
	p256dh, err := randomKey(65)
	if err != nil {
		return nil, err
	}
	auth, err := randomKey(16)
	if err != nil {
		return nil, err
	}
	return &types.PushSubscription{
		Endpoint: fmt.Sprintf("%s/push/relay/%s", base, uuid.NewString()),
		Keys: types.PushKeys{
			P256dh: p256dh,
			Auth:   auth,
		},
	}, nil
}

func randomKey(n int) (string, error) {
	buf := make([]byte, n)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}
