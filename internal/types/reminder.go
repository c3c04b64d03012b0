package types

import "time"

type ReminderLevel string

const (
	ReminderLevelLight  ReminderLevel = "light"
	ReminderLevelNormal ReminderLevel = "normal"
	ReminderLevelUrgent ReminderLevel = "urgent"
)

// LightDismissAfter is how long a light-level reminder stays visible before
// it clears itself.
const LightDismissAfter = 10 * time.Second

// NotificationMessage is a server-pushed checkout reminder tied to a session.
// Light-level messages auto-dismiss; everything else waits for the user.
type NotificationMessage struct {
	ID        string        `json:"id"`
	SessionID string        `json:"session_id,omitempty"`
	Level     ReminderLevel `json:"level"`
	Title     string        `json:"title,omitempty"`
	Body      string        `json:"body,omitempty"`
	SentAt    time.Time     `json:"sent_at,omitempty"`
}

func (m *NotificationMessage) AutoDismiss() bool {
	return m != nil && m.Level == ReminderLevelLight
}

type DeviceType string

const (
	DeviceTypeDesktop DeviceType = "desktop"
	DeviceTypeMobile  DeviceType = "mobile"
	DeviceTypeTablet  DeviceType = "tablet"
)

type PushKeys struct {
	P256dh string `json:"p256dh"`
	Auth   string `json:"auth"`
}

// PushSubscription is the client's registered out-of-band notification
// endpoint, one per device.
type PushSubscription struct {
	Endpoint   string     `json:"endpoint"`
	Keys       PushKeys   `json:"keys"`
	UserAgent  string     `json:"user_agent,omitempty"`
	DeviceType DeviceType `json:"device_type,omitempty"`
}
