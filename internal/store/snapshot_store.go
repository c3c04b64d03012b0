package store

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	bolt "go.etcd.io/bbolt"

	"focusctl/internal/types"
)

var (
	bucketSession       = []byte("session")
	bucketHistory       = []byte("history")
	bucketNotifications = []byte("notifications")
	bucketPush          = []byte("push")
	keyActiveSession    = []byte("active")
	keyPushSubscription = []byte("subscription")
)

const historyKeep = 50
const notificationKeep = 100

// SnapshotStore keeps the last-known session state on disk. After a crash or
// forced exit the snapshot tells the poller whether an unresponsive-session
// probe is worth offering, and the history command can answer offline.
type SnapshotStore struct {
	db *bolt.DB
}

func OpenSnapshotStore(path string) (*SnapshotStore, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return nil, errors.New("snapshot db path is required")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return nil, err
	}
	db, err := bolt.Open(path, 0o600, &bolt.Options{Timeout: 2 * time.Second})
	if err != nil {
		return nil, err
	}
	if err := initSchema(db); err != nil {
		_ = db.Close()
		return nil, err
	}
	return &SnapshotStore{db: db}, nil
}

func initSchema(db *bolt.DB) error {
	return db.Update(func(tx *bolt.Tx) error {
		for _, bucket := range [][]byte{bucketSession, bucketHistory, bucketNotifications, bucketPush} {
			if _, err := tx.CreateBucketIfNotExists(bucket); err != nil {
				return err
			}
		}
		return nil
	})
}

func (s *SnapshotStore) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// PutActiveSession records the session the client last saw as active. A nil
// session clears the slot.
func (s *SnapshotStore) PutActiveSession(session *types.WorkSession) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		bucket := tx.Bucket(bucketSession)
		if session == nil {
			return bucket.Delete(keyActiveSession)
		}
		data, err := json.Marshal(session)
		if err != nil {
			return err
		}
		return bucket.Put(keyActiveSession, data)
	})
}

func (s *SnapshotStore) ActiveSession() (*types.WorkSession, error) {
	var session *types.WorkSession
	err := s.db.View(func(tx *bolt.Tx) error {
		data := tx.Bucket(bucketSession).Get(keyActiveSession)
		if len(data) == 0 {
			return nil
		}
		var decoded types.WorkSession
		if err := json.Unmarshal(data, &decoded); err != nil {
			return err
		}
		session = &decoded
		return nil
	})
	return session, err
}

// AppendHistory records an ended session, pruning beyond historyKeep.
func (s *SnapshotStore) AppendHistory(session *types.WorkSession) error {
	if session == nil || session.ID == "" {
		return errors.New("session with id is required")
	}
	return s.db.Update(func(tx *bolt.Tx) error {
		bucket := tx.Bucket(bucketHistory)
		data, err := json.Marshal(session)
		if err != nil {
			return err
		}
		if err := bucket.Put(historyKey(session), data); err != nil {
			return err
		}
		return pruneOldest(bucket, historyKeep)
	})
}

// History returns recorded sessions, most recent first.
func (s *SnapshotStore) History(limit int) ([]*types.WorkSession, error) {
	if limit <= 0 {
		limit = historyKeep
	}
	var out []*types.WorkSession
	err := s.db.View(func(tx *bolt.Tx) error {
		cursor := tx.Bucket(bucketHistory).Cursor()
		for k, v := cursor.Last(); k != nil && len(out) < limit; k, v = cursor.Prev() {
			var session types.WorkSession
			if err := json.Unmarshal(v, &session); err != nil {
				continue
			}
			out = append(out, &session)
		}
		return nil
	})
	return out, err
}

// AppendNotification records a delivered reminder, pruning beyond
// notificationKeep.
func (s *SnapshotStore) AppendNotification(msg *types.NotificationMessage) error {
	if msg == nil || msg.ID == "" {
		return errors.New("notification with id is required")
	}
	return s.db.Update(func(tx *bolt.Tx) error {
		bucket := tx.Bucket(bucketNotifications)
		data, err := json.Marshal(msg)
		if err != nil {
			return err
		}
		key := msg.SentAt.UTC().Format(time.RFC3339Nano) + "/" + msg.ID
		if err := bucket.Put([]byte(key), data); err != nil {
			return err
		}
		return pruneOldest(bucket, notificationKeep)
	})
}

func (s *SnapshotStore) Notifications(limit int) ([]*types.NotificationMessage, error) {
	if limit <= 0 {
		limit = notificationKeep
	}
	var out []*types.NotificationMessage
	err := s.db.View(func(tx *bolt.Tx) error {
		cursor := tx.Bucket(bucketNotifications).Cursor()
		for k, v := cursor.Last(); k != nil && len(out) < limit; k, v = cursor.Prev() {
			var msg types.NotificationMessage
			if err := json.Unmarshal(v, &msg); err != nil {
				continue
			}
			out = append(out, &msg)
		}
		return nil
	})
	return out, err
}

// PutPushSubscription remembers the registered push endpoint so a later
// process can deregister it. A nil subscription clears the record.
func (s *SnapshotStore) PutPushSubscription(sub *types.PushSubscription) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		bucket := tx.Bucket(bucketPush)
		if sub == nil {
			return bucket.Delete(keyPushSubscription)
		}
		data, err := json.Marshal(sub)
		if err != nil {
			return err
		}
		return bucket.Put(keyPushSubscription, data)
	})
}

func (s *SnapshotStore) PushSubscription() (*types.PushSubscription, error) {
	var sub *types.PushSubscription
	err := s.db.View(func(tx *bolt.Tx) error {
		data := tx.Bucket(bucketPush).Get(keyPushSubscription)
		if len(data) == 0 {
			return nil
		}
		var decoded types.PushSubscription
		if err := json.Unmarshal(data, &decoded); err != nil {
			return err
		}
		sub = &decoded
		return nil
	})
	return sub, err
}

func historyKey(session *types.WorkSession) []byte {
	at := session.StartedAt
	if session.EndedAt != nil {
		at = *session.EndedAt
	}
	return []byte(at.UTC().Format(time.RFC3339Nano) + "/" + session.ID)
}

func pruneOldest(bucket *bolt.Bucket, keep int) error {
	var keys [][]byte
	cursor := bucket.Cursor()
	for k, _ := cursor.First(); k != nil; k, _ = cursor.Next() {
		keys = append(keys, append([]byte{}, k...))
	}
	if len(keys) <= keep {
		return nil
	}
	sort.Slice(keys, func(i, j int) bool { return string(keys[i]) < string(keys[j]) })
	for _, k := range keys[:len(keys)-keep] {
		if err := bucket.Delete(k); err != nil {
			return err
		}
	}
	return nil
}
