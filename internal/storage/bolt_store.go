package storage

import (
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	"github.com/samvad-hq/opennotify/internal/domain"
	bolt "go.etcd.io/bbolt"
	berrors "go.etcd.io/bbolt/errors"
)

const (
	readOnlyLockTimeout = 500 * time.Millisecond

	positionBucket   = "positions"
	expiryValueBytes = 8
	keyBytes         = 8
)

// boltStore implements a Store backed by BoltDB. Keys are big-endian Unix
// seconds so cursor order is chronological; values are an 8-byte expiry
// followed by the JSON sample.
type boltStore struct {
	db              *bolt.DB
	cleanupMu       sync.Mutex
	lastCleanup     atomic.Int64
	sampleTTL       time.Duration
	cleanupInterval time.Duration
	now             func() time.Time
	readOnly        bool
}

// openBolt initializes a BoltDB-backed Store.
func openBolt(path string, opts Options) (Store, error) {
	dir := filepath.Dir(path)
	if dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create storage directory: %w", err)
		}
	}

	db, err := bolt.Open(path, 0o600, &bolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, fmt.Errorf("open bbolt db: %w", err)
	}
	if err := db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists([]byte(positionBucket))
		return err
	}); err != nil {
		db.Close()
		return nil, fmt.Errorf("init bucket: %w", err)
	}

	store := &boltStore{
		db:              db,
		sampleTTL:       opts.SampleTTL,
		cleanupInterval: opts.CleanupInterval,
		now:             time.Now,
	}
	store.lastCleanup.Store(store.now().Unix())
	return store, nil
}

// openBoltReadOnly opens an existing database for reading. It never creates
// the file, and reports ErrStoreBusy when a writer holds the lock.
func openBoltReadOnly(path string) (Store, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("open bbolt db: %w", err)
	}
	db, err := bolt.Open(path, 0o600, &bolt.Options{ReadOnly: true, Timeout: readOnlyLockTimeout})
	if errors.Is(err, berrors.ErrTimeout) {
		return nil, fmt.Errorf("%w: %s", ErrStoreBusy, path)
	}
	if err != nil {
		return nil, fmt.Errorf("open bbolt db: %w", err)
	}
	return &boltStore{db: db, readOnly: true, now: time.Now}, nil
}

// Close closes the BoltDB store.
func (b *boltStore) Close() error {
	if b == nil || b.db == nil {
		return nil
	}
	return b.db.Close()
}

// RecordPosition stores the sample unless one with the same timestamp is live.
func (b *boltStore) RecordPosition(sample domain.PositionSample) (bool, error) {
	if b == nil || b.db == nil {
		return false, nil
	}
	if b.readOnly {
		return false, errors.New("position store is open read-only")
	}
	if sample.Timestamp.IsZero() {
		return false, fmt.Errorf("position sample has no timestamp")
	}
	if sample.Timestamp.Unix() < 0 {
		return false, fmt.Errorf("position sample timestamp %s predates the Unix epoch", sample.Timestamp.UTC().Format(time.RFC3339))
	}

	now := b.now()
	if err := b.maybeCleanupExpired(now); err != nil {
		return false, err
	}
	if sample.RecordedAt.IsZero() {
		sample.RecordedAt = now.UTC()
	}
	payload, err := json.Marshal(sample)
	if err != nil {
		return false, fmt.Errorf("marshal sample: %w", err)
	}

	var created bool
	err = b.db.Update(func(tx *bolt.Tx) error {
		bucket := tx.Bucket([]byte(positionBucket))
		if bucket == nil {
			return fmt.Errorf("position bucket missing")
		}

		key := encodeKey(sample.Timestamp)
		if existing := bucket.Get(key); existing != nil {
			if expiry, _, ok := decodeValue(existing); ok && expiry.After(now) {
				return nil
			}
		}

		value := make([]byte, expiryValueBytes, expiryValueBytes+len(payload))
		binary.BigEndian.PutUint64(value, uint64(now.Add(b.sampleTTL).Unix()))
		value = append(value, payload...)
		created = true
		return bucket.Put(key, value)
	})
	return created, err
}

// RecentPositions walks the bucket backwards, skipping expired entries.
func (b *boltStore) RecentPositions(limit int) ([]domain.PositionSample, error) {
	if b == nil || b.db == nil || limit <= 0 {
		return nil, nil
	}

	now := b.now()
	out := make([]domain.PositionSample, 0, limit)
	err := b.db.View(func(tx *bolt.Tx) error {
		bucket := tx.Bucket([]byte(positionBucket))
		if bucket == nil {
			return fmt.Errorf("position bucket missing")
		}

		cursor := bucket.Cursor()
		for k, v := cursor.Last(); k != nil && len(out) < limit; k, v = cursor.Prev() {
			expiry, payload, ok := decodeValue(v)
			if !ok || !expiry.After(now) {
				continue
			}
			var sample domain.PositionSample
			if err := json.Unmarshal(payload, &sample); err != nil {
				return fmt.Errorf("decode sample %d: %w", decodeKey(k), err)
			}
			out = append(out, sample)
		}
		return nil
	})
	return out, err
}

// maybeCleanupExpired removes expired samples on a fixed cadence to avoid unbounded growth.
func (b *boltStore) maybeCleanupExpired(now time.Time) error {
	if b == nil || b.db == nil {
		return nil
	}

	last := time.Unix(b.lastCleanup.Load(), 0)
	if now.Sub(last) < b.cleanupInterval {
		return nil
	}

	b.cleanupMu.Lock()
	defer b.cleanupMu.Unlock()

	last = time.Unix(b.lastCleanup.Load(), 0)
	if now.Sub(last) < b.cleanupInterval {
		return nil
	}

	err := b.db.Update(func(tx *bolt.Tx) error {
		bucket := tx.Bucket([]byte(positionBucket))
		if bucket == nil {
			return fmt.Errorf("position bucket missing")
		}

		// Collect first: deleting through the cursor while iterating skips entries.
		var expired [][]byte
		cursor := bucket.Cursor()
		for k, v := cursor.First(); k != nil; k, v = cursor.Next() {
			expiry, _, ok := decodeValue(v)
			if !ok || !expiry.After(now) {
				expired = append(expired, append([]byte(nil), k...))
			}
		}
		for _, k := range expired {
			if err := bucket.Delete(k); err != nil {
				return err
			}
		}
		return nil
	})
	if err == nil {
		b.lastCleanup.Store(now.Unix())
	}
	return err
}

func encodeKey(ts time.Time) []byte {
	buf := make([]byte, keyBytes)
	binary.BigEndian.PutUint64(buf, uint64(ts.Unix()))
	return buf
}

func decodeKey(k []byte) int64 {
	if len(k) != keyBytes {
		return 0
	}
	return int64(binary.BigEndian.Uint64(k))
}

// decodeValue splits a stored value into its expiry and JSON payload.
func decodeValue(value []byte) (time.Time, []byte, bool) {
	if len(value) < expiryValueBytes {
		return time.Time{}, nil, false
	}
	unix := int64(binary.BigEndian.Uint64(value[:expiryValueBytes]))
	if unix <= 0 {
		return time.Time{}, nil, false
	}
	return time.Unix(unix, 0), value[expiryValueBytes:], true
}
