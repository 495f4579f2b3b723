package storage

import (
	"encoding/binary"
	"fmt"
	"path/filepath"

	bolt "go.etcd.io/bbolt"
)

var bucketCursors = []byte("replication_cursors")

// BoltCursorStore implements CursorStore using a single bbolt bucket
// keyed by "tenant\x00peerID", value the 8-byte big-endian acked seq.
type BoltCursorStore struct {
	db *bolt.DB
}

// NewBoltCursorStore opens (creating if absent) the cursor database
// under dataDir.
func NewBoltCursorStore(dataDir string) (*BoltCursorStore, error) {
	dbPath := filepath.Join(dataDir, "replication.db")

	db, err := bolt.Open(dbPath, 0600, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to open cursor database: %w", err)
	}

	err = db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(bucketCursors)
		return err
	})
	if err != nil {
		db.Close()
		return nil, err
	}

	return &BoltCursorStore{db: db}, nil
}

func (s *BoltCursorStore) Close() error {
	return s.db.Close()
}

func cursorKey(tenant, peerID string) []byte {
	return []byte(tenant + "\x00" + peerID)
}

func (s *BoltCursorStore) SetAcked(tenant, peerID string, seq uint64) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(bucketCursors)
		buf := make([]byte, 8)
		binary.BigEndian.PutUint64(buf, seq)
		return b.Put(cursorKey(tenant, peerID), buf)
	})
}

func (s *BoltCursorStore) GetAcked(tenant, peerID string) (uint64, error) {
	var seq uint64
	err := s.db.View(func(tx *bolt.Tx) error {
		b := tx.Bucket(bucketCursors)
		data := b.Get(cursorKey(tenant, peerID))
		if data == nil {
			return nil
		}
		seq = binary.BigEndian.Uint64(data)
		return nil
	})
	return seq, err
}

func (s *BoltCursorStore) ListCursors(tenant string) (map[string]uint64, error) {
	cursors := make(map[string]uint64)
	prefix := []byte(tenant + "\x00")
	err := s.db.View(func(tx *bolt.Tx) error {
		b := tx.Bucket(bucketCursors)
		c := b.Cursor()
		for k, v := c.Seek(prefix); k != nil && hasPrefix(k, prefix); k, v = c.Next() {
			peerID := string(k[len(prefix):])
			cursors[peerID] = binary.BigEndian.Uint64(v)
		}
		return nil
	})
	return cursors, err
}

func hasPrefix(k, prefix []byte) bool {
	if len(k) < len(prefix) {
		return false
	}
	for i := range prefix {
		if k[i] != prefix[i] {
			return false
		}
	}
	return true
}
