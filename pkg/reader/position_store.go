package reader

import (
	"encoding/binary"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	bolt "go.etcd.io/bbolt"
)

var bucketPositions = []byte("file_positions") // path -> offset

// boltPositionStore implements PositionStore using BoltDB.
type boltPositionStore struct {
	db *bolt.DB
	mu sync.RWMutex
}

// NewBoltPositionStore creates a BoltDB-backed position store.
//
// Parameters:
//   - db: Open BoltDB database instance
//
// Returns an error if the positions bucket cannot be created.
func NewBoltPositionStore(db *bolt.DB) (PositionStore, error) {
	if err := db.Update(func(tx *bolt.Tx) error {
		_, createErr := tx.CreateBucketIfNotExists(bucketPositions)
		return createErr
	}); err != nil {
		return nil, fmt.Errorf("failed to create positions bucket: %w", err)
	}

	return &boltPositionStore{db: db}, nil
}

// OpenPositionDB opens (creating directories as needed) the BoltDB file
// used for position persistence.
func OpenPositionDB(path string) (*bolt.DB, error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0700); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	db, err := bolt.Open(path, 0600, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to open position database: %w", err)
	}

	return db, nil
}

// GetPosition implements PositionStore.GetPosition.
func (s *boltPositionStore) GetPosition(path string) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var offset int64

	err := s.db.View(func(tx *bolt.Tx) error {
		b := tx.Bucket(bucketPositions)
		data := b.Get([]byte(path))

		if data == nil {
			// No position stored, start from the beginning.
			offset = 0
			return nil
		}

		if len(data) != 8 {
			return fmt.Errorf("corrupt offset record for %s", path)
		}

		offset = int64(binary.BigEndian.Uint64(data)) // nolint:gosec // offsets fit in int64
		return nil
	})

	if err != nil {
		return 0, err
	}

	return offset, nil
}

// SetPosition implements PositionStore.SetPosition.
func (s *boltPositionStore) SetPosition(path string, offset int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(bucketPositions)

		data := make([]byte, 8)
		binary.BigEndian.PutUint64(data, uint64(offset)) // nolint:gosec // offsets are non-negative

		if putErr := b.Put([]byte(path), data); putErr != nil {
			return fmt.Errorf("failed to store position: %w", putErr)
		}

		return nil
	})
}

// memoryPositionStore implements PositionStore using an in-memory map.
type memoryPositionStore struct {
	positions map[string]int64
	mu        sync.RWMutex
}

// NewMemoryPositionStore creates an in-memory position store.
//
// Useful for testing or when persistence is not needed.
func NewMemoryPositionStore() PositionStore {
	return &memoryPositionStore{
		positions: make(map[string]int64),
	}
}

// GetPosition implements PositionStore.GetPosition.
func (s *memoryPositionStore) GetPosition(path string) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.positions[path], nil
}

// SetPosition implements PositionStore.SetPosition.
func (s *memoryPositionStore) SetPosition(path string, offset int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.positions[path] = offset
	return nil
}
