// Package mdstore is a persistent cache of rendered Markdown, backed by a
// bbolt database.
package mdstore

import (
	"fmt"
	"time"

	bolt "go.etcd.io/bbolt"

	"src.mdtree.dev/pkg/logutil"
)

var logger = logutil.GetLogger("[mdstore] ")

// Functions run when a database is opened, keyed by a description of what
// they do.
var initDB = map[string]func(*bolt.Tx) error{}

// Store is a render cache. It is safe for concurrent use.
type Store struct {
	db *bolt.DB
}

func dbWithDefaultOptions(path string) (*bolt.DB, error) {
	return bolt.Open(path, 0644, &bolt.Options{Timeout: time.Second})
}

// NewStore opens or creates the database at path.
func NewStore(path string) (*Store, error) {
	db, err := dbWithDefaultOptions(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	st, err := NewStoreFromDB(db)
	if err != nil {
		db.Close()
		return nil, err
	}
	return st, nil
}

// NewStoreFromDB creates a Store from an open database, creating the buckets
// it needs.
func NewStoreFromDB(db *bolt.DB) (*Store, error) {
	logger.Println("initializing store")
	defer logger.Println("initialized store")
	err := db.Update(func(tx *bolt.Tx) error {
		for name, fn := range initDB {
			if err := fn(tx); err != nil {
				return fmt.Errorf("failed to %s: %w", name, err)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &Store{db}, nil
}

// Close closes the database.
func (s *Store) Close() error { return s.db.Close() }
