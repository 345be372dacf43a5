// Package boltstore provides a durable agora.Backend on top of a BoltDB (bbolt) file.
package boltstore

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	bolt "go.etcd.io/bbolt"
)

// BucketState holds every interaction state entry, keyed by its storage key.
var BucketState = []byte("interaction_state")

// Options configures the BoltDB store.
type Options struct {
	// Path to the database file. Parent directories will be created if needed.
	Path string

	// Timeout for obtaining a file lock on the database.
	// If zero, a default of 5 seconds is used.
	Timeout time.Duration

	// FileMode for creating the database file.
	// If zero, 0600 is used.
	FileMode os.FileMode
}

// DefaultOptions returns sensible defaults for development.
func DefaultOptions() Options {
	return Options{
		Path:     "agora.db",
		Timeout:  5 * time.Second,
		FileMode: 0600,
	}
}

// A Store persists interaction state in a single bucket. Each Get and Set runs in its own
// transaction.
type Store struct {
	db *bolt.DB
}

// Open creates or opens a BoltDB database at the specified path.
func Open(opts Options) (*Store, error) {
	if opts.Path == "" {
		opts.Path = "agora.db"
	}
	if opts.Timeout == 0 {
		opts.Timeout = 5 * time.Second
	}
	if opts.FileMode == 0 {
		opts.FileMode = 0600
	}

	dir := filepath.Dir(opts.Path)
	if dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	db, err := bolt.Open(opts.Path, opts.FileMode, &bolt.Options{
		Timeout: opts.Timeout,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	err = db.Update(func(tx *bolt.Tx) error {
		if _, err := tx.CreateBucketIfNotExists(BucketState); err != nil {
			return fmt.Errorf("failed to create bucket %s: %w", BucketState, err)
		}
		return nil
	})
	if err != nil {
		db.Close()
		return nil, err
	}

	return &Store{db: db}, nil
}

// Close closes the database.
func (s *Store) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// Get returns the value stored under key.
func (s *Store) Get(_ context.Context, key string) (string, bool, error) {
	var (
		value string
		ok    bool
	)

	err := s.db.View(func(tx *bolt.Tx) error {
		bucket := tx.Bucket(BucketState)
		if bucket == nil {
			return fmt.Errorf("bucket not found: %s", BucketState)
		}

		// the slice is only valid during the transaction, string() copies it
		if data := bucket.Get([]byte(key)); data != nil {
			value, ok = string(data), true
		}
		return nil
	})

	return value, ok, err
}

// Set stores value under key.
func (s *Store) Set(_ context.Context, key string, value string) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		bucket := tx.Bucket(BucketState)
		if bucket == nil {
			return fmt.Errorf("bucket not found: %s", BucketState)
		}
		return bucket.Put([]byte(key), []byte(value))
	})
}

// Keys returns every stored key starting with prefix, in byte order.
func (s *Store) Keys(_ context.Context, prefix string) ([]string, error) {
	keys := []string{}

	err := s.db.View(func(tx *bolt.Tx) error {
		bucket := tx.Bucket(BucketState)
		if bucket == nil {
			return nil
		}

		c := bucket.Cursor()
		p := []byte(prefix)
		for k, _ := c.Seek(p); k != nil && bytes.HasPrefix(k, p); k, _ = c.Next() {
			keys = append(keys, string(k))
		}
		return nil
	})

	return keys, err
}

// Stats returns database statistics.
func (s *Store) Stats() bolt.Stats {
	return s.db.Stats()
}
