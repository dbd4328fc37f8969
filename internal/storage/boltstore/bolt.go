package boltstore

import (
	"context"
	"errors"
	"fmt"
	"time"

	bolt "go.etcd.io/bbolt"

	"catalog-share/internal/storage"
)

const defaultBucket = "shares"

// Store implements storage.ObjectStore backed by BoltDB. Each location
// bucket maps to a bolt bucket; region and credentials are ignored.
type Store struct {
	db *bolt.DB
}

// Open initializes a BoltDB-backed store located at path.
func Open(path string) (*Store, error) {
	db, err := bolt.Open(path, 0o600, &bolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, fmt.Errorf("open bolt db: %w", err)
	}
	if err := db.Update(func(tx *bolt.Tx) error {
		if _, err := tx.CreateBucketIfNotExists([]byte(defaultBucket)); err != nil {
			return fmt.Errorf("create default bucket: %w", err)
		}
		return nil
	}); err != nil {
		_ = db.Close()
		return nil, err
	}
	return &Store{db: db}, nil
}

// PutObject stores body under key, replacing any previous value.
func (s *Store) PutObject(ctx context.Context, loc storage.Location, key string, body []byte) error {
	if key == "" {
		return errors.New("empty key")
	}
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}

	return s.db.Update(func(tx *bolt.Tx) error {
		bucket, err := tx.CreateBucketIfNotExists(bucketName(loc))
		if err != nil {
			return fmt.Errorf("create bucket %q: %w", loc.Bucket, err)
		}
		if err := bucket.Put([]byte(key), body); err != nil {
			return fmt.Errorf("put object: %w", err)
		}
		return nil
	})
}

// GetObject returns a copy of the value stored under key.
func (s *Store) GetObject(ctx context.Context, loc storage.Location, key string) ([]byte, error) {
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	default:
	}

	var out []byte
	err := s.db.View(func(tx *bolt.Tx) error {
		bucket := tx.Bucket(bucketName(loc))
		if bucket == nil {
			return storage.ErrNotFound
		}
		raw := bucket.Get([]byte(key))
		if raw == nil {
			return storage.ErrNotFound
		}
		// Values are only valid for the life of the transaction.
		out = append([]byte(nil), raw...)
		return nil
	})
	return out, err
}

// Close closes the underlying database.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

func bucketName(loc storage.Location) []byte {
	if loc.Bucket == "" {
		return []byte(defaultBucket)
	}
	return []byte(loc.Bucket)
}
