//go:build sqlite

package sqlitestore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	_ "modernc.org/sqlite"

	"catalog-share/internal/storage"
)

// Store implements storage.ObjectStore using SQLite.
type Store struct {
	db *sql.DB
}

// Open initializes the SQLite database at path.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	if err := initialize(db); err != nil {
		_ = db.Close()
		return nil, err
	}
	return &Store{db: db}, nil
}

func initialize(db *sql.DB) error {
	schema := `
CREATE TABLE IF NOT EXISTS objects (
    bucket TEXT NOT NULL,
    key TEXT NOT NULL,
    body BLOB NOT NULL,
    size INTEGER NOT NULL,
    PRIMARY KEY (bucket, key)
);
`
	if _, err := db.Exec(schema); err != nil {
		return fmt.Errorf("apply schema: %w", err)
	}
	return nil
}

// PutObject inserts or replaces the object at key.
func (s *Store) PutObject(ctx context.Context, loc storage.Location, key string, body []byte) error {
	if key == "" {
		return errors.New("empty key")
	}
	const q = `
INSERT INTO objects (bucket, key, body, size)
VALUES (?, ?, ?, ?)
ON CONFLICT(bucket, key) DO UPDATE SET
    body=excluded.body,
    size=excluded.size;
`
	if body == nil {
		body = []byte{}
	}
	if _, err := s.db.ExecContext(ctx, q, loc.Bucket, key, body, len(body)); err != nil {
		return fmt.Errorf("put object: %w", err)
	}
	return nil
}

// GetObject fetches the object at key.
func (s *Store) GetObject(ctx context.Context, loc storage.Location, key string) ([]byte, error) {
	const q = `SELECT body FROM objects WHERE bucket = ? AND key = ?;`
	var body []byte
	if err := s.db.QueryRowContext(ctx, q, loc.Bucket, key).Scan(&body); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, storage.ErrNotFound
		}
		return nil, fmt.Errorf("query object: %w", err)
	}
	return body, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}
