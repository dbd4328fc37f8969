// Package ipfsstore implements storage.ObjectStore on the mutable file
// system (MFS) of an IPFS node, so shard keys become MFS paths.
package ipfsstore

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"path"
	"strings"
	"time"

	shell "github.com/ipfs/go-ipfs-api"

	"catalog-share/internal/storage"
)

const defaultRoot = "shares"

var errInvalidKey = errors.New("invalid ipfs object key")

// Store writes objects below /<bucket>/ on one IPFS node.
type Store struct {
	shell *shell.Shell
	addr  string
	log   *slog.Logger
}

// New connects to the IPFS HTTP API at addr (host:port or URL).
func New(addr string, log *slog.Logger) (*Store, error) {
	if addr == "" {
		return nil, errors.New("ipfs api address required")
	}
	if log == nil {
		log = slog.Default()
	}
	return &Store{shell: shell.NewShell(addr), addr: addr, log: log}, nil
}

// PutObject writes body to the MFS path of key, creating parents.
func (s *Store) PutObject(ctx context.Context, loc storage.Location, key string, body []byte) error {
	start := time.Now()
	p, err := mfsPath(loc, key)
	if err != nil {
		return err
	}
	err = s.shell.FilesWrite(ctx, p, bytes.NewReader(body),
		shell.FilesWrite.Create(true),
		shell.FilesWrite.Parents(true),
		shell.FilesWrite.Truncate(true),
	)
	if err != nil {
		return fmt.Errorf("ipfs files write %s: %w", p, err)
	}

	s.log.Debug("Stored object in IPFS",
		slog.String("node", s.addr),
		slog.String("path", p),
		slog.Int("size", len(body)),
		slog.Duration("duration", time.Since(start)))
	return nil
}

// GetObject reads the MFS path of key.
func (s *Store) GetObject(ctx context.Context, loc storage.Location, key string) ([]byte, error) {
	p, err := mfsPath(loc, key)
	if err != nil {
		return nil, err
	}
	reader, err := s.shell.FilesRead(ctx, p)
	if err != nil {
		if isNotFound(err) {
			return nil, storage.ErrNotFound
		}
		return nil, fmt.Errorf("ipfs files read %s: %w", p, err)
	}
	defer reader.Close()

	data, err := io.ReadAll(reader)
	if err != nil {
		if isNotFound(err) {
			return nil, storage.ErrNotFound
		}
		return nil, fmt.Errorf("read ipfs object: %w", err)
	}
	return data, nil
}

// Close is a no-op; the shell holds no persistent connection.
func (s *Store) Close() error { return nil }

// mfsPath places key below the bucket root. Keys with empty, "." or ".."
// segments are rejected so that no key escapes or aliases another.
func mfsPath(loc storage.Location, key string) (string, error) {
	root := strings.Trim(loc.Bucket, "/")
	if root == "" {
		root = defaultRoot
	}
	for _, part := range append(strings.Split(root, "/"), strings.Split(key, "/")...) {
		if part == "" || part == "." || part == ".." {
			return "", fmt.Errorf("%w: %q", errInvalidKey, key)
		}
	}
	return path.Join("/", root, key), nil
}

func isNotFound(err error) bool {
	msg := err.Error()
	return strings.Contains(msg, "does not exist") || strings.Contains(msg, "no link named")
}
