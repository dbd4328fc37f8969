package boltstore

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"catalog-share/internal/storage"
)

func TestPutGet(t *testing.T) {
	dir := t.TempDir()
	store, err := Open(filepath.Join(dir, "test.db"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { store.Close() })

	loc := storage.Location{Bucket: "catalogs"}
	key := storage.ShardKey("abc123")
	if err := store.PutObject(context.Background(), loc, key, []byte(`{"a":1}`)); err != nil {
		t.Fatalf("put object: %v", err)
	}

	out, err := store.GetObject(context.Background(), loc, key)
	if err != nil {
		t.Fatalf("get object: %v", err)
	}
	if string(out) != `{"a":1}` {
		t.Fatalf("unexpected body %q", out)
	}

	// Overwrite is allowed and replaces the value.
	if err := store.PutObject(context.Background(), loc, key, []byte(`{"a":2}`)); err != nil {
		t.Fatalf("overwrite: %v", err)
	}
	out, err = store.GetObject(context.Background(), loc, key)
	if err != nil {
		t.Fatalf("get after overwrite: %v", err)
	}
	if string(out) != `{"a":2}` {
		t.Fatalf("unexpected body after overwrite %q", out)
	}
}

func TestGetMissing(t *testing.T) {
	store, err := Open(filepath.Join(t.TempDir(), "missing.db"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { store.Close() })

	_, err = store.GetObject(context.Background(), storage.Location{Bucket: "nope"}, "a/b/ab")
	if !errors.Is(err, storage.ErrNotFound) {
		t.Fatalf("expected not found for unknown bucket, got %v", err)
	}
	_, err = store.GetObject(context.Background(), storage.Location{}, "a/b/ab")
	if !errors.Is(err, storage.ErrNotFound) {
		t.Fatalf("expected not found for unknown key, got %v", err)
	}
}

func TestBucketsAreSeparate(t *testing.T) {
	store, err := Open(filepath.Join(t.TempDir(), "sep.db"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { store.Close() })

	ctx := context.Background()
	if err := store.PutObject(ctx, storage.Location{Bucket: "one"}, "k", []byte("1")); err != nil {
		t.Fatalf("put: %v", err)
	}
	if _, err := store.GetObject(ctx, storage.Location{Bucket: "two"}, "k"); !errors.Is(err, storage.ErrNotFound) {
		t.Fatalf("expected not found in other bucket, got %v", err)
	}
}
