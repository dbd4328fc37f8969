package share

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"catalog-share/internal/lazy"
	"catalog-share/internal/metrics"
	"catalog-share/internal/shortid"
	"catalog-share/internal/storage"
)

// ObjectStoreBackend keeps content in an object store under a key derived
// from the content itself, so minting the same document twice yields the
// same id.
type ObjectStoreBackend struct {
	prefix    string
	driver    string
	store     *lazy.Handle[storage.ObjectStore]
	loc       storage.Location
	keyLength int
	log       *slog.Logger
}

// NewObjectStoreBackend returns a backend writing to loc through store.
func NewObjectStoreBackend(prefix, driver string, store *lazy.Handle[storage.ObjectStore], loc storage.Location, keyLength int, log *slog.Logger) *ObjectStoreBackend {
	if log == nil {
		log = slog.Default()
	}
	return &ObjectStoreBackend{
		prefix:    prefix,
		driver:    driver,
		store:     store,
		loc:       loc,
		keyLength: keyLength,
		log:       log.With("prefix", prefix, "driver", driver),
	}
}

// Mint implements Backend.
func (b *ObjectStoreBackend) Mint(ctx context.Context, content []byte) (string, error) {
	id := shortid.Generate(content, b.keyLength)
	key := storage.ShardKey(id)

	start := time.Now()
	err := b.put(ctx, key, content)
	metrics.ObserveBackend(b.driver, "put", time.Since(start), err == nil)
	if err != nil {
		return "", &BackendError{Prefix: b.prefix, Service: ServiceObjectStore, Op: "mint", Err: err}
	}
	b.log.Debug("stored share", "id", id, "bucket", b.loc.Bucket, "key", key, "bytes", len(content))
	return id, nil
}

// Resolve implements Backend.
func (b *ObjectStoreBackend) Resolve(ctx context.Context, id string) ([]byte, error) {
	key := storage.ShardKey(id)

	start := time.Now()
	body, err := b.get(ctx, key)
	metrics.ObserveBackend(b.driver, "get", time.Since(start), err == nil)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			err = ErrNotFound
		}
		return nil, &BackendError{Prefix: b.prefix, Service: ServiceObjectStore, Op: "resolve", Err: err}
	}
	return body, nil
}

func (b *ObjectStoreBackend) put(ctx context.Context, key string, content []byte) error {
	st, err := b.store.Get(ctx)
	if err != nil {
		return err
	}
	return st.PutObject(ctx, b.loc, key, content)
}

func (b *ObjectStoreBackend) get(ctx context.Context, key string) ([]byte, error) {
	st, err := b.store.Get(ctx)
	if err != nil {
		return nil, err
	}
	return st.GetObject(ctx, b.loc, key)
}
