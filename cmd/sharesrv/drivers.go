package main

import (
	"context"
	"log/slog"

	"catalog-share/internal/lazy"
	"catalog-share/internal/share"
	"catalog-share/internal/storage"
	"catalog-share/internal/storage/boltstore"
	"catalog-share/internal/storage/ipfsstore"
	"catalog-share/internal/storage/s3store"
)

type storeOptions struct {
	boltPath   string
	sqlitePath string
	ipfsAPI    string
	log        *slog.Logger
}

type opener func(ctx context.Context, opts storeOptions) (storage.ObjectStore, error)

// openers holds the object-store drivers compiled into this binary.
var openers = map[string]opener{
	share.DriverS3: func(ctx context.Context, opts storeOptions) (storage.ObjectStore, error) {
		st, err := s3store.New(ctx, opts.log)
		if err != nil {
			return nil, err
		}
		return st, nil
	},
	share.DriverBolt: func(_ context.Context, opts storeOptions) (storage.ObjectStore, error) {
		st, err := boltstore.Open(opts.boltPath)
		if err != nil {
			return nil, err
		}
		return st, nil
	},
	share.DriverIPFS: func(_ context.Context, opts storeOptions) (storage.ObjectStore, error) {
		st, err := ipfsstore.New(opts.ipfsAPI, opts.log)
		if err != nil {
			return nil, err
		}
		return st, nil
	},
}

// buildClients wraps each requested driver in a lazy handle. Nothing is
// opened until a backend first needs it. Drivers not compiled into this
// binary get no handle, so the registry rejects prefixes that use them.
func buildClients(opts storeOptions, drivers []string) *share.Clients {
	stores := make(map[string]*lazy.Handle[storage.ObjectStore], len(drivers))
	for _, name := range drivers {
		open, ok := openers[name]
		if !ok {
			opts.log.Warn("object store driver not compiled in", "driver", name)
			continue
		}
		stores[name] = lazy.New(func(ctx context.Context) (storage.ObjectStore, error) {
			opts.log.Info("opening object store", "driver", name)
			return open(context.WithoutCancel(ctx), opts)
		})
	}
	return &share.Clients{Stores: stores, Paste: share.DefaultPaste()}
}
