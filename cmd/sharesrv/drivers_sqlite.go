//go:build sqlite

package main

import (
	"context"

	"catalog-share/internal/share"
	"catalog-share/internal/storage"
	"catalog-share/internal/storage/sqlitestore"
)

func init() {
	openers[share.DriverSQLite] = func(_ context.Context, opts storeOptions) (storage.ObjectStore, error) {
		st, err := sqlitestore.Open(opts.sqlitePath)
		if err != nil {
			return nil, err
		}
		return st, nil
	}
}
