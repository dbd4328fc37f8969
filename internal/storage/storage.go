package storage

import (
	"context"
	"errors"
)

// ErrNotFound is returned when no object exists under a key.
var ErrNotFound = errors.New("object not found")

// Credentials are static keys for stores that accept them per request.
type Credentials struct {
	AccessKeyID     string
	SecretAccessKey string
}

// Location addresses a namespace inside an object store.
type Location struct {
	Bucket      string
	Region      string
	Endpoint    string
	Credentials *Credentials
}

// ObjectStore defines the object storage contract used by share backends.
type ObjectStore interface {
	PutObject(ctx context.Context, loc Location, key string, body []byte) error
	GetObject(ctx context.Context, loc Location, key string) ([]byte, error)
	Close() error
}

// ShardKey maps an id to its storage key by prepending its first two
// characters as single-character directories: "MyKey" becomes "M/y/MyKey".
// Ids shorter than two characters are used as is.
func ShardKey(id string) string {
	runes := []rune(id)
	if len(runes) < 2 {
		return id
	}
	return string(runes[0]) + "/" + string(runes[1]) + "/" + id
}
