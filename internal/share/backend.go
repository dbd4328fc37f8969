package share

import "context"

// Backend stores and fetches share content under backend-local ids.
type Backend interface {
	// Mint stores content and returns the id it can be resolved by.
	Mint(ctx context.Context, content []byte) (string, error)
	// Resolve returns the raw content stored under id.
	Resolve(ctx context.Context, id string) ([]byte, error)
}
