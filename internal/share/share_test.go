package share

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"

	"github.com/stretchr/testify/mock"

	"catalog-share/internal/lazy"
	"catalog-share/internal/storage"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type mockBackend struct {
	mock.Mock
}

func (m *mockBackend) Mint(ctx context.Context, content []byte) (string, error) {
	args := m.Called(ctx, content)
	return args.String(0), args.Error(1)
}

func (m *mockBackend) Resolve(ctx context.Context, id string) ([]byte, error) {
	args := m.Called(ctx, id)
	body, _ := args.Get(0).([]byte)
	return body, args.Error(1)
}

// memStore is an in-memory storage.ObjectStore.
type memStore struct {
	mu      sync.Mutex
	objects map[string][]byte
	puts    int
	closed  bool
	putErr  error
}

func newMemStore() *memStore {
	return &memStore{objects: map[string][]byte{}}
}

func (s *memStore) PutObject(_ context.Context, loc storage.Location, key string, body []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.putErr != nil {
		return s.putErr
	}
	s.puts++
	s.objects[loc.Bucket+"|"+key] = append([]byte(nil), body...)
	return nil
}

func (s *memStore) GetObject(_ context.Context, loc storage.Location, key string) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	body, ok := s.objects[loc.Bucket+"|"+key]
	if !ok {
		return nil, storage.ErrNotFound
	}
	return body, nil
}

func (s *memStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return nil
}

func (s *memStore) keys() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, 0, len(s.objects))
	for k := range s.objects {
		out = append(out, k)
	}
	return out
}

func storeHandle(st storage.ObjectStore) *lazy.Handle[storage.ObjectStore] {
	return lazy.New(func(context.Context) (storage.ObjectStore, error) { return st, nil })
}

func failingHandle(err error) *lazy.Handle[storage.ObjectStore] {
	return lazy.New(func(context.Context) (storage.ObjectStore, error) { return nil, err })
}

var errBoom = errors.New("boom")
