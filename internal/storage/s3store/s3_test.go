package s3store

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"catalog-share/internal/storage"
)

// fakeS3 answers path-style PutObject and GetObject requests.
type fakeS3 struct {
	mu      sync.Mutex
	objects map[string][]byte
	auths   []string
}

func (f *fakeS3) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.auths = append(f.auths, r.Header.Get("Authorization"))

	switch r.Method {
	case http.MethodPut:
		body, err := io.ReadAll(r.Body)
		if err != nil {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		f.objects[r.URL.Path] = body
		w.Header().Set("ETag", `"d41d8cd98f00b204e9800998ecf8427e"`)
		w.WriteHeader(http.StatusOK)
	case http.MethodGet:
		body, ok := f.objects[r.URL.Path]
		if !ok {
			w.Header().Set("Content-Type", "application/xml")
			w.WriteHeader(http.StatusNotFound)
			_, _ = io.WriteString(w, `<?xml version="1.0" encoding="UTF-8"?>
<Error><Code>NoSuchKey</Code><Message>The specified key does not exist.</Message></Error>`)
			return
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write(body)
	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

func newTestStore(t *testing.T) (*Store, *fakeS3, storage.Location) {
	t.Helper()
	t.Setenv("AWS_EC2_METADATA_DISABLED", "true")
	t.Setenv("AWS_REGION", "us-east-1")

	fake := &fakeS3{objects: map[string][]byte{}}
	srv := httptest.NewServer(fake)
	t.Cleanup(srv.Close)

	store, err := New(context.Background(), slog.New(slog.NewTextHandler(io.Discard, nil)))
	require.NoError(t, err)

	loc := storage.Location{
		Bucket:   "catalogs",
		Region:   "ap-southeast-2",
		Endpoint: srv.URL,
		Credentials: &storage.Credentials{
			AccessKeyID:     "AKIDEXAMPLE",
			SecretAccessKey: "secret",
		},
	}
	return store, fake, loc
}

func TestPutGetObject(t *testing.T) {
	store, fake, loc := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.PutObject(ctx, loc, "M/y/MyKey", []byte(`{"a":1}`)))

	fake.mu.Lock()
	stored, ok := fake.objects["/catalogs/M/y/MyKey"]
	auth := fake.auths[0]
	fake.mu.Unlock()
	require.True(t, ok, "object not stored under path-style key")
	assert.Equal(t, `{"a":1}`, string(stored))
	assert.Contains(t, auth, "AKIDEXAMPLE/")
	assert.Contains(t, auth, "/ap-southeast-2/s3/")

	got, err := store.GetObject(ctx, loc, "M/y/MyKey")
	require.NoError(t, err)
	assert.Equal(t, `{"a":1}`, string(got))
}

func TestGetObjectNotFound(t *testing.T) {
	store, _, loc := newTestStore(t)

	_, err := store.GetObject(context.Background(), loc, "n/o/nope")
	require.ErrorIs(t, err, storage.ErrNotFound)
}
