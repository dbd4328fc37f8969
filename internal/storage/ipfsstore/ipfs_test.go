package ipfsstore

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"io/fs"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"catalog-share/internal/storage"
)

// fakeMFS answers files/write and files/read the way an IPFS node's HTTP
// API does, keeping file contents in memory.
type fakeMFS struct {
	mu     sync.Mutex
	files  map[string][]byte
	writes []url.Values
}

func newFakeMFS(t *testing.T) (*fakeMFS, *Store) {
	t.Helper()
	fake := &fakeMFS{files: map[string][]byte{}}
	srv := httptest.NewServer(fake)
	t.Cleanup(srv.Close)

	store, err := New(srv.URL, nil)
	require.NoError(t, err)
	return fake, store
}

func (f *fakeMFS) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	p := q.Get("arg")

	switch r.URL.Path {
	case "/api/v0/files/write":
		mr, err := r.MultipartReader()
		if err != nil {
			writeAPIError(w, "expected multipart body: "+err.Error())
			return
		}
		part, err := mr.NextPart()
		if err != nil {
			writeAPIError(w, "missing file part: "+err.Error())
			return
		}
		body, err := io.ReadAll(part)
		if err != nil {
			writeAPIError(w, err.Error())
			return
		}

		f.mu.Lock()
		f.writes = append(f.writes, q)
		existing, ok := f.files[p]
		switch {
		case !ok && q.Get("create") != "true":
			f.mu.Unlock()
			writeAPIError(w, "file does not exist")
			return
		case ok && q.Get("truncate") != "true" && len(existing) > len(body):
			// Without truncate the old tail survives.
			body = append(body, existing[len(body):]...)
		}
		f.files[p] = body
		f.mu.Unlock()

		w.Header().Set("Content-Type", "text/plain")
		w.WriteHeader(http.StatusOK)

	case "/api/v0/files/read":
		f.mu.Lock()
		body, ok := f.files[p]
		f.mu.Unlock()
		if !ok {
			writeAPIError(w, "file does not exist")
			return
		}
		w.Header().Set("Content-Type", "text/plain")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write(body)

	default:
		http.NotFound(w, r)
	}
}

func (f *fakeMFS) writeCalls() []url.Values {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]url.Values(nil), f.writes...)
}

func writeAPIError(w http.ResponseWriter, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusInternalServerError)
	_ = json.NewEncoder(w).Encode(map[string]any{"Message": msg, "Code": 0, "Type": "error"})
}

func TestPutGetRoundTrip(t *testing.T) {
	fake, store := newFakeMFS(t)
	ctx := context.Background()
	loc := storage.Location{Bucket: "catalogs"}

	require.NoError(t, store.PutObject(ctx, loc, "M/y/MyKey", []byte(`{"a":1}`)))

	got, err := store.GetObject(ctx, loc, "M/y/MyKey")
	require.NoError(t, err)
	assert.Equal(t, `{"a":1}`, string(got))

	calls := fake.writeCalls()
	require.Len(t, calls, 1)
	assert.Equal(t, "/catalogs/M/y/MyKey", calls[0].Get("arg"))
	assert.Equal(t, "true", calls[0].Get("create"))
	assert.Equal(t, "true", calls[0].Get("parents"))
	assert.Equal(t, "true", calls[0].Get("truncate"))
}

func TestPutOverwritesShorterContent(t *testing.T) {
	_, store := newFakeMFS(t)
	ctx := context.Background()
	loc := storage.Location{}

	require.NoError(t, store.PutObject(ctx, loc, "a/b/ab", []byte(`{"long":"value"}`)))
	require.NoError(t, store.PutObject(ctx, loc, "a/b/ab", []byte(`{}`)))

	got, err := store.GetObject(ctx, loc, "a/b/ab")
	require.NoError(t, err)
	assert.Equal(t, `{}`, string(got))
}

func TestGetMissingIsNotFound(t *testing.T) {
	_, store := newFakeMFS(t)

	_, err := store.GetObject(context.Background(), storage.Location{Bucket: "catalogs"}, "n/o/nope")
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestGetOtherErrorsAreNotNotFound(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeAPIError(w, "repo is locked")
	}))
	t.Cleanup(srv.Close)
	store, err := New(srv.URL, nil)
	require.NoError(t, err)

	_, err = store.GetObject(context.Background(), storage.Location{}, "a/b/ab")
	require.Error(t, err)
	assert.False(t, errors.Is(err, storage.ErrNotFound))
}

func TestRejectsEscapingKeys(t *testing.T) {
	fake, store := newFakeMFS(t)
	ctx := context.Background()

	for _, key := range []string{storage.ShardKey(".."), "../../etc", "a//b", "", storage.ShardKey(".x")} {
		err := store.PutObject(ctx, storage.Location{}, key, []byte("x"))
		assert.ErrorIs(t, err, errInvalidKey, key)

		_, err = store.GetObject(ctx, storage.Location{}, key)
		assert.ErrorIs(t, err, errInvalidKey, key)
	}
	assert.Empty(t, fake.writeCalls())
}

func TestMFSPath(t *testing.T) {
	tests := []struct {
		bucket, key, want string
	}{
		{"", "M/y/MyKey", "/shares/M/y/MyKey"},
		{"catalogs", "a/b/ab", "/catalogs/a/b/ab"},
		{"/catalogs/", "a/b/ab", "/catalogs/a/b/ab"},
		{"team/catalogs", "a/b/ab", "/team/catalogs/a/b/ab"},
	}
	for _, tt := range tests {
		got, err := mfsPath(storage.Location{Bucket: tt.bucket}, tt.key)
		require.NoError(t, err)
		assert.Equal(t, tt.want, got)
	}

	_, err := mfsPath(storage.Location{Bucket: ".."}, "a/b/ab")
	assert.ErrorIs(t, err, errInvalidKey)
}

func TestIsNotFound(t *testing.T) {
	assert.True(t, isNotFound(errors.New("files/read: file does not exist")))
	assert.True(t, isNotFound(errors.New("no link named \"x\" under QmFoo")))
	assert.False(t, isNotFound(errors.New("connection refused")))
	assert.False(t, isNotFound(fs.ErrPermission))
}

func TestNewRequiresAddress(t *testing.T) {
	_, err := New("", nil)
	require.Error(t, err)

	store, err := New("127.0.0.1:5001", nil)
	require.NoError(t, err)
	assert.NoError(t, store.Close())
}
