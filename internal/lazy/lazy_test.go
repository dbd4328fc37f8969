package lazy

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/atomic"
)

type client struct{ n int32 }

func TestGetBuildsOnceUnderRace(t *testing.T) {
	var builds atomic.Int32
	h := New(func(ctx context.Context) (*client, error) {
		n := builds.Inc()
		return &client{n: n}, nil
	})

	_, ok := h.Peek()
	require.False(t, ok)

	const callers = 32
	got := make([]*client, callers)
	var wg sync.WaitGroup
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			c, err := h.Get(context.Background())
			assert.NoError(t, err)
			got[i] = c
		}(i)
	}
	wg.Wait()

	assert.Equal(t, int32(1), builds.Load())
	for _, c := range got {
		assert.Same(t, got[0], c)
	}
	peeked, ok := h.Peek()
	require.True(t, ok)
	assert.Same(t, got[0], peeked)
}

func TestGetRemembersError(t *testing.T) {
	var builds atomic.Int32
	boom := errors.New("boom")
	h := New(func(ctx context.Context) (*client, error) {
		builds.Inc()
		return nil, boom
	})

	_, err := h.Get(context.Background())
	require.ErrorIs(t, err, boom)
	_, err = h.Get(context.Background())
	require.ErrorIs(t, err, boom)
	assert.Equal(t, int32(1), builds.Load())

	_, ok := h.Peek()
	assert.False(t, ok)
}

func TestNilBuilder(t *testing.T) {
	var h Handle[int]
	_, err := h.Get(context.Background())
	assert.Error(t, err)
}
