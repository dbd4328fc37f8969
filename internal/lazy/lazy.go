// Package lazy provides process-wide handles that are built on first use.
package lazy

import (
	"context"
	"errors"
	"sync"

	"go.uber.org/atomic"
)

// Handle builds a value at most once, on the first call to Get, and hands
// the same value (or the same build error) to every caller afterwards.
type Handle[T any] struct {
	once  sync.Once
	build func(context.Context) (T, error)
	val   T
	err   error
	done  atomic.Bool
}

// New returns a handle that will call build on first use.
func New[T any](build func(context.Context) (T, error)) *Handle[T] {
	return &Handle[T]{build: build}
}

// Get returns the value, building it if no caller has yet. Concurrent
// first callers block until the single build finishes.
func (h *Handle[T]) Get(ctx context.Context) (T, error) {
	h.once.Do(func() {
		if h.build == nil {
			h.err = errors.New("lazy: no builder")
		} else {
			h.val, h.err = h.build(ctx)
		}
		h.done.Store(true)
	})
	return h.val, h.err
}

// Peek returns the value if a build already finished successfully. It never
// triggers a build.
func (h *Handle[T]) Peek() (T, bool) {
	if !h.done.Load() || h.err != nil {
		var zero T
		return zero, false
	}
	return h.val, true
}
