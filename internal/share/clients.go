package share

import (
	"context"
	"errors"

	"catalog-share/internal/gist"
	"catalog-share/internal/lazy"
	"catalog-share/internal/storage"
)

// PasteService is the slice of the gist client the paste backend uses.
type PasteService interface {
	Create(ctx context.Context, opts gist.Options, g gist.NewGist) (string, error)
	Get(ctx context.Context, opts gist.Options, id string) (*gist.Gist, error)
	Content(ctx context.Context, opts gist.Options, f gist.File) (string, error)
}

// Clients holds the shared, lazily built handles backends draw from. Every
// prefix using the same driver shares one handle.
type Clients struct {
	Stores map[string]*lazy.Handle[storage.ObjectStore]
	Paste  *lazy.Handle[PasteService]
}

// DefaultPaste returns a handle building one gist client.
func DefaultPaste() *lazy.Handle[PasteService] {
	return lazy.New(func(context.Context) (PasteService, error) {
		return gist.NewClient(nil), nil
	})
}

func (c *Clients) store(driver string) (*lazy.Handle[storage.ObjectStore], bool) {
	if c == nil || c.Stores == nil {
		return nil, false
	}
	h, ok := c.Stores[driver]
	return h, ok && h != nil
}

// Close releases every store that was built.
func (c *Clients) Close() error {
	if c == nil {
		return nil
	}
	var errs []error
	for _, h := range c.Stores {
		if st, ok := h.Peek(); ok && st != nil {
			errs = append(errs, st.Close())
		}
	}
	return errors.Join(errs...)
}
