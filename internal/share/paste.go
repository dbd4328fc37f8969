package share

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"catalog-share/internal/gist"
	"catalog-share/internal/lazy"
	"catalog-share/internal/metrics"
)

const (
	defaultGistFilename    = "usercatalog.json"
	defaultGistDescription = "User-created catalog"
)

// PasteBackend keeps each share as a private gist with a single file.
type PasteBackend struct {
	prefix      string
	client      *lazy.Handle[PasteService]
	opts        gist.Options
	filename    string
	description string
	log         *slog.Logger
}

// NewPasteBackend returns a gist backend. Empty filename or description fall
// back to the defaults.
func NewPasteBackend(prefix string, client *lazy.Handle[PasteService], opts gist.Options, filename, description string, log *slog.Logger) *PasteBackend {
	if filename == "" {
		filename = defaultGistFilename
	}
	if description == "" {
		description = defaultGistDescription
	}
	if log == nil {
		log = slog.Default()
	}
	return &PasteBackend{
		prefix:      prefix,
		client:      client,
		opts:        opts,
		filename:    filename,
		description: description,
		log:         log.With("prefix", prefix, "service", ServicePaste.String()),
	}
}

// Mint implements Backend.
func (b *PasteBackend) Mint(ctx context.Context, content []byte) (string, error) {
	svc, err := b.client.Get(ctx)
	if err != nil {
		return "", &BackendError{Prefix: b.prefix, Service: ServicePaste, Op: "mint", Err: err}
	}

	start := time.Now()
	id, err := svc.Create(ctx, b.opts, gist.NewGist{
		Description: b.description,
		Public:      false,
		Files:       gist.Files{{Name: b.filename, Content: string(content)}},
	})
	metrics.ObserveBackend(ServicePaste.String(), "create", time.Since(start), err == nil)
	if err != nil {
		return "", b.classify("mint", err)
	}
	b.log.Debug("created gist", "id", id, "bytes", len(content))
	return id, nil
}

// Resolve implements Backend. The share is the first file of the gist in
// the order the service listed them.
func (b *PasteBackend) Resolve(ctx context.Context, id string) ([]byte, error) {
	if !validGistID(id) {
		b.log.Debug("rejected malformed gist id", "id", id)
		return nil, &BackendError{Prefix: b.prefix, Service: ServicePaste, Op: "resolve", Err: ErrNotFound}
	}
	svc, err := b.client.Get(ctx)
	if err != nil {
		return nil, &BackendError{Prefix: b.prefix, Service: ServicePaste, Op: "resolve", Err: err}
	}

	start := time.Now()
	g, err := svc.Get(ctx, b.opts, id)
	metrics.ObserveBackend(ServicePaste.String(), "get", time.Since(start), err == nil)
	if err != nil {
		return nil, b.classify("resolve", err)
	}
	if len(g.Files) == 0 {
		return nil, &TransformError{Prefix: b.prefix, Message: "gist " + id + " has no files"}
	}

	content, err := svc.Content(ctx, b.opts, g.Files[0])
	if err != nil {
		return nil, b.classify("resolve", err)
	}
	return []byte(content), nil
}

// classify maps gist client errors onto the share error kinds. Only a
// create rejected by the service keeps the service's message; a rejected
// fetch is reported as a missing share.
func (b *PasteBackend) classify(op string, err error) error {
	var (
		apiErr *gist.APIError
		decErr *gist.DecodeError
	)
	switch {
	case errors.Is(err, gist.ErrNotFound):
		return &BackendError{Prefix: b.prefix, Service: ServicePaste, Op: op, Err: ErrNotFound}
	case errors.As(err, &decErr):
		return &TransformError{Prefix: b.prefix, Message: decErr.Error(), Err: err}
	case errors.As(err, &apiErr) && op == "mint":
		return &TransformError{Prefix: b.prefix, Message: apiErr.Message, Err: err}
	default:
		return &BackendError{Prefix: b.prefix, Service: ServicePaste, Op: op, Err: err}
	}
}

// validGistID reports whether id can name a gist. Gist ids are hex or, for
// old gists, decimal.
func validGistID(id string) bool {
	if id == "" {
		return false
	}
	for _, c := range id {
		if !('0' <= c && c <= '9' || 'a' <= c && c <= 'z' || 'A' <= c && c <= 'Z') {
			return false
		}
	}
	return true
}
