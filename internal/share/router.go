package share

import (
	"context"
	"errors"
	"log/slog"

	"catalog-share/internal/codec"
	"catalog-share/internal/metrics"
)

// Share is the result of a successful mint.
type Share struct {
	// ID is the public id, Prefix + Separator + BackendID.
	ID        string
	Prefix    string
	BackendID string
}

// Router dispatches mint and resolve calls to the backend a prefix names.
type Router struct {
	registry *Registry
	codec    codec.Codec
	log      *slog.Logger
}

// NewRouter returns a router over reg. A nil codec serves stored bytes
// unchanged.
func NewRouter(reg *Registry, c codec.Codec, log *slog.Logger) *Router {
	if c == nil {
		c = codec.Func(func(raw []byte) ([]byte, error) { return raw, nil })
	}
	if log == nil {
		log = slog.Default()
	}
	return &Router{registry: reg, codec: c, log: log}
}

// Mint stores content with the write backend.
func (r *Router) Mint(ctx context.Context, content []byte) (Share, error) {
	prefix, b, err := r.registry.Writer()
	if err != nil {
		r.log.Debug("cannot mint share", "error", err)
		metrics.RecordMint(prefix, Outcome(err), 0)
		return Share{}, err
	}

	id, err := b.Mint(ctx, content)
	metrics.RecordMint(prefix, Outcome(err), len(content))
	if err != nil {
		r.log.Error("mint share failed", "prefix", prefix, "error", err, "cause", errors.Unwrap(err))
		return Share{}, err
	}

	s := Share{ID: Compose(prefix, id), Prefix: prefix, BackendID: id}
	r.log.Info("minted share", "id", s.ID, "bytes", len(content))
	return s, nil
}

// Resolve fetches and normalizes the content behind a public id.
func (r *Router) Resolve(ctx context.Context, publicID string) ([]byte, error) {
	prefix, id := Parse(publicID)
	b, ok := r.registry.Lookup(prefix)
	if !ok {
		err := &UnknownPrefixError{Prefix: prefix}
		r.log.Warn("resolve share failed", "id", publicID, "error", err)
		metrics.RecordResolve("", Outcome(err), 0)
		return nil, err
	}

	raw, err := b.Resolve(ctx, id)
	if err != nil {
		r.log.Error("resolve share failed", "id", publicID, "error", err, "cause", errors.Unwrap(err))
		metrics.RecordResolve(prefix, Outcome(err), 0)
		return nil, err
	}

	doc, err := r.codec.Normalize(raw)
	if err != nil {
		err = &TransformError{Prefix: prefix, Message: err.Error(), Err: err}
		r.log.Error("stored share is not a document", "id", publicID, "error", err)
		metrics.RecordResolve(prefix, Outcome(err), 0)
		return nil, err
	}
	metrics.RecordResolve(prefix, Outcome(nil), len(doc))
	return doc, nil
}
