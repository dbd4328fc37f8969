package share

import (
	"fmt"
	"log/slog"
	"slices"
	"strings"

	"catalog-share/internal/gist"
	"catalog-share/internal/shortid"
	"catalog-share/internal/storage"
)

// Registry maps prefixes to backends. It is read-only once built.
type Registry struct {
	backends    map[string]Backend
	writePrefix string
}

// NewRegistry builds a backend for every configured prefix. Configuration
// problems are returned as *ConfigError. A write prefix that names no
// registered backend is logged and leaves minting disabled.
func NewRegistry(cfg Config, clients *Clients, log *slog.Logger) (*Registry, error) {
	if log == nil {
		log = slog.Default()
	}
	r := &Registry{
		backends:    make(map[string]Backend, len(cfg.Prefixes)),
		writePrefix: cfg.WritePrefix,
	}

	for prefix, bc := range cfg.Prefixes {
		if err := validPrefix(prefix); err != nil {
			return nil, err
		}
		svc, err := ParseService(bc.Service)
		if err != nil {
			return nil, &ConfigError{Prefix: prefix, Reason: err.Error()}
		}

		var b Backend
		switch svc {
		case ServiceObjectStore:
			b, err = newObjectStore(prefix, bc, clients, log)
		case ServicePaste:
			b, err = newPaste(prefix, bc, clients, log)
		}
		if err != nil {
			return nil, err
		}
		r.backends[prefix] = b
	}

	r.warnWritePrefix(log)
	return r, nil
}

// NewStaticRegistry registers ready-made backends.
func NewStaticRegistry(writePrefix string, backends map[string]Backend) (*Registry, error) {
	r := &Registry{
		backends:    make(map[string]Backend, len(backends)),
		writePrefix: writePrefix,
	}
	for prefix, b := range backends {
		if err := validPrefix(prefix); err != nil {
			return nil, err
		}
		if b == nil {
			return nil, &ConfigError{Prefix: prefix, Reason: "nil backend"}
		}
		r.backends[prefix] = b
	}
	return r, nil
}

// Lookup returns the backend registered under prefix.
func (r *Registry) Lookup(prefix string) (Backend, bool) {
	b, ok := r.backends[prefix]
	return b, ok
}

// Writer returns the backend new shares are minted on.
func (r *Registry) Writer() (string, Backend, error) {
	if r.writePrefix == "" {
		return "", nil, ErrNotConfigured
	}
	b, ok := r.backends[r.writePrefix]
	if !ok {
		return "", nil, ErrNotConfigured
	}
	return r.writePrefix, b, nil
}

// Prefixes lists the registered prefixes in sorted order.
func (r *Registry) Prefixes() []string {
	out := make([]string, 0, len(r.backends))
	for p := range r.backends {
		out = append(out, p)
	}
	slices.Sort(out)
	return out
}

func (r *Registry) warnWritePrefix(log *slog.Logger) {
	switch {
	case r.writePrefix == "":
		log.Warn("no write prefix configured, new shares cannot be created")
	case r.backends[r.writePrefix] == nil:
		log.Warn("write prefix is not a registered prefix, new shares cannot be created",
			"prefix", r.writePrefix, "registered", r.Prefixes())
	}
}

func validPrefix(prefix string) error {
	switch {
	case prefix == "":
		return &ConfigError{Reason: "empty prefix"}
	case strings.Contains(prefix, Separator):
		return &ConfigError{Prefix: prefix, Reason: fmt.Sprintf("prefix must not contain %q", Separator)}
	}
	return nil
}

func newObjectStore(prefix string, bc BackendConfig, clients *Clients, log *slog.Logger) (Backend, error) {
	driver := strings.ToLower(bc.Driver)
	if driver == "" {
		driver = DriverS3
	}
	handle, ok := clients.store(driver)
	if !ok {
		return nil, &ConfigError{Prefix: prefix, Reason: fmt.Sprintf("object store driver %q is not available", bc.Driver)}
	}
	if driver == DriverS3 && bc.Bucket == "" {
		return nil, &ConfigError{Prefix: prefix, Reason: "bucket is required"}
	}
	if bc.KeyLength < 0 {
		return nil, &ConfigError{Prefix: prefix, Reason: "keyLength must not be negative"}
	}
	if (bc.AccessKeyID == "") != (bc.SecretAccessKey == "") {
		return nil, &ConfigError{Prefix: prefix, Reason: "accessKeyId and secretAccessKey must be set together"}
	}

	loc := storage.Location{Bucket: bc.Bucket, Region: bc.Region, Endpoint: bc.Endpoint}
	if bc.AccessKeyID != "" {
		loc.Credentials = &storage.Credentials{AccessKeyID: bc.AccessKeyID, SecretAccessKey: bc.SecretAccessKey}
	}

	// Report how safe the configured id length is at a million shares.
	length := bc.KeyLength
	if length == 0 || length > shortid.MaxLength {
		length = shortid.MaxLength
	}
	log.Info("registered share prefix",
		"prefix", prefix,
		"displayName", bc.DisplayName,
		"service", ServiceObjectStore.String(),
		"driver", driver,
		"bucket", bc.Bucket,
		"keyLength", length,
		"collisionAt1M", shortid.CollisionProbability(length, 1_000_000))
	return NewObjectStoreBackend(prefix, driver, handle, loc, bc.KeyLength, log), nil
}

func newPaste(prefix string, bc BackendConfig, clients *Clients, log *slog.Logger) (Backend, error) {
	if clients == nil || clients.Paste == nil {
		return nil, &ConfigError{Prefix: prefix, Reason: "gist client is not available"}
	}
	if bc.AccessToken == "" {
		log.Warn("gist prefix has no access token, requests will be anonymous", "prefix", prefix)
	}
	opts := gist.Options{APIURL: bc.APIURL, Token: bc.AccessToken, UserAgent: bc.UserAgent}
	log.Info("registered share prefix", "prefix", prefix, "displayName", bc.DisplayName, "service", ServicePaste.String())
	return NewPasteBackend(prefix, clients.Paste, opts, bc.GistFilename, bc.GistDescription, log), nil
}
