package share

import (
	"errors"
	"fmt"
)

var (
	// ErrNotConfigured is returned by Mint when no usable write prefix is
	// configured.
	ErrNotConfigured = errors.New("this server has not been configured to generate new share URLs")

	// ErrNotFound marks a share the backend does not hold.
	ErrNotFound = errors.New("share not found")
)

// ConfigError reports an invalid share configuration. It is fatal at load.
type ConfigError struct {
	Prefix string
	Reason string
}

func (e *ConfigError) Error() string {
	if e.Prefix == "" {
		return "share config: " + e.Reason
	}
	return fmt.Sprintf("share config: prefix %q: %s", e.Prefix, e.Reason)
}

// UnknownPrefixError is returned when a public id names a prefix that is not
// registered.
type UnknownPrefixError struct {
	Prefix string
}

func (e *UnknownPrefixError) Error() string {
	return fmt.Sprintf("Unknown share prefix %q", e.Prefix)
}

// TransformError is an upstream answer that could not be turned into a
// result. Message is safe to show to callers.
type TransformError struct {
	Prefix  string
	Message string
	Err     error
}

func (e *TransformError) Error() string { return e.Message }
func (e *TransformError) Unwrap() error { return e.Err }

// BackendError wraps a failed storage call.
type BackendError struct {
	Prefix  string
	Service Service
	Op      string
	Err     error
}

func (e *BackendError) Error() string {
	if errors.Is(e.Err, ErrNotFound) {
		return fmt.Sprintf("%s share not found under prefix %q", e.Service, e.Prefix)
	}
	return fmt.Sprintf("%s backend for prefix %q: %s failed", e.Service, e.Prefix, e.Op)
}

func (e *BackendError) Unwrap() error { return e.Err }

// Outcome classifies err for metrics labels.
func Outcome(err error) string {
	var (
		upErr *UnknownPrefixError
		trErr *TransformError
	)
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, ErrNotConfigured):
		return "not_configured"
	case errors.As(err, &upErr):
		return "unknown_prefix"
	case errors.As(err, &trErr):
		return "transform_error"
	case errors.Is(err, ErrNotFound):
		return "not_found"
	default:
		return "backend_error"
	}
}
