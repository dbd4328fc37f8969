package share

import "strings"

// Separator joins a prefix and a backend id into a public id.
const Separator = "-"

// Compose builds the public id for backendID stored under prefix.
func Compose(prefix, backendID string) string {
	return prefix + Separator + backendID
}

// Parse splits a public id at the first separator. An id without a
// separator, or with nothing before it, has the empty prefix and is
// returned whole as the backend id.
func Parse(publicID string) (prefix, backendID string) {
	p, rest, ok := strings.Cut(publicID, Separator)
	if !ok || p == "" {
		return "", publicID
	}
	return p, rest
}
