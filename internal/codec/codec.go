// Package codec normalizes stored share documents before they are served.
package codec

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
)

// ErrNotDocument is returned when content is not a JSON object.
var ErrNotDocument = errors.New("share content is not a JSON document")

// Codec turns raw stored bytes into the canonical document returned to
// clients.
type Codec interface {
	Normalize(raw []byte) ([]byte, error)
}

// JSON accepts either a JSON object or a JSON string whose value is a JSON
// object, and returns the object in compact form.
type JSON struct{}

// Normalize implements Codec.
func (JSON) Normalize(raw []byte) ([]byte, error) {
	doc := bytes.TrimSpace(raw)
	if len(doc) > 0 && doc[0] == '"' {
		var inner string
		if err := json.Unmarshal(doc, &inner); err != nil {
			return nil, fmt.Errorf("decode string document: %w", err)
		}
		doc = bytes.TrimSpace([]byte(inner))
	}
	if len(doc) == 0 || doc[0] != '{' {
		return nil, ErrNotDocument
	}

	var out bytes.Buffer
	if err := json.Compact(&out, doc); err != nil {
		return nil, fmt.Errorf("parse document: %w", err)
	}
	return out.Bytes(), nil
}

// Func adapts a function to Codec.
type Func func(raw []byte) ([]byte, error)

// Normalize implements Codec.
func (f Func) Normalize(raw []byte) ([]byte, error) { return f(raw) }
