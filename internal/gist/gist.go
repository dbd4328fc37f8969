// Package gist is a minimal client for the GitHub gists REST API.
package gist

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const (
	// DefaultAPIURL is the public GitHub API root.
	DefaultAPIURL = "https://api.github.com"
	// DefaultUserAgent is sent when no user agent is configured.
	DefaultUserAgent = "TerriaJS-Server"

	acceptHeader = "application/vnd.github.v3+json"
	maxBodyBytes = 10 << 20
)

// ErrNotFound is returned when the gist does not exist or is not visible
// with the supplied token.
var ErrNotFound = errors.New("gist not found")

// APIError is a non-success answer from the API. Message carries the
// service's own error message when it sent one.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("gist api: %d %s", e.StatusCode, e.Message)
}

// DecodeError reports a success status whose body could not be understood.
type DecodeError struct {
	Err error
}

func (e *DecodeError) Error() string { return "gist api: decode response: " + e.Err.Error() }
func (e *DecodeError) Unwrap() error { return e.Err }

// Options select the API endpoint and identity for one call.
type Options struct {
	APIURL    string
	Token     string
	UserAgent string
}

// File is one file of a gist.
type File struct {
	Name      string `json:"-"`
	Filename  string `json:"filename,omitempty"`
	Content   string `json:"content"`
	Truncated bool   `json:"truncated,omitempty"`
	RawURL    string `json:"raw_url,omitempty"`
}

// Files keeps gist files in the order the API listed them.
type Files []File

// Gist is the subset of the gist resource this client reads.
type Gist struct {
	ID          string `json:"id"`
	Description string `json:"description"`
	Public      bool   `json:"public"`
	Files       Files  `json:"files"`
}

// NewGist describes a gist to create.
type NewGist struct {
	Description string
	Public      bool
	Files       Files
}

// Client talks to the gists API. It is safe for concurrent use.
type Client struct {
	http *http.Client
}

// NewClient returns a client using httpClient, or a client with a 30 second
// timeout when httpClient is nil.
func NewClient(httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 30 * time.Second}
	}
	return &Client{http: httpClient}
}

// Create posts a new gist and returns the id the service assigned.
func (c *Client) Create(ctx context.Context, opts Options, g NewGist) (string, error) {
	files := make(map[string]map[string]string, len(g.Files))
	for _, f := range g.Files {
		files[f.Name] = map[string]string{"content": f.Content}
	}
	payload, err := json.Marshal(map[string]any{
		"description": g.Description,
		"public":      g.Public,
		"files":       files,
	})
	if err != nil {
		return "", fmt.Errorf("marshal gist: %w", err)
	}

	req, err := c.newRequest(ctx, opts, http.MethodPost, apiURL(opts)+"/gists", bytes.NewReader(payload))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("send create request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusCreated {
		return "", apiError(resp)
	}
	var created Gist
	if err := json.NewDecoder(io.LimitReader(resp.Body, maxBodyBytes)).Decode(&created); err != nil {
		return "", &DecodeError{Err: err}
	}
	if created.ID == "" {
		return "", &DecodeError{Err: errors.New("response has no id")}
	}
	return created.ID, nil
}

// Get fetches a gist by id.
func (c *Client) Get(ctx context.Context, opts Options, id string) (*Gist, error) {
	req, err := c.newRequest(ctx, opts, http.MethodGet, apiURL(opts)+"/gists/"+url.PathEscape(id), nil)
	if err != nil {
		return nil, err
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("send get request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return nil, ErrNotFound
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, apiError(resp)
	}
	var g Gist
	if err := json.NewDecoder(io.LimitReader(resp.Body, maxBodyBytes)).Decode(&g); err != nil {
		return nil, &DecodeError{Err: err}
	}
	return &g, nil
}

// Content returns the full content of f, following raw_url when the API
// truncated it.
func (c *Client) Content(ctx context.Context, opts Options, f File) (string, error) {
	if !f.Truncated || f.RawURL == "" {
		return f.Content, nil
	}
	req, err := c.newRequest(ctx, opts, http.MethodGet, f.RawURL, nil)
	if err != nil {
		return "", err
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("send raw request: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return "", apiError(resp)
	}
	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return "", fmt.Errorf("read raw content: %w", err)
	}
	return string(raw), nil
}

func (c *Client) newRequest(ctx context.Context, opts Options, method, target string, body io.Reader) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, method, target, body)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	ua := opts.UserAgent
	if ua == "" {
		ua = DefaultUserAgent
	}
	req.Header.Set("User-Agent", ua)
	req.Header.Set("Accept", acceptHeader)
	if opts.Token != "" {
		req.Header.Set("Authorization", "token "+opts.Token)
	}
	return req, nil
}

// UnmarshalJSON decodes the files object while keeping key order.
func (fs *Files) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if tok == nil {
		*fs = nil
		return nil
	}
	if d, ok := tok.(json.Delim); !ok || d != '{' {
		return fmt.Errorf("files: expected object, got %v", tok)
	}

	var out Files
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return err
		}
		name, ok := tok.(string)
		if !ok {
			return fmt.Errorf("files: unexpected key %v", tok)
		}
		var f File
		if err := dec.Decode(&f); err != nil {
			return fmt.Errorf("files: decode %q: %w", name, err)
		}
		f.Name = name
		out = append(out, f)
	}
	if _, err := dec.Token(); err != nil {
		return err
	}
	*fs = out
	return nil
}

func apiURL(opts Options) string {
	if opts.APIURL == "" {
		return DefaultAPIURL
	}
	return strings.TrimSuffix(opts.APIURL, "/")
}

func apiError(resp *http.Response) error {
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	var msg struct {
		Message string `json:"message"`
	}
	if err := json.Unmarshal(body, &msg); err != nil || msg.Message == "" {
		msg.Message = http.StatusText(resp.StatusCode)
	}
	return &APIError{StatusCode: resp.StatusCode, Message: msg.Message}
}
