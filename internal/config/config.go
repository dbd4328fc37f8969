// Package config loads the share configuration file.
package config

import (
	"errors"
	"fmt"
	"os"
	"regexp"
	"strings"

	"github.com/dustin/go-humanize"
	"gopkg.in/yaml.v3"

	"catalog-share/internal/share"
)

// DefaultMaxRequestSize bounds share documents when the file sets no limit.
const DefaultMaxRequestSize = 200 * humanize.KiByte

// Prefix is the file form of one shareUrlPrefixes entry.
type Prefix struct {
	Service     string `yaml:"service"`
	DisplayName string `yaml:"displayName"`
	Description string `yaml:"description"`

	Driver          string `yaml:"driver"`
	Region          string `yaml:"region"`
	Bucket          string `yaml:"bucket"`
	Endpoint        string `yaml:"endpoint"`
	KeyLength       int    `yaml:"keyLength"`
	AccessKeyID     string `yaml:"accessKeyId"`
	SecretAccessKey string `yaml:"secretAccessKey"`

	AccessToken     string `yaml:"accessToken"`
	UserAgent       string `yaml:"userAgent"`
	APIURL          string `yaml:"apiUrl"`
	GistFilename    string `yaml:"gistFilename"`
	GistDescription string `yaml:"gistDescription"`
}

// File is the share configuration file. JSON files parse as well, being
// valid YAML.
type File struct {
	NewShareURLPrefix   string            `yaml:"newShareUrlPrefix"`
	ShareMaxRequestSize string            `yaml:"shareMaxRequestSize"`
	ShareURLPrefixes    map[string]Prefix `yaml:"shareUrlPrefixes"`
}

// Load reads and parses the file at path.
func Load(path string) (*File, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	f, err := Parse(raw)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return f, nil
}

// envRef matches the braced ${VAR} form only, so secrets containing a bare
// $ survive untouched.
var envRef = regexp.MustCompile(`\$\{([A-Za-z_][A-Za-z0-9_]*)\}`)

func expandEnv(s string) string {
	return envRef.ReplaceAllStringFunc(s, func(m string) string {
		return os.Getenv(m[2 : len(m)-1])
	})
}

// Parse decodes a configuration document after expanding ${VAR} references
// from the environment. Bare $NAME is left as written.
func Parse(raw []byte) (*File, error) {
	var f File
	expanded := expandEnv(string(raw))
	if strings.TrimSpace(expanded) == "" {
		return &f, nil
	}
	if err := yaml.Unmarshal([]byte(expanded), &f); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	if _, err := f.MaxRequestBytes(); err != nil {
		return nil, err
	}
	return &f, nil
}

// MaxRequestBytes returns the share size limit in bytes.
func (f *File) MaxRequestBytes() (int64, error) {
	if f == nil || strings.TrimSpace(f.ShareMaxRequestSize) == "" {
		return DefaultMaxRequestSize, nil
	}
	n, err := humanize.ParseBytes(f.ShareMaxRequestSize)
	if err != nil {
		return 0, fmt.Errorf("shareMaxRequestSize: %w", err)
	}
	if n == 0 {
		return 0, errors.New("shareMaxRequestSize: must be positive")
	}
	return int64(n), nil
}

// Enabled reports whether any share prefix is configured.
func (f *File) Enabled() bool {
	return f != nil && len(f.ShareURLPrefixes) > 0
}

// Share converts the file into the share package's configuration.
func (f *File) Share() share.Config {
	cfg := share.Config{Prefixes: map[string]share.BackendConfig{}}
	if f == nil {
		return cfg
	}
	cfg.WritePrefix = f.NewShareURLPrefix
	for name, p := range f.ShareURLPrefixes {
		cfg.Prefixes[name] = share.BackendConfig{
			Service:         p.Service,
			DisplayName:     p.DisplayName,
			Description:     p.Description,
			Driver:          p.Driver,
			Region:          p.Region,
			Bucket:          p.Bucket,
			Endpoint:        p.Endpoint,
			AccessKeyID:     p.AccessKeyID,
			SecretAccessKey: p.SecretAccessKey,
			KeyLength:       p.KeyLength,
			AccessToken:     p.AccessToken,
			UserAgent:       p.UserAgent,
			APIURL:          p.APIURL,
			GistFilename:    p.GistFilename,
			GistDescription: p.GistDescription,
		}
	}
	return cfg
}

// Drivers lists the object-store drivers the file uses.
func (f *File) Drivers() []string {
	if f == nil {
		return nil
	}
	seen := map[string]bool{}
	var out []string
	for _, p := range f.ShareURLPrefixes {
		if svc, err := share.ParseService(p.Service); err != nil || svc != share.ServiceObjectStore {
			continue
		}
		d := strings.ToLower(p.Driver)
		if d == "" {
			d = share.DriverS3
		}
		if !seen[d] {
			seen[d] = true
			out = append(out, d)
		}
	}
	return out
}
