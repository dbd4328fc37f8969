package share

import (
	"fmt"
	"strings"
)

// Service is the kind of storage a prefix is served by.
type Service int

const (
	ServicePaste Service = iota + 1
	ServiceObjectStore
)

func (s Service) String() string {
	switch s {
	case ServicePaste:
		return "gist"
	case ServiceObjectStore:
		return "s3"
	default:
		return fmt.Sprintf("service(%d)", int(s))
	}
}

// ParseService maps a configured service tag onto a Service. Tags are
// case-insensitive.
func ParseService(tag string) (Service, error) {
	switch strings.ToLower(strings.TrimSpace(tag)) {
	case "gist":
		return ServicePaste, nil
	case "s3":
		return ServiceObjectStore, nil
	default:
		return 0, fmt.Errorf("unknown service %q", tag)
	}
}

// Object-store drivers.
const (
	DriverS3     = "s3"
	DriverBolt   = "bolt"
	DriverSQLite = "sqlite"
	DriverIPFS   = "ipfs"
)

// BackendConfig describes the backend behind one prefix.
type BackendConfig struct {
	Service     string
	DisplayName string
	Description string

	// Object store.
	Driver          string
	Region          string
	Bucket          string
	Endpoint        string
	AccessKeyID     string
	SecretAccessKey string
	KeyLength       int

	// Paste service.
	AccessToken     string
	UserAgent       string
	APIURL          string
	GistFilename    string
	GistDescription string
}

// Config is the loaded share configuration.
type Config struct {
	// WritePrefix selects the backend that mints new shares. Empty disables
	// minting.
	WritePrefix string
	Prefixes    map[string]BackendConfig
}
