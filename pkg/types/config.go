package types

import (
	"errors"
	"time"
)

// Config holds backend selection and parameters for Backend.Attach.
type Config struct {
	Backend         string        `json:"backend" yaml:"backend"`
	DataDir         string        `json:"data_dir" yaml:"data_dir"`
	CatalogCacheTTL time.Duration `json:"catalog_cache_ttl" yaml:"catalog_cache_ttl"`
}

// Supported backend names.
const (
	BackendSQLite = "sqlite"
)

// DefaultCatalogCacheTTL applies when CatalogCacheTTL is zero.
const DefaultCatalogCacheTTL = 10 * time.Minute

// Config validation errors.
var (
	ErrBackendEmpty    = errors.New("backend must not be empty")
	ErrBackendUnknown  = errors.New("unknown backend")
	ErrCacheTTLInvalid = errors.New("catalog cache TTL must not be negative")
)

// knownBackends lists the backends that Validate accepts.
var knownBackends = map[string]bool{
	BackendSQLite: true,
}

// Validate checks that the Config is well-formed. It returns a sentinel error
// from this package on failure.
func (c Config) Validate() error {
	if c.Backend == "" {
		return ErrBackendEmpty
	}
	if !knownBackends[c.Backend] {
		return ErrBackendUnknown
	}
	if c.CatalogCacheTTL < 0 {
		return ErrCacheTTLInvalid
	}
	return nil
}

// CacheTTL returns CatalogCacheTTL, or the default when unset.
func (c Config) CacheTTL() time.Duration {
	if c.CatalogCacheTTL == 0 {
		return DefaultCatalogCacheTTL
	}
	return c.CatalogCacheTTL
}
