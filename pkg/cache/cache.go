// Package cache provides key/value caches used to memoize hosting-provider
// lookups between runs.
//
// Only immutable facts are cached: a tag that exists today keeps pointing at
// the same commit tomorrow, so a resolved tag can be reused without spending
// rate limit. Fallback branch resolutions are never written to a cache.
//
// Three backends implement [Cache]:
//   - [FileCache]: JSON entries under ~/.cache/aidocs (the CLI default)
//   - [RedisCache]: a shared Redis instance, useful for CI fleets
//   - [NullCache]: caching disabled
package cache

import (
	"context"
	"time"
)

// Cache stores opaque byte values under string keys with an optional TTL.
type Cache interface {
	// Get returns the value for key. A miss is reported as (nil, false, nil).
	Get(ctx context.Context, key string) ([]byte, bool, error)

	// Set stores data under key. A zero ttl means the entry never expires.
	Set(ctx context.Context, key string, data []byte, ttl time.Duration) error

	// Delete removes key. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error

	// Close releases backend resources.
	Close() error
}

// Keyer builds cache keys for memoized lookups.
type Keyer interface {
	// RefKey is the key for a resolved tag of repo at a package version.
	RefKey(repo, pkg, version string) string
}

// DefaultKeyer produces unscoped keys.
type DefaultKeyer struct{}

// NewDefaultKeyer returns the default key builder.
func NewDefaultKeyer() Keyer { return DefaultKeyer{} }

// RefKey hashes the lookup inputs so arbitrary repo names yield safe keys.
func (DefaultKeyer) RefKey(repo, pkg, version string) string {
	return hashKey("ref", repo, pkg, version)
}

// ScopedKeyer wraps a Keyer with a prefix. The CLI scopes keys by API host so
// that a GitHub Enterprise endpoint never reads entries written for github.com.
type ScopedKeyer struct {
	inner  Keyer
	prefix string
}

// NewScopedKeyer creates a keyer with a prefix.
// If inner is nil the DefaultKeyer is used.
func NewScopedKeyer(inner Keyer, prefix string) Keyer {
	if inner == nil {
		inner = NewDefaultKeyer()
	}
	return &ScopedKeyer{inner: inner, prefix: prefix}
}

// RefKey generates a prefixed ref key.
func (k *ScopedKeyer) RefKey(repo, pkg, version string) string {
	return k.prefix + k.inner.RefKey(repo, pkg, version)
}
