// Package observability provides hooks for metrics, tracing, and logging.
//
// Libraries emit events through the registered hooks; the defaults are no-ops
// so nothing is recorded unless main installs an implementation:
//
//	counter := &observability.RequestCounter{}
//	observability.SetHTTPHooks(counter)
//	// ... run a sync ...
//	logger.Debug("api usage", "requests", counter.Requests())
//
// Libraries call hooks to emit events:
//
//	observability.Sync().OnPackageStart(ctx, "serde", "1.0.217")
//	// ... resolve, fetch, persist ...
//	observability.Sync().OnPackageComplete(ctx, "serde", "1.0.217", files, time.Since(start), err)
package observability

import (
	"context"
	"sync"
	"sync/atomic"
	"time"
)

// =============================================================================
// Sync Hooks
// =============================================================================

// SyncHooks receives events from the documentation sync.
type SyncHooks interface {
	// OnPackageStart is called before a package is resolved.
	OnPackageStart(ctx context.Context, pkg, version string)

	// OnPackageComplete is called after a package was persisted or failed.
	OnPackageComplete(ctx context.Context, pkg, version string, files int, duration time.Duration, err error)

	// OnFallback is called when no version tag matched and a branch was used.
	OnFallback(ctx context.Context, pkg, version, ref string)
}

// =============================================================================
// Cache Hooks
// =============================================================================

// CacheHooks receives events from cache operations.
type CacheHooks interface {
	// OnCacheHit records a cache hit.
	OnCacheHit(ctx context.Context, keyType string)

	// OnCacheMiss records a cache miss.
	OnCacheMiss(ctx context.Context, keyType string)

	// OnCacheSet records a cache write.
	OnCacheSet(ctx context.Context, keyType string, size int)
}

// =============================================================================
// HTTP Hooks
// =============================================================================

// HTTPHooks receives events from HTTP client operations.
type HTTPHooks interface {
	// OnRequest records an outgoing HTTP request.
	OnRequest(ctx context.Context, method, host, path string)

	// OnResponse records an HTTP response.
	OnResponse(ctx context.Context, method, host, path string, statusCode int, duration time.Duration)

	// OnError records an HTTP error (network failure, timeout).
	OnError(ctx context.Context, method, host, path string, err error)
}

// =============================================================================
// No-op Implementations
// =============================================================================

// NoopSyncHooks is a no-op implementation of SyncHooks.
type NoopSyncHooks struct{}

func (NoopSyncHooks) OnPackageStart(context.Context, string, string) {}
func (NoopSyncHooks) OnPackageComplete(context.Context, string, string, int, time.Duration, error) {
}
func (NoopSyncHooks) OnFallback(context.Context, string, string, string) {}

// NoopCacheHooks is a no-op implementation of CacheHooks.
type NoopCacheHooks struct{}

func (NoopCacheHooks) OnCacheHit(context.Context, string)      {}
func (NoopCacheHooks) OnCacheMiss(context.Context, string)     {}
func (NoopCacheHooks) OnCacheSet(context.Context, string, int) {}

// NoopHTTPHooks is a no-op implementation of HTTPHooks.
type NoopHTTPHooks struct{}

func (NoopHTTPHooks) OnRequest(context.Context, string, string, string)                      {}
func (NoopHTTPHooks) OnResponse(context.Context, string, string, string, int, time.Duration) {}
func (NoopHTTPHooks) OnError(context.Context, string, string, string, error)                 {}

// =============================================================================
// Request Counter
// =============================================================================

// RequestCounter is an HTTPHooks implementation that tallies API usage.
// Unauthenticated GitHub access allows 60 requests per hour, so the CLI
// reports the count after each sync.
type RequestCounter struct {
	NoopHTTPHooks
	requests  atomic.Int64
	failures  atomic.Int64
	throttled atomic.Int64
}

// OnRequest counts an outgoing request.
func (c *RequestCounter) OnRequest(context.Context, string, string, string) {
	c.requests.Add(1)
}

// OnResponse counts rate-limit responses.
func (c *RequestCounter) OnResponse(_ context.Context, _, _, _ string, status int, _ time.Duration) {
	if status == 429 || status == 403 {
		c.throttled.Add(1)
	}
}

// OnError counts transport failures.
func (c *RequestCounter) OnError(context.Context, string, string, string, error) {
	c.failures.Add(1)
}

// Requests returns the number of requests sent.
func (c *RequestCounter) Requests() int64 { return c.requests.Load() }

// Failures returns the number of transport failures.
func (c *RequestCounter) Failures() int64 { return c.failures.Load() }

// Throttled returns the number of 403/429 responses.
func (c *RequestCounter) Throttled() int64 { return c.throttled.Load() }

// =============================================================================
// Global Hook Registry
// =============================================================================

var (
	syncHooks  SyncHooks  = NoopSyncHooks{}
	cacheHooks CacheHooks = NoopCacheHooks{}
	httpHooks  HTTPHooks  = NoopHTTPHooks{}
	hooksMu    sync.RWMutex
)

// SetSyncHooks registers custom sync hooks.
// This should be called once at application startup before any sync runs.
func SetSyncHooks(h SyncHooks) {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	if h != nil {
		syncHooks = h
	}
}

// SetCacheHooks registers custom cache hooks.
// This should be called once at application startup before any cache operations.
func SetCacheHooks(h CacheHooks) {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	if h != nil {
		cacheHooks = h
	}
}

// SetHTTPHooks registers custom HTTP hooks.
// This should be called once at application startup before any HTTP operations.
func SetHTTPHooks(h HTTPHooks) {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	if h != nil {
		httpHooks = h
	}
}

// Sync returns the registered sync hooks.
func Sync() SyncHooks {
	hooksMu.RLock()
	defer hooksMu.RUnlock()
	return syncHooks
}

// Cache returns the registered cache hooks.
func Cache() CacheHooks {
	hooksMu.RLock()
	defer hooksMu.RUnlock()
	return cacheHooks
}

// HTTP returns the registered HTTP hooks.
func HTTP() HTTPHooks {
	hooksMu.RLock()
	defer hooksMu.RUnlock()
	return httpHooks
}

// Reset restores all hooks to their no-op defaults.
// This is primarily useful for testing.
func Reset() {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	syncHooks = NoopSyncHooks{}
	cacheHooks = NoopCacheHooks{}
	httpHooks = NoopHTTPHooks{}
}
