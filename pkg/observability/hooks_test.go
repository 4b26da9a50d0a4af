package observability

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestNoopHooksDoNotPanic(t *testing.T) {
	ctx := context.Background()

	s := NoopSyncHooks{}
	s.OnPackageStart(ctx, "serde", "1.0.217")
	s.OnPackageComplete(ctx, "serde", "1.0.217", 2, time.Second, nil)
	s.OnFallback(ctx, "serde", "1.0.217", "master")

	c := NoopCacheHooks{}
	c.OnCacheHit(ctx, "ref")
	c.OnCacheMiss(ctx, "ref")
	c.OnCacheSet(ctx, "ref", 12)

	h := NoopHTTPHooks{}
	h.OnRequest(ctx, "GET", "api.github.com", "/repos/serde-rs/serde")
	h.OnResponse(ctx, "GET", "api.github.com", "/repos/serde-rs/serde", 200, time.Second)
	h.OnError(ctx, "GET", "api.github.com", "/repos/serde-rs/serde", nil)
}

func TestGlobalHooksRegistry(t *testing.T) {
	Reset()

	if _, ok := Sync().(NoopSyncHooks); !ok {
		t.Error("Sync() should return NoopSyncHooks by default")
	}
	if _, ok := Cache().(NoopCacheHooks); !ok {
		t.Error("Cache() should return NoopCacheHooks by default")
	}
	if _, ok := HTTP().(NoopHTTPHooks); !ok {
		t.Error("HTTP() should return NoopHTTPHooks by default")
	}

	customSync := &testSyncHooks{}
	SetSyncHooks(customSync)
	if Sync() != customSync {
		t.Error("SetSyncHooks should set custom hooks")
	}

	customCache := &testCacheHooks{}
	SetCacheHooks(customCache)
	if Cache() != customCache {
		t.Error("SetCacheHooks should set custom hooks")
	}

	customHTTP := &testHTTPHooks{}
	SetHTTPHooks(customHTTP)
	if HTTP() != customHTTP {
		t.Error("SetHTTPHooks should set custom hooks")
	}

	Reset()
	if _, ok := Sync().(NoopSyncHooks); !ok {
		t.Error("Reset() should restore NoopSyncHooks")
	}
}

func TestSetNilHooksIsIgnored(t *testing.T) {
	Reset()
	defer Reset()

	custom := &testSyncHooks{}
	SetSyncHooks(custom)
	SetSyncHooks(nil)

	if Sync() != custom {
		t.Error("SetSyncHooks(nil) should be ignored")
	}
}

func TestRequestCounter(t *testing.T) {
	ctx := context.Background()
	c := &RequestCounter{}

	for range 3 {
		c.OnRequest(ctx, "GET", "raw.githubusercontent.com", "/a/b/v1/README.md")
	}
	c.OnResponse(ctx, "GET", "api.github.com", "/x", 200, time.Millisecond)
	c.OnResponse(ctx, "GET", "api.github.com", "/x", 429, time.Millisecond)
	c.OnResponse(ctx, "GET", "api.github.com", "/x", 403, time.Millisecond)
	c.OnError(ctx, "GET", "api.github.com", "/x", errors.New("reset"))

	if got := c.Requests(); got != 3 {
		t.Errorf("Requests() = %d, want 3", got)
	}
	if got := c.Throttled(); got != 2 {
		t.Errorf("Throttled() = %d, want 2", got)
	}
	if got := c.Failures(); got != 1 {
		t.Errorf("Failures() = %d, want 1", got)
	}
}

// Test implementations
type testSyncHooks struct{ NoopSyncHooks }
type testCacheHooks struct{ NoopCacheHooks }
type testHTTPHooks struct{ NoopHTTPHooks }
