package crates

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/matzehuels/aidocs/pkg/cache"
	"github.com/matzehuels/aidocs/pkg/integrations"
)

func TestNewClient(t *testing.T) {
	c := NewClient(nil, time.Hour)
	if c.Client == nil {
		t.Error("expected client to be initialized")
	}
	if c.cache == nil {
		t.Error("nil backend should fall back to NullCache")
	}
}

func serdeServer(t *testing.T, calls *atomic.Int32) *httptest.Server {
	t.Helper()
	resp := crateResponse{}
	resp.Crate.Name = "serde"
	resp.Crate.MaxVersion = "1.0.217"
	resp.Crate.Repository = "https://github.com/serde-rs/serde"

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		if r.Header.Get("User-Agent") == "" {
			t.Error("missing User-Agent")
		}
		if r.URL.Path == "/crates/serde" {
			json.NewEncoder(w).Encode(resp)
			return
		}
		w.WriteHeader(http.StatusNotFound)
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestClient_FetchCrate(t *testing.T) {
	var calls atomic.Int32
	srv := serdeServer(t, &calls)
	c := testClient(t, srv.URL, cache.NewNullCache())

	info, err := c.FetchCrate(context.Background(), "serde", true)
	if err != nil {
		t.Fatalf("FetchCrate failed: %v", err)
	}
	if info.Name != "serde" {
		t.Errorf("expected name serde, got %s", info.Name)
	}
	if info.Version != "1.0.217" {
		t.Errorf("expected version 1.0.217, got %s", info.Version)
	}
	if info.Repository != "https://github.com/serde-rs/serde" {
		t.Errorf("unexpected repository %s", info.Repository)
	}
}

func TestClient_FetchCrate_Cached(t *testing.T) {
	var calls atomic.Int32
	srv := serdeServer(t, &calls)
	backend, err := cache.NewFileCache(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	c := testClient(t, srv.URL, backend)
	ctx := context.Background()

	for range 2 {
		if _, err := c.FetchCrate(ctx, "serde", false); err != nil {
			t.Fatalf("FetchCrate failed: %v", err)
		}
	}
	if calls.Load() != 1 {
		t.Errorf("server calls = %d, want 1 (second lookup cached)", calls.Load())
	}

	if _, err := c.FetchCrate(ctx, "serde", true); err != nil {
		t.Fatal(err)
	}
	if calls.Load() != 2 {
		t.Errorf("server calls = %d, want 2 after refresh", calls.Load())
	}
}

func TestClient_FetchCrate_NotFound(t *testing.T) {
	var calls atomic.Int32
	srv := serdeServer(t, &calls)
	c := testClient(t, srv.URL, cache.NewNullCache())

	_, err := c.FetchCrate(context.Background(), "nonexistent", true)
	if !errors.Is(err, integrations.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
	if calls.Load() != 1 {
		t.Errorf("not-found should not be retried, calls = %d", calls.Load())
	}
}

func testClient(t *testing.T, serverURL string, backend cache.Cache) *Client {
	t.Helper()
	c := NewClient(backend, time.Hour)
	c.baseURL = serverURL
	return c
}
