package crates

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/matzehuels/aidocs/pkg/buildinfo"
	"github.com/matzehuels/aidocs/pkg/cache"
	"github.com/matzehuels/aidocs/pkg/httputil"
	"github.com/matzehuels/aidocs/pkg/integrations"
	"github.com/matzehuels/aidocs/pkg/observability"
)

// DefaultBaseURL is the crates.io API root.
const DefaultBaseURL = "https://crates.io/api/v1"

// CrateInfo holds the crates.io metadata aidocs needs to seed a config entry.
type CrateInfo struct {
	Name        string `json:"name"`
	Version     string `json:"version"` // max_version
	Repository  string `json:"repository,omitempty"`
	HomePage    string `json:"homepage,omitempty"`
	Description string `json:"description,omitempty"`
}

// Client provides access to the crates.io registry API.
// All methods are safe for concurrent use by multiple goroutines.
//
// Note: crates.io requires a User-Agent header; this client sets one automatically.
type Client struct {
	*integrations.Client
	cache   cache.Cache
	ttl     time.Duration
	baseURL string
}

// NewClient creates a crates.io client. Responses are memoized in backend
// for cacheTTL; pass cache.NewNullCache() to disable.
func NewClient(backend cache.Cache, cacheTTL time.Duration, opts ...integrations.Option) *Client {
	if backend == nil {
		backend = cache.NewNullCache()
	}
	headers := map[string]string{"User-Agent": buildinfo.UserAgent()}
	return &Client{
		Client:  integrations.NewClient(headers, opts...),
		cache:   backend,
		ttl:     cacheTTL,
		baseURL: DefaultBaseURL,
	}
}

// WithBaseURL points the client at another registry API root, such as a
// test server. An empty value keeps the current URL.
func (c *Client) WithBaseURL(u string) *Client {
	if u != "" {
		c.baseURL = strings.TrimSuffix(u, "/")
	}
	return c
}

// FetchCrate retrieves metadata for a crate. If refresh is true the cache is
// bypassed. Returns [integrations.ErrNotFound] (wrapped) for unknown crates.
func (c *Client) FetchCrate(ctx context.Context, crate string, refresh bool) (*CrateInfo, error) {
	key := "crates:" + crate

	if !refresh {
		if data, ok, err := c.cache.Get(ctx, key); err == nil && ok {
			var info CrateInfo
			if json.Unmarshal(data, &info) == nil {
				observability.Cache().OnCacheHit(ctx, "crate")
				return &info, nil
			}
		}
		observability.Cache().OnCacheMiss(ctx, "crate")
	}

	var info CrateInfo
	err := httputil.Retry(ctx, 3, time.Second, func() error {
		return c.fetch(ctx, crate, &info)
	})
	if err != nil {
		return nil, err
	}

	if data, err := json.Marshal(info); err == nil {
		if c.cache.Set(ctx, key, data, c.ttl) == nil {
			observability.Cache().OnCacheSet(ctx, "crate", len(data))
		}
	}
	return &info, nil
}

func (c *Client) fetch(ctx context.Context, crate string, info *CrateInfo) error {
	var data crateResponse
	if err := c.Get(ctx, fmt.Sprintf("%s/crates/%s", c.baseURL, url.PathEscape(crate)), &data); err != nil {
		if errors.Is(err, integrations.ErrNotFound) {
			return fmt.Errorf("%w: crate %s", err, crate)
		}
		return err
	}

	*info = CrateInfo{
		Name:        data.Crate.Name,
		Version:     data.Crate.MaxVersion,
		Repository:  data.Crate.Repository,
		HomePage:    data.Crate.HomePage,
		Description: data.Crate.Description,
	}
	return nil
}

type crateResponse struct {
	Crate struct {
		Name        string `json:"name"`
		MaxVersion  string `json:"max_version"`
		Description string `json:"description"`
		Repository  string `json:"repository"`
		HomePage    string `json:"homepage"`
	} `json:"crate"`
}
