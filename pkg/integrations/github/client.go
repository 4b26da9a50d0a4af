package github

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/matzehuels/aidocs/pkg/buildinfo"
	"github.com/matzehuels/aidocs/pkg/integrations"
)

// Default endpoints for github.com.
const (
	DefaultAPIURL = "https://api.github.com"
	DefaultRawURL = "https://raw.githubusercontent.com"
)

// Client talks to the GitHub REST API for tag and repository lookups and to
// the raw content host for file bodies.
type Client struct {
	*integrations.Client
	apiURL string
	rawURL string
}

// NewClient creates a GitHub client. Pass an empty token for unauthenticated
// requests (60 requests/hour instead of 5000).
func NewClient(token string, opts ...integrations.Option) *Client {
	headers := map[string]string{
		"Accept":     "application/vnd.github.v3+json",
		"User-Agent": buildinfo.UserAgent(),
	}
	if token != "" {
		headers["Authorization"] = "Bearer " + token
	}
	return &Client{
		Client: integrations.NewClient(headers, opts...),
		apiURL: DefaultAPIURL,
		rawURL: DefaultRawURL,
	}
}

// WithBaseURLs points the client at other API and raw content hosts, such as
// a GitHub Enterprise instance or a test server. Empty values keep the current URL.
func (c *Client) WithBaseURLs(apiURL, rawURL string) *Client {
	if apiURL != "" {
		c.apiURL = strings.TrimSuffix(apiURL, "/")
	}
	if rawURL != "" {
		c.rawURL = strings.TrimSuffix(rawURL, "/")
	}
	return c
}

// APIURL returns the API base URL in use.
func (c *Client) APIURL() string { return c.apiURL }

// TagExists checks whether repo has a tag named tag. It returns nil when the
// tag exists, [integrations.ErrNotFound] when it does not, and the classified
// request error otherwise (rate limiting, unexpected status, transport).
func (c *Client) TagExists(ctx context.Context, repo, tag string) error {
	u := fmt.Sprintf("%s/repos/%s/git/ref/tags/%s", c.apiURL, repo, url.PathEscape(tag))
	return c.Get(ctx, u, nil)
}

// DefaultBranch returns the repository's configured default branch.
func (c *Client) DefaultBranch(ctx context.Context, repo string) (string, error) {
	var data repoResponse
	if err := c.Get(ctx, fmt.Sprintf("%s/repos/%s", c.apiURL, repo), &data); err != nil {
		if errors.Is(err, integrations.ErrNotFound) {
			return "", fmt.Errorf("%w: github repo %s", err, repo)
		}
		return "", err
	}
	if data.DefaultBranch == "" {
		return "", fmt.Errorf("github repo %s: no default_branch in response", repo)
	}
	return data.DefaultBranch, nil
}

// RawFile fetches a file's content at ref. The returned URL is the source
// location and is set even when the request fails.
func (c *Client) RawFile(ctx context.Context, repo, ref, path string) (content, sourceURL string, err error) {
	sourceURL = c.RawURL(repo, ref, path)
	content, err = c.GetText(ctx, sourceURL)
	return content, sourceURL, err
}

// RawURL builds the raw content URL for path at ref.
func (c *Client) RawURL(repo, ref, path string) string {
	segs := strings.Split(strings.TrimPrefix(path, "/"), "/")
	for i, s := range segs {
		segs[i] = url.PathEscape(s)
	}
	return fmt.Sprintf("%s/%s/%s/%s", c.rawURL, repo, ref, strings.Join(segs, "/"))
}

type repoResponse struct {
	FullName      string `json:"full_name"`
	DefaultBranch string `json:"default_branch"`
	Archived      bool   `json:"archived"`
}
