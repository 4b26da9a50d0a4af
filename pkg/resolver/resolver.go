// Package resolver maps a locked package version to an immutable git
// reference in the package's repository.
//
// Tag candidates are probed in a fixed order and the first that exists wins:
//
//  1. v{version}
//  2. {version}
//  3. {name}-v{version}
//  4. {name}-{version}
//
// When none exists the repository's default branch is used (or "main" if the
// repository metadata cannot be read) and the result is marked as a fallback,
// since a branch head may not match the locked version.
package resolver

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/aidocs/pkg/cache"
	"github.com/matzehuels/aidocs/pkg/integrations"
	"github.com/matzehuels/aidocs/pkg/observability"
)

// FallbackBranch is assumed when the default branch cannot be looked up.
const FallbackBranch = "main"

// DefaultMemoTTL bounds how long a resolved tag is remembered.
const DefaultMemoTTL = 30 * 24 * time.Hour

// TagLookup is the hosting-provider capability the resolver needs.
// *github.Client implements it.
type TagLookup interface {
	// TagExists returns nil if the tag exists and an error wrapping
	// integrations.ErrNotFound if it does not.
	TagExists(ctx context.Context, repo, tag string) error
	DefaultBranch(ctx context.Context, repo string) (string, error)
}

// Ref is a resolved git reference.
type Ref struct {
	GitRef     string
	IsFallback bool
}

func (r Ref) String() string {
	if r.IsFallback {
		return r.GitRef + " (fallback)"
	}
	return r.GitRef
}

// Resolver resolves versions to tags. It is safe for concurrent use.
type Resolver struct {
	api     TagLookup
	memo    cache.Cache
	keyer   cache.Keyer
	ttl     time.Duration
	refresh bool
	logger  *log.Logger
}

// Option configures a Resolver.
type Option func(*Resolver)

// WithCache memoizes tag hits in c. Fallbacks are never memoized.
func WithCache(c cache.Cache, keyer cache.Keyer) Option {
	return func(r *Resolver) {
		if c != nil {
			r.memo = c
		}
		if keyer != nil {
			r.keyer = keyer
		}
	}
}

// WithRefresh makes the resolver ignore memoized results (they are still written).
func WithRefresh(refresh bool) Option {
	return func(r *Resolver) { r.refresh = refresh }
}

// WithLogger sets the logger for warnings about skipped candidates and fallbacks.
func WithLogger(l *log.Logger) Option {
	return func(r *Resolver) {
		if l != nil {
			r.logger = l
		}
	}
}

// New creates a Resolver backed by api.
func New(api TagLookup, opts ...Option) *Resolver {
	r := &Resolver{
		api:    api,
		memo:   cache.NewNullCache(),
		keyer:  cache.NewDefaultKeyer(),
		ttl:    DefaultMemoTTL,
		logger: log.New(io.Discard),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Candidates returns the tag names probed for name at version, in order.
func Candidates(name, version string) []string {
	return []string{
		"v" + version,
		version,
		name + "-v" + version,
		name + "-" + version,
	}
}

// Resolve finds the reference to fetch pkg@version from repo.
//
// A rate-limited response aborts immediately with the rate-limit error; it
// never degrades to a fallback. Other failures on a single candidate are
// logged and the candidate is skipped.
func (r *Resolver) Resolve(ctx context.Context, repo, pkg, version string) (Ref, error) {
	key := r.keyer.RefKey(repo, pkg, version)
	if tag, ok := r.memoized(ctx, key); ok {
		r.logger.Debug("tag memoized", "package", pkg, "version", version, "tag", tag)
		return Ref{GitRef: tag}, nil
	}

	for _, tag := range Candidates(pkg, version) {
		r.logger.Debug("trying tag", "repo", repo, "tag", tag)
		err := r.api.TagExists(ctx, repo, tag)
		switch {
		case err == nil:
			r.logger.Debug("found tag", "package", pkg, "version", version, "tag", tag)
			r.remember(ctx, key, tag)
			return Ref{GitRef: tag}, nil
		case ctx.Err() != nil:
			return Ref{}, ctx.Err()
		case integrations.IsRateLimited(err):
			return Ref{}, fmt.Errorf("resolve %s@%s: %w", pkg, version, err)
		case errors.Is(err, integrations.ErrNotFound):
			continue
		default:
			r.logger.Warn("tag lookup failed, skipping candidate", "repo", repo, "tag", tag, "err", err)
		}
	}

	branch, err := r.api.DefaultBranch(ctx, repo)
	switch {
	case err == nil:
	case ctx.Err() != nil:
		return Ref{}, ctx.Err()
	case integrations.IsRateLimited(err):
		return Ref{}, fmt.Errorf("resolve %s@%s: %w", pkg, version, err)
	default:
		r.logger.Warn("repository metadata unavailable, assuming default branch", "repo", repo, "branch", FallbackBranch, "err", err)
		branch = FallbackBranch
	}

	r.logger.Warn("no version tag matched; docs may not match the locked version",
		"package", pkg, "version", version, "ref", branch)
	observability.Sync().OnFallback(ctx, pkg, version, branch)
	return Ref{GitRef: branch, IsFallback: true}, nil
}

func (r *Resolver) memoized(ctx context.Context, key string) (string, bool) {
	if r.refresh {
		return "", false
	}
	data, ok, err := r.memo.Get(ctx, key)
	if err != nil {
		r.logger.Debug("ref cache read failed", "err", err)
		return "", false
	}
	if !ok || len(data) == 0 {
		observability.Cache().OnCacheMiss(ctx, "ref")
		return "", false
	}
	observability.Cache().OnCacheHit(ctx, "ref")
	return string(data), true
}

func (r *Resolver) remember(ctx context.Context, key, tag string) {
	if err := r.memo.Set(ctx, key, []byte(tag), r.ttl); err != nil {
		r.logger.Debug("ref cache write failed", "err", err)
		return
	}
	observability.Cache().OnCacheSet(ctx, "ref", len(tag))
}
