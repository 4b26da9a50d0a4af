// Package fetcher retrieves documentation files from a repository at a
// resolved reference.
//
// The single-file primitive [Fetcher.Fetch] separates three outcomes:
// the file was found, the file is absent (404), or the fetch failed after
// one retry. Only rate limiting and cancellation are returned as errors.
// Two modes build on it: [Fetcher.FetchDefaults] probes README and CHANGELOG
// name variants and treats every miss as optional; [Fetcher.FetchExplicit]
// treats every listed file as mandatory.
package fetcher

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"time"

	"github.com/charmbracelet/log"

	aerrors "github.com/matzehuels/aidocs/pkg/errors"
	"github.com/matzehuels/aidocs/pkg/httputil"
	"github.com/matzehuels/aidocs/pkg/integrations"
)

// Default file name variants, probed in order; the first hit per set wins.
var (
	ReadmeVariants    = []string{"README.md", "readme.md", "Readme.md"}
	ChangelogVariants = []string{"CHANGELOG.md", "Changelog.md", "changelog.md"}
)

// FileSource is the raw content capability the fetcher needs.
// *github.Client implements it.
type FileSource interface {
	RawFile(ctx context.Context, repo, ref, path string) (content, sourceURL string, err error)
}

// Status classifies a single fetch.
type Status int

const (
	// Found means the content was retrieved.
	Found Status = iota
	// Absent means the host answered not-found.
	Absent
	// Failed means a server or transport error persisted through the retry,
	// or the host answered an unexpected status.
	Failed
)

func (s Status) String() string {
	switch s {
	case Found:
		return "found"
	case Absent:
		return "absent"
	default:
		return "failed"
	}
}

// FetchedFile is a retrieved document.
type FetchedFile struct {
	Path      string // path within the repository
	Content   string
	SourceURL string
}

// Outcome is the result of one fetch.
type Outcome struct {
	Status Status
	File   FetchedFile // set when Status is Found
	Err    error       // cause when Status is Failed
}

// Include selects which default document sets are probed.
type Include struct {
	Readme    bool
	Changelog bool
}

// Fetcher fetches files through a FileSource.
type Fetcher struct {
	src        FileSource
	retryDelay time.Duration
	logger     *log.Logger
}

// Option configures a Fetcher.
type Option func(*Fetcher)

// WithRetryDelay sets the pause before the single retry of a server error.
func WithRetryDelay(d time.Duration) Option {
	return func(f *Fetcher) { f.retryDelay = d }
}

// WithLogger sets the logger for skipped files and retries.
func WithLogger(l *log.Logger) Option {
	return func(f *Fetcher) {
		if l != nil {
			f.logger = l
		}
	}
}

// New creates a Fetcher.
func New(src FileSource, opts ...Option) *Fetcher {
	f := &Fetcher{
		src:        src,
		retryDelay: httputil.DefaultRetryDelay,
		logger:     log.New(io.Discard),
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Fetch retrieves one file. A 5xx or transport failure is retried exactly
// once after the retry delay. The returned error is non-nil only for rate
// limiting (never retried) and context cancellation.
func (f *Fetcher) Fetch(ctx context.Context, repo, ref, filePath string) (Outcome, error) {
	var (
		content, sourceURL string
		attempt            int
	)
	err := httputil.RetryOnce(ctx, f.retryDelay, func() error {
		attempt++
		var err error
		content, sourceURL, err = f.src.RawFile(ctx, repo, ref, filePath)
		if attempt == 1 && httputil.IsRetryable(err) && ctx.Err() == nil {
			f.logger.Warn("server error, retrying", "repo", repo, "path", filePath, "delay", f.retryDelay, "err", err)
		}
		return err
	})

	switch {
	case err == nil:
		return Outcome{Status: Found, File: FetchedFile{Path: filePath, Content: content, SourceURL: sourceURL}}, nil
	case ctx.Err() != nil:
		return Outcome{}, ctx.Err()
	case integrations.IsRateLimited(err):
		return Outcome{}, fmt.Errorf("fetch %s from %s: %w", filePath, repo, err)
	case errors.Is(err, integrations.ErrNotFound):
		f.logger.Debug("file not found", "repo", repo, "ref", ref, "path", filePath)
		return Outcome{Status: Absent}, nil
	default:
		f.logger.Warn("fetch failed, skipping file", "repo", repo, "ref", ref, "path", filePath, "err", err)
		return Outcome{Status: Failed, Err: err}, nil
	}
}

// FetchDefaults probes the README and CHANGELOG variants under subpath and
// returns the first hit of each enabled set. Misses and failures are not errors.
func (f *Fetcher) FetchDefaults(ctx context.Context, repo, ref, subpath string, inc Include) ([]FetchedFile, error) {
	var sets [][]string
	if inc.Readme {
		sets = append(sets, ReadmeVariants)
	}
	if inc.Changelog {
		sets = append(sets, ChangelogVariants)
	}

	var files []FetchedFile
	for _, variants := range sets {
		for _, name := range variants {
			out, err := f.Fetch(ctx, repo, ref, join(subpath, name))
			if err != nil {
				return nil, err
			}
			if out.Status == Found {
				files = append(files, out.File)
				break
			}
		}
	}
	return files, nil
}

// FetchExplicit fetches every listed file. A file that is not found, or that
// still fails after the retry, aborts with an [aerrors.ExplicitFileMissingError].
func (f *Fetcher) FetchExplicit(ctx context.Context, repo, ref string, paths []string) ([]FetchedFile, error) {
	files := make([]FetchedFile, 0, len(paths))
	for _, p := range paths {
		out, err := f.Fetch(ctx, repo, ref, p)
		if err != nil {
			return nil, err
		}
		switch out.Status {
		case Found:
			files = append(files, out.File)
		case Absent:
			return nil, &aerrors.ExplicitFileMissingError{Repo: repo, Path: p, Ref: ref}
		default:
			f.logger.Error("explicit file unavailable after retry", "repo", repo, "ref", ref, "path", p, "err", out.Err)
			return nil, &aerrors.ExplicitFileMissingError{Repo: repo, Path: p, Ref: ref}
		}
	}
	return files, nil
}

func join(subpath, name string) string {
	if subpath == "" {
		return name
	}
	return path.Join(subpath, name)
}
