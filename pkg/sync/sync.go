// Package sync runs the version-to-documentation pipeline for every
// configured package: lock lookup, ref resolution, fetch, changelog trim,
// and persist.
//
// Packages are processed in parallel up to settings.concurrency. A failure
// aborts only its own package; the run continues and the failure lands in
// [Report.Failures]. Only lock and config problems fail the whole run.
package sync

import (
	"context"
	"io"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/matzehuels/aidocs/pkg/changelog"
	"github.com/matzehuels/aidocs/pkg/config"
	"github.com/matzehuels/aidocs/pkg/errors"
	"github.com/matzehuels/aidocs/pkg/fetcher"
	"github.com/matzehuels/aidocs/pkg/lockfile"
	"github.com/matzehuels/aidocs/pkg/observability"
	"github.com/matzehuels/aidocs/pkg/resolver"
	"github.com/matzehuels/aidocs/pkg/store"
)

// RefResolver maps a package version to a git reference.
type RefResolver interface {
	Resolve(ctx context.Context, repo, pkg, version string) (resolver.Ref, error)
}

// DocFetcher retrieves documents at a reference.
type DocFetcher interface {
	FetchDefaults(ctx context.Context, repo, ref, subpath string, inc fetcher.Include) ([]fetcher.FetchedFile, error)
	FetchExplicit(ctx context.Context, repo, ref string, paths []string) ([]fetcher.FetchedFile, error)
}

// Runner wires the pipeline stages together.
type Runner struct {
	Config   *config.Config
	Resolver RefResolver
	Fetcher  DocFetcher
	Store    *store.Store
	Logger   *log.Logger

	// Now overrides the clock for fetched_at. Defaults to time.Now.
	Now func() time.Time
}

// Options control a single run.
type Options struct {
	// Force re-syncs packages that are already cached.
	Force bool
	// Prune removes stale version directories before syncing, in addition
	// to settings.prune.
	Prune bool
}

// Failure is a package that could not be synced.
type Failure struct {
	Package string
	Version string
	Err     error
}

// Report summarizes a run.
type Report struct {
	RunID       string
	Synced      int
	Cached      int
	Skipped     int
	Errors      int
	RateLimited int
	Pruned      []string
	Failures    []Failure
	Entries     []store.IndexEntry
}

// Fatal reports whether the run should exit non-zero. Explicitly listed
// files that do not exist are fatal; rate limits never are.
func (r *Report) Fatal() bool {
	for _, f := range r.Failures {
		if errors.Is(f.Err, errors.ErrCodeExplicitFileMissing) {
			return true
		}
	}
	return false
}

type outcome int

const (
	outcomeSynced outcome = iota
	outcomeCached
	outcomeSkipped
	outcomeFailed
)

type result struct {
	name    string
	version string
	outcome outcome
	entry   *store.IndexEntry
	err     error
}

// Run syncs every configured package.
func (r *Runner) Run(ctx context.Context, opts Options) (*Report, error) {
	logger := r.Logger
	if logger == nil {
		logger = log.New(io.Discard)
	}
	settings := r.Config.Settings

	policy, err := lockfile.ParsePolicy(settings.DuplicateVersions)
	if err != nil {
		return nil, err
	}
	versions, err := lockfile.Load(settings.LockFile, policy)
	if err != nil {
		return nil, err
	}

	report := &Report{RunID: uuid.NewString()}

	if opts.Prune || settings.Prune {
		removed, err := r.Store.Prune(versions)
		if err != nil {
			return nil, err
		}
		for _, dir := range removed {
			logger.Info("pruned", "dir", dir)
		}
		report.Pruned = removed
	}

	names := r.Config.Names()
	results := make([]result, len(names))

	concurrency := settings.Concurrency
	if concurrency <= 0 {
		concurrency = 1
	}
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(concurrency)
	for i, name := range names {
		version, _ := versions.Get(name)
		g.Go(func() error {
			results[i] = r.syncPackage(gctx, logger, r.Config.Crates[name], version, report.RunID, opts.Force)
			return nil
		})
	}
	_ = g.Wait()
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	for _, res := range results {
		switch res.outcome {
		case outcomeSynced:
			report.Synced++
		case outcomeCached:
			report.Cached++
		case outcomeSkipped:
			report.Skipped++
		case outcomeFailed:
			report.Errors++
			if errors.Is(res.err, errors.ErrCodeRateLimited) {
				report.RateLimited++
			}
			report.Failures = append(report.Failures, Failure{Package: res.name, Version: res.version, Err: res.err})
		}
		if res.entry != nil {
			report.Entries = append(report.Entries, *res.entry)
		}
	}

	if err := r.Store.WriteIndex(report.Entries); err != nil {
		return nil, err
	}

	logger.Info("sync complete",
		"synced", report.Synced,
		"cached", report.Cached,
		"skipped", report.Skipped,
		"errors", report.Errors)
	if report.RateLimited > 0 {
		logger.Warn("rate limited", "packages", report.RateLimited, "hint", errors.RateLimitHint)
	}
	return report, nil
}

func (r *Runner) syncPackage(ctx context.Context, logger *log.Logger, spec config.PackageSpec, version, runID string, force bool) result {
	res := result{name: spec.Name, version: version}
	logger = logger.With("package", spec.Name)

	if version == "" {
		logger.Warn("not found in lock file, skipping")
		res.outcome = outcomeSkipped
		return res
	}
	logger = logger.With("version", version)

	hash := r.Config.PackageHash(spec.Name)
	if !force && r.Store.IsCached(spec.Name, version, hash) {
		entry, err := r.Store.ReadEntry(spec.Name, version)
		if err == nil {
			logger.Info("cached, skipping")
			res.outcome = outcomeCached
			res.entry = &entry
			return res
		}
		logger.Debug("cache entry unreadable, re-syncing", "err", err)
	}

	start := time.Now()
	observability.Sync().OnPackageStart(ctx, spec.Name, version)
	logger.Info("syncing")

	entry, files, err := r.fromSources(ctx, logger, spec, version, runID, hash)
	observability.Sync().OnPackageComplete(ctx, spec.Name, version, files, time.Since(start), err)

	switch {
	case err != nil:
		logger.Error("sync failed", "err", err)
		res.outcome = outcomeFailed
		res.err = err
	case entry == nil:
		logger.Warn("no documents found in any source, skipping")
		res.outcome = outcomeSkipped
	default:
		logger.Info("synced", "ref", entry.Ref, "files", files)
		res.outcome = outcomeSynced
		res.entry = entry
	}
	return res
}

// fromSources tries each source in order. The first one yielding at least
// one document is persisted.
func (r *Runner) fromSources(ctx context.Context, logger *log.Logger, spec config.PackageSpec, version, runID, hash string) (*store.IndexEntry, int, error) {
	settings := r.Config.Settings

	for _, src := range spec.Sources {
		var gh config.GitHubSource
		switch s := src.(type) {
		case config.GitHubSource:
			gh = s
		case config.DocsRsSource:
			logger.Info("docs.rs sources are not fetched, skipping source")
			continue
		default:
			logger.Warn("unsupported source, skipping", "kind", src.Kind())
			continue
		}

		ref, err := r.Resolver.Resolve(ctx, gh.Repo, spec.Name, version)
		if err != nil {
			return nil, 0, err
		}

		var files []fetcher.FetchedFile
		if gh.Explicit() {
			files, err = r.Fetcher.FetchExplicit(ctx, gh.Repo, ref.GitRef, gh.Files)
		} else {
			files, err = r.Fetcher.FetchDefaults(ctx, gh.Repo, ref.GitRef, gh.Subpath, fetcher.Include{
				Readme:    settings.IncludeReadme,
				Changelog: settings.IncludeChangelog,
			})
		}
		if err != nil {
			return nil, 0, err
		}
		if len(files) == 0 {
			logger.Warn("no documents fetched", "repo", gh.Repo, "ref", ref.GitRef)
			continue
		}

		entry := store.Entry{
			Name:       spec.Name,
			Version:    version,
			Ref:        ref.GitRef,
			IsFallback: ref.IsFallback,
			Notes:      spec.AINotes,
			ConfigHash: hash,
			RunID:      runID,
			FetchedAt:  r.now(),
		}
		for _, f := range files {
			content := f.Content
			if settings.TrimChangelog && changelog.IsChangelog(f.Path) {
				content = changelog.Trim(content, version)
				if content == f.Content {
					logger.Debug("no changelog heading matches version", "file", f.Path, "headings", len(changelog.Headings(content)))
				}
			}
			entry.Files = append(entry.Files, store.File{Path: f.Path, Content: content, SourceURL: f.SourceURL})
		}

		stored, err := r.Store.Persist(entry, settings.MaxFileBytes())
		if err != nil {
			return nil, 0, err
		}
		for _, f := range stored.Files {
			if f.Truncated {
				logger.Warn("file truncated", "file", f.Name, "max_kb", settings.MaxFileSizeKB)
			}
		}
		return &store.IndexEntry{
			Name:       spec.Name,
			Version:    version,
			Ref:        ref.GitRef,
			IsFallback: ref.IsFallback,
		}, len(stored.Files), nil
	}
	return nil, 0, nil
}

func (r *Runner) now() time.Time {
	if r.Now != nil {
		return r.Now()
	}
	return time.Now()
}
