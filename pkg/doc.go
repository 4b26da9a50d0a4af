// Package pkg provides the core libraries for aidocs.
//
// # Overview
//
// aidocs keeps a local, version-matched copy of the documentation of a Rust
// project's dependencies so an AI coding assistant reads docs for the versions
// actually locked in Cargo.lock rather than whatever it was trained on.
//
// The typical data flow of a sync:
//
//	ai-docs.toml + Cargo.lock
//	         ↓
//	    [config], [lockfile] (which crates, which versions)
//	         ↓
//	    [resolver] (version → git tag, or default branch fallback)
//	         ↓
//	    [fetcher] (README/CHANGELOG or explicit files from raw.githubusercontent.com)
//	         ↓
//	    [changelog] (trim to the locked version and older)
//	         ↓
//	    [store] (name@version directories, _SUMMARY.md, .aifd-meta.toml, _INDEX.md)
//
// [sync] orchestrates the steps per crate with bounded concurrency; [status]
// compares the store with the lock file afterwards.
//
// # Main Packages
//
// [config] - ai-docs.toml loading, defaults, validation and the configuration
// fingerprint that invalidates cached entries when a crate's settings change.
//
// [lockfile] - Cargo.lock parsing with a policy for crates locked at more than
// one version.
//
// [resolver] - Tag candidate generation (v{ver}, {ver}, {name}-v{ver},
// {name}-{ver}) and lookup against the GitHub API, memoized in a [cache].
//
// [fetcher] - Raw file downloads with a found/absent/failed outcome and a
// single retry.
//
// [changelog] - Markdown-aware trimming of changelogs to the locked version.
//
// [store] - On-disk layout with atomic metadata writes, truncation and prune.
//
// [status] - Synced/Missing/Outdated/Corrupted classification and reports.
//
// ## Infrastructure
//
// [integrations] - Shared HTTP client with per-host rate limiting, plus GitHub
// and crates.io clients.
//
// [cache] - Cache backends (file, Redis, null) for tag lookups and registry
// metadata.
//
// [httputil] - Retry helpers for transient failures.
//
// [observability] - HTTP request hooks used for debug counters.
//
// [errors] - Coded errors shared by every package.
//
// [buildinfo] - Version information injected at build time.
//
// # Testing
//
//	go test ./...                        # All tests
//	go test -tags integration ./pkg/...  # Include tests against api.github.com
//
// [config]: https://pkg.go.dev/github.com/matzehuels/aidocs/pkg/config
// [lockfile]: https://pkg.go.dev/github.com/matzehuels/aidocs/pkg/lockfile
// [resolver]: https://pkg.go.dev/github.com/matzehuels/aidocs/pkg/resolver
// [fetcher]: https://pkg.go.dev/github.com/matzehuels/aidocs/pkg/fetcher
// [changelog]: https://pkg.go.dev/github.com/matzehuels/aidocs/pkg/changelog
// [store]: https://pkg.go.dev/github.com/matzehuels/aidocs/pkg/store
// [sync]: https://pkg.go.dev/github.com/matzehuels/aidocs/pkg/sync
// [status]: https://pkg.go.dev/github.com/matzehuels/aidocs/pkg/status
// [integrations]: https://pkg.go.dev/github.com/matzehuels/aidocs/pkg/integrations
// [cache]: https://pkg.go.dev/github.com/matzehuels/aidocs/pkg/cache
// [httputil]: https://pkg.go.dev/github.com/matzehuels/aidocs/pkg/httputil
// [observability]: https://pkg.go.dev/github.com/matzehuels/aidocs/pkg/observability
// [errors]: https://pkg.go.dev/github.com/matzehuels/aidocs/pkg/errors
// [buildinfo]: https://pkg.go.dev/github.com/matzehuels/aidocs/pkg/buildinfo
package pkg
