// Package crates provides an HTTP client for the crates.io API.
//
// `aidocs init` uses it to look up where a locked crate's sources live, so
// the generated config can point each crate at its GitHub repository:
//
//	client := crates.NewClient(cache.NewNullCache(), 24*time.Hour)
//	info, err := client.FetchCrate(ctx, "serde", false)
//	if err != nil {
//	    return err
//	}
//	repo, ok := github.ParseRepo(info.Repository) // "serde-rs/serde"
//
// Responses are memoized in a [cache.Cache]; pass refresh=true to bypass it.
// The client includes a User-Agent header as requested by crates.io policy.
//
// [cache.Cache]: github.com/matzehuels/aidocs/pkg/cache.Cache
package crates
