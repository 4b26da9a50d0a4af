// Package github provides an HTTP client for the GitHub API and raw content host.
//
// # Overview
//
// Three lookups back the documentation sync:
//
//   - [Client.TagExists]: GET /repos/{owner}/{repo}/git/ref/tags/{tag}
//   - [Client.DefaultBranch]: GET /repos/{owner}/{repo}
//   - [Client.RawFile]: GET https://raw.githubusercontent.com/{owner}/{repo}/{ref}/{path}
//
// # Usage
//
//	client := github.NewClient(os.Getenv("GITHUB_TOKEN"))
//
//	if err := client.TagExists(ctx, "serde-rs/serde", "v1.0.217"); err == nil {
//	    body, src, err := client.RawFile(ctx, "serde-rs/serde", "v1.0.217", "README.md")
//	    ...
//	}
//
// # Authentication
//
// A GitHub personal access token is optional but recommended to avoid rate
// limits. Without a token, the client is limited to 60 requests/hour.
// With a token, the limit is 5000 requests/hour.
//
// # Repository References
//
// [ParseRepo] turns repository URLs from crate metadata
// ("https://github.com/serde-rs/serde.git", "git@github.com:tokio-rs/tokio")
// into the "owner/name" form used in configuration.
package github
