// Package config loads and validates ai-docs.toml.
//
// A minimal file:
//
//	[settings]
//	output_dir = "docs/ai/vendor-docs"
//
//	[crates.serde]
//	sources = [{ type = "github", repo = "serde-rs/serde" }]
//	ai_notes = "Prefer derive macros over manual impls."
//
//	[crates.tokio]
//	sources = [
//	    { type = "github", repo = "tokio-rs/tokio", subpath = "tokio" },
//	    { type = "docs-rs" },
//	]
//
// Every setting has a default (see [Default]); keys absent from the file keep
// it. Sources decode into tagged variants ([GitHubSource], [DocsRsSource]) so
// the sync can match on them explicitly. Unknown keys are reported through
// [Config.Warnings] rather than rejected.
//
// Credentials never live in the file: [Token] reads GITHUB_TOKEN, then GH_TOKEN.
package config
