// Package store persists fetched documents under version-qualified
// directories and answers questions about what is cached.
//
// # Layout
//
//	<root>/
//	  _INDEX.md                  every name@version persisted or kept in the last sync
//	  serde@1.0.217/
//	    README.md                provenance header + (possibly truncated) content
//	    CHANGELOG.md
//	    docs__guide.md           "docs/guide.md" with "/" flattened to "__"
//	    _SUMMARY.md              notes, ref, and the stored file list
//	    .aifd-meta.toml          written last; marks a complete entry
//
// A package directory is rebuilt from scratch on every persist. Content files
// come first, then the summary, then the meta marker, so an interrupted write
// leaves a directory the status check can tell apart from a complete one.
package store
