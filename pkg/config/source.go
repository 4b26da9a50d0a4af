package config

import (
	"fmt"
	"strings"
)

// Source kinds as written in the type field.
const (
	KindGitHub = "github"
	KindDocsRs = "docs-rs"
)

// Source is one documentation source for a package. The concrete type is
// either [GitHubSource] or [DocsRsSource].
type Source interface {
	Kind() string
}

// GitHubSource fetches documents from a GitHub repository.
type GitHubSource struct {
	Repo    string   // owner/name
	Files   []string // explicit files; empty selects README/CHANGELOG
	Subpath string   // directory prefix for default files in monorepos
}

// Kind implements Source.
func (GitHubSource) Kind() string { return KindGitHub }

// Explicit reports whether the source lists files explicitly.
func (s GitHubSource) Explicit() bool { return len(s.Files) > 0 }

// DocsRsSource is recognized but not fetched; the sync skips it with a notice.
type DocsRsSource struct{}

// Kind implements Source.
func (DocsRsSource) Kind() string { return KindDocsRs }

type fileSource struct {
	Type    string   `toml:"type"`
	Repo    string   `toml:"repo,omitempty"`
	Files   []string `toml:"files,omitempty"`
	Subpath string   `toml:"subpath,omitempty"`
}

func (fs fileSource) toSource() (Source, error) {
	switch strings.ToLower(strings.TrimSpace(fs.Type)) {
	case KindGitHub:
		return GitHubSource{
			Repo:    strings.TrimSpace(fs.Repo),
			Files:   fs.Files,
			Subpath: strings.Trim(fs.Subpath, "/"),
		}, nil
	case KindDocsRs, "docsrs", "docs.rs":
		return DocsRsSource{}, nil
	case "":
		return nil, fmt.Errorf("source type is required (github or docs-rs)")
	default:
		return nil, fmt.Errorf("unknown source type %q (want github or docs-rs)", fs.Type)
	}
}

func toFileSource(src Source) fileSource {
	switch s := src.(type) {
	case GitHubSource:
		return fileSource{Type: KindGitHub, Repo: s.Repo, Files: s.Files, Subpath: s.Subpath}
	default:
		return fileSource{Type: src.Kind()}
	}
}
