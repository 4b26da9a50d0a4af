package config

import (
	"strconv"
	"strings"

	"github.com/cespare/xxhash/v2"
)

// Hash fingerprints everything in a package entry that changes what gets stored.
// The store records it so a cached entry is re-synced after a config edit.
func (p PackageSpec) Hash() string {
	d := xxhash.New()
	write := func(parts ...string) {
		for _, s := range parts {
			_, _ = d.WriteString(s)
			_, _ = d.Write([]byte{0})
		}
	}
	write("name", p.Name, "notes", p.AINotes)
	for _, src := range p.Sources {
		write("source", src.Kind())
		if gh, ok := src.(GitHubSource); ok {
			write(gh.Repo, gh.Subpath, strings.Join(gh.Files, "\x1f"))
		}
	}
	return strconv.FormatUint(d.Sum64(), 16)
}

// Hash fingerprints the settings that shape stored content.
func (s Settings) Hash() string {
	d := xxhash.New()
	_, _ = d.WriteString(strconv.Itoa(s.MaxFileSizeKB))
	for _, b := range []bool{s.IncludeReadme, s.IncludeChangelog, s.TrimChangelog} {
		_, _ = d.WriteString(strconv.FormatBool(b))
	}
	return strconv.FormatUint(d.Sum64(), 16)
}

// PackageHash combines a package entry hash with the content settings.
// Returns "" for an unknown package.
func (c *Config) PackageHash(name string) string {
	spec, ok := c.Crates[name]
	if !ok {
		return ""
	}
	return strconv.FormatUint(xxhash.Sum64String(spec.Hash()+":"+c.Settings.Hash()), 16)
}
