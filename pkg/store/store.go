package store

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/cespare/xxhash/v2"

	"github.com/matzehuels/aidocs/pkg/errors"
)

// Reserved file names.
const (
	SummaryFile = "_SUMMARY.md"
	IndexFile   = "_INDEX.md"
	MetaFile    = ".aifd-meta.toml"
)

// TruncationMarker is appended to content cut at the size cap.
const TruncationMarker = "\n\n<!-- truncated by aidocs -->\n"

// MetaSchemaVersion is written to every meta file.
const MetaSchemaVersion = 1

// File is a document to persist.
type File struct {
	Path      string // path within the repository
	Content   string
	SourceURL string
}

// Entry is everything needed to persist one package version.
type Entry struct {
	Name       string
	Version    string
	Ref        string
	IsFallback bool
	Notes      string
	Files      []File
	ConfigHash string
	RunID      string
	FetchedAt  time.Time
}

// StoredFile describes a written document.
type StoredFile struct {
	Name       string // flattened file name inside the package directory
	SourcePath string
	SourceURL  string
	Truncated  bool
}

// Stored is the result of a persist.
type Stored struct {
	Dir   string
	Files []StoredFile
	Meta  Meta
}

// Meta is the content of .aifd-meta.toml.
type Meta struct {
	SchemaVersion int       `toml:"schema_version"`
	Name          string    `toml:"name"`
	Version       string    `toml:"version"`
	GitRef        string    `toml:"git_ref"`
	IsFallback    bool      `toml:"is_fallback"`
	FetchedAt     time.Time `toml:"fetched_at"`
	Fingerprint   string    `toml:"fingerprint"`
	ConfigHash    string    `toml:"config_hash,omitempty"`
	RunID         string    `toml:"run_id,omitempty"`
	Files         []string  `toml:"files"`
}

// IndexEntry is one line of _INDEX.md.
type IndexEntry struct {
	Name       string
	Version    string
	Ref        string
	IsFallback bool
}

// Store is a cache root directory.
type Store struct {
	Root string
}

// New returns a Store rooted at root.
func New(root string) *Store {
	return &Store{Root: root}
}

// DirName returns the directory name for a package version.
func DirName(name, version string) string {
	return name + "@" + version
}

// ParseDirName splits "name@version". Returns ok=false for other names.
func ParseDirName(dir string) (name, version string, ok bool) {
	name, version, ok = strings.Cut(dir, "@")
	if !ok || name == "" || version == "" {
		return "", "", false
	}
	return name, version, true
}

// FlattenPath turns a repository path into a file name.
func FlattenPath(p string) string {
	return strings.ReplaceAll(strings.TrimPrefix(p, "/"), "/", "__")
}

// Truncate caps content at maxBytes. Longer content is cut to exactly
// maxBytes bytes and the marker is appended. A non-positive cap disables it.
func Truncate(content string, maxBytes int) (string, bool) {
	if maxBytes <= 0 || len(content) <= maxBytes {
		return content, false
	}
	return content[:maxBytes] + TruncationMarker, true
}

// Dir returns the directory for a package version.
func (s *Store) Dir(name, version string) string {
	return filepath.Join(s.Root, DirName(name, version))
}

// Persist writes e under {name}@{version}, replacing any previous content.
// When a write fails the directory is left empty, so it reads as corrupted
// rather than synced.
func (s *Store) Persist(e Entry, maxBytes int) (*Stored, error) {
	if err := validateEntry(e.Name, e.Version); err != nil {
		return nil, err
	}

	dir := s.Dir(e.Name, e.Version)
	if err := os.RemoveAll(dir); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInternal, err, "clear %s", dir)
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInternal, err, "create %s", dir)
	}

	stored, err := write(dir, e, maxBytes)
	if err != nil {
		emptyDir(dir)
		return nil, err
	}
	return stored, nil
}

// emptyDir removes everything inside dir and keeps dir itself.
func emptyDir(dir string) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return
	}
	for _, entry := range entries {
		_ = os.RemoveAll(filepath.Join(dir, entry.Name()))
	}
}

// write stores the content files, then the summary, then the meta marker.
func write(dir string, e Entry, maxBytes int) (*Stored, error) {
	stored := &Stored{Dir: dir}
	fp := xxhash.New()
	seen := map[string]string{}

	for _, f := range e.Files {
		name := FlattenPath(f.Path)
		if prev, dup := seen[name]; dup {
			if prev == f.Path {
				continue
			}
			return nil, errors.New(errors.ErrCodeInvalidPath, "%q and %q both flatten to %q", prev, f.Path, name)
		}
		if name == SummaryFile || name == MetaFile || name == IndexFile {
			return nil, errors.New(errors.ErrCodeInvalidPath, "%q collides with a reserved file name", f.Path)
		}
		seen[name] = f.Path

		body, truncated := Truncate(f.Content, maxBytes)
		doc := provenance(f.Path, f.SourceURL) + body
		if err := os.WriteFile(filepath.Join(dir, name), []byte(doc), 0o644); err != nil {
			return nil, errors.Wrap(errors.ErrCodeInternal, err, "write %s", name)
		}
		_, _ = fp.WriteString(name)
		_, _ = fp.Write([]byte{0})
		_, _ = fp.WriteString(doc)

		stored.Files = append(stored.Files, StoredFile{
			Name:       name,
			SourcePath: f.Path,
			SourceURL:  f.SourceURL,
			Truncated:  truncated,
		})
	}

	if err := os.WriteFile(filepath.Join(dir, SummaryFile), []byte(summary(e, stored.Files)), 0o644); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInternal, err, "write %s", SummaryFile)
	}

	fetchedAt := e.FetchedAt
	if fetchedAt.IsZero() {
		fetchedAt = time.Now()
	}
	stored.Meta = Meta{
		SchemaVersion: MetaSchemaVersion,
		Name:          e.Name,
		Version:       e.Version,
		GitRef:        e.Ref,
		IsFallback:    e.IsFallback,
		FetchedAt:     fetchedAt.UTC().Truncate(time.Second),
		Fingerprint:   fmt.Sprintf("%016x", fp.Sum64()),
		ConfigHash:    e.ConfigHash,
		RunID:         e.RunID,
		Files:         make([]string, 0, len(stored.Files)),
	}
	for _, f := range stored.Files {
		stored.Meta.Files = append(stored.Meta.Files, f.Name)
	}
	if err := writeMeta(dir, stored.Meta); err != nil {
		return nil, err
	}
	return stored, nil
}

func validateEntry(name, version string) error {
	if err := errors.ValidatePackageName(name); err != nil {
		return err
	}
	if err := errors.ValidatePackageName(version); err != nil {
		return errors.Wrap(errors.ErrCodeInvalidInput, err, "invalid version for %s", name)
	}
	return nil
}

func provenance(sourcePath, sourceURL string) string {
	return fmt.Sprintf("<!-- source_path: %s -->\n<!-- source_url: %s -->\n\n", sourcePath, sourceURL)
}

func summary(e Entry, files []StoredFile) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "# %s@%s\n\n", e.Name, e.Version)
	if e.Ref != "" {
		fmt.Fprintf(&sb, "Source ref: `%s`\n\n", e.Ref)
	}
	if e.IsFallback {
		fmt.Fprintf(&sb, "> **Warning:** no tag matched version %s; these documents come from the `%s` branch and may describe a different version.\n\n", e.Version, e.Ref)
	}
	if notes := strings.TrimSpace(e.Notes); notes != "" {
		sb.WriteString("## AI Notes\n")
		sb.WriteString(notes)
		sb.WriteString("\n\n")
	}
	sb.WriteString("## Files\n")
	for _, f := range files {
		line := "- " + f.Name
		if f.Truncated {
			line += " (truncated)"
		}
		sb.WriteString(line + "\n")
	}
	return sb.String()
}

// writeMeta writes the marker through a temp file and rename.
func writeMeta(dir string, m Meta) error {
	tmp, err := os.CreateTemp(dir, ".meta-*.tmp")
	if err != nil {
		return errors.Wrap(errors.ErrCodeInternal, err, "create meta")
	}
	defer os.Remove(tmp.Name())

	if err := toml.NewEncoder(tmp).Encode(m); err != nil {
		tmp.Close()
		return errors.Wrap(errors.ErrCodeInternal, err, "encode meta")
	}
	if err := tmp.Close(); err != nil {
		return errors.Wrap(errors.ErrCodeInternal, err, "write meta")
	}
	if err := os.Rename(tmp.Name(), filepath.Join(dir, MetaFile)); err != nil {
		return errors.Wrap(errors.ErrCodeInternal, err, "write meta")
	}
	return nil
}

// ReadMeta reads the meta marker of a package version.
func (s *Store) ReadMeta(name, version string) (*Meta, error) {
	var m Meta
	if _, err := toml.DecodeFile(filepath.Join(s.Dir(name, version), MetaFile), &m); err != nil {
		return nil, err
	}
	return &m, nil
}

// WriteIndex writes _INDEX.md listing entries sorted by name and version.
func (s *Store) WriteIndex(entries []IndexEntry) error {
	sorted := append([]IndexEntry(nil), entries...)
	sort.Slice(sorted, func(i, j int) bool {
		if sorted[i].Name != sorted[j].Name {
			return sorted[i].Name < sorted[j].Name
		}
		return sorted[i].Version < sorted[j].Version
	})

	var sb strings.Builder
	sb.WriteString("# AI Vendor Docs Index\n\n")
	for _, e := range sorted {
		dir := DirName(e.Name, e.Version)
		fmt.Fprintf(&sb, "- [%s](%s/%s)", dir, dir, SummaryFile)
		if e.Ref != "" {
			fmt.Fprintf(&sb, " ref `%s`", e.Ref)
		}
		if e.IsFallback {
			sb.WriteString(" (fallback: default branch, may not match version)")
		}
		sb.WriteString("\n")
	}

	if err := os.MkdirAll(s.Root, 0o755); err != nil {
		return errors.Wrap(errors.ErrCodeInternal, err, "create %s", s.Root)
	}
	if err := os.WriteFile(filepath.Join(s.Root, IndexFile), []byte(sb.String()), 0o644); err != nil {
		return errors.Wrap(errors.ErrCodeInternal, err, "write %s", IndexFile)
	}
	return nil
}

// ReadEntry rebuilds an index entry from a cached package's meta marker.
func (s *Store) ReadEntry(name, version string) (IndexEntry, error) {
	m, err := s.ReadMeta(name, version)
	if err != nil {
		return IndexEntry{}, err
	}
	return IndexEntry{Name: name, Version: version, Ref: m.GitRef, IsFallback: m.IsFallback}, nil
}

// IsCached reports whether name@version is completely stored. With a
// non-empty configHash the stored hash must match as well.
func (s *Store) IsCached(name, version, configHash string) bool {
	m, err := s.ReadMeta(name, version)
	if err != nil {
		return false
	}
	if configHash != "" && m.ConfigHash != configHash {
		return false
	}
	dir := s.Dir(name, version)
	for _, f := range m.Files {
		if _, err := os.Stat(filepath.Join(dir, f)); err == nil {
			return true
		}
	}
	return false
}

// Prune removes package directories whose version differs from keep, or
// whose package is not in keep at all. It returns the removed directory names.
func (s *Store) Prune(keep map[string]string) ([]string, error) {
	entries, err := os.ReadDir(s.Root)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInternal, err, "read %s", s.Root)
	}

	var removed []string
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		name, version, ok := ParseDirName(entry.Name())
		if !ok {
			continue
		}
		if locked, found := keep[name]; found && locked == version {
			continue
		}
		if err := os.RemoveAll(filepath.Join(s.Root, entry.Name())); err != nil {
			return removed, errors.Wrap(errors.ErrCodeInternal, err, "remove %s", entry.Name())
		}
		removed = append(removed, entry.Name())
	}
	return removed, nil
}

// Package is a cached package version found on disk.
type Package struct {
	Name    string
	Version string
}

// Packages lists every package version directory, sorted.
func (s *Store) Packages() ([]Package, error) {
	entries, err := os.ReadDir(s.Root)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var out []Package
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		if name, version, ok := ParseDirName(entry.Name()); ok {
			out = append(out, Package{Name: name, Version: version})
		}
	}
	return out, nil
}

// Versions lists the cached versions of name in directory order.
func (s *Store) Versions(name string) ([]string, error) {
	pkgs, err := s.Packages()
	if err != nil {
		return nil, err
	}
	var out []string
	for _, p := range pkgs {
		if p.Name == name {
			out = append(out, p.Version)
		}
	}
	return out, nil
}

// ListFiles lists the markdown files of a package version, sorted.
func (s *Store) ListFiles(name, version string) ([]string, error) {
	entries, err := os.ReadDir(s.Dir(name, version))
	if err != nil {
		return nil, err
	}
	var out []string
	for _, entry := range entries {
		if !entry.IsDir() && strings.HasSuffix(entry.Name(), ".md") {
			out = append(out, entry.Name())
		}
	}
	return out, nil
}

// ReadFile returns a stored document. file must be a plain file name as
// returned by ListFiles.
func (s *Store) ReadFile(name, version, file string) (string, error) {
	if err := validateEntry(name, version); err != nil {
		return "", err
	}
	if file == "" || file != filepath.Base(file) || strings.Contains(file, "..") {
		return "", errors.New(errors.ErrCodeInvalidPath, "invalid file name %q", file)
	}
	data, err := os.ReadFile(filepath.Join(s.Dir(name, version), file))
	if err != nil {
		return "", err
	}
	return string(data), nil
}
