package store

import (
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"
	"time"

	"github.com/matzehuels/aidocs/pkg/errors"
)

func sampleEntry() Entry {
	return Entry{
		Name:    "serde",
		Version: "1.0.217",
		Ref:     "v1.0.217",
		Notes:   "Prefer derive macros.",
		Files: []File{
			{Path: "README.md", Content: "# serde\n", SourceURL: "https://raw.example/serde-rs/serde/v1.0.217/README.md"},
			{Path: "docs/guide.md", Content: "guide\n", SourceURL: "https://raw.example/serde-rs/serde/v1.0.217/docs/guide.md"},
		},
		ConfigHash: "abc123",
		RunID:      "run-1",
		FetchedAt:  time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC),
	}
}

func TestTruncate(t *testing.T) {
	tests := []struct {
		name      string
		content   string
		max       int
		want      string
		truncated bool
	}{
		{"under cap", "hello", 10, "hello", false},
		{"exactly cap", "hello", 5, "hello", false},
		{"over cap", "hello world", 5, "hello" + TruncationMarker, true},
		{"disabled", "hello world", 0, "hello world", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, truncated := Truncate(tt.content, tt.max)
			if got != tt.want || truncated != tt.truncated {
				t.Errorf("Truncate() = %q, %v; want %q, %v", got, truncated, tt.want, tt.truncated)
			}
		})
	}
}

func TestTruncateLargeFile(t *testing.T) {
	content := strings.Repeat("x", 300*1024)
	got, truncated := Truncate(content, 200*1024)
	if !truncated {
		t.Fatal("expected truncation")
	}
	if len(got) != 200*1024+len(TruncationMarker) {
		t.Errorf("len = %d, want %d", len(got), 200*1024+len(TruncationMarker))
	}
	if !strings.HasSuffix(got, TruncationMarker) {
		t.Error("missing marker")
	}
}

func TestFlattenPath(t *testing.T) {
	tests := map[string]string{
		"README.md":            "README.md",
		"docs/guide.md":        "docs__guide.md",
		"serde/src/lib/doc.md": "serde__src__lib__doc.md",
	}
	for in, want := range tests {
		if got := FlattenPath(in); got != want {
			t.Errorf("FlattenPath(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestParseDirName(t *testing.T) {
	tests := []struct {
		dir     string
		name    string
		version string
		ok      bool
	}{
		{"serde@1.0.217", "serde", "1.0.217", true},
		{"tokio@1.43.0+build.5", "tokio", "1.43.0+build.5", true},
		{"_INDEX.md", "", "", false},
		{"@1.0", "", "", false},
		{"serde@", "", "", false},
	}
	for _, tt := range tests {
		name, version, ok := ParseDirName(tt.dir)
		if name != tt.name || version != tt.version || ok != tt.ok {
			t.Errorf("ParseDirName(%q) = %q, %q, %v", tt.dir, name, version, ok)
		}
	}
}

func TestPersist(t *testing.T) {
	s := New(t.TempDir())
	stored, err := s.Persist(sampleEntry(), 1024)
	if err != nil {
		t.Fatalf("Persist() error: %v", err)
	}

	files, err := s.ListFiles("serde", "1.0.217")
	if err != nil {
		t.Fatal(err)
	}
	want := []string{"README.md", SummaryFile, "docs__guide.md"}
	if !reflect.DeepEqual(files, want) {
		t.Errorf("ListFiles() = %v, want %v", files, want)
	}

	readme, err := s.ReadFile("serde", "1.0.217", "README.md")
	if err != nil {
		t.Fatal(err)
	}
	wantReadme := "<!-- source_path: README.md -->\n<!-- source_url: https://raw.example/serde-rs/serde/v1.0.217/README.md -->\n\n# serde\n"
	if readme != wantReadme {
		t.Errorf("README = %q, want %q", readme, wantReadme)
	}

	summary, err := s.ReadFile("serde", "1.0.217", SummaryFile)
	if err != nil {
		t.Fatal(err)
	}
	for _, want := range []string{"# serde@1.0.217", "## AI Notes\nPrefer derive macros.", "## Files\n- README.md\n- docs__guide.md\n", "`v1.0.217`"} {
		if !strings.Contains(summary, want) {
			t.Errorf("summary missing %q:\n%s", want, summary)
		}
	}
	if strings.Contains(summary, "Warning") {
		t.Error("summary has fallback warning for a tag ref")
	}

	meta, err := s.ReadMeta("serde", "1.0.217")
	if err != nil {
		t.Fatalf("ReadMeta() error: %v", err)
	}
	if meta.SchemaVersion != MetaSchemaVersion || meta.GitRef != "v1.0.217" || meta.ConfigHash != "abc123" || meta.RunID != "run-1" {
		t.Errorf("meta = %+v", meta)
	}
	if meta.Fingerprint != stored.Meta.Fingerprint || len(meta.Fingerprint) != 16 {
		t.Errorf("fingerprint = %q, stored %q", meta.Fingerprint, stored.Meta.Fingerprint)
	}
	if !meta.FetchedAt.Equal(sampleEntry().FetchedAt) {
		t.Errorf("FetchedAt = %v", meta.FetchedAt)
	}
	if !reflect.DeepEqual(meta.Files, []string{"README.md", "docs__guide.md"}) {
		t.Errorf("meta.Files = %v", meta.Files)
	}
}

func TestPersistTruncates(t *testing.T) {
	s := New(t.TempDir())
	e := sampleEntry()
	e.Files = []File{{Path: "README.md", Content: strings.Repeat("a", 100), SourceURL: "u"}}

	stored, err := s.Persist(e, 10)
	if err != nil {
		t.Fatal(err)
	}
	if !stored.Files[0].Truncated {
		t.Error("Truncated = false")
	}
	got, _ := s.ReadFile("serde", "1.0.217", "README.md")
	if !strings.HasSuffix(got, strings.Repeat("a", 10)+TruncationMarker) {
		t.Errorf("content = %q", got)
	}
}

func TestPersistReplacesDirectory(t *testing.T) {
	s := New(t.TempDir())
	if _, err := s.Persist(sampleEntry(), 1024); err != nil {
		t.Fatal(err)
	}

	e := sampleEntry()
	e.Files = e.Files[:1]
	if _, err := s.Persist(e, 1024); err != nil {
		t.Fatal(err)
	}
	if _, err := os.Stat(filepath.Join(s.Dir("serde", "1.0.217"), "docs__guide.md")); !os.IsNotExist(err) {
		t.Error("stale file survived a re-persist")
	}
}

func TestPersistFallbackWarning(t *testing.T) {
	s := New(t.TempDir())
	e := sampleEntry()
	e.Ref = "main"
	e.IsFallback = true
	if _, err := s.Persist(e, 1024); err != nil {
		t.Fatal(err)
	}
	summary, _ := s.ReadFile("serde", "1.0.217", SummaryFile)
	if !strings.Contains(summary, "**Warning:**") || !strings.Contains(summary, "`main`") {
		t.Errorf("summary missing fallback warning:\n%s", summary)
	}
	meta, _ := s.ReadMeta("serde", "1.0.217")
	if !meta.IsFallback {
		t.Error("meta.IsFallback = false")
	}
}

func TestPersistRejects(t *testing.T) {
	tests := []struct {
		name  string
		entry Entry
		code  errors.Code
	}{
		{"traversal name", Entry{Name: "../etc", Version: "1.0.0"}, errors.ErrCodeInvalidPackage},
		{"bad version", Entry{Name: "serde", Version: "1/0"}, errors.ErrCodeInvalidInput},
		{"colliding paths", Entry{Name: "serde", Version: "1.0.0", Files: []File{
			{Path: "a/b__c.md"}, {Path: "a__b/c.md"},
		}}, errors.ErrCodeInvalidPath},
		{"reserved name", Entry{Name: "serde", Version: "1.0.0", Files: []File{{Path: SummaryFile}}}, errors.ErrCodeInvalidPath},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := New(t.TempDir()).Persist(tt.entry, 1024)
			if !errors.Is(err, tt.code) {
				t.Errorf("Persist() error = %v, want code %s", err, tt.code)
			}
		})
	}
}

func TestPersistFailureLeavesEmptyDir(t *testing.T) {
	s := New(t.TempDir())
	_, err := s.Persist(Entry{Name: "serde", Version: "1.0.0", Files: []File{
		{Path: "README.md", Content: "# serde\n"},
		{Path: "a/b.md"},
		{Path: "a__b.md"},
	}}, 1024)
	if !errors.Is(err, errors.ErrCodeInvalidPath) {
		t.Fatalf("Persist() error = %v, want INVALID_PATH", err)
	}

	entries, err := os.ReadDir(s.Dir("serde", "1.0.0"))
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 0 {
		t.Errorf("directory not emptied, has %d entries", len(entries))
	}
	if s.IsCached("serde", "1.0.0", "") {
		t.Error("IsCached() = true after a failed persist")
	}
}

func TestPersistSkipsDuplicatePaths(t *testing.T) {
	s := New(t.TempDir())
	e := sampleEntry()
	e.Files = append(e.Files, e.Files[0])
	stored, err := s.Persist(e, 1024)
	if err != nil {
		t.Fatal(err)
	}
	if len(stored.Files) != 2 {
		t.Errorf("stored %d files, want 2", len(stored.Files))
	}
}

func TestIsCached(t *testing.T) {
	s := New(t.TempDir())
	if s.IsCached("serde", "1.0.217", "") {
		t.Fatal("IsCached() = true before persist")
	}
	if _, err := s.Persist(sampleEntry(), 1024); err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name string
		hash string
		want bool
	}{
		{"any hash", "", true},
		{"matching hash", "abc123", true},
		{"changed config", "def456", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := s.IsCached("serde", "1.0.217", tt.hash); got != tt.want {
				t.Errorf("IsCached() = %v, want %v", got, tt.want)
			}
		})
	}

	if err := os.Remove(filepath.Join(s.Dir("serde", "1.0.217"), MetaFile)); err != nil {
		t.Fatal(err)
	}
	if s.IsCached("serde", "1.0.217", "") {
		t.Error("IsCached() = true without meta marker")
	}
}

func TestIsCachedNoContent(t *testing.T) {
	s := New(t.TempDir())
	e := sampleEntry()
	e.Files = nil
	if _, err := s.Persist(e, 1024); err != nil {
		t.Fatal(err)
	}
	if s.IsCached("serde", "1.0.217", "") {
		t.Error("IsCached() = true with only a summary")
	}
}

func TestWriteIndex(t *testing.T) {
	s := New(t.TempDir())
	err := s.WriteIndex([]IndexEntry{
		{Name: "tokio", Version: "1.43.0", Ref: "master", IsFallback: true},
		{Name: "serde", Version: "1.0.217", Ref: "v1.0.217"},
	})
	if err != nil {
		t.Fatalf("WriteIndex() error: %v", err)
	}
	data, err := os.ReadFile(filepath.Join(s.Root, IndexFile))
	if err != nil {
		t.Fatal(err)
	}
	want := "# AI Vendor Docs Index\n\n" +
		"- [serde@1.0.217](serde@1.0.217/_SUMMARY.md) ref `v1.0.217`\n" +
		"- [tokio@1.43.0](tokio@1.43.0/_SUMMARY.md) ref `master` (fallback: default branch, may not match version)\n"
	if string(data) != want {
		t.Errorf("index =\n%s\nwant\n%s", data, want)
	}
}

func TestReadEntry(t *testing.T) {
	s := New(t.TempDir())
	if _, err := s.Persist(sampleEntry(), 1024); err != nil {
		t.Fatal(err)
	}
	got, err := s.ReadEntry("serde", "1.0.217")
	if err != nil {
		t.Fatal(err)
	}
	want := IndexEntry{Name: "serde", Version: "1.0.217", Ref: "v1.0.217"}
	if got != want {
		t.Errorf("ReadEntry() = %+v, want %+v", got, want)
	}
	if _, err := s.ReadEntry("serde", "9.9.9"); err == nil {
		t.Error("ReadEntry() on missing version succeeded")
	}
}

func TestPrune(t *testing.T) {
	root := t.TempDir()
	for _, dir := range []string{"serde@1.0.200", "serde@1.0.217", "rand@0.8.5", "notes"} {
		if err := os.MkdirAll(filepath.Join(root, dir), 0o755); err != nil {
			t.Fatal(err)
		}
	}

	removed, err := New(root).Prune(map[string]string{"serde": "1.0.217"})
	if err != nil {
		t.Fatalf("Prune() error: %v", err)
	}
	if !reflect.DeepEqual(removed, []string{"rand@0.8.5", "serde@1.0.200"}) {
		t.Errorf("removed = %v", removed)
	}
	for dir, exists := range map[string]bool{"serde@1.0.217": true, "notes": true, "serde@1.0.200": false} {
		_, err := os.Stat(filepath.Join(root, dir))
		if (err == nil) != exists {
			t.Errorf("%s exists = %v, want %v", dir, err == nil, exists)
		}
	}
}

func TestPruneMissingRoot(t *testing.T) {
	removed, err := New(filepath.Join(t.TempDir(), "nope")).Prune(nil)
	if err != nil || removed != nil {
		t.Errorf("Prune() = %v, %v", removed, err)
	}
}

func TestVersionsAndPackages(t *testing.T) {
	root := t.TempDir()
	for _, dir := range []string{"serde@1.0.200", "serde@1.0.217", "rand@0.8.5"} {
		if err := os.MkdirAll(filepath.Join(root, dir), 0o755); err != nil {
			t.Fatal(err)
		}
	}
	s := New(root)

	versions, err := s.Versions("serde")
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(versions, []string{"1.0.200", "1.0.217"}) {
		t.Errorf("Versions() = %v", versions)
	}

	pkgs, err := s.Packages()
	if err != nil {
		t.Fatal(err)
	}
	if len(pkgs) != 3 || pkgs[0] != (Package{Name: "rand", Version: "0.8.5"}) {
		t.Errorf("Packages() = %v", pkgs)
	}
}

func TestReadFileRejectsPaths(t *testing.T) {
	s := New(t.TempDir())
	for _, file := range []string{"", "../x.md", "a/b.md", ".."} {
		if _, err := s.ReadFile("serde", "1.0.0", file); !errors.Is(err, errors.ErrCodeInvalidPath) {
			t.Errorf("ReadFile(%q) error = %v", file, err)
		}
	}
}
